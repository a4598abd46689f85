package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdejongh/filerules/pkg/models"
)

func createTree(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(name), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	return dir
}

func names(items []models.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name()
	}
	return out
}

func TestLocalList(t *testing.T) {
	dir := createTree(t, "b.txt", "a.txt", "sub/nested.txt")
	local, err := NewLocal(nil)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	items, err := local.List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	got := names(items)
	want := []string{"a.txt", "b.txt", "sub"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if items[2].Type != models.TypeDir {
		t.Errorf("sub Type = %s, want dir", items[2].Type)
	}
	if items[0].Path != filepath.Join(dir, "a.txt") {
		t.Errorf("Path = %s, want full path", items[0].Path)
	}
}

func TestLocalList_Ignore(t *testing.T) {
	dir := createTree(t, "keep.txt", ".DS_Store", "movie.mkv.part", ".~lock.report.odt#")
	local, err := NewLocal([]string{".DS_Store", "*.part", ".~lock.*", ""})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	items, err := local.List(context.Background(), dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := names(items); len(got) != 1 || got[0] != "keep.txt" {
		t.Errorf("List() = %v, want [keep.txt]", got)
	}
}

func TestNewLocal_InvalidPattern(t *testing.T) {
	_, err := NewLocal([]string{"[unclosed"})
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("NewLocal() error = %v, want ErrInvalidPattern", err)
	}
}

func TestLocalList_Errors(t *testing.T) {
	local, _ := NewLocal(nil)

	t.Run("MissingDirectory", func(t *testing.T) {
		if _, err := local.List(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("List() should fail for a missing directory")
		}
	})

	t.Run("NotADirectory", func(t *testing.T) {
		dir := createTree(t, "file")
		if _, err := local.List(context.Background(), filepath.Join(dir, "file")); err == nil {
			t.Error("List() should fail for a file")
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		dir := createTree(t, "a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := local.List(ctx, dir); !errors.Is(err, context.Canceled) {
			t.Errorf("List() error = %v, want context.Canceled", err)
		}
	})
}
