package tags

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdejongh/filerules/pkg/models"
)

var pngHeader = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde,
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func writeZip(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create zip: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("inside.txt")
	if err != nil {
		t.Fatalf("failed to add zip entry: %v", err)
	}
	if _, err := w.Write([]byte("content")); err != nil {
		t.Fatalf("failed to write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return path
}

func TestContentBasis(t *testing.T) {
	dir := t.TempDir()

	png := writeFile(t, dir, "picture.bin", pngHeader)
	pdf := writeFile(t, dir, "paper", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"))
	text := writeFile(t, dir, "notes", []byte("plain words only\n"))
	source := writeFile(t, dir, "main.go", []byte("package main\n\nfunc main() {}\n"))
	empty := writeFile(t, dir, "empty", nil)
	archive := writeZip(t, dir, "bundle")

	tests := []struct {
		name  string
		path  string
		basis Basis
		want  bool
	}{
		{"png is image", png, IsImage(), true},
		{"png is not video", png, IsVideo(), false},
		{"png is not document", png, IsDocument(), false},
		{"pdf is document", pdf, IsDocument(), true},
		{"pdf is not image", pdf, IsImage(), false},
		{"plain text is not document", text, IsDocument(), false},
		{"source file is not document", source, IsDocument(), false},
		{"empty file is not document", empty, IsDocument(), false},
		{"text is not archive", text, IsArchive(), false},
		{"zip is archive", archive, IsArchive(), true},
		{"zip is not book", archive, IsBook(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := mustItem(t, tt.path)
			got, err := tt.basis.Is(item)
			if err != nil {
				t.Fatalf("Is() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentBasis_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blob", []byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff, 0x00, 0x7f, 0x10, 0x00})

	_, err := IsImage().Is(mustItem(t, path))
	if err == nil {
		t.Fatal("Is() on unrecognized content should fail")
	}
	if !errors.Is(err, models.ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", err)
	}
}

func TestContentBasis_InvalidCategory(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes", []byte("text"))

	if _, err := (Content{Category: KindName}).Is(mustItem(t, path)); err == nil {
		t.Error("Is() with a non-content category should fail")
	}
}
