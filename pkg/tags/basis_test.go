package tags

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sdejongh/filerules/pkg/models"
)

// newTestTree creates:
//
//	a.txt (5 bytes), photo.JPG (0 bytes), .bashrc, empty/, full/{x,y}, link -> a.txt
func newTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"a.txt":     "hello",
		"photo.JPG": "",
		".bashrc":   "alias",
		"full/x":    "1",
		"full/y":    "22",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "empty"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "a.txt"), filepath.Join(dir, "link")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	return dir
}

func mustItem(t *testing.T, path string) *models.Item {
	t.Helper()
	item, err := models.NewItem(path)
	if err != nil {
		t.Fatalf("NewItem(%s) error = %v", path, err)
	}
	return &item
}

func TestBasisIs(t *testing.T) {
	dir := newTestTree(t)

	tests := []struct {
		name  string
		basis Basis
		entry string
		want  bool
	}{
		{"type file", TypeIs{Type: models.TypeFile}, "a.txt", true},
		{"type file on dir", TypeIs{Type: models.TypeFile}, "empty", false},
		{"type dir", TypeIs{Type: models.TypeDir}, "full", true},
		{"type symlink not followed", TypeIs{Type: models.TypeSymlink}, "link", true},
		{"name exact", NameIs{Name: "a.txt"}, "a.txt", true},
		{"name mismatch", NameIs{Name: "a"}, "a.txt", false},
		{"extension", ExtensionIn{Extensions: []string{"md", "txt"}}, "a.txt", true},
		{"extension case insensitive", ExtensionIn{Extensions: []string{"jpg"}}, "photo.JPG", true},
		{"extension with dot", ExtensionIn{Extensions: []string{".txt"}}, "a.txt", true},
		{"leading dot is not an extension", ExtensionIn{Extensions: []string{"bashrc"}}, ".bashrc", false},
		{"extension only for files", ExtensionIn{Extensions: []string{"txt"}}, "link", false},
		{"size less than", SizeLessThan{Bytes: 6}, "a.txt", true},
		{"size less than boundary", SizeLessThan{Bytes: 5}, "a.txt", false},
		{"size greater than", SizeGreaterThan{Bytes: 4}, "a.txt", true},
		{"dir size is recursive", SizeGreaterThan{Bytes: 2}, "full", true},
		{"dir size upper bound", SizeLessThan{Bytes: 4}, "full", true},
		{"empty dir", ChildCount{Op: CountEqual, N: 0}, "empty", true},
		{"non-empty dir", ChildCount{Op: CountEqual, N: 0}, "full", false},
		{"child count greater", ChildCount{Op: CountGreater, N: 1}, "full", true},
		{"child count less", ChildCount{Op: CountLess, N: 2}, "full", false},
		{"child count only for dirs", ChildCount{Op: CountEqual, N: 0}, "a.txt", false},
		{"content only for files", IsImage(), "full", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := mustItem(t, filepath.Join(dir, tt.entry))
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

func TestSizeBasisFillsCache(t *testing.T) {
	dir := newTestTree(t)
	item := mustItem(t, filepath.Join(dir, "a.txt"))

	if _, ok := item.CachedSize(); ok {
		t.Fatal("size should not be cached before evaluation")
	}
	if _, err := (SizeLessThan{Bytes: 10}).Is(item); err != nil {
		t.Fatalf("Is() error = %v", err)
	}
	size, ok := item.CachedSize()
	if !ok || size != 5 {
		t.Errorf("CachedSize() = %d, %v, want 5, true", size, ok)
	}
}

func TestAgeBasis(t *testing.T) {
	dir := newTestTree(t)
	path := filepath.Join(dir, "a.txt")

	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("failed to set times: %v", err)
	}
	item := mustItem(t, path)

	older, err := AgeGreaterThan{Age: 24 * time.Hour}.Is(item)
	if err != nil {
		t.Fatalf("Is() error = %v", err)
	}
	if !older {
		t.Error("file modified 48h ago should be older than 24h")
	}

	newer, err := AgeLessThan{Age: 24 * time.Hour}.Is(item)
	if err != nil {
		t.Fatalf("Is() error = %v", err)
	}
	if newer {
		t.Error("file modified 48h ago should not be newer than 24h")
	}
}

func TestAgeBasis_UsesCurrentModTime(t *testing.T) {
	dir := newTestTree(t)
	path := filepath.Join(dir, "a.txt")
	item := mustItem(t, path)

	// The snapshot was taken with a fresh mtime; age-out the file afterwards
	old := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("failed to set times: %v", err)
	}

	got, err := AgeGreaterThan{Age: 48 * time.Hour}.Is(item)
	if err != nil {
		t.Fatalf("Is() error = %v", err)
	}
	if !got {
		t.Error("age should be computed from the current modification time")
	}
}

func TestBasisIs_MissingEntry(t *testing.T) {
	dir := newTestTree(t)
	item := mustItem(t, filepath.Join(dir, "empty"))
	if err := os.Remove(item.Path); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}

	if _, err := (ChildCount{Op: CountEqual, N: 0}).Is(item); err == nil {
		t.Error("ChildCount on a vanished directory should fail")
	}
	if _, err := (AgeLessThan{Age: time.Hour}).Is(item); err == nil {
		t.Error("AgeLessThan on a vanished entry should fail")
	}
}

func TestBasisKind(t *testing.T) {
	tests := []struct {
		basis Basis
		want  Kind
	}{
		{TypeIs{}, KindType},
		{NameIs{}, KindName},
		{ExtensionIn{}, KindExtension},
		{SizeLessThan{}, KindSizeLessThan},
		{SizeGreaterThan{}, KindSizeGreaterThan},
		{ChildCount{}, KindChildCount},
		{AgeLessThan{}, KindAgeLessThan},
		{AgeGreaterThan{}, KindAgeGreaterThan},
		{IsImage(), KindImage},
		{IsBook(), KindBook},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			if got := tt.basis.Kind(); got != tt.want {
				t.Errorf("Kind() = %s, want %s", got, tt.want)
			}
		})
	}
}
