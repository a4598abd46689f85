package models

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ItemType is the kind of filesystem entry an Item refers to
type ItemType string

const (
	// TypeFile is a regular file
	TypeFile ItemType = "file"
	// TypeDir is a directory
	TypeDir ItemType = "dir"
	// TypeSymlink is a symbolic link (never followed)
	TypeSymlink ItemType = "symlink"
)

// Valid reports whether t is one of the known item types
func (t ItemType) Valid() bool {
	switch t {
	case TypeFile, TypeDir, TypeSymlink:
		return true
	}
	return false
}

// ItemTypeFromMode maps file mode bits to an ItemType.
// Anything that is neither a directory nor a symlink (devices, sockets, pipes)
// is treated as a file.
func ItemTypeFromMode(mode fs.FileMode) ItemType {
	switch {
	case mode.IsDir():
		return TypeDir
	case mode&fs.ModeSymlink != 0:
		return TypeSymlink
	default:
		return TypeFile
	}
}

// Item is a point-in-time snapshot of one filesystem entry.
//
// The type is fixed when the snapshot is taken. The size is computed lazily
// and kept in an explicit cache slot; see EnsureSize and WithSize.
type Item struct {
	// Path is the full path of the entry
	Path string
	// Type is taken from Lstat at creation time
	Type ItemType
	// ModTime is the modification time at creation time
	ModTime time.Time

	size *int64
}

// NewItem takes a snapshot of the entry at path without following symlinks
func NewItem(path string) (Item, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Item{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return Item{
		Path:    path,
		Type:    ItemTypeFromMode(info.Mode()),
		ModTime: info.ModTime(),
	}, nil
}

// Name returns the final element of the path, or "" when there is none
func (it Item) Name() string {
	return FileName(it.Path)
}

// Ext returns the extension of the item name without the leading dot.
// Names without a dot, or whose only dot is the leading one, have no extension.
func (it Item) Ext() string {
	name := it.Name()
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

// CachedSize returns the size slot and whether it has been filled
func (it Item) CachedSize() (int64, bool) {
	if it.size == nil {
		return 0, false
	}
	return *it.size, true
}

// EnsureSize returns the item size, computing and caching it on first use.
// Directory sizes are the recursive sum of their contents.
func (it *Item) EnsureSize() (int64, error) {
	if it.size != nil {
		return *it.size, nil
	}
	size, err := diskUsage(it.Path, it.Type)
	if err != nil {
		return 0, err
	}
	it.size = &size
	return size, nil
}

// WithSize returns a copy of the item with the size slot filled
func (it Item) WithSize() (Item, error) {
	fresh := it
	if it.size != nil {
		size := *it.size
		fresh.size = &size
		return fresh, nil
	}
	if _, err := fresh.EnsureSize(); err != nil {
		return Item{}, err
	}
	return fresh, nil
}

func diskUsage(path string, tp ItemType) (int64, error) {
	if tp != TypeDir {
		info, err := os.Lstat(path)
		if err != nil {
			return 0, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		return info.Size(), nil
	}

	var total int64
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compute size of %s: %w", path, err)
	}
	return total, nil
}

// FileName returns the last element of path, or "" for roots and
// paths ending in "." or "..".
func FileName(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(filepath.Clean(path))
	switch base {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	if filepath.VolumeName(path)+string(filepath.Separator) == filepath.Clean(path) {
		return ""
	}
	return base
}
