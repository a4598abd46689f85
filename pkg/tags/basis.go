// Package tags implements the predicate algebra used to select items:
// atomic bases, named tags and signed conjunctions of tags.
package tags

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/filerules/pkg/models"
)

// Kind identifies a Basis variant on the wire
type Kind string

const (
	KindType            Kind = "type"
	KindName            Kind = "name"
	KindExtension       Kind = "extension"
	KindSizeLessThan    Kind = "size_less_than"
	KindSizeGreaterThan Kind = "size_greater_than"
	KindChildCount      Kind = "child_count"
	KindAgeLessThan     Kind = "age_less_than"
	KindAgeGreaterThan  Kind = "age_greater_than"
	KindImage           Kind = "is_image"
	KindVideo           Kind = "is_video"
	KindAudio           Kind = "is_audio"
	KindDocument        Kind = "is_document"
	KindArchive         Kind = "is_archive"
	KindBook            Kind = "is_book"
)

// Basis is an atomic condition evaluated against an item snapshot.
// The set of implementations is closed; see the types in this file.
type Basis interface {
	// Is evaluates the condition. Size bases may fill the item's size slot.
	Is(item *models.Item) (bool, error)
	// Kind returns the variant tag
	Kind() Kind

	sealed()
}

// TypeIs matches items of one type
type TypeIs struct {
	Type models.ItemType
}

// NameIs matches items whose name equals Name exactly
type NameIs struct {
	Name string
}

// ExtensionIn matches files whose extension is one of Extensions (case-insensitive)
type ExtensionIn struct {
	Extensions []string
}

// SizeLessThan matches items smaller than Bytes
type SizeLessThan struct {
	Bytes int64
}

// SizeGreaterThan matches items larger than Bytes
type SizeGreaterThan struct {
	Bytes int64
}

// CountOp compares a child count against a number
type CountOp string

const (
	CountLess    CountOp = "<"
	CountEqual   CountOp = "="
	CountGreater CountOp = ">"
)

// ChildCount matches directories whose number of direct children satisfies Op N
type ChildCount struct {
	Op CountOp
	N  int
}

// AgeLessThan matches items modified less than Age ago
type AgeLessThan struct {
	Age time.Duration
}

// AgeGreaterThan matches items modified more than Age ago
type AgeGreaterThan struct {
	Age time.Duration
}

// Content matches files whose sniffed content belongs to a category.
// Kind must be one of the is_* kinds.
type Content struct {
	Category Kind
}

func (TypeIs) sealed()          {}
func (NameIs) sealed()          {}
func (ExtensionIn) sealed()     {}
func (SizeLessThan) sealed()    {}
func (SizeGreaterThan) sealed() {}
func (ChildCount) sealed()      {}
func (AgeLessThan) sealed()     {}
func (AgeGreaterThan) sealed()  {}
func (Content) sealed()         {}

func (TypeIs) Kind() Kind          { return KindType }
func (NameIs) Kind() Kind          { return KindName }
func (ExtensionIn) Kind() Kind     { return KindExtension }
func (SizeLessThan) Kind() Kind    { return KindSizeLessThan }
func (SizeGreaterThan) Kind() Kind { return KindSizeGreaterThan }
func (ChildCount) Kind() Kind      { return KindChildCount }
func (AgeLessThan) Kind() Kind     { return KindAgeLessThan }
func (AgeGreaterThan) Kind() Kind  { return KindAgeGreaterThan }
func (c Content) Kind() Kind       { return c.Category }

func (b TypeIs) Is(item *models.Item) (bool, error) {
	return item.Type == b.Type, nil
}

func (b NameIs) Is(item *models.Item) (bool, error) {
	return item.Name() != "" && item.Name() == b.Name, nil
}

func (b ExtensionIn) Is(item *models.Item) (bool, error) {
	if item.Type != models.TypeFile {
		return false, nil
	}
	ext := item.Ext()
	if ext == "" {
		return false, nil
	}
	for _, candidate := range b.Extensions {
		if strings.EqualFold(strings.TrimPrefix(candidate, "."), ext) {
			return true, nil
		}
	}
	return false, nil
}

func (b SizeLessThan) Is(item *models.Item) (bool, error) {
	size, err := item.EnsureSize()
	if err != nil {
		return false, err
	}
	return size < b.Bytes, nil
}

func (b SizeGreaterThan) Is(item *models.Item) (bool, error) {
	size, err := item.EnsureSize()
	if err != nil {
		return false, err
	}
	return size > b.Bytes, nil
}

func (b ChildCount) Is(item *models.Item) (bool, error) {
	if item.Type != models.TypeDir {
		return false, nil
	}
	entries, err := os.ReadDir(item.Path)
	if err != nil {
		return false, fmt.Errorf("failed to read directory %s: %w", item.Path, err)
	}
	n := len(entries)
	switch b.Op {
	case CountLess:
		return n < b.N, nil
	case CountEqual:
		return n == b.N, nil
	case CountGreater:
		return n > b.N, nil
	default:
		return false, fmt.Errorf("unknown child count operator %q", b.Op)
	}
}

func (b AgeLessThan) Is(item *models.Item) (bool, error) {
	age, err := currentAge(item)
	if err != nil {
		return false, err
	}
	return age < b.Age, nil
}

func (b AgeGreaterThan) Is(item *models.Item) (bool, error) {
	age, err := currentAge(item)
	if err != nil {
		return false, err
	}
	return age > b.Age, nil
}

func (b Content) Is(item *models.Item) (bool, error) {
	if item.Type != models.TypeFile {
		return false, nil
	}
	return sniff(item.Path, b.Category)
}

// now is replaced in tests
var now = time.Now

// currentAge re-reads the modification time; the snapshot may be stale
func currentAge(item *models.Item) (time.Duration, error) {
	info, err := os.Lstat(item.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", item.Path, err)
	}
	return now().Sub(info.ModTime()), nil
}

// Convenience constructors for the content categories.

func IsImage() Basis    { return Content{Category: KindImage} }
func IsVideo() Basis    { return Content{Category: KindVideo} }
func IsAudio() Basis    { return Content{Category: KindAudio} }
func IsDocument() Basis { return Content{Category: KindDocument} }
func IsArchive() Basis  { return Content{Category: KindArchive} }
func IsBook() Basis     { return Content{Category: KindBook} }

func isContentKind(k Kind) bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindDocument, KindArchive, KindBook:
		return true
	}
	return false
}
