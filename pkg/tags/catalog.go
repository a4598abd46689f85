package tags

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/filerules/pkg/models"
)

const day = 24 * time.Hour

// Builtin returns the catalog of predefined tags, placeholder first
func Builtin() []Tag {
	tags := []Tag{
		Placeholder(),
		{Name: "Folder", Basis: TypeIs{Type: models.TypeDir},
			Description: "An entry that contains other entries."},
		{Name: "File", Basis: TypeIs{Type: models.TypeFile},
			Description: "An entry that contains data, in plain text or any encoded format."},
		{Name: "Symlink", Basis: TypeIs{Type: models.TypeSymlink},
			Description: "A symbolic link to another entry."},
		{Name: "Empty", Basis: ChildCount{Op: CountEqual, N: 0},
			Description: "An empty folder."},
		{Name: "Image", Basis: IsImage(), Description: "A file whose content is an image."},
		{Name: "Video", Basis: IsVideo(), Description: "A file whose content is a video."},
		{Name: "Audio", Basis: IsAudio(), Description: "A file whose content is audio."},
		{Name: "Document", Basis: IsDocument(),
			Description: "A PDF, RTF, office or spreadsheet document."},
		{Name: "Archive", Basis: IsArchive(),
			Description: "A compressed or packed archive such as zip or tar."},
		{Name: "Book", Basis: IsBook(), Description: "An e-book such as epub or mobi."},
	}

	for _, size := range []int64{humanize.MByte, 100 * humanize.MByte, humanize.GByte} {
		tags = append(tags,
			Tag{
				Name:        "Smaller than " + humanize.Bytes(uint64(size)),
				Description: fmt.Sprintf("An entry whose total size is below %s.", humanize.Bytes(uint64(size))),
				Basis:       SizeLessThan{Bytes: size},
			},
			Tag{
				Name:        "Larger than " + humanize.Bytes(uint64(size)),
				Description: fmt.Sprintf("An entry whose total size is above %s.", humanize.Bytes(uint64(size))),
				Basis:       SizeGreaterThan{Bytes: size},
			},
		)
	}

	for _, days := range []int{1, 7, 30, 365} {
		age := time.Duration(days) * day
		tags = append(tags,
			Tag{
				Name:        fmt.Sprintf("Newer than %s", plural(days, "day")),
				Description: fmt.Sprintf("An entry modified within the last %s.", plural(days, "day")),
				Basis:       AgeLessThan{Age: age},
			},
			Tag{
				Name:        fmt.Sprintf("Older than %s", plural(days, "day")),
				Description: fmt.Sprintf("An entry last modified more than %s ago.", plural(days, "day")),
				Basis:       AgeGreaterThan{Age: age},
			},
		)
	}

	return tags
}

// Lookup finds a builtin tag by name, ignoring case
func Lookup(name string) (Tag, bool) {
	for _, tag := range Builtin() {
		if strings.EqualFold(tag.Name, name) {
			return tag, true
		}
	}
	return Tag{}, false
}

// Names returns the builtin tag names in alphabetical order
func Names() []string {
	builtin := Builtin()
	names := make([]string, 0, len(builtin))
	for _, tag := range builtin {
		names = append(names, tag.Name)
	}
	sort.Strings(names)
	return names
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
