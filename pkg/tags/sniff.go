package tags

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sdejongh/filerules/pkg/models"
)

// Content categories that are not a whole MIME top-level type. Plain text is
// not a document: source files and empty files sniff as text/plain too.
var (
	documentTypes = []string{
		"application/pdf",
		"application/rtf",
		"text/rtf",
		"application/msword",
		"application/vnd.ms-excel",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.text",
		"application/vnd.oasis.opendocument.spreadsheet",
		"application/vnd.oasis.opendocument.presentation",
		"text/csv",
		"text/tab-separated-values",
	}

	archiveTypes = []string{
		"application/zip",
		"application/x-tar",
		"application/gzip",
		"application/x-bzip2",
		"application/x-xz",
		"application/x-7z-compressed",
		"application/x-rar-compressed",
		"application/vnd.rar",
		"application/zstd",
		"application/x-lzip",
		"application/x-archive",
	}

	bookTypes = []string{
		"application/epub+zip",
		"application/x-mobipocket-ebook",
		"image/vnd.djvu",
		"application/x-fictionbook+xml",
	}
)

// sniff detects the content type of the file at path and checks it
// against a content category. Unrecognized content is ErrUnknownFormat.
func sniff(path string, category Kind) (bool, error) {
	if !isContentKind(category) {
		return false, fmt.Errorf("unknown content category %q", category)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to detect content of %s: %w", path, err)
	}
	if mt.Is("application/octet-stream") {
		return false, fmt.Errorf("%s: %w", path, models.ErrUnknownFormat)
	}

	switch category {
	case KindImage:
		// djvu reports as image/ but is a book
		return hasTopLevel(mt, "image/") && !matchesExact(mt, bookTypes), nil
	case KindVideo:
		return hasTopLevel(mt, "video/"), nil
	case KindAudio:
		return hasTopLevel(mt, "audio/"), nil
	case KindDocument:
		return matchesExact(mt, documentTypes), nil
	case KindArchive:
		// epub and office files are zip containers; only the detected type counts
		return matchesExact(mt, archiveTypes), nil
	case KindBook:
		return matchesExact(mt, bookTypes), nil
	}
	return false, nil
}

func hasTopLevel(mt *mimetype.MIME, prefix string) bool {
	return strings.HasPrefix(mt.String(), prefix)
}

func matchesExact(mt *mimetype.MIME, types []string) bool {
	for _, t := range types {
		if mt.Is(t) {
			return true
		}
	}
	return false
}
