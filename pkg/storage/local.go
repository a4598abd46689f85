package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/sdejongh/filerules/pkg/models"
)

// ErrInvalidPattern is returned when an ignore pattern cannot be compiled
var ErrInvalidPattern = errors.New("invalid ignore pattern")

// Local lists directories on the local filesystem
type Local struct {
	ignore []glob.Glob
}

// NewLocal creates a local lister that never returns entries whose name
// matches one of the ignore patterns
func NewLocal(ignore []string) (*Local, error) {
	matchers, err := compileGlobs(ignore)
	if err != nil {
		return nil, err
	}
	return &Local{ignore: matchers}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
		matchers = append(matchers, matcher)
	}

	return matchers, nil
}

// List returns the entries directly inside dir in name order
func (l *Local) List(ctx context.Context, dir string) ([]models.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	items := make([]models.Item, 0, len(entries))
	for _, entry := range entries {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if l.ignored(entry.Name()) {
			continue
		}

		item, err := models.NewItem(filepath.Join(dir, entry.Name()))
		if err != nil {
			// Removed between ReadDir and Lstat
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// ignored reports whether name matches an ignore pattern
func (l *Local) ignored(name string) bool {
	for _, matcher := range l.ignore {
		if matcher.Match(name) {
			return true
		}
	}
	return false
}
