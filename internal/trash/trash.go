// Package trash moves entries into a freedesktop.org trash can so they can
// be restored from a file manager.
package trash

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sdejongh/filerules/internal/platform"
	"github.com/sdejongh/filerules/pkg/actions"
)

const infoSuffix = ".trashinfo"

// Can is a trash directory holding files/ and info/ subdirectories
type Can struct {
	dir  string
	now  func() time.Time
	move func(ctx context.Context, src, dst string) error
}

// New returns a trash can rooted at dir
func New(dir string) *Can {
	return &Can{dir: dir, now: time.Now, move: actions.MoveEntry}
}

// Default returns the user's home trash ($XDG_DATA_HOME/Trash)
func Default() (*Can, error) {
	dataHome, err := platform.DataHome()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trash directory: %w", err)
	}
	return New(filepath.Join(dataHome, "Trash")), nil
}

// Dir returns the root directory of the trash can
func (c *Can) Dir() string {
	return c.dir
}

// Trash moves path into the can. The info file is claimed first with
// O_EXCL so concurrent trashing of same-named entries never collides.
func (c *Can) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := os.Lstat(abs); err != nil {
		return fmt.Errorf("failed to stat %s: %w", abs, err)
	}

	filesDir := filepath.Join(c.dir, "files")
	infoDir := filepath.Join(c.dir, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create trash directory: %w", err)
		}
	}

	name, infoPath, err := c.claim(infoDir, filepath.Base(abs), abs)
	if err != nil {
		return err
	}

	// Across filesystems the move copies and then removes the source
	trashed := filepath.Join(filesDir, name)
	if err := c.move(context.Background(), abs, trashed); err != nil {
		// Keep the info file when the entry made it into the can
		if _, statErr := os.Lstat(trashed); statErr != nil {
			os.Remove(infoPath)
		}
		return fmt.Errorf("failed to move %s to trash: %w", abs, err)
	}
	return nil
}

// claim reserves a unique name in the can by creating its info file
func (c *Can) claim(infoDir, base, original string) (string, string, error) {
	content := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapePath(original), c.now().Format("2006-01-02T15:04:05"))

	for i := 1; ; i++ {
		name := base
		if i > 1 {
			name = base + "." + strconv.Itoa(i)
		}
		infoPath := filepath.Join(infoDir, name+infoSuffix)

		f, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("failed to create trash info: %w", err)
		}

		_, werr := f.WriteString(content)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			os.Remove(infoPath)
			return "", "", fmt.Errorf("failed to write trash info: %w", errors.Join(werr, cerr))
		}
		return name, infoPath, nil
	}
}

func escapePath(p string) string {
	return (&url.URL{Path: filepath.ToSlash(p)}).EscapedPath()
}

// Remover deletes entries permanently
type Remover struct{}

// Trash removes path and everything below it
func (Remover) Trash(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}
