package actions

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sdejongh/filerules/pkg/ratelimit"
)

// copier copies entries, charging file contents against an optional limiter
type copier struct {
	ctx     context.Context
	limiter *ratelimit.Limiter
}

// copyEntry copies a file, directory tree or symlink to dst, which must not
// exist. Modes and modification times are preserved. On failure nothing
// created by the copy is left at dst.
func (c copier) copyEntry(src, dst string) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}

	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return c.copySymlink(src, dst)
	case info.IsDir():
		absSrc, _ := filepath.Abs(src)
		absDst, _ := filepath.Abs(dst)
		if within(absDst, absSrc) {
			return fmt.Errorf("cannot copy %s into itself", src)
		}
		return c.copyDir(src, dst, info)
	default:
		return c.copyFile(src, dst, info)
	}
}

func (c copier) copySymlink(src, dst string) error {
	link, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("failed to read link: %w", err)
	}
	if err := os.Symlink(link, dst); err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

func (c copier) copyDir(src, dst string, info os.FileInfo) (err error) {
	if err := os.Mkdir(dst, info.Mode().Perm()|0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	// dst was created here, so a partial tree is ours to remove
	defer func() {
		if err != nil {
			os.RemoveAll(dst)
		}
	}()

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}
	for _, entry := range entries {
		if err := c.copyEntry(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}

	// Restore the exact mode and times once the contents are in place
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time: %w", err)
	}
	return nil
}

func (c copier) copyFile(src, dst string, info os.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(dst)
		}
	}()

	written, err := io.Copy(out, ratelimit.NewReader(c.ctx, in, c.limiter))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if written != info.Size() {
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", info.Size(), written)
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time: %w", err)
	}
	return nil
}
