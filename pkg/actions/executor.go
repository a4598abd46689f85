// Package actions performs copy, move and trash operations on batches of
// filesystem entries and reports one outcome per entry.
package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sdejongh/filerules/pkg/logging"
	"github.com/sdejongh/filerules/pkg/models"
	"github.com/sdejongh/filerules/pkg/ratelimit"
)

// Trasher disposes of a single entry
type Trasher interface {
	Trash(path string) error
}

// Executor runs file actions. A failure on one item never stops the batch.
type Executor struct {
	trasher Trasher
	logger  logging.Logger
	limiter *ratelimit.Limiter
}

// Option configures an Executor
type Option func(*Executor)

// WithLimiter throttles the bytes copied by every copy, including moves
// that fall back to copying across filesystems. A nil limiter means no limit.
func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(e *Executor) {
		e.limiter = limiter
	}
}

// NewExecutor creates an executor that disposes of entries with trasher
func NewExecutor(trasher Trasher, logger logging.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	e := &Executor{trasher: trasher, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Copy copies every source into the target directory.
// Outcomes are returned in input order.
func (e *Executor) Copy(ctx context.Context, sources []string, target string, overwrite bool) []models.ItemOutcome {
	return e.place(ctx, "copy", sources, target, overwrite, func(src, dst string) error {
		return e.copier(ctx).copyEntry(src, dst)
	})
}

// Move moves every source into the target directory.
// Outcomes are returned in input order.
func (e *Executor) Move(ctx context.Context, sources []string, target string, overwrite bool) []models.ItemOutcome {
	return e.place(ctx, "move", sources, target, overwrite, func(src, dst string) error {
		return e.copier(ctx).moveEntry(src, dst)
	})
}

// Trash disposes of every source. Entries that no longer exist are skipped.
func (e *Executor) Trash(ctx context.Context, sources []string) []models.ItemOutcome {
	outcomes := make([]models.ItemOutcome, 0, len(sources))
	for _, src := range sources {
		if _, err := os.Lstat(src); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				e.logger.Debug(ctx, "Trash source already gone", logging.Fields{"path": src})
				outcomes = append(outcomes, models.Skipped(src))
			} else {
				outcomes = append(outcomes, e.failed(ctx, "trash", src, fmt.Errorf("failed to stat source: %w", err)))
			}
			continue
		}

		if err := e.trasher.Trash(src); err != nil {
			outcomes = append(outcomes, e.failed(ctx, "trash", src, err))
			continue
		}
		e.logger.Debug(ctx, "Trashed", logging.Fields{"path": src})
		outcomes = append(outcomes, models.OK(src))
	}
	return outcomes
}

type placeFunc func(src, dst string) error

func (e *Executor) place(ctx context.Context, action string, sources []string, target string, overwrite bool, fn placeFunc) []models.ItemOutcome {
	outcomes := make([]models.ItemOutcome, 0, len(sources))
	for _, src := range sources {
		outcomes = append(outcomes, e.placeOne(ctx, action, src, target, overwrite, fn))
	}
	return outcomes
}

func (e *Executor) placeOne(ctx context.Context, action, src, target string, overwrite bool, fn placeFunc) models.ItemOutcome {
	name := models.FileName(src)
	if name == "" {
		return e.failed(ctx, action, src, models.ErrNoFileName)
	}

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return e.failed(ctx, action, src, fmt.Errorf("%w: %s", models.ErrNotDirectory, target))
	}

	dst := filepath.Join(target, name)
	if abs, err := filepath.Abs(dst); err == nil {
		dst = abs
	}
	if sameFile(src, dst) {
		return models.Skipped(src)
	}

	if _, err := os.Lstat(dst); err == nil {
		if !overwrite {
			e.logger.Debug(ctx, "Target exists, skipping", logging.Fields{"action": action, "path": src, "target": dst})
			return models.Skipped(src)
		}
		if absSrc, err := filepath.Abs(src); err == nil && within(absSrc, dst) {
			return e.failed(ctx, action, src, fmt.Errorf("cannot replace %s: it contains the source", dst))
		}
		if err := os.RemoveAll(dst); err != nil {
			return e.failed(ctx, action, src, fmt.Errorf("failed to replace %s: %w", dst, err))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return e.failed(ctx, action, src, fmt.Errorf("failed to stat target: %w", err))
	}

	if err := fn(src, dst); err != nil {
		return e.failed(ctx, action, src, err)
	}
	e.logger.Debug(ctx, "Placed", logging.Fields{"action": action, "path": src, "target": dst})
	return models.OK(src)
}

func (e *Executor) copier(ctx context.Context) copier {
	return copier{ctx: ctx, limiter: e.limiter}
}

func (e *Executor) failed(ctx context.Context, action, src string, err error) models.ItemOutcome {
	e.logger.Warn(ctx, "File action failed", logging.Fields{"action": action, "path": src, "error": err.Error()})
	return models.Failed(src, err)
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// within reports whether path is dir or lies below it
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// rename is replaced in tests to simulate moves across filesystems
var rename = os.Rename

// MoveEntry renames src to dst, which must not exist. When they lie on
// different filesystems the entry is copied and the source removed.
func MoveEntry(ctx context.Context, src, dst string) error {
	return copier{ctx: ctx}.moveEntry(src, dst)
}

func (c copier) moveEntry(src, dst string) error {
	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}

	// Different filesystems: copy then remove the source
	if err := c.copyEntry(src, dst); err != nil {
		return err
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("failed to remove source after copy: %w", err)
	}
	return nil
}
