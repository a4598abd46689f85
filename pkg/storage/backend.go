package storage

import (
	"context"

	"github.com/sdejongh/filerules/pkg/models"
)

// Lister enumerates the immediate entries of a directory.
// Implementations include the local filesystem; rules only ever see this
// interface so tests can substitute their own.
type Lister interface {
	// List returns one snapshot per entry directly inside dir.
	// Failure to read dir itself is an error; entries that disappear while
	// listing are dropped.
	List(ctx context.Context, dir string) ([]models.Item, error)
}
