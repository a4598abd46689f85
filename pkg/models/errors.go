package models

import "errors"

var (
	// ErrNotDirectory is returned when an action target is not a directory
	ErrNotDirectory = errors.New("not a directory")
	// ErrNoFileName is returned when no file name can be derived from a source path
	ErrNoFileName = errors.New("path has no file name")
	// ErrUnknownFormat is returned when file content matches no known format
	ErrUnknownFormat = errors.New("unknown file format")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
