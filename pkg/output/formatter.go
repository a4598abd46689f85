// Package output renders pass reports, the activity log, rules and tags for
// the terminal or for scripts.
package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/filerules/pkg/rules"
	"github.com/sdejongh/filerules/pkg/scheduler"
	"github.com/sdejongh/filerules/pkg/tags"
)

// Formatter defines the interface for output formatting
// Implementations include human-readable and JSON formatters
type Formatter interface {
	// Pass displays the report of a pass
	Pass(report scheduler.PassReport) error

	// Log displays activity log entries in the given order
	Log(entries []rules.LogEntry) error

	// Rules displays the rules of every watched directory
	Rules(m rules.RuleMap) error

	// Tags displays a tag catalog
	Tags(catalog []tags.Tag) error

	// Error reports an error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter for format ("human" or "json") writing to w
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "human", "":
		return NewHumanFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
