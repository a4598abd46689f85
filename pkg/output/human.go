package output

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/filerules/pkg/rules"
	"github.com/sdejongh/filerules/pkg/scheduler"
	"github.com/sdejongh/filerules/pkg/tags"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer io.Writer
	now    func() time.Time
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter(w io.Writer) *HumanFormatter {
	if w == nil {
		w = io.Discard
	}
	return &HumanFormatter{writer: w, now: time.Now}
}

// Pass displays a pass summary followed by its problems
func (f *HumanFormatter) Pass(report scheduler.PassReport) error {
	w := f.writer
	fmt.Fprintf(w, "Pass completed in %s\n", report.Finished.Sub(report.Started).Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Acted on:   %s\n", plural(len(report.Entries), "item"))
	fmt.Fprintf(w, "  Skipped:    %s\n", plural(report.Skipped, "item"))
	fmt.Fprintf(w, "  Failed:     %s\n", plural(len(report.Failures), "item"))
	fmt.Fprintf(w, "  Excluded:   %s\n", plural(len(report.Excluded), "item"))

	if len(report.Entries) > 0 {
		fmt.Fprintf(w, "\nActions:\n")
		for _, e := range report.Entries {
			fmt.Fprintf(w, "  %s\n", describeEntry(e))
		}
	}

	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures:\n")
		for _, fail := range report.Failures {
			fmt.Fprintf(w, "  %s %s (rule %q): %v\n", fail.Action, fail.Path, fail.Rule, fail.Err)
		}
	}

	if len(report.Excluded) > 0 {
		fmt.Fprintf(w, "\nExcluded:\n")
		for _, ex := range report.Excluded {
			fmt.Fprintf(w, "  %s: %v\n", ex.Path, ex.Err)
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, de := range report.Errors {
			fmt.Fprintf(w, "  %s (rule %q): %v\n", de.Directory, de.Rule, de.Err)
		}
	}

	return nil
}

// Log displays one line per entry with a relative timestamp
func (f *HumanFormatter) Log(entries []rules.LogEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(f.writer, "No activity recorded")
		return nil
	}
	now := f.now()
	for _, e := range entries {
		fmt.Fprintf(f.writer, "%-16s %s  [%s]\n",
			humanize.RelTime(e.Time, now, "ago", "from now"), describeEntry(e), e.Rule)
	}
	return nil
}

// Rules displays watched directories in sorted order with their rules
func (f *HumanFormatter) Rules(m rules.RuleMap) error {
	dirs := m.Directories()
	if len(dirs) == 0 {
		fmt.Fprintln(f.writer, "No rules defined")
		return nil
	}
	for i, dir := range dirs {
		if i > 0 {
			fmt.Fprintln(f.writer)
		}
		fmt.Fprintf(f.writer, "%s\n", dir)
		for _, rule := range m[dir] {
			fmt.Fprintf(f.writer, "  %s  %s\n", rule.ID, rule.Title)
			for j, event := range rule.Events {
				fmt.Fprintf(f.writer, "    %d. %s\n", j+1, event.Describe())
			}
		}
	}
	return nil
}

// Tags displays tag names with their descriptions
func (f *HumanFormatter) Tags(catalog []tags.Tag) error {
	width := 0
	for _, tag := range catalog {
		if len(tag.Name) > width {
			width = len(tag.Name)
		}
	}
	for _, tag := range catalog {
		fmt.Fprintf(f.writer, "%-*s  %s\n", width, tag.Name, tag.Description)
	}
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	fmt.Fprintf(f.writer, "Error: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

func describeEntry(e rules.LogEntry) string {
	if e.TargetDir == "" {
		return fmt.Sprintf("%s %s", e.Event.Name(), e.SourcePath)
	}
	return fmt.Sprintf("%s %s -> %s", e.Event.Name(), e.SourcePath, e.ResultingPath)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), unit)
}
