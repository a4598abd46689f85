package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sdejongh/filerules/pkg/rules"
	"github.com/sdejongh/filerules/pkg/scheduler"
	"github.com/sdejongh/filerules/pkg/tags"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer io.Writer
}

// JSONPassData represents a pass report
type JSONPassData struct {
	ID         string              `json:"id"`
	Started    time.Time           `json:"started"`
	Finished   time.Time           `json:"finished"`
	Duration   string              `json:"duration"`
	DurationMs int64               `json:"duration_ms"`
	Stats      JSONStatsData       `json:"stats"`
	Entries    []rules.LogEntry    `json:"entries"`
	Failures   []JSONFailureData   `json:"failures,omitempty"`
	Excluded   []JSONExclusionData `json:"excluded,omitempty"`
	Errors     []JSONErrorData     `json:"errors,omitempty"`
}

// JSONStatsData represents pass counters
type JSONStatsData struct {
	ActedOn  int `json:"acted_on"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Excluded int `json:"excluded"`
	Errors   int `json:"errors"`
}

// JSONFailureData represents an item an action could not process
type JSONFailureData struct {
	Directory string `json:"directory"`
	Rule      string `json:"rule"`
	Action    string `json:"action"`
	Path      string `json:"path"`
	Error     string `json:"error"`
}

// JSONExclusionData represents an item whose selector failed
type JSONExclusionData struct {
	Directory string `json:"directory"`
	Path      string `json:"path"`
	Error     string `json:"error"`
}

// JSONErrorData represents a rule that could not run
type JSONErrorData struct {
	Directory string `json:"directory"`
	Rule      string `json:"rule"`
	Error     string `json:"error"`
}

// JSONRuleData represents a rule bound to a directory
type JSONRuleData struct {
	Directory string        `json:"directory"`
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Events    []rules.Event `json:"events"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	if w == nil {
		w = io.Discard
	}
	return &JSONFormatter{writer: w}
}

// Pass writes the pass report as one JSON document
func (f *JSONFormatter) Pass(report scheduler.PassReport) error {
	duration := report.Finished.Sub(report.Started)
	data := JSONPassData{
		ID:         report.ID,
		Started:    report.Started,
		Finished:   report.Finished,
		Duration:   duration.Round(time.Millisecond).String(),
		DurationMs: duration.Milliseconds(),
		Stats: JSONStatsData{
			ActedOn:  len(report.Entries),
			Skipped:  report.Skipped,
			Failed:   len(report.Failures),
			Excluded: len(report.Excluded),
			Errors:   len(report.Errors),
		},
		Entries: report.Entries,
	}
	if data.Entries == nil {
		data.Entries = []rules.LogEntry{}
	}

	for _, fail := range report.Failures {
		data.Failures = append(data.Failures, JSONFailureData{
			Directory: fail.Directory,
			Rule:      fail.Rule,
			Action:    string(fail.Action),
			Path:      fail.Path,
			Error:     fail.Err.Error(),
		})
	}
	for _, ex := range report.Excluded {
		data.Excluded = append(data.Excluded, JSONExclusionData{
			Directory: ex.Directory,
			Path:      ex.Path,
			Error:     ex.Err.Error(),
		})
	}
	for _, de := range report.Errors {
		data.Errors = append(data.Errors, JSONErrorData{
			Directory: de.Directory,
			Rule:      de.Rule,
			Error:     de.Err.Error(),
		})
	}

	return f.encode(data)
}

// Log writes the entries as a JSON array
func (f *JSONFormatter) Log(entries []rules.LogEntry) error {
	if entries == nil {
		entries = []rules.LogEntry{}
	}
	return f.encode(entries)
}

// Rules writes a flat array of rules in directory order
func (f *JSONFormatter) Rules(m rules.RuleMap) error {
	data := []JSONRuleData{}
	for _, dir := range m.Directories() {
		for _, rule := range m[dir] {
			data = append(data, JSONRuleData{Directory: dir, ID: rule.ID, Title: rule.Title, Events: rule.Events})
		}
	}
	return f.encode(data)
}

// Tags writes the catalog as a JSON array of tags
func (f *JSONFormatter) Tags(catalog []tags.Tag) error {
	if catalog == nil {
		catalog = []tags.Tag{}
	}
	return f.encode(catalog)
}

// Error writes {"error": "..."}
func (f *JSONFormatter) Error(err error) error {
	return f.encode(map[string]string{"error": err.Error()})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
