package rules

import "time"

// LogEntry records one item an event acted on. Entries are created for
// successful outcomes only and never change afterwards.
type LogEntry struct {
	ID    string `json:"id"`
	Event Event  `json:"event"`
	// Directory is the watched directory the rule is bound to
	Directory string `json:"directory"`
	// Rule is the title of the rule the event belongs to
	Rule string `json:"rule"`
	// TargetDir is the expanded destination, empty for trash
	TargetDir     string    `json:"target_dir,omitempty"`
	SourcePath    string    `json:"source_path"`
	ResultingPath string    `json:"resulting_path"`
	Time          time.Time `json:"time"`
}
