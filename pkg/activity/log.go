// Package activity holds the append-only record of actions the scheduler
// performed.
package activity

import (
	"encoding/json"
	"sync"

	"github.com/sdejongh/filerules/pkg/rules"
)

// Log is an append-only, goroutine-safe list of log entries in the order
// they were pushed
type Log struct {
	mu      sync.Mutex
	entries []rules.LogEntry
}

// NewLog creates a log seeded with entries, typically loaded from disk
func NewLog(entries ...rules.LogEntry) *Log {
	return &Log{entries: append([]rules.LogEntry(nil), entries...)}
}

// Push appends entries
func (l *Log) Push(entries ...rules.LogEntry) {
	if len(entries) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entries...)
}

// Entries returns a copy of all entries, oldest first
func (l *Log) Entries() []rules.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]rules.LogEntry(nil), l.entries...)
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) []rules.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	recent := make([]rules.LogEntry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		recent = append(recent, l.entries[i])
	}
	return recent
}

// Len returns the number of entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// MarshalJSON encodes the log as an array of entries
func (l *Log) MarshalJSON() ([]byte, error) {
	entries := l.Entries()
	if entries == nil {
		entries = []rules.LogEntry{}
	}
	return json.Marshal(entries)
}

// UnmarshalJSON replaces the log contents with the decoded array
func (l *Log) UnmarshalJSON(data []byte) error {
	var entries []rules.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	return nil
}
