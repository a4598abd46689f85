package rules

import (
	"fmt"
	"sort"

	"github.com/sdejongh/filerules/pkg/models"
)

// Rule is a titled, ordered list of events. Later events see the
// filesystem as earlier events in the same pass left it.
type Rule struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Events []Event `json:"events" yaml:"events"`
}

// NewRule creates an empty rule with a fresh ID
func NewRule(title string, ids IDGenerator) Rule {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return Rule{ID: ids.New(), Title: title, Events: []Event{}}
}

// AddEvent appends an event
func (r *Rule) AddEvent(e Event) {
	r.Events = append(r.Events, e)
}

// ReplaceEvent replaces the event at index i
func (r *Rule) ReplaceEvent(i int, e Event) error {
	if i < 0 || i >= len(r.Events) {
		return fmt.Errorf("event index %d out of range", i)
	}
	r.Events[i] = e
	return nil
}

// RemoveEvent deletes the event at index i
func (r *Rule) RemoveEvent(i int) error {
	if i < 0 || i >= len(r.Events) {
		return fmt.Errorf("event index %d out of range", i)
	}
	r.Events = append(r.Events[:i:i], r.Events[i+1:]...)
	return nil
}

// Clone returns a deep copy
func (r Rule) Clone() Rule {
	clone := Rule{ID: r.ID, Title: r.Title, Events: make([]Event, len(r.Events))}
	for i, e := range r.Events {
		clone.Events[i] = e.Clone()
	}
	return clone
}

// Validate checks the rule and every event
func (r Rule) Validate() error {
	if r.Title == "" {
		return &models.ValidationError{Field: "title", Message: "title is required"}
	}
	for i, e := range r.Events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("rule %q event %d: %w", r.Title, i+1, err)
		}
	}
	return nil
}

// RuleMap binds watched directories to their rules
type RuleMap map[string][]Rule

// Clone returns a deep copy
func (m RuleMap) Clone() RuleMap {
	clone := make(RuleMap, len(m))
	for dir, rules := range m {
		copied := make([]Rule, len(rules))
		for i, r := range rules {
			copied[i] = r.Clone()
		}
		clone[dir] = copied
	}
	return clone
}

// Directories returns the watched directories in sorted order
func (m RuleMap) Directories() []string {
	dirs := make([]string, 0, len(m))
	for dir := range m {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Find returns the directory and index of the rule with the given ID
func (m RuleMap) Find(id string) (string, int, bool) {
	for _, dir := range m.Directories() {
		for i, r := range m[dir] {
			if r.ID == id {
				return dir, i, true
			}
		}
	}
	return "", 0, false
}

// Remove deletes the rule with the given ID. A directory left without
// rules is dropped.
func (m RuleMap) Remove(id string) bool {
	dir, i, ok := m.Find(id)
	if !ok {
		return false
	}
	rules := append(m[dir][:i:i], m[dir][i+1:]...)
	if len(rules) == 0 {
		delete(m, dir)
	} else {
		m[dir] = rules
	}
	return true
}

// Validate checks every rule
func (m RuleMap) Validate() error {
	for _, dir := range m.Directories() {
		if dir == "" {
			return &models.ValidationError{Field: "directory", Message: "directory is required"}
		}
		for _, r := range m[dir] {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("%s: %w", dir, err)
			}
		}
	}
	return nil
}
