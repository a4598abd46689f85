package rules

import (
	"errors"
	"fmt"

	"github.com/sdejongh/filerules/internal/platform"
	"github.com/sdejongh/filerules/pkg/models"
	"github.com/sdejongh/filerules/pkg/tags"
)

// ErrNoTarget is returned when setting a target on an action that has none
var ErrNoTarget = errors.New("action has no target")

// DefaultTarget is the target of freshly created copy and move events
const DefaultTarget = "~"

// Action is the file operation an event performs
type Action string

const (
	ActionCopy  Action = "copy"
	ActionMove  Action = "move"
	ActionTrash Action = "trash"
)

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	switch a {
	case ActionCopy, ActionMove, ActionTrash:
		return true
	}
	return false
}

// Placement is where copy and move put their results
type Placement struct {
	// Target is the destination directory, absolute or "~"-relative.
	// It is expanded only when the event runs.
	Target string `json:"target" yaml:"target"`
	// Overwrite replaces same-named entries instead of skipping them
	Overwrite bool `json:"overwrite" yaml:"overwrite"`
}

// Event is one action applied to the entries its selector matches.
// Placement is set for copy and move and nil for trash.
type Event struct {
	Action    Action          `json:"action" yaml:"action"`
	Selector  tags.Expression `json:"selector" yaml:"selector"`
	Placement *Placement      `json:"placement,omitempty" yaml:"placement,omitempty"`
}

// NewCopy creates a copy event selecting with the default expression
func NewCopy(target string, overwrite bool) Event {
	return Event{
		Action:    ActionCopy,
		Selector:  tags.DefaultExpression(),
		Placement: &Placement{Target: target, Overwrite: overwrite},
	}
}

// NewMove creates a move event selecting with the default expression
func NewMove(target string, overwrite bool) Event {
	return Event{
		Action:    ActionMove,
		Selector:  tags.DefaultExpression(),
		Placement: &Placement{Target: target, Overwrite: overwrite},
	}
}

// NewTrash creates a trash event selecting with the default expression
func NewTrash() Event {
	return Event{Action: ActionTrash, Selector: tags.DefaultExpression()}
}

// SetTargetPath replaces the target directory. The path must be absolute or
// relative to the home directory.
func (e *Event) SetTargetPath(path string) error {
	if e.Placement == nil {
		return fmt.Errorf("%s: %w", e.Action, ErrNoTarget)
	}
	if err := platform.ValidateTarget(path); err != nil {
		return err
	}
	e.Placement.Target = path
	return nil
}

// SetOverwrite changes the conflict policy
func (e *Event) SetOverwrite(overwrite bool) error {
	if e.Placement == nil {
		return fmt.Errorf("%s: %w", e.Action, ErrNoTarget)
	}
	e.Placement.Overwrite = overwrite
	return nil
}

// SetSelector replaces the selector expression
func (e *Event) SetSelector(expr tags.Expression) {
	e.Selector = expr
}

// Name returns the capitalized action name
func (e Event) Name() string {
	switch e.Action {
	case ActionCopy:
		return "Copy"
	case ActionMove:
		return "Move"
	case ActionTrash:
		return "Trash"
	default:
		return string(e.Action)
	}
}

// Describe returns a one-line summary such as
// "Copy File & !Empty to ~/Backup (overwrite)"
func (e Event) Describe() string {
	if e.Placement == nil {
		return fmt.Sprintf("%s %s", e.Name(), e.Selector.Name())
	}
	s := fmt.Sprintf("%s %s to %s", e.Name(), e.Selector.Name(), e.Placement.Target)
	if e.Placement.Overwrite {
		s += " (overwrite)"
	}
	return s
}

// Clone returns a deep copy
func (e Event) Clone() Event {
	clone := Event{Action: e.Action, Selector: e.Selector.Clone()}
	if e.Placement != nil {
		p := *e.Placement
		clone.Placement = &p
	}
	return clone
}

// Validate checks that the event is well-formed
func (e Event) Validate() error {
	if !e.Action.Valid() {
		return &models.ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", e.Action)}
	}
	for _, term := range e.Selector.Terms() {
		if term.Tag.Basis == nil {
			return &models.ValidationError{Field: "selector", Message: fmt.Sprintf("tag %q has no basis", term.Tag.Name)}
		}
	}
	if e.Action == ActionTrash {
		if e.Placement != nil {
			return &models.ValidationError{Field: "placement", Message: "trash takes no target"}
		}
		return nil
	}
	if e.Placement == nil {
		return &models.ValidationError{Field: "placement", Message: fmt.Sprintf("%s requires a target", e.Action)}
	}
	if err := platform.ValidateTarget(e.Placement.Target); err != nil {
		return &models.ValidationError{Field: "placement.target", Message: err.Error()}
	}
	return nil
}
