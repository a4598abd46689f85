package rules

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sdejongh/filerules/internal/platform"
	"github.com/sdejongh/filerules/pkg/logging"
	"github.com/sdejongh/filerules/pkg/models"
	"github.com/sdejongh/filerules/pkg/storage"
)

// FileActions performs file operations on batches of paths, one outcome
// per path in input order
type FileActions interface {
	Copy(ctx context.Context, sources []string, target string, overwrite bool) []models.ItemOutcome
	Move(ctx context.Context, sources []string, target string, overwrite bool) []models.ItemOutcome
	Trash(ctx context.Context, sources []string) []models.ItemOutcome
}

// ListError reports that a watched directory could not be listed.
// Nothing else in that directory runs for the pass.
type ListError struct {
	Directory string
	Err       error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("failed to list %s: %v", e.Directory, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

// Failure is an item an action could not process
type Failure struct {
	Directory string
	Rule      string
	Action    Action
	Path      string
	Err       error
}

// Exclusion is an item left out because its selector could not be evaluated
type Exclusion struct {
	Directory string
	Path      string
	Err       error
}

// EventReport aggregates the result of running one or more events
type EventReport struct {
	Entries  []LogEntry
	Skipped  int
	Failures []Failure
	Excluded []Exclusion
}

// Add appends other to r
func (r *EventReport) Add(other EventReport) {
	r.Entries = append(r.Entries, other.Entries...)
	r.Skipped += other.Skipped
	r.Failures = append(r.Failures, other.Failures...)
	r.Excluded = append(r.Excluded, other.Excluded...)
}

// Engine runs events against the live contents of directories
type Engine struct {
	lister storage.Lister
	files  FileActions
	clock  Clock
	ids    IDGenerator
	logger logging.Logger
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithClock sets the clock used to stamp log entries
func WithClock(c Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the generator of log entry IDs
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) { e.ids = g }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine listing with lister and acting through files
func NewEngine(lister storage.Lister, files FileActions, opts ...EngineOption) *Engine {
	e := &Engine{
		lister: lister,
		files:  files,
		clock:  RealClock{},
		ids:    UUIDGenerator{},
		logger: logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteEvent lists dir, selects the entries matching the event's selector
// and applies the action to them. A listing failure is returned as a
// *ListError; everything else is reported per item.
func (e *Engine) ExecuteEvent(ctx context.Context, dir string, rule Rule, event Event) (EventReport, error) {
	var report EventReport

	items, err := e.lister.List(ctx, dir)
	if err != nil {
		return report, &ListError{Directory: dir, Err: err}
	}

	selected := make([]string, 0, len(items))
	for i := range items {
		ok, err := event.Selector.Evaluate(&items[i])
		if err != nil {
			e.logger.Debug(ctx, "Item excluded", logging.Fields{"path": items[i].Path, "error": err.Error()})
			report.Excluded = append(report.Excluded, Exclusion{Directory: dir, Path: items[i].Path, Err: err})
			continue
		}
		if ok {
			selected = append(selected, items[i].Path)
		}
	}
	if len(selected) == 0 {
		return report, nil
	}

	var target string
	var outcomes []models.ItemOutcome
	switch event.Action {
	case ActionCopy, ActionMove:
		if event.Placement == nil {
			return report, fmt.Errorf("%s: %w", event.Action, ErrNoTarget)
		}
		target, err = platform.ExpandHome(event.Placement.Target)
		if err != nil {
			return report, fmt.Errorf("failed to resolve target: %w", err)
		}
		if event.Action == ActionCopy {
			outcomes = e.files.Copy(ctx, selected, target, event.Placement.Overwrite)
		} else {
			outcomes = e.files.Move(ctx, selected, target, event.Placement.Overwrite)
		}
	case ActionTrash:
		outcomes = e.files.Trash(ctx, selected)
	default:
		return report, fmt.Errorf("unknown action %q", event.Action)
	}

	for _, outcome := range outcomes {
		switch outcome.Status {
		case models.OutcomeOK:
			report.Entries = append(report.Entries, e.entry(dir, rule, event, target, outcome.Path))
		case models.OutcomeSkipped:
			report.Skipped++
		case models.OutcomeFailed:
			report.Failures = append(report.Failures, Failure{
				Directory: dir,
				Rule:      rule.Title,
				Action:    event.Action,
				Path:      outcome.Path,
				Err:       outcome.Err,
			})
		}
	}
	return report, nil
}

func (e *Engine) entry(dir string, rule Rule, event Event, target, source string) LogEntry {
	resulting := source
	if target != "" {
		resulting = filepath.Join(target, models.FileName(source))
	}
	return LogEntry{
		ID:            e.ids.New(),
		Event:         event.Clone(),
		Directory:     dir,
		Rule:          rule.Title,
		TargetDir:     target,
		SourcePath:    source,
		ResultingPath: resulting,
		Time:          e.clock.Now(),
	}
}

// ExecuteRule runs the rule's events in order. An event error does not stop
// later events unless the directory itself cannot be listed.
func (e *Engine) ExecuteRule(ctx context.Context, dir string, rule Rule) (EventReport, error) {
	var report EventReport
	var errs []error

	for i, event := range rule.Events {
		r, err := e.ExecuteEvent(ctx, dir, rule, event)
		report.Add(r)
		if err != nil {
			var listErr *ListError
			if errors.As(err, &listErr) {
				return report, err
			}
			errs = append(errs, fmt.Errorf("rule %q event %d (%s): %w", rule.Title, i+1, event.Name(), err))
		}
	}
	return report, errors.Join(errs...)
}
