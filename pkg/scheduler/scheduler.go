// Package scheduler drives periodic passes over every watched directory.
//
// A Scheduler is Idle until Restart binds it to a rule set, after which one
// background loop runs passes until Stop or the next Restart. Passes never
// overlap: a new loop waits for its predecessor to finish the pass it is in.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sdejongh/filerules/pkg/activity"
	"github.com/sdejongh/filerules/pkg/logging"
	"github.com/sdejongh/filerules/pkg/rules"
)

// DefaultInterval is the pause between the end of a pass and the next one
const DefaultInterval = 5 * time.Second

// ErrInvalidInterval indicates the pass interval is invalid
var ErrInvalidInterval = errors.New("interval must be positive")

// RuleRunner executes one rule against a directory
type RuleRunner interface {
	ExecuteRule(ctx context.Context, dir string, rule rules.Rule) (rules.EventReport, error)
}

// Config configures a Scheduler
type Config struct {
	// Interval is the pause after each pass (DefaultInterval when zero)
	Interval time.Duration
	// Wake, when set, ends the pause early each time it receives
	Wake <-chan struct{}
	// OnPass receives the report of every pass, on the loop goroutine
	OnPass func(PassReport)
	// OnRule, when set, is called after every rule of a pass
	OnRule func(RuleProgress)
	// Logger receives pass summaries and errors
	Logger logging.Logger
	// Clock stamps pass reports
	Clock rules.Clock
	// IDs names pass reports
	IDs rules.IDGenerator
}

// DirectoryError is an error raised while running a rule on a directory
type DirectoryError struct {
	Directory string
	Rule      string
	Err       error
}

// RuleProgress tells how far a pass has got
type RuleProgress struct {
	Directory string
	Rule      string
	Done      int
	Total     int
}

// PassReport describes one pass over the whole rule set
type PassReport struct {
	ID       string
	Started  time.Time
	Finished time.Time
	rules.EventReport
	Errors []DirectoryError
}

// Idle reports whether the pass neither acted nor hit a problem
func (r PassReport) Idle() bool {
	return len(r.Entries) == 0 && len(r.Failures) == 0 && len(r.Excluded) == 0 && len(r.Errors) == 0
}

// loop is one background goroutine bound to a rule snapshot
type loop struct {
	stop chan struct{}
	done chan struct{}
}

// Scheduler owns at most one running loop
type Scheduler struct {
	runner RuleRunner
	log    *activity.Log
	config Config

	// passMu serializes passes from loops and RunOnce
	passMu sync.Mutex

	mu      sync.Mutex
	current *loop
	last    *loop
}

// New creates an idle scheduler pushing log entries into log
func New(runner RuleRunner, log *activity.Log, config Config) (*Scheduler, error) {
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}
	if config.Interval < 0 {
		return nil, ErrInvalidInterval
	}
	if config.Logger == nil {
		config.Logger = logging.NewNullLogger()
	}
	if config.Clock == nil {
		config.Clock = rules.RealClock{}
	}
	if config.IDs == nil {
		config.IDs = rules.UUIDGenerator{}
	}
	return &Scheduler{runner: runner, log: log, config: config}, nil
}

// Restart binds the scheduler to a copy of ruleMap. Any running loop is
// told to stop; the new loop starts its first pass once the old one has
// finished. Restart does not block.
func (s *Scheduler) Restart(ruleMap rules.RuleMap) {
	snapshot := ruleMap.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	var prev <-chan struct{}
	if s.last != nil {
		prev = s.last.done
	}
	if s.current != nil {
		close(s.current.stop)
	}

	l := &loop{stop: make(chan struct{}), done: make(chan struct{})}
	s.current = l
	s.last = l
	go s.run(l, snapshot, prev)
}

// Stop tells the running loop to exit before its next pass. A pass in
// progress completes. Stop does not block; use Wait to block.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		close(s.current.stop)
		s.current = nil
	}
}

// Running reports whether a loop is bound
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Wait blocks until every stopped or replaced loop has exited, or ctx ends.
// With a loop still running it waits for that loop too.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		return nil
	}
	select {
	case <-last.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single pass over ruleMap synchronously. It never runs
// at the same time as a loop pass.
func (s *Scheduler) RunOnce(ctx context.Context, ruleMap rules.RuleMap) PassReport {
	return s.pass(ctx, ruleMap.Clone())
}

func (s *Scheduler) run(l *loop, snapshot rules.RuleMap, prev <-chan struct{}) {
	defer close(l.done)

	// Chained loops: done closes only after every predecessor has exited
	if prev != nil {
		<-prev
	}

	ctx := context.Background()
	for {
		select {
		case <-l.stop:
			return
		default:
		}

		report := s.pass(ctx, snapshot)
		if s.config.OnPass != nil {
			s.config.OnPass(report)
		}

		timer := time.NewTimer(s.config.Interval)
		select {
		case <-l.stop:
			timer.Stop()
			return
		case <-timer.C:
		case <-s.config.Wake:
			timer.Stop()
		}
	}
}

// pass runs every rule of every directory in sorted directory order
func (s *Scheduler) pass(ctx context.Context, snapshot rules.RuleMap) PassReport {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	report := PassReport{ID: s.config.IDs.New(), Started: s.config.Clock.Now()}
	logger := s.config.Logger.WithFields(logging.Fields{"pass": report.ID})

	total := 0
	for _, rs := range snapshot {
		total += len(rs)
	}
	done := 0

	for _, dir := range snapshot.Directories() {
		for i, rule := range snapshot[dir] {
			r, err := s.executeRule(ctx, dir, rule)
			report.Add(r)
			s.log.Push(r.Entries...)

			done++
			var listErr *rules.ListError
			skipDir := err != nil && errors.As(err, &listErr)
			if skipDir {
				done += len(snapshot[dir]) - i - 1
			}
			if s.config.OnRule != nil {
				s.config.OnRule(RuleProgress{Directory: dir, Rule: rule.Title, Done: done, Total: total})
			}

			for _, f := range r.Failures {
				logger.Warn(ctx, "Action failed", logging.Fields{
					"directory": dir, "rule": rule.Title, "action": string(f.Action),
					"path": f.Path, "error": f.Err.Error(),
				})
			}
			if err == nil {
				continue
			}

			report.Errors = append(report.Errors, DirectoryError{Directory: dir, Rule: rule.Title, Err: err})
			logger.Error(ctx, "Rule failed", err, logging.Fields{"directory": dir, "rule": rule.Title})

			if skipDir {
				break
			}
		}
	}

	report.Finished = s.config.Clock.Now()
	fields := logging.Fields{
		"entries":  len(report.Entries),
		"skipped":  report.Skipped,
		"failures": len(report.Failures),
		"excluded": len(report.Excluded),
		"errors":   len(report.Errors),
	}
	if report.Idle() {
		logger.Debug(ctx, "Pass complete", fields)
	} else {
		logger.Info(ctx, "Pass complete", fields)
	}
	return report
}

// executeRule turns a panic in rule execution into an error so the loop
// survives
func (s *Scheduler) executeRule(ctx context.Context, dir string, rule rules.Rule) (report rules.EventReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return s.runner.ExecuteRule(ctx, dir, rule)
}
