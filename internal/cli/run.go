package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filerules/internal/watch"
	"github.com/sdejongh/filerules/pkg/activity"
	"github.com/sdejongh/filerules/pkg/logging"
	"github.com/sdejongh/filerules/pkg/output"
	"github.com/sdejongh/filerules/pkg/rules"
	"github.com/sdejongh/filerules/pkg/scheduler"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Apply rules continuously",
		Long: `Run passes over every watched directory until interrupted.
Send SIGHUP to reload the rules after editing them.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
}

// NewOnceCommand creates the once command
func NewOnceCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Apply rules in a single pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "", "output format: human, json (default from config)")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ruleMap, log, err := a.loadState()
	if err != nil {
		return err
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}

	formatter, err := a.formatter("")
	if err != nil {
		return err
	}

	var notifier *watch.Notifier
	var wake <-chan struct{}
	if a.cfg.Scheduler.Watch {
		notifier, err = watch.New(ruleMap.Directories(), a.cfg.Scheduler.Debounce, a.cfg.Ignore, a.logger)
		if err != nil {
			return fmt.Errorf("failed to watch directories: %w", err)
		}
		defer notifier.Close()
		wake = notifier.Events()
	}

	sched, err := scheduler.New(engine, log, scheduler.Config{
		Interval: a.cfg.Scheduler.Interval,
		Wake:     wake,
		Logger:   a.logger,
		OnPass: func(report scheduler.PassReport) {
			if report.Idle() {
				return
			}
			a.saveLog(ctx, log)
			if !a.cfg.Output.Quiet && (len(report.Entries) > 0 || len(report.Failures) > 0) {
				formatter.Pass(report)
			}
		},
	})
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	a.logger.Info(ctx, "Scheduler started", logging.Fields{
		"directories": len(ruleMap),
		"interval":    a.cfg.Scheduler.Interval.String(),
		"watch":       a.cfg.Scheduler.Watch,
	})
	sched.Restart(ruleMap)

	for {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				reloaded, err := a.store.LoadRules()
				if err != nil {
					a.logger.Error(ctx, "Failed to reload rules", err, nil)
					continue
				}
				if notifier != nil {
					notifier.Reset(reloaded.Directories())
				}
				sched.Restart(reloaded)
				a.logger.Info(ctx, "Rules reloaded", logging.Fields{"directories": len(reloaded)})
				continue
			}
			a.logger.Info(ctx, "Stopping", logging.Fields{"signal": sig.String()})
		case <-ctx.Done():
		}

		// The pass in progress completes before the loop exits
		sched.Stop()
		if err := sched.Wait(context.Background()); err != nil {
			return err
		}
		return a.store.SaveLog(log)
	}
}

func runOnce(cmd *cobra.Command, format string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ruleMap, log, err := a.loadState()
	if err != nil {
		return err
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}

	formatter, err := a.formatter(format)
	if err != nil {
		return err
	}

	schedConfig := scheduler.Config{Logger: a.logger}
	var progress *output.Progress
	if a.cfg.Output.Progress && formatter.Name() == "human" && output.IsTerminal(a.errOut) {
		progress = output.NewProgress(a.errOut)
		schedConfig.OnRule = progress.Update
	}

	sched, err := scheduler.New(engine, log, schedConfig)
	if err != nil {
		return err
	}

	report := sched.RunOnce(ctx, ruleMap)
	if progress != nil {
		progress.Finish()
	}

	if err := a.store.SaveLog(log); err != nil {
		return fmt.Errorf("failed to save activity log: %w", err)
	}

	if !a.cfg.Output.Quiet {
		if err := formatter.Pass(report); err != nil {
			return err
		}
	}

	if n := len(report.Failures) + len(report.Errors); n > 0 {
		return fmt.Errorf("pass finished with %d problem(s)", n)
	}
	return nil
}

// loadState reads the rule map and the activity log
func (a *app) loadState() (rules.RuleMap, *activity.Log, error) {
	ruleMap, err := a.store.LoadRules()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}
	log, err := a.store.LoadLog()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load activity log: %w", err)
	}
	return ruleMap, log, nil
}

// saveLog persists the log, reporting failures through the logger
func (a *app) saveLog(ctx context.Context, log *activity.Log) {
	if err := a.store.SaveLog(log); err != nil {
		a.logger.Error(ctx, "Failed to save activity log", err, logging.Fields{"path": a.store.LogPath()})
	}
}
