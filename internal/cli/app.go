package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filerules/internal/platform"
	"github.com/sdejongh/filerules/internal/trash"
	"github.com/sdejongh/filerules/pkg/actions"
	"github.com/sdejongh/filerules/pkg/config"
	"github.com/sdejongh/filerules/pkg/logging"
	"github.com/sdejongh/filerules/pkg/output"
	"github.com/sdejongh/filerules/pkg/ratelimit"
	"github.com/sdejongh/filerules/pkg/rules"
	"github.com/sdejongh/filerules/pkg/storage"
	"github.com/sdejongh/filerules/pkg/store"
)

// app bundles what every command needs
type app struct {
	cfg    *config.Config
	logger logging.Logger
	store  *store.Store
	out    io.Writer
	errOut io.Writer
}

// newApp loads the configuration and opens the logger and the state store
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cfg)

	logger, err := createLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store.New(dataDir),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

// Close releases the logger
func (a *app) Close() {
	a.logger.Close()
}

// formatter returns the formatter for format, or the configured one when
// format is empty
func (a *app) formatter(format string) (output.Formatter, error) {
	if format == "" {
		format = a.cfg.Output.Format
	}
	return output.New(format, a.out)
}

// engine wires the lister and the file executor
func (a *app) engine() (*rules.Engine, error) {
	lister, err := storage.NewLocal(a.cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to create lister: %w", err)
	}

	trasher, err := a.trasher()
	if err != nil {
		return nil, err
	}

	limit, err := a.cfg.BandwidthLimit()
	if err != nil {
		return nil, fmt.Errorf("invalid bandwidth limit: %w", err)
	}

	executor := actions.NewExecutor(trasher, a.logger, actions.WithLimiter(ratelimit.NewLimiter(limit)))
	return rules.NewEngine(lister, executor, rules.WithLogger(a.logger)), nil
}

// trasher selects the trash can or permanent deletion
func (a *app) trasher() (actions.Trasher, error) {
	if a.cfg.Actions.TrashMode == config.TrashModeDelete {
		return trash.Remover{}, nil
	}

	dir, err := a.cfg.TrashDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trash directory: %w", err)
	}
	if dir != "" {
		return trash.New(dir), nil
	}
	return trash.Default()
}

// loadConfig loads the --config file or the default one
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.ConfigFile)
}

// applyFlagsToConfig overrides configuration with global flags
func applyFlagsToConfig(cfg *config.Config) {
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}
	if globalFlags.Bandwidth != "" {
		cfg.Actions.BandwidthLimit = globalFlags.Bandwidth
	}
	if globalFlags.Quiet {
		cfg.Output.Quiet = true
		cfg.Output.Progress = false
		if !globalFlags.Verbose {
			cfg.Logging.Level = "error"
		}
	}
}

// createLogger creates a file logger when a log file is configured and a
// stream logger on stderr otherwise
func createLogger(cfg *config.Config, stderr io.Writer) (logging.Logger, error) {
	// Parse log format
	var format logging.Format
	switch cfg.Logging.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}
	level := logging.ParseLevel(cfg.Logging.Level)

	if cfg.Logging.File == "" {
		if stderr == nil {
			stderr = os.Stderr
		}
		return logging.NewStreamLogger(stderr, format, level), nil
	}

	path, err := platform.ExpandHome(cfg.Logging.File)
	if err != nil {
		return nil, err
	}

	// Create file logger
	fileConfig := logging.FileLoggerConfig{
		Path:       path,
		Format:     format,
		Level:      level,
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	}

	return logging.NewFileLogger(fileConfig)
}
