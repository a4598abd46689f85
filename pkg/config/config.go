package config

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"

	"github.com/sdejongh/filerules/internal/platform"
	"github.com/sdejongh/filerules/pkg/models"
)

// Trash modes
const (
	TrashModeTrash  = "trash"
	TrashModeDelete = "delete"
)

// Config represents the application configuration
type Config struct {
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Actions   ActionsConfig   `yaml:"actions"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Output    OutputConfig    `yaml:"output"`
	Ignore    []string        `yaml:"ignore"`
}

// SchedulerConfig holds the background loop settings
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Watch    bool          `yaml:"watch"`    // Wake early on filesystem changes
	Debounce time.Duration `yaml:"debounce"` // Quiet period before a wake-up
}

// ActionsConfig holds file action settings
type ActionsConfig struct {
	TrashMode string `yaml:"trash_mode"`          // "trash" or "delete"
	TrashDir  string `yaml:"trash_dir,omitempty"` // Empty = $XDG_DATA_HOME/Trash

	// BandwidthLimit caps copy throughput, e.g. "10MB" or "512KiB". Empty = unlimited.
	BandwidthLimit string `yaml:"bandwidth_limit,omitempty"`
}

// StorageConfig holds the state file location
type StorageConfig struct {
	DataDir string `yaml:"data_dir,omitempty"` // Empty = $XDG_DATA_HOME/filerules
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show a progress bar for single passes
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format string `yaml:"format"` // "json" or "text"
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	File   string `yaml:"file"`   // Log file path (empty = stderr)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Interval: 5 * time.Second,
			Watch:    true,
			Debounce: 500 * time.Millisecond,
		},
		Actions: ActionsConfig{
			TrashMode: TrashModeTrash,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Ignore: []string{
			".DS_Store",
			"*.part",
			"*.crdownload",
			".~lock.*",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return &models.ValidationError{
			Field:   "scheduler.interval",
			Message: "must be positive",
		}
	}

	if c.Scheduler.Debounce < 0 {
		return &models.ValidationError{
			Field:   "scheduler.debounce",
			Message: "must not be negative",
		}
	}

	if c.Actions.TrashMode != TrashModeTrash && c.Actions.TrashMode != TrashModeDelete {
		return &models.ValidationError{
			Field:   "actions.trash_mode",
			Message: "must be 'trash' or 'delete'",
		}
	}

	if c.Actions.TrashDir != "" {
		if err := platform.ValidateTarget(c.Actions.TrashDir); err != nil {
			return &models.ValidationError{Field: "actions.trash_dir", Message: err.Error()}
		}
	}

	if _, err := c.BandwidthLimit(); err != nil {
		return &models.ValidationError{Field: "actions.bandwidth_limit", Message: err.Error()}
	}

	if c.Storage.DataDir != "" {
		if err := platform.ValidateTarget(c.Storage.DataDir); err != nil {
			return &models.ValidationError{Field: "storage.data_dir", Message: err.Error()}
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	for i, pattern := range c.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return &models.ValidationError{
				Field:   fmt.Sprintf("ignore[%d]", i),
				Message: fmt.Sprintf("invalid pattern %q", pattern),
			}
		}
	}

	return nil
}

// DataDir returns the state directory, expanded
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir == "" {
		return platform.DataDir()
	}
	return platform.ExpandHome(c.Storage.DataDir)
}

// TrashDir returns the trash can override, expanded. Empty means the
// default trash can.
func (c *Config) TrashDir() (string, error) {
	if c.Actions.TrashDir == "" {
		return "", nil
	}
	return platform.ExpandHome(c.Actions.TrashDir)
}

// BandwidthLimit returns the copy limit in bytes per second, 0 when unlimited
func (c *Config) BandwidthLimit() (int64, error) {
	if c.Actions.BandwidthLimit == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Actions.BandwidthLimit)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", c.Actions.BandwidthLimit)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", c.Actions.BandwidthLimit)
	}
	return int64(n), nil
}
