package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filerules/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the filerules configuration.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyFlagsToConfig(cfg)

			dataDir, err := cfg.DataDir()
			if err != nil {
				return err
			}
			trashDir, err := cfg.TrashDir()
			if err != nil {
				return err
			}
			if trashDir == "" {
				trashDir = "(default)"
			}
			logFile := cfg.Logging.File
			if logFile == "" {
				logFile = "(stderr)"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Interval: %s\n", cfg.Scheduler.Interval)
			fmt.Fprintf(out, "Watch: %t (debounce %s)\n", cfg.Scheduler.Watch, cfg.Scheduler.Debounce)
			fmt.Fprintf(out, "Trash Mode: %s\n", cfg.Actions.TrashMode)
			fmt.Fprintf(out, "Trash Directory: %s\n", trashDir)
			bandwidth := "unlimited"
			if cfg.Actions.BandwidthLimit != "" {
				bandwidth = cfg.Actions.BandwidthLimit + "/s"
			}
			fmt.Fprintf(out, "Bandwidth Limit: %s\n", bandwidth)
			fmt.Fprintf(out, "Data Directory: %s\n", dataDir)
			fmt.Fprintf(out, "Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(out, "Log Format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log Level: %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "Log File: %s\n", logFile)
			fmt.Fprintf(out, "Ignore: %v\n", cfg.Ignore)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")

	return cmd
}
