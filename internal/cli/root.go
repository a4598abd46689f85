package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the filerules command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "filerules",
		Short: "Rule-based file organizer",
		Long: `filerules watches directories and applies user-defined rules to their
entries: tag expressions select items, events copy, move or trash them.
Every action is recorded in an activity log.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewOnceCommand())
	rootCmd.AddCommand(NewRulesCommand())
	rootCmd.AddCommand(NewLogCommand())
	rootCmd.AddCommand(NewTagsCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
