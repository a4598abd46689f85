package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogCommand creates the log command
func NewLogCommand() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent activity, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			log, err := a.store.LoadLog()
			if err != nil {
				return fmt.Errorf("failed to load activity log: %w", err)
			}
			formatter, err := a.formatter(format)
			if err != nil {
				return err
			}
			return formatter.Log(log.Recent(limit))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")
	cmd.Flags().StringVarP(&format, "output", "o", "", "output format: human, json (default from config)")

	return cmd
}
