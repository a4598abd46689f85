package cli

import (
	"github.com/spf13/cobra"

	"github.com/sdejongh/filerules/pkg/tags"
)

// NewTagsCommand creates the tags command
func NewTagsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the built-in tags",
		Long: `List the tags usable in rules. Use a tag name with 'rules add --tag',
or prefix it with '!' to exclude entries it matches.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			formatter, err := a.formatter(format)
			if err != nil {
				return err
			}
			return formatter.Tags(tags.Builtin())
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "", "output format: human, json (default from config)")

	return cmd
}
