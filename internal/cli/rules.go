package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filerules/internal/platform"
	"github.com/sdejongh/filerules/pkg/rules"
	"github.com/sdejongh/filerules/pkg/store"
	"github.com/sdejongh/filerules/pkg/tags"
)

// RuleFlags holds rules add flags
type RuleFlags struct {
	Title     string
	RuleID    string
	Action    string
	Target    string
	Overwrite bool
	Tags      []string
}

const reloadHint = "Send SIGHUP to a running 'filerules run' to apply the change."

// NewRulesCommand creates the rules command
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage rules",
		Long:  `List, add, remove, export and import the rules bound to watched directories.`,
	}

	cmd.AddCommand(newRulesListCommand())
	cmd.AddCommand(newRulesAddCommand())
	cmd.AddCommand(newRulesRemoveCommand())
	cmd.AddCommand(newRulesExportCommand())
	cmd.AddCommand(newRulesImportCommand())

	return cmd
}

func newRulesListCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules by directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.store.LoadRules()
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}
			formatter, err := a.formatter(format)
			if err != nil {
				return err
			}
			return formatter.Rules(m)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "", "output format: human, json (default from config)")

	return cmd
}

func newRulesAddCommand() *cobra.Command {
	var flags RuleFlags

	cmd := &cobra.Command{
		Use:   "add [directory]",
		Short: "Add an event to a new or existing rule",
		Long: `Add one event. Without --rule a new rule titled --title is bound to the
directory; with --rule the event is appended to that rule.

Tags select entries; prefix a tag with '!' to exclude it:

  filerules rules add ~/Downloads --title Photos --action move \
    --target ~/Pictures --tag Image --tag '!Larger than 100 MB'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesAdd(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Title, "title", "t", "", "title of the new rule")
	cmd.Flags().StringVar(&flags.RuleID, "rule", "", "append to the rule with this ID")
	cmd.Flags().StringVarP(&flags.Action, "action", "a", string(rules.ActionMove), "action: copy, move, trash")
	cmd.Flags().StringVar(&flags.Target, "target", rules.DefaultTarget, "target directory for copy and move")
	cmd.Flags().BoolVar(&flags.Overwrite, "overwrite", false, "replace same-named entries at the target")
	cmd.Flags().StringArrayVar(&flags.Tags, "tag", nil, "tag selecting entries; prefix with ! to exclude (repeatable)")

	return cmd
}

func runRulesAdd(cmd *cobra.Command, args []string, flags RuleFlags) error {
	event, err := buildEvent(flags)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.store.LoadRules()
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	var rule rules.Rule
	if flags.RuleID != "" {
		if len(args) > 0 {
			return fmt.Errorf("a directory cannot be given together with --rule")
		}
		dir, i, ok := m.Find(flags.RuleID)
		if !ok {
			return fmt.Errorf("rule not found: %s", flags.RuleID)
		}
		m[dir][i].AddEvent(event)
		rule = m[dir][i]
	} else {
		if len(args) == 0 {
			return fmt.Errorf("a directory is required")
		}
		if flags.Title == "" {
			return fmt.Errorf("--title is required for a new rule")
		}
		dir, err := watchedDirectory(args[0])
		if err != nil {
			return err
		}
		rule = rules.NewRule(flags.Title, nil)
		rule.AddEvent(event)
		m[dir] = append(m[dir], rule)
	}

	if err := m.Validate(); err != nil {
		return err
	}
	if err := a.store.SaveRules(m); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}

	if !a.cfg.Output.Quiet {
		fmt.Fprintf(a.out, "%s  %s: %s\n", rule.ID, rule.Title, event.Describe())
		fmt.Fprintln(a.out, reloadHint)
	}
	return nil
}

// buildEvent turns rules add flags into an event
func buildEvent(flags RuleFlags) (rules.Event, error) {
	var event rules.Event
	switch rules.Action(flags.Action) {
	case rules.ActionCopy:
		event = rules.NewCopy(rules.DefaultTarget, flags.Overwrite)
	case rules.ActionMove:
		event = rules.NewMove(rules.DefaultTarget, flags.Overwrite)
	case rules.ActionTrash:
		event = rules.NewTrash()
	default:
		return rules.Event{}, fmt.Errorf("unknown action %q (use: copy, move, trash)", flags.Action)
	}

	if event.Placement != nil {
		if err := event.SetTargetPath(flags.Target); err != nil {
			return rules.Event{}, err
		}
	}

	expr, err := parseSelector(flags.Tags)
	if err != nil {
		return rules.Event{}, err
	}
	event.SetSelector(expr)
	return event, nil
}

// parseSelector builds an expression from tag names; "!Name" excludes.
// No names yields the default expression.
func parseSelector(names []string) (tags.Expression, error) {
	if len(names) == 0 {
		return tags.DefaultExpression(), nil
	}

	var expr tags.Expression
	for i, name := range names {
		included := !strings.HasPrefix(name, "!")
		name = strings.TrimSpace(strings.TrimPrefix(name, "!"))

		tag, ok := tags.Lookup(name)
		if !ok {
			return tags.Expression{}, fmt.Errorf("unknown tag %q (see 'filerules tags')", name)
		}
		if i == 0 {
			expr = tags.NewExpression(tag, included)
		} else {
			expr.Push(tag, included)
		}
	}
	return expr, nil
}

// watchedDirectory resolves path to an absolute existing directory
func watchedDirectory(path string) (string, error) {
	expanded, err := platform.ExpandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("directory does not exist: %s", abs)
	} else if err != nil {
		return "", fmt.Errorf("failed to access directory: %w", err)
	} else if !info.IsDir() {
		return "", fmt.Errorf("path exists but is not a directory: %s", abs)
	}
	return abs, nil
}

func newRulesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <rule-id>",
		Short: "Remove a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.store.LoadRules()
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}
			if !m.Remove(args[0]) {
				return fmt.Errorf("rule not found: %s", args[0])
			}
			if err := a.store.SaveRules(m); err != nil {
				return fmt.Errorf("failed to save rules: %w", err)
			}

			if !a.cfg.Output.Quiet {
				fmt.Fprintf(a.out, "Removed rule %s\n", args[0])
				fmt.Fprintln(a.out, reloadHint)
			}
			return nil
		},
	}
}

func newRulesExportCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the rules as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.store.LoadRules()
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			if path == "" || path == "-" {
				return store.ExportRules(a.out, m)
			}

			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			if err := store.ExportRules(file, m); err != nil {
				file.Close()
				return err
			}
			return file.Close()
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "write to file instead of stdout")

	return cmd
}

func newRulesImportCommand() *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the rules with a YAML export",
		Long: `Read rules written by 'rules export'. The imported rules replace the
current ones unless --merge is given, in which case they are appended to
their directories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var imported rules.RuleMap
			if args[0] == "-" {
				imported, err = store.ImportRules(cmd.InOrStdin())
			} else {
				file, openErr := os.Open(args[0])
				if openErr != nil {
					return fmt.Errorf("failed to open import file: %w", openErr)
				}
				imported, err = store.ImportRules(file)
				file.Close()
			}
			if err != nil {
				return err
			}

			m := imported
			if merge {
				m, err = a.store.LoadRules()
				if err != nil {
					return fmt.Errorf("failed to load rules: %w", err)
				}
				for _, dir := range imported.Directories() {
					for _, rule := range imported[dir] {
						if _, _, exists := m.Find(rule.ID); exists {
							return fmt.Errorf("rule %s already exists", rule.ID)
						}
						m[dir] = append(m[dir], rule)
					}
				}
			}

			if err := a.store.SaveRules(m); err != nil {
				return fmt.Errorf("failed to save rules: %w", err)
			}

			if !a.cfg.Output.Quiet {
				count := 0
				for _, rs := range imported {
					count += len(rs)
				}
				fmt.Fprintf(a.out, "Imported %d rule(s) for %d directories\n", count, len(imported))
				fmt.Fprintln(a.out, reloadHint)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "append to the existing rules instead of replacing them")

	return cmd
}
