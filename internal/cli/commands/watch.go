package commands

import (
	"github.com/spf13/cobra"

	"github.com/reap-dev/reap/internal/watch"
	"github.com/reap-dev/reap/pkg/engine"
)

// NewWatchCommand creates the watch command: a live terminal UI that
// re-analyzes on every source change.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Re-run the analysis on file changes in a terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"."}
			}

			eng := engine.New(engine.Config{
				Select:      cfg.Select,
				RuleOptions: cfg.RuleOptionMap(),
				Logger:      buildLogger(false), // the TUI owns the terminal
			})
			return watch.Run(cmd.Context(), watch.Config{
				Paths:   args,
				Engine:  eng,
				Exclude: cfg.Exclude,
			})
		},
	}

	cmd.Flags().StringSlice("select", nil, "comma-separated rule codes to run (default: all)")
	cmd.Flags().StringSlice("exclude", nil, "comma-separated names to skip during discovery")
	return cmd
}
