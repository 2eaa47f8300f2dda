// Package commands implements reap's subcommands.
package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reap-dev/reap/internal/config"
	"github.com/reap-dev/reap/internal/discover"
	"github.com/reap-dev/reap/internal/history"
	"github.com/reap-dev/reap/internal/render"
	"github.com/reap-dev/reap/pkg/engine"
	_ "github.com/reap-dev/reap/pkg/lint/file/rules"    // register per-file rules
	_ "github.com/reap-dev/reap/pkg/lint/project/rules" // register cross-file rules
)

// ErrIssuesFound signals a clean run that found diagnostics; the CLI
// maps it to exit code 1 without printing an error.
var ErrIssuesFound = errors.New("issues found")

// NewCheckCommand creates the check command, the analyzer's main entry
// point.
func NewCheckCommand() *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Analyze source files for dead code",
		Long: `Analyze the given paths (default: current directory) and report
unused imports, variables, arguments, loop variables, unreachable
code, dead branches, shadowed imports, and project-wide unused
functions and classes.

Output adapts to environment:
  - Terminal: styled text
  - Piped: plain text
  - --json: machine-readable document`,
		Example: `  # Analyze the current directory
  reap check

  # Analyze specific paths
  reap check src/ tools/build.py

  # Only report unused imports and functions
  reap check --select RP001,RP003

  # Machine-readable output, always exit 0
  reap check --json --no-exit-code`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			mode := render.ModeAuto
			if cfg.JSON {
				mode = render.ModeJSON
			}
			r := render.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			files, err := discover.Discover(args, discover.Options{Exclude: cfg.Exclude})
			if err != nil {
				return err
			}

			eng := engine.New(engine.Config{
				Select:      cfg.Select,
				RuleOptions: cfg.RuleOptionMap(),
				Logger:      buildLogger(cfg.Verbose),
			})
			res, err := eng.Run(cmd.Context(), files)
			if err != nil {
				return err
			}

			if cfg.History != "" {
				if err := recordRun(cfg.History, res); err != nil {
					r.Errorf("recording history: %v", err)
				}
			}

			if err := r.Diagnostics(res.Diagnostics); err != nil {
				return err
			}
			if summary {
				r.Summary(res.Diagnostics)
			}

			if len(res.Diagnostics) > 0 && !cfg.NoExitCode {
				return ErrIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("select", nil, "comma-separated rule codes to run (default: all)")
	cmd.Flags().StringSlice("exclude", nil, "comma-separated names to skip during discovery")
	cmd.Flags().Bool("json", false, "emit a structured JSON document")
	cmd.Flags().Bool("no-exit-code", false, "exit 0 even when diagnostics are found")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a per-rule count table after the diagnostics")

	return cmd
}

// loadConfig resolves layered configuration for a command, wiring the
// command's own flags in as the highest-precedence layer.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit, _ := cmd.Root().PersistentFlags().GetString("config")
	flags := cmd.Flags()
	flags.AddFlagSet(cmd.Root().PersistentFlags())
	return config.Load(explicit, flags)
}

// buildLogger returns a stderr text logger in verbose mode and a
// discarding logger otherwise.
func buildLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func recordRun(path string, res *engine.Result) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.RecordRun(res.Files, res.Diagnostics)
	return err
}
