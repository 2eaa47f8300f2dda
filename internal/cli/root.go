// Package cli provides the command-line interface for reap.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reap-dev/reap/internal/cli/commands"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reap",
		Short: "reap - project-scope dead-code analyzer",
		Long: `reap finds dead code across a whole project, not one file at a time.

It lexes and parses every source file, builds name tables, and reports
nine categories of unused or unreachable code. Unused functions and
classes are decided against a project-global usage set, catching
definitions no file anywhere references.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("reap {{.Version}} (built %s, commit %s)\n", BuildDate, GitCommit))

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./reap.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("version", "V", false, "print version and exit")

	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))

	return rootCmd
}

// Execute runs the root command and returns the process exit code:
// 0 clean, 1 when diagnostics were found, 2 on runtime errors.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, commands.ErrIssuesFound) {
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}
