package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/reap-dev/reap/internal/history"
)

// NewHistoryCommand creates the history command, listing recorded
// analysis runs.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analysis runs",
		Long: `List runs recorded in the history database. Recording is enabled by
setting "history: <path>" in reap.yaml; check and serve then persist
every completed run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.History == "" {
				return fmt.Errorf("history is not configured; set \"history:\" in reap.yaml")
			}

			store, err := history.Open(cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Run", "When", "Files", "Issues"})
			for _, r := range runs {
				t.AppendRow(table.Row{r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Files, r.Diagnostics})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}
