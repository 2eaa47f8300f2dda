package commands

import (
	"github.com/spf13/cobra"

	"github.com/reap-dev/reap/internal/history"
	"github.com/reap-dev/reap/internal/server"
	"github.com/reap-dev/reap/pkg/engine"
)

// NewServeCommand creates the serve command: a local dashboard whose
// diagnostics table refreshes live as files change.
func NewServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [paths...]",
		Short: "Serve a live diagnostics dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"."}
			}

			var store *history.Store
			if cfg.History != "" {
				store, err = history.Open(cfg.History)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			eng := engine.New(engine.Config{
				Select:      cfg.Select,
				RuleOptions: cfg.RuleOptionMap(),
				Logger:      buildLogger(cfg.Verbose),
			})
			srv := server.New(server.Config{
				Paths:   args,
				Engine:  eng,
				Exclude: cfg.Exclude,
				Port:    port,
				Logger:  buildLogger(cfg.Verbose),
				History: store,
			})
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8737, "port to listen on")
	cmd.Flags().StringSlice("select", nil, "comma-separated rule codes to run (default: all)")
	cmd.Flags().StringSlice("exclude", nil, "comma-separated names to skip during discovery")
	return cmd
}
