package commands

import (
	"github.com/spf13/cobra"

	"github.com/reap-dev/reap/internal/render"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/reap-dev/reap/pkg/lint/file"
	"github.com/reap-dev/reap/pkg/lint/project"
)

// NewRulesCommand creates the rules command, listing the rule catalog.
func NewRulesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List all rule codes with descriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := render.ModeAuto
			if asJSON {
				mode = render.ModeJSON
			}
			r := render.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			var infos []lint.RuleInfo
			for _, rule := range file.All() {
				infos = append(infos, rule.Info())
			}
			for _, rule := range project.All() {
				infos = append(infos, rule.Info())
			}
			return r.Rules(infos)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the catalog as JSON")
	return cmd
}
