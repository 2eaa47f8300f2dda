package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reap-dev/reap/internal/discover"
	"github.com/reap-dev/reap/internal/render"
)

// NewInitCommand creates the init command, writing a starter config
// and ignore file into the current directory.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter reap.yaml and .reapignore",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := render.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), render.ModeAuto)

			starter := map[string]any{
				"select":  []string{},
				"exclude": []string{},
				"rules": map[string]any{
					"RP003": map[string]any{
						"exempt_decorators": []string{},
					},
				},
			}
			body, err := yaml.Marshal(starter)
			if err != nil {
				return fmt.Errorf("rendering starter config: %w", err)
			}

			if err := writeIfAbsent("reap.yaml", body, force); err != nil {
				return err
			}
			if err := writeIfAbsent(discover.IgnoreFileName, []byte("# glob patterns to skip, one per line\n"), force); err != nil {
				return err
			}
			r.Successf("Wrote reap.yaml and %s", discover.IgnoreFileName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func writeIfAbsent(path string, body []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, body, 0o644)
}
