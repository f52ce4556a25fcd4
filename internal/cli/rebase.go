package cli

import (
	"github.com/spf13/cobra"

	"patchrebase.dev/patchrebase/internal/policy"
	"patchrebase.dev/patchrebase/internal/runtime"
)

// newRebaseCmd creates the rebase command
func newRebaseCmd() *cobra.Command {
	var (
		oldDir         string
		newDir         string
		outputDir      string
		favor          string
		nonInteractive bool
	)

	cmd := &cobra.Command{
		Use:   "rebase",
		Short: "Replay the patch queue onto the new upstream sources",
		Long: `Replay the patch queue onto the new upstream sources.

Both source directories must be lineages: the old upstream snapshot with one
commit per patch on top, and the new upstream snapshot. Use 'patchrebase
prepare' to build them from extracted sources.

When a patch conflicts and --favor is none, an interactive run offers to
start 'git mergetool'; otherwise the patch is reported as inapplicable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			cfg := rc.Config
			if oldDir != "" {
				cfg.OldSources = oldDir
			}
			if newDir != "" {
				cfg.NewSources = newDir
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if cmd.Flags().Changed("favor") {
				f, err := policy.ParseFavor(favor)
				if err != nil {
					return err
				}
				cfg.FavorOnConflict = f
			}
			if nonInteractive {
				cfg.NonInteractive = true
			}

			return runSession(cmd, rc, false)
		},
	}

	cmd.Flags().StringVar(&oldDir, "old", "", "Old lineage directory (default from config)")
	cmd.Flags().StringVar(&newDir, "new", "", "New lineage directory (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory the rebased patches are written to")
	cmd.Flags().StringVar(&favor, "favor", "none", "Side that wins conflicts: upstream, downstream or none")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Never wait for a human; unresolved conflicts become inapplicable")

	return cmd
}
