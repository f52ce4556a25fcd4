package cli

import (
	"github.com/spf13/cobra"

	"patchrebase.dev/patchrebase/internal/runtime"
)

// newContinueCmd creates the continue command
func newContinueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Continue a rebase suspended by a conflict",
		Long: `Continue a rebase suspended by a conflict.
Resolve the conflicting files in the new lineage (and stage them) first; the
resolved patch is recorded and the remaining patches are replayed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return runSession(cmd, rc, true)
		},
	}
	return cmd
}
