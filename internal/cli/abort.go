package cli

import (
	"errors"

	"github.com/spf13/cobra"

	rberrors "patchrebase.dev/patchrebase/internal/errors"
	"patchrebase.dev/patchrebase/internal/runtime"
)

// newAbortCmd creates the abort command
func newAbortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abort",
		Short: "Abandon a rebase suspended by a conflict",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			s, err := newSessionRunner(cmd.Context(), rc)
			if err != nil {
				return err
			}
			err = s.abort(cmd.Context())
			if errors.Is(err, rberrors.ErrInteractiveResolutionAborted) {
				rc.Splog.Info("Rebase aborted.")
				return nil
			}
			return err
		},
	}
	return cmd
}
