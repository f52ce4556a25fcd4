package cli

import (
	"github.com/spf13/cobra"

	"patchrebase.dev/patchrebase/internal/report"
	"patchrebase.dev/patchrebase/internal/runtime"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the result of the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			run, err := report.Load(rc.ResultsPath)
			if err != nil {
				return err
			}
			rc.Splog.Page(report.Summary(run))
			return nil
		},
	}
}
