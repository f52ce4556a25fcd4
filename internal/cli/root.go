package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"patchrebase.dev/patchrebase/internal/config"
	"patchrebase.dev/patchrebase/internal/runtime"
)

type globalFlags struct {
	configPath string
	debug      bool
	logFile    string
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	flags := &globalFlags{}
	var rc *runtime.Context

	rootCmd := &cobra.Command{
		Use:   "patchrebase",
		Short: "Rebase a queue of downstream patches onto a new upstream release",
		Long: `patchrebase replays a queue of downstream patches, committed one per patch
on top of the old upstream sources, onto the new upstream sources and writes
the rebased patches to the output directory.

Each patch comes out untouched, modified, deleted (already upstream) or
inapplicable (its conflict was left for a human).`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			rc, err = runtime.NewContext(runtime.Options{
				ConfigPath: flags.configPath,
				LogFile:    flags.logFile,
				Debug:      flags.debug,
				Output:     cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			cmd.SetContext(runtime.WithContext(cmd.Context(), rc))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if rc != nil {
				return rc.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultConfigFile, "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Show debug output")
	rootCmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "Also write a full log to this file")

	// Add subcommands
	rootCmd.AddCommand(newRebaseCmd())
	rootCmd.AddCommand(newContinueCmd())
	rootCmd.AddCommand(newAbortCmd())
	rootCmd.AddCommand(newPrepareCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}
