package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"patchrebase.dev/patchrebase/internal/git"
	"patchrebase.dev/patchrebase/internal/runtime"
)

// newPrepareCmd creates the prepare command
func newPrepareCmd() *cobra.Command {
	var (
		sources   string
		patchDir  string
		withQueue bool
	)

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Turn an extracted source tree into a lineage",
		Long: `Turn an extracted source tree into a lineage: the tree is committed as the
root commit and, with --queue, every patch of the queue is applied and
committed on top, one commit per patch. Without --queue the result is a bare
new lineage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			cfg := rc.Config
			if patchDir == "" {
				patchDir = cfg.Resolve(cfg.PatchDir)
			}

			repo, err := git.InitLineage(cmd.Context(), sources)
			if err != nil {
				return err
			}
			if !withQueue {
				rc.Splog.Info("Prepared lineage %s", repo.Path())
				return nil
			}

			queue, err := cfg.Queue()
			if err != nil {
				return err
			}
			patches := make([]git.LineagePatch, 0, queue.Len())
			for _, p := range queue.Patches() {
				patches = append(patches, git.LineagePatch{
					Subject:    p.Name,
					Path:       filepath.Join(patchDir, p.FileName),
					StripLevel: p.StripLevel,
				})
			}
			commits, err := repo.ApplyPatches(cmd.Context(), patches)
			if err != nil {
				return err
			}
			rc.Splog.Info("Prepared lineage %s with %d patch commits", repo.Path(), len(commits))
			return nil
		},
	}

	cmd.Flags().StringVar(&sources, "sources", "", "Extracted source directory")
	cmd.Flags().StringVar(&patchDir, "patches", "", "Directory holding the patch files (default from config)")
	cmd.Flags().BoolVar(&withQueue, "queue", false, "Commit the patch queue on top of the sources")
	_ = cmd.MarkFlagRequired("sources")

	return cmd
}
