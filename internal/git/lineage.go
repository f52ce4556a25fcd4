package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// LineagePatch is one patch document to commit when building a lineage
type LineagePatch struct {
	Subject    string
	Path       string
	StripLevel int
}

// InitLineage turns an extracted source tree into a lineage with a single
// root commit. An existing repository is reused as is.
func InitLineage(ctx context.Context, dir string) (*Repository, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := os.Stat(filepath.Join(absDir, ".git")); err == nil {
		return OpenRepository(absDir)
	}

	runner := NewCommandRunner(absDir)
	if _, err := runner.Run(ctx, "init", "--quiet"); err != nil {
		return nil, fmt.Errorf("failed to init %s: %w", absDir, err)
	}
	repo, err := OpenRepository(absDir)
	if err != nil {
		return nil, err
	}
	if err := repo.commitAll(ctx, "Initial commit"); err != nil {
		return nil, err
	}
	return repo, nil
}

// ApplyPatches commits each patch on top of HEAD, one commit per patch,
// and returns the new commits in order
func (r *Repository) ApplyPatches(ctx context.Context, patches []LineagePatch) ([]string, error) {
	commits := make([]string, 0, len(patches))
	for _, p := range patches {
		absPatch, err := filepath.Abs(p.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}
		if _, err := r.runner.Run(ctx, "apply", "-p"+strconv.Itoa(p.StripLevel), absPatch); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", p.Path, err)
		}
		if err := r.commitAll(ctx, p.Subject); err != nil {
			return nil, err
		}
		head, err := r.Head(ctx)
		if err != nil {
			return nil, err
		}
		commits = append(commits, head)
	}
	return commits, nil
}

func (r *Repository) commitAll(ctx context.Context, message string) error {
	if _, err := r.runner.Run(ctx, "add", "--all"); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	if _, err := r.runner.RunWithEnv(ctx, r.authorEnv(ctx), "commit", "--quiet", "--allow-empty", "--no-verify", "-m", message); err != nil {
		return fmt.Errorf("failed to commit %q: %w", message, err)
	}
	return nil
}
