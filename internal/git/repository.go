package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// OldLineageRef is where the old lineage is fetched to inside the new lineage
const OldLineageRef = "refs/patchrebase/old"

// cherryPickHead is the pseudo-ref git writes while a cherry-pick is stopped
const cherryPickHead = "CHERRY_PICK_HEAD"

// Repository is one lineage working tree. Reads go through go-git,
// history-rewriting commands through the git executable.
type Repository struct {
	path   string
	runner *CommandRunner
}

// OpenRepository opens the git repository whose working tree is at path
func OpenRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	r := &Repository{
		path:   absPath,
		runner: NewCommandRunner(absPath, "GIT_TERMINAL_PROMPT=0"),
	}
	if _, err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the root of the working tree
func (r *Repository) Path() string {
	return r.path
}

// open returns a fresh go-git handle so objects written by the git
// executable since the last read are visible
func (r *Repository) open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", r.path, err)
	}
	return repo, nil
}

// Head returns the commit HEAD points to
func (r *Repository) Head(_ context.Context) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD in %s: %w", r.path, err)
	}
	return ref.Hash().String(), nil
}

// GitDir returns the absolute path of the repository's git directory
func (r *Repository) GitDir(ctx context.Context) (string, error) {
	return r.runner.Run(ctx, "rev-parse", "--absolute-git-dir")
}

// FirstParentHistory returns the first-parent chain ending at rev, root commit first
func (r *Repository) FirstParentHistory(_ context.Context, rev string) ([]string, error) {
	repo, err := r.open()
	if err != nil {
		return nil, err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rev, err)
	}

	var history []string
	for {
		commit, err := repo.CommitObject(*hash)
		if err != nil {
			return nil, fmt.Errorf("failed to get commit %s: %w", hash, err)
		}
		history = append(history, commit.Hash.String())
		if len(commit.ParentHashes) == 0 {
			break
		}
		parent := commit.ParentHashes[0]
		hash = &parent
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

// CommitMessage returns the full message of a commit
func (r *Repository) CommitMessage(_ context.Context, rev string) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("failed to get commit %s: %w", hash, err)
	}
	return commit.Message, nil
}

// ImportLineage fetches the old lineage's HEAD into this repository and
// returns its first-parent history, root commit first
func (r *Repository) ImportLineage(ctx context.Context, oldDir string) ([]string, error) {
	absOld, err := filepath.Abs(oldDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := r.runner.Run(ctx, "fetch", "--quiet", "--no-tags", absOld, "+HEAD:"+OldLineageRef); err != nil {
		return nil, fmt.Errorf("failed to fetch old lineage from %s: %w", absOld, err)
	}
	return r.FirstParentHistory(ctx, OldLineageRef)
}

// Reset moves HEAD and the working tree to rev
func (r *Repository) Reset(ctx context.Context, rev string) error {
	if _, err := r.runner.Run(ctx, "reset", "--hard", "--quiet", rev); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", rev, err)
	}
	return nil
}

// replayInProgress checks for a stopped cherry-pick
func (r *Repository) replayInProgress() (bool, error) {
	repo, err := r.open()
	if err != nil {
		return false, err
	}
	_, err = repo.Reference(plumbing.ReferenceName(cherryPickHead), true)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to read %s: %w", cherryPickHead, err)
	}
}
