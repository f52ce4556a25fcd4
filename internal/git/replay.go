package git

import (
	"context"
	"fmt"
)

// Side selects whose content wins when a conflict is resolved automatically
type Side int

const (
	// Incoming keeps the content of the tree being replayed onto (the new upstream)
	Incoming Side = iota + 1
	// Own keeps the content of the commit being replayed (the patch)
	Own
)

func (s Side) String() string {
	switch s {
	case Incoming:
		return "incoming"
	case Own:
		return "own"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// strategyOption returns the cherry-pick -X value for a side.
// During a cherry-pick "ours" is HEAD and "theirs" is the picked commit.
func (s Side) strategyOption() string {
	if s == Own {
		return "theirs"
	}
	return "ours"
}

// checkoutFlag returns the checkout stage flag for a side
func (s Side) checkoutFlag() string {
	if s == Own {
		return "--theirs"
	}
	return "--ours"
}

// Conflict describes a replay that stopped on conflicting changes
type Conflict struct {
	Commit string
	Paths  []string
}

// ReplayResult is the result of replaying one commit onto HEAD.
// Exactly one of Commit and Conflict is set.
type ReplayResult struct {
	Commit   string
	Conflict *Conflict
}

// ReplayState describes a replay stopped in the working tree
type ReplayState struct {
	InProgress bool
	Unmerged   []string
}

// Replay reapplies the change introduced by commit on top of HEAD.
// A conflict leaves the stopped cherry-pick in place for the caller to resolve or abort.
func (r *Repository) Replay(ctx context.Context, commit string) (ReplayResult, error) {
	_, pickErr := r.runner.RunWithEnv(ctx, r.committerEnv(ctx), "cherry-pick", "--keep-redundant-commits", commit)
	if pickErr == nil {
		head, err := r.Head(ctx)
		if err != nil {
			return ReplayResult{}, err
		}
		return ReplayResult{Commit: head}, nil
	}

	state, err := r.ReplayState(ctx)
	if err != nil {
		return ReplayResult{}, err
	}
	if !state.InProgress {
		return ReplayResult{}, fmt.Errorf("failed to replay %s: %w", commit, pickErr)
	}
	if len(state.Unmerged) == 0 {
		// Stopped without conflicting paths; nothing is left to decide.
		head, err := r.CommitResolution(ctx, commit)
		if err != nil {
			return ReplayResult{}, err
		}
		return ReplayResult{Commit: head}, nil
	}
	return ReplayResult{Conflict: &Conflict{Commit: commit, Paths: state.Unmerged}}, nil
}

// ResolveFavoring settles a conflicted replay of commit by taking side's
// content for every conflicting region, and commits the result
func (r *Repository) ResolveFavoring(ctx context.Context, commit string, side Side) (string, error) {
	if err := r.AbortReplay(ctx); err != nil {
		return "", err
	}
	_, pickErr := r.runner.RunWithEnv(ctx, r.committerEnv(ctx), "cherry-pick", "--keep-redundant-commits",
		"--strategy-option="+side.strategyOption(), commit)
	if pickErr == nil {
		return r.Head(ctx)
	}

	state, err := r.ReplayState(ctx)
	if err != nil {
		return "", err
	}
	if !state.InProgress {
		return "", fmt.Errorf("failed to replay %s favoring %s: %w", commit, side, pickErr)
	}

	// Conflicts the strategy option cannot settle (modify/delete, add/add on
	// binary files) take the whole file from the favored side.
	for _, path := range state.Unmerged {
		if _, err := r.runner.Run(ctx, "checkout", side.checkoutFlag(), "--", path); err != nil {
			if _, err := r.runner.Run(ctx, "rm", "--quiet", "--force", "--", path); err != nil {
				return "", fmt.Errorf("failed to resolve %s favoring %s: %w", path, side, err)
			}
			continue
		}
		if _, err := r.runner.Run(ctx, "add", "--", path); err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", path, err)
		}
	}
	return r.CommitResolution(ctx, commit)
}

// ReplayState reports whether a replay is stopped and which paths are unmerged
func (r *Repository) ReplayState(ctx context.Context) (ReplayState, error) {
	inProgress, err := r.replayInProgress()
	if err != nil {
		return ReplayState{}, err
	}
	unmerged, err := r.runner.RunLines(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return ReplayState{}, fmt.Errorf("failed to list unmerged paths: %w", err)
	}
	return ReplayState{InProgress: inProgress, Unmerged: unmerged}, nil
}

// CommitResolution commits a resolved replay, reusing the message and
// authorship of the original commit. An empty result is committed as is.
func (r *Repository) CommitResolution(ctx context.Context, commit string) (string, error) {
	if _, err := r.runner.RunWithEnv(ctx, r.committerEnv(ctx), "commit", "--quiet", "--allow-empty", "--no-verify", "-C", commit); err != nil {
		return "", fmt.Errorf("failed to commit resolution of %s: %w", commit, err)
	}
	return r.Head(ctx)
}

// AbortReplay abandons a stopped replay, restoring the pre-replay state.
// It is a no-op when no replay is in progress.
func (r *Repository) AbortReplay(ctx context.Context) error {
	inProgress, err := r.replayInProgress()
	if err != nil {
		return err
	}
	if !inProgress {
		return nil
	}
	if _, err := r.runner.Run(ctx, "cherry-pick", "--abort"); err != nil {
		return fmt.Errorf("cherry-pick abort failed: %w", err)
	}
	return nil
}

// RunMergeTool runs the configured merge tool on the stopped replay and
// blocks until the tool exits
func (r *Repository) RunMergeTool(ctx context.Context, streams Streams) error {
	return r.runner.RunInteractive(ctx, streams.In, streams.Out, streams.Err, "mergetool")
}
