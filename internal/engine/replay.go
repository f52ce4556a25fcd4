package engine

import (
	"context"
	"fmt"
	"strings"

	rberrors "patchrebase.dev/patchrebase/internal/errors"
	"patchrebase.dev/patchrebase/internal/git"
	"patchrebase.dev/patchrebase/internal/patch"
	"patchrebase.dev/patchrebase/internal/policy"
)

// replayPatch replays one patch onto the current tip. A non-nil conflict
// means the patch is waiting for a human and the step has no outcome yet.
func (s *Session) replayPatch(ctx context.Context, p patch.Patch, oldCommit string) (*Step, *git.Conflict, error) {
	pre, err := s.lineage.Head(ctx)
	if err != nil {
		return nil, nil, err
	}
	step := &Step{Patch: p, OldCommit: oldCommit, Pre: pre}

	res, err := s.lineage.Replay(ctx, oldCommit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to replay %s: %w", p.Name, err)
	}
	if res.Conflict == nil {
		if err := s.classifyClean(ctx, step, res.Commit); err != nil {
			return nil, nil, err
		}
		return step, nil, nil
	}

	action := policy.Decide(s.favor, s.interactive)
	s.log.Debug("%s conflicts in %s, policy: %s", p.Name, strings.Join(res.Conflict.Paths, ", "), action)
	switch action {
	case policy.ActionResolveIncoming, policy.ActionResolveOwn:
		side := git.Incoming
		if action == policy.ActionResolveOwn {
			side = git.Own
		}
		post, err := s.lineage.ResolveFavoring(ctx, oldCommit, side)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve %s: %w", p.Name, err)
		}
		if err := s.classifyResolved(ctx, step, post); err != nil {
			return nil, nil, err
		}
		return step, nil, nil
	case policy.ActionDefer:
		return step, res.Conflict, nil
	case policy.ActionMarkUnresolved:
		s.log.Warn("%s: %v", p.Name, rberrors.ErrConflictUnresolved)
		if err := s.lineage.AbortReplay(ctx); err != nil {
			return nil, nil, err
		}
		if err := s.lineage.Reset(ctx, pre); err != nil {
			return nil, nil, err
		}
		step.Post = pre
		step.Outcome = patch.Inapplicable
		return step, nil, nil
	}
	panic(fmt.Sprintf("engine: unhandled action %v", action))
}

// classifyClean settles a patch that replayed without conflicts
func (s *Session) classifyClean(ctx context.Context, step *Step, post string) error {
	diff, err := s.lineage.Diff(ctx, step.Pre, post, git.DiffOptions{})
	if err != nil {
		return err
	}
	if strings.TrimSpace(diff) == "" {
		return s.dropEmpty(ctx, step)
	}

	original, err := s.lineage.DiffOf(ctx, step.OldCommit, git.DiffOptions{})
	if err != nil {
		return err
	}
	step.Post = post
	if git.NormalizeDiff(diff) == git.NormalizeDiff(original) {
		step.Outcome = patch.Untouched
	} else {
		step.Outcome = patch.Modified
	}
	return nil
}

// classifyResolved settles a patch whose conflict was resolved, by a
// policy or by a human
func (s *Session) classifyResolved(ctx context.Context, step *Step, post string) error {
	diff, err := s.lineage.Diff(ctx, step.Pre, post, git.DiffOptions{})
	if err != nil {
		return err
	}
	if strings.TrimSpace(diff) == "" {
		return s.dropEmpty(ctx, step)
	}
	step.Post = post
	step.Outcome = patch.Modified
	return nil
}

// dropEmpty discards the empty commit a patch left behind
func (s *Session) dropEmpty(ctx context.Context, step *Step) error {
	if err := s.lineage.Reset(ctx, step.Pre); err != nil {
		return err
	}
	step.Post = step.Pre
	step.Outcome = patch.Deleted
	return nil
}
