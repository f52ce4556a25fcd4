package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"patchrebase.dev/patchrebase/internal/config"
	rberrors "patchrebase.dev/patchrebase/internal/errors"
	"patchrebase.dev/patchrebase/internal/git"
)

// fakePatch scripts what replaying one old commit does
type fakePatch struct {
	original string
	// clean is the diff a clean replay produces; nil means it conflicts
	clean    *string
	paths    []string
	incoming string
	own      string
}

// fakeLineage is an in-memory lineage. Every new commit's diff against its
// parent is stored under its id.
type fakeLineage struct {
	patches    map[string]fakePatch
	oldHistory []string
	commits    []string
	diffs      map[string]string
	seq        int

	replaying string
	unmerged  []string
	// resolved is what CommitResolution commits for a human resolution
	resolved string

	failReplay string
}

func newFakeLineage(oldHistory []string, patches map[string]fakePatch) *fakeLineage {
	return &fakeLineage{
		patches:    patches,
		oldHistory: oldHistory,
		commits:    []string{"new-root"},
		diffs:      map[string]string{},
	}
}

func (f *fakeLineage) commit(diff string) string {
	f.seq++
	id := fmt.Sprintf("new-%d", f.seq)
	f.commits = append(f.commits, id)
	f.diffs[id] = diff
	return id
}

func (f *fakeLineage) ImportLineage(context.Context, string) ([]string, error) {
	return slices.Clone(f.oldHistory), nil
}

func (f *fakeLineage) FirstParentHistory(context.Context, string) ([]string, error) {
	return slices.Clone(f.commits), nil
}

func (f *fakeLineage) Head(context.Context) (string, error) {
	return f.commits[len(f.commits)-1], nil
}

func (f *fakeLineage) Reset(_ context.Context, rev string) error {
	i := slices.Index(f.commits, rev)
	if i < 0 {
		return fmt.Errorf("unknown revision %s", rev)
	}
	f.commits = f.commits[:i+1]
	return nil
}

func (f *fakeLineage) Replay(_ context.Context, commit string) (git.ReplayResult, error) {
	if commit == f.failReplay {
		return git.ReplayResult{}, rberrors.NewGitCommandError("git", []string{"cherry-pick", commit}, "", "fatal", errors.New("exit status 128"))
	}
	p := f.patches[commit]
	if p.clean != nil {
		return git.ReplayResult{Commit: f.commit(*p.clean)}, nil
	}
	f.replaying = commit
	f.unmerged = slices.Clone(p.paths)
	return git.ReplayResult{Conflict: &git.Conflict{Commit: commit, Paths: p.paths}}, nil
}

func (f *fakeLineage) ResolveFavoring(_ context.Context, commit string, side git.Side) (string, error) {
	f.replaying, f.unmerged = "", nil
	p := f.patches[commit]
	if side == git.Own {
		return f.commit(p.own), nil
	}
	return f.commit(p.incoming), nil
}

func (f *fakeLineage) ReplayState(context.Context) (git.ReplayState, error) {
	return git.ReplayState{InProgress: f.replaying != "", Unmerged: slices.Clone(f.unmerged)}, nil
}

func (f *fakeLineage) CommitResolution(context.Context, string) (string, error) {
	f.replaying, f.unmerged = "", nil
	return f.commit(f.resolved), nil
}

func (f *fakeLineage) AbortReplay(context.Context) error {
	f.replaying, f.unmerged = "", nil
	return nil
}

func (f *fakeLineage) Diff(_ context.Context, from, to string, _ git.DiffOptions) (string, error) {
	if from == to {
		return "", nil
	}
	return f.diffs[to], nil
}

func (f *fakeLineage) DiffOf(_ context.Context, commit string, _ git.DiffOptions) (string, error) {
	return f.patches[commit].original, nil
}

func (f *fakeLineage) Identity(context.Context) git.Identity {
	return git.Identity{Name: "Test User", Email: "test@example.com"}
}

// memoryStore keeps continuation state in memory
type memoryStore struct {
	state *config.SessionState
}

func (m *memoryStore) Load() (*config.SessionState, error) {
	if m.state == nil {
		return nil, rberrors.ErrNoContinuation
	}
	copied := *m.state
	return &copied, nil
}

func (m *memoryStore) Save(state *config.SessionState) error {
	copied := *state
	m.state = &copied
	return nil
}

func (m *memoryStore) Clear() error {
	m.state = nil
	return nil
}
