package engine

import (
	"context"

	"patchrebase.dev/patchrebase/internal/config"
	"patchrebase.dev/patchrebase/internal/git"
	"patchrebase.dev/patchrebase/internal/patch"
)

// Lineage defines the version-control operations a session needs from the
// new lineage. It is implemented by *git.Repository.
type Lineage interface {
	// History
	ImportLineage(ctx context.Context, oldDir string) ([]string, error)
	FirstParentHistory(ctx context.Context, rev string) ([]string, error)
	Head(ctx context.Context) (string, error)
	Reset(ctx context.Context, rev string) error

	// Replay
	Replay(ctx context.Context, commit string) (git.ReplayResult, error)
	ResolveFavoring(ctx context.Context, commit string, side git.Side) (string, error)
	ReplayState(ctx context.Context) (git.ReplayState, error)
	CommitResolution(ctx context.Context, commit string) (string, error)
	AbortReplay(ctx context.Context) error

	// Diffs and authorship
	Diff(ctx context.Context, from, to string, opts git.DiffOptions) (string, error)
	DiffOf(ctx context.Context, commit string, opts git.DiffOptions) (string, error)
	Identity(ctx context.Context) git.Identity
}

var _ Lineage = (*git.Repository)(nil)

// StateStore persists a suspended session between invocations
type StateStore interface {
	Load() (*config.SessionState, error)
	Save(state *config.SessionState) error
	Clear() error
}

var _ StateStore = (*config.ContinuationStore)(nil)

// Logger is the subset of tui.Splog the engine writes to
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

// Progress receives per-patch updates while a session runs. Calls are made
// from the goroutine running the session.
type Progress interface {
	PatchStarted(p patch.Patch)
	PatchFinished(p patch.Patch, outcome patch.Outcome)
	PatchSuspended(p patch.Patch, paths []string)
	PatchFailed(p patch.Patch, err error)
}

type nopProgress struct{}

func (nopProgress) PatchStarted(patch.Patch) {}
func (nopProgress) PatchFinished(patch.Patch, patch.Outcome) {}
func (nopProgress) PatchSuspended(patch.Patch, []string) {}
func (nopProgress) PatchFailed(patch.Patch, error) {}
