package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rberrors "patchrebase.dev/patchrebase/internal/errors"
	"patchrebase.dev/patchrebase/internal/patch"
	"patchrebase.dev/patchrebase/internal/policy"
)

func ptr(s string) *string { return &s }

const (
	diffP1        = "@@ -1,6 +1,6 @@\n-line 03\n+line 03 patched by P1\n"
	diffP2        = "@@ -9,7 +9,7 @@\n-line 12\n+line 12 patched by P2\n"
	diffP2Shifted = "@@ -10,7 +10,7 @@\n-line 12\n+line 12 patched by P2\n"
	diffP3        = "@@ -17,7 +17,7 @@\n-line 20\n+line 20 patched by P3\n"
	diffP3Own     = "@@ -18,7 +18,7 @@\n-line 20 rewritten upstream\n+line 20 patched by P3\n"
	diffP4        = "@@ -24,7 +24,7 @@\n-line 27\n+line 27 fixed upstream\n"
)

// fourPatchLineage mirrors testhelpers.FourPatchSceneSetup: P1 applies
// unchanged, P2 shifts, P3 conflicts and P4 is already upstream
func fourPatchLineage() *fakeLineage {
	return newFakeLineage(
		[]string{"old-root", "old-1", "old-2", "old-3", "old-4"},
		map[string]fakePatch{
			"old-1": {original: diffP1, clean: ptr(diffP1)},
			"old-2": {original: diffP2, clean: ptr(diffP2Shifted)},
			"old-3": {original: diffP3, paths: []string{"lipsum.txt"}, incoming: "", own: diffP3Own},
			"old-4": {original: diffP4, clean: ptr("")},
		},
	)
}

func fourPatchQueue(t *testing.T) *patch.Queue {
	t.Helper()
	q, err := patch.NewQueue([]patch.Entry{
		{Name: "P1", FileName: "P1.patch", StripLevel: 1},
		{Name: "P2", FileName: "P2.patch", StripLevel: 1},
		{Name: "P3", FileName: "P3.patch", StripLevel: 1},
		{Name: "P4", FileName: "P4.patch", StripLevel: 1},
	})
	require.NoError(t, err)
	return q
}

type harness struct {
	lineage *fakeLineage
	store   *memoryStore
	queue   *patch.Queue
	output  string
	clock   *clock.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC))
	return &harness{
		lineage: fourPatchLineage(),
		store:   &memoryStore{},
		queue:   fourPatchQueue(t),
		output:  filepath.Join(t.TempDir(), "rebased_sources"),
		clock:   clk,
	}
}

func (h *harness) options(favor policy.Favor, interactive, continuing bool) Options {
	return Options{
		Lineage:     h.lineage,
		OldDir:      "old_sources",
		Queue:       h.queue,
		Favor:       favor,
		Interactive: interactive,
		Continuing:  continuing,
		OutputDir:   h.output,
		Store:       h.store,
		Clock:       h.clock,
	}
}

func TestRunRebase_FourPatchScenario(t *testing.T) {
	tests := []struct {
		name     string
		favor    policy.Favor
		expected map[string][]string
		files    []string
		tagsP3   bool
	}{
		{
			name:  "favor upstream",
			favor: policy.FavorUpstream,
			expected: map[string][]string{
				"untouched": {"P1.patch"},
				"modified":  {"P2.patch"},
				"deleted":   {"P3.patch", "P4.patch"},
			},
			files: []string{"P1.patch", "P2.patch", "series"},
		},
		{
			name:  "favor downstream",
			favor: policy.FavorDownstream,
			expected: map[string][]string{
				"untouched": {"P1.patch"},
				"modified":  {"P2.patch", "P3.patch"},
				"deleted":   {"P4.patch"},
			},
			files: []string{"P1.patch", "P2.patch", "P3.patch", "series"},
		},
		{
			name:  "favor none without a human",
			favor: policy.FavorNone,
			expected: map[string][]string{
				"untouched":    {"P1.patch"},
				"modified":     {"P2.patch"},
				"inapplicable": {"P3.patch"},
				"deleted":      {"P4.patch"},
			},
			files:  []string{"P1.patch", "P2.patch", "P3.patch", "series"},
			tagsP3: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			result, err := RunRebase(context.Background(), h.options(tt.favor, false, false))
			require.NoError(t, err)

			assert.Equal(t, StateCompleted, result.State)
			assert.False(t, result.Suspended)
			assert.NotEmpty(t, result.SessionID)
			assert.True(t, result.RebuildRequired())
			if diff := cmp.Diff(tt.expected, result.Outcomes.Named()); diff != "" {
				t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
			}

			entries, err := os.ReadDir(h.output)
			require.NoError(t, err)
			var files []string
			for _, e := range entries {
				files = append(files, e.Name())
			}
			assert.Equal(t, tt.files, files)

			if tt.tagsP3 {
				content, err := os.ReadFile(filepath.Join(h.output, "P3.patch"))
				require.NoError(t, err)
				assert.Contains(t, string(content), "X-Rebase-Outcome: inapplicable\n")
				assert.Contains(t, string(content), diffP3)
			}
			assert.Nil(t, h.store.state)
		})
	}
}

type stepSummary struct {
	Name      string
	Order     int
	OldCommit string
}

func summarizeSteps(steps []Step) []stepSummary {
	out := make([]stepSummary, 0, len(steps))
	for _, st := range steps {
		out = append(out, stepSummary{Name: st.Patch.Name, Order: st.Patch.Order, OldCommit: st.OldCommit})
	}
	return out
}

var fourPatchSteps = []stepSummary{
	{Name: "P1", Order: 1, OldCommit: "old-1"},
	{Name: "P2", Order: 2, OldCommit: "old-2"},
	{Name: "P3", Order: 3, OldCommit: "old-3"},
	{Name: "P4", Order: 4, OldCommit: "old-4"},
}

func TestRunRebase_PairsPatchesWithTheirCommits(t *testing.T) {
	t.Run("fresh run", func(t *testing.T) {
		h := newHarness(t)

		result, err := RunRebase(context.Background(), h.options(policy.FavorUpstream, false, false))
		require.NoError(t, err)
		if diff := cmp.Diff(fourPatchSteps, summarizeSteps(result.Steps)); diff != "" {
			t.Errorf("steps mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, 4, result.Outcomes.Len())
	})

	t.Run("continued run", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_, err := RunRebase(ctx, h.options(policy.FavorNone, true, false))
		require.NoError(t, err)
		h.lineage.unmerged = nil
		h.lineage.resolved = diffP3Own

		result, err := RunRebase(ctx, h.options(policy.FavorNone, true, true))
		require.NoError(t, err)
		if diff := cmp.Diff(fourPatchSteps, summarizeSteps(result.Steps)); diff != "" {
			t.Errorf("steps mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRunRebase_NothingChanged(t *testing.T) {
	h := newHarness(t)
	h.lineage = newFakeLineage(
		[]string{"old-root", "old-1"},
		map[string]fakePatch{"old-1": {original: diffP1, clean: ptr(diffP1)}},
	)
	q, err := patch.NewQueue([]patch.Entry{{Name: "P1", FileName: "P1.patch", StripLevel: 1}})
	require.NoError(t, err)
	h.queue = q

	result, err := RunRebase(context.Background(), h.options(policy.FavorNone, false, false))
	require.NoError(t, err)
	assert.False(t, result.RebuildRequired())
	require.Len(t, result.Documents, 1)
	assert.Equal(t, patch.Untouched, result.Documents[0].Outcome)
}

func TestRunRebase_IsRepeatable(t *testing.T) {
	h := newHarness(t)

	first, err := RunRebase(context.Background(), h.options(policy.FavorDownstream, false, false))
	require.NoError(t, err)
	second, err := RunRebase(context.Background(), h.options(policy.FavorDownstream, false, false))
	require.NoError(t, err)

	assert.Equal(t, first.Outcomes.Named(), second.Outcomes.Named())
	assert.NotEqual(t, first.SessionID, second.SessionID)
	// root, P1, P2 and P3; P4 left nothing behind
	assert.Len(t, h.lineage.commits, 4)
}

func TestRunRebase_LineageMismatch(t *testing.T) {
	h := newHarness(t)
	h.lineage.oldHistory = []string{"old-root", "old-1", "old-2"}

	result, err := RunRebase(context.Background(), h.options(policy.FavorUpstream, false, false))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, rberrors.ErrLineageMismatch)

	var sessionErr *rberrors.SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "FAILED", sessionErr.State)
}

func TestRunRebase_ToolFailureKeepsPartialOutcomes(t *testing.T) {
	h := newHarness(t)
	h.lineage.failReplay = "old-3"

	_, err := RunRebase(context.Background(), h.options(policy.FavorUpstream, false, false))
	require.Error(t, err)
	assert.ErrorIs(t, err, rberrors.ErrToolInvocation)

	var sessionErr *rberrors.SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "FAILED", sessionErr.State)
	assert.Equal(t, map[string][]string{
		"untouched": {"P1.patch"},
		"modified":  {"P2.patch"},
	}, sessionErr.Outcomes)
}

func TestSession_SuspendAndContinue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	result, err := RunRebase(ctx, h.options(policy.FavorNone, true, false))
	require.NoError(t, err)
	assert.Equal(t, StateSuspended, result.State)
	assert.True(t, result.Suspended)
	require.NotNil(t, result.Conflict)
	assert.Equal(t, "P3", result.Conflict.Patch.Name)
	assert.Equal(t, []string{"lipsum.txt"}, result.Conflict.Paths)
	assert.Empty(t, result.Documents)
	assert.Equal(t, 2, result.Outcomes.Len())

	require.NotNil(t, h.store.state)
	saved := h.store.state
	assert.Equal(t, result.SessionID, saved.SessionID)
	assert.Equal(t, 3, saved.Suspended.Order)
	assert.Equal(t, "old-3", saved.Suspended.OldCommit)
	assert.Equal(t, h.clock.Now(), saved.SuspendedAt)
	assert.Len(t, saved.Steps, 2)

	t.Run("still unresolved", func(t *testing.T) {
		result, err := RunRebase(ctx, h.options(policy.FavorNone, true, true))
		require.Error(t, err)
		assert.ErrorIs(t, err, rberrors.ErrConflictStillUnresolved)
		require.NotNil(t, result)
		assert.Equal(t, StateSuspended, result.State)
		assert.Equal(t, "P3", result.Conflict.Patch.Name)
		assert.NotNil(t, h.store.state)
	})

	t.Run("resolved", func(t *testing.T) {
		h.lineage.unmerged = nil
		h.lineage.resolved = diffP3Own

		result, err := RunRebase(ctx, h.options(policy.FavorNone, true, true))
		require.NoError(t, err)
		assert.Equal(t, StateCompleted, result.State)
		assert.Equal(t, saved.SessionID, result.SessionID)
		if diff := cmp.Diff(map[string][]string{
			"untouched": {"P1.patch"},
			"modified":  {"P2.patch", "P3.patch"},
			"deleted":   {"P4.patch"},
		}, result.Outcomes.Named()); diff != "" {
			t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
		}
		assert.Len(t, result.Documents, 3)
		assert.Nil(t, h.store.state)
	})
}

func TestSession_ContinueWithEmptyResolution(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := RunRebase(ctx, h.options(policy.FavorNone, true, false))
	require.NoError(t, err)

	h.lineage.unmerged = nil
	h.lineage.resolved = ""
	result, err := RunRebase(ctx, h.options(policy.FavorNone, true, true))
	require.NoError(t, err)

	outcome, ok := result.Outcomes.Get(result.Steps[2].Patch)
	require.True(t, ok)
	assert.Equal(t, patch.Deleted, outcome)
	assert.Equal(t, result.Steps[2].Pre, result.Steps[2].Post)
}

func TestSession_ContinueErrors(t *testing.T) {
	t.Run("nothing suspended", func(t *testing.T) {
		h := newHarness(t)
		_, err := RunRebase(context.Background(), h.options(policy.FavorNone, true, true))
		require.Error(t, err)
		assert.ErrorIs(t, err, rberrors.ErrNoContinuation)
	})

	t.Run("different queue", func(t *testing.T) {
		h := newHarness(t)
		_, err := RunRebase(context.Background(), h.options(policy.FavorNone, true, false))
		require.NoError(t, err)

		q, err := patch.NewQueue([]patch.Entry{{Name: "P1", FileName: "other.patch", StripLevel: 1}})
		require.NoError(t, err)
		h.queue = q
		_, err = RunRebase(context.Background(), h.options(policy.FavorNone, true, true))
		require.Error(t, err)
		assert.ErrorIs(t, err, rberrors.ErrQueueMismatch)
	})
}

func TestSession_Abort(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	result, err := RunRebase(ctx, h.options(policy.FavorNone, true, false))
	require.NoError(t, err)
	pre := h.store.state.Suspended.Pre

	s, err := NewSession(h.options(policy.FavorNone, true, true))
	require.NoError(t, err)
	err = s.Abort(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, rberrors.ErrInteractiveResolutionAborted)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, result.SessionID, s.ID())

	var sessionErr *rberrors.SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, map[string][]string{
		"untouched": {"P1.patch"},
		"modified":  {"P2.patch"},
	}, sessionErr.Outcomes)

	assert.Nil(t, h.store.state)
	assert.Empty(t, h.lineage.replaying)
	head, err := h.lineage.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, pre, head)
}

func TestSession_RunOnce(t *testing.T) {
	h := newHarness(t)
	s, err := NewSession(h.options(policy.FavorUpstream, false, false))
	require.NoError(t, err)
	assert.Equal(t, StateInit, s.State())

	_, err = s.Run(context.Background())
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.Error(t, err)
}

func TestNewSession_RequiresCollaborators(t *testing.T) {
	h := newHarness(t)

	opts := h.options(policy.FavorNone, false, false)
	opts.Lineage = nil
	_, err := NewSession(opts)
	require.Error(t, err)

	opts = h.options(policy.FavorNone, false, false)
	opts.Store = nil
	_, err = NewSession(opts)
	require.Error(t, err)
}

type recordingProgress struct {
	events []string
}

func (r *recordingProgress) PatchStarted(p patch.Patch) {
	r.events = append(r.events, "start "+p.Name)
}

func (r *recordingProgress) PatchFinished(p patch.Patch, outcome patch.Outcome) {
	r.events = append(r.events, p.Name+" "+outcome.String())
}

func (r *recordingProgress) PatchSuspended(p patch.Patch, paths []string) {
	r.events = append(r.events, p.Name+" suspended on "+paths[0])
}

func (r *recordingProgress) PatchFailed(p patch.Patch, _ error) {
	r.events = append(r.events, p.Name+" failed")
}

func TestRunRebase_ReportsProgress(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		h := newHarness(t)
		progress := &recordingProgress{}
		opts := h.options(policy.FavorUpstream, false, false)
		opts.Progress = progress

		_, err := RunRebase(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"start P1", "P1 untouched",
			"start P2", "P2 modified",
			"start P3", "P3 deleted",
			"start P4", "P4 deleted",
		}, progress.events)
	})

	t.Run("suspended", func(t *testing.T) {
		h := newHarness(t)
		progress := &recordingProgress{}
		opts := h.options(policy.FavorNone, true, false)
		opts.Progress = progress

		_, err := RunRebase(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"start P1", "P1 untouched",
			"start P2", "P2 modified",
			"start P3", "P3 suspended on lipsum.txt",
		}, progress.events)
	})

	t.Run("failed", func(t *testing.T) {
		h := newHarness(t)
		h.lineage.failReplay = "old-2"
		progress := &recordingProgress{}
		opts := h.options(policy.FavorUpstream, false, false)
		opts.Progress = progress

		_, err := RunRebase(context.Background(), opts)
		require.Error(t, err)
		assert.Equal(t, []string{"start P1", "P1 untouched", "start P2", "P2 failed"}, progress.events)
	})
}
