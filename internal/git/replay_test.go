package git_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"patchrebase.dev/patchrebase/internal/git"
	"patchrebase.dev/patchrebase/testhelpers"
)

const baseText = "alpha\nbravo\ncharlie\ndelta\necho\nfoxtrot\ngolf\nhotel\nindia\njuliet\n"

// replayScene builds an old lineage with one patch changing "bravo" and
// a new lineage whose base is derived from baseText by edit.
func replayScene(t *testing.T, edit func(string) string) (*testhelpers.Scene, *git.Repository, string) {
	t.Helper()
	scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		if err := s.CommitOldBase(map[string]string{"file.txt": baseText}); err != nil {
			return err
		}
		patched := strings.Replace(baseText, "bravo\n", "bravo patched\n", 1)
		if err := s.CommitOldPatch("P1", map[string]string{"file.txt": patched}); err != nil {
			return err
		}
		return s.CommitNewBase(map[string]string{"file.txt": edit(baseText)})
	})

	repo, err := git.OpenRepository(scene.New.Dir)
	require.NoError(t, err)

	commits, err := repo.ImportLineage(context.Background(), scene.Old.Dir)
	require.NoError(t, err)
	require.Equal(t, scene.OldCommits, commits)

	return scene, repo, commits[1]
}

func TestReplay(t *testing.T) {
	ctx := context.Background()

	t.Run("clean replay keeps the same change", func(t *testing.T) {
		_, repo, commit := replayScene(t, func(s string) string {
			return strings.Replace(s, "juliet\n", "juliet upstream\n", 1)
		})
		base, err := repo.Head(ctx)
		require.NoError(t, err)

		result, err := repo.Replay(ctx, commit)
		require.NoError(t, err)
		require.Nil(t, result.Conflict)
		require.NotEqual(t, base, result.Commit)

		original, err := repo.DiffOf(ctx, commit, git.DiffOptions{})
		require.NoError(t, err)
		rebased, err := repo.Diff(ctx, base, result.Commit, git.DiffOptions{})
		require.NoError(t, err)

		require.NotEqual(t, original, rebased, "blob ids differ between the trees")
		require.Equal(t, git.NormalizeDiff(original), git.NormalizeDiff(rebased))
	})

	t.Run("shifted context changes the hunk header", func(t *testing.T) {
		_, repo, commit := replayScene(t, func(s string) string {
			return "new first line\nnew second line\n" + s
		})
		base, err := repo.Head(ctx)
		require.NoError(t, err)

		result, err := repo.Replay(ctx, commit)
		require.NoError(t, err)
		require.Nil(t, result.Conflict)

		original, err := repo.DiffOf(ctx, commit, git.DiffOptions{})
		require.NoError(t, err)
		rebased, err := repo.Diff(ctx, base, result.Commit, git.DiffOptions{})
		require.NoError(t, err)

		require.NotEqual(t, git.NormalizeDiff(original), git.NormalizeDiff(rebased))
		require.Contains(t, rebased, "+bravo patched")
	})

	t.Run("change already upstream replays as empty", func(t *testing.T) {
		_, repo, commit := replayScene(t, func(s string) string {
			return strings.Replace(s, "bravo\n", "bravo patched\n", 1)
		})
		base, err := repo.Head(ctx)
		require.NoError(t, err)

		result, err := repo.Replay(ctx, commit)
		require.NoError(t, err)
		require.Nil(t, result.Conflict)

		diff, err := repo.Diff(ctx, base, result.Commit, git.DiffOptions{})
		require.NoError(t, err)
		require.Empty(t, diff)
	})

	t.Run("conflict is reported and left in place", func(t *testing.T) {
		scene, repo, commit := replayScene(t, func(s string) string {
			return strings.Replace(s, "bravo\n", "bravo upstream\n", 1)
		})
		base, err := repo.Head(ctx)
		require.NoError(t, err)

		result, err := repo.Replay(ctx, commit)
		require.NoError(t, err)
		require.NotNil(t, result.Conflict)
		require.Equal(t, []string{"file.txt"}, result.Conflict.Paths)
		require.Equal(t, commit, result.Conflict.Commit)
		require.True(t, scene.New.ReplayInProgress())

		state, err := repo.ReplayState(ctx)
		require.NoError(t, err)
		require.True(t, state.InProgress)
		require.Equal(t, []string{"file.txt"}, state.Unmerged)

		require.NoError(t, repo.AbortReplay(ctx))
		require.False(t, scene.New.ReplayInProgress())
		head, err := repo.Head(ctx)
		require.NoError(t, err)
		require.Equal(t, base, head)

		// Aborting twice is harmless
		require.NoError(t, repo.AbortReplay(ctx))
	})
}

func TestResolveFavoring(t *testing.T) {
	ctx := context.Background()
	upstream := func(s string) string {
		return strings.Replace(s, "bravo\n", "bravo upstream\n", 1)
	}

	t.Run("incoming keeps the new tree", func(t *testing.T) {
		scene, repo, commit := replayScene(t, upstream)
		base, err := repo.Head(ctx)
		require.NoError(t, err)

		result, err := repo.Replay(ctx, commit)
		require.NoError(t, err)
		require.NotNil(t, result.Conflict)

		resolved, err := repo.ResolveFavoring(ctx, commit, git.Incoming)
		require.NoError(t, err)
		require.False(t, scene.New.ReplayInProgress())

		diff, err := repo.Diff(ctx, base, resolved, git.DiffOptions{})
		require.NoError(t, err)
		require.Empty(t, diff)

		content, err := scene.New.ReadFile("file.txt")
		require.NoError(t, err)
		require.Contains(t, content, "bravo upstream\n")
	})

	t.Run("own keeps the patch", func(t *testing.T) {
		scene, repo, commit := replayScene(t, upstream)
		base, err := repo.Head(ctx)
		require.NoError(t, err)

		_, err = repo.Replay(ctx, commit)
		require.NoError(t, err)

		resolved, err := repo.ResolveFavoring(ctx, commit, git.Own)
		require.NoError(t, err)

		diff, err := repo.Diff(ctx, base, resolved, git.DiffOptions{})
		require.NoError(t, err)
		require.Contains(t, diff, "-bravo upstream")
		require.Contains(t, diff, "+bravo patched")

		subjects, err := scene.New.ListCommitSubjects()
		require.NoError(t, err)
		require.Equal(t, []string{"Initial commit", "P1"}, subjects)
	})
}

func TestCommitResolution(t *testing.T) {
	ctx := context.Background()
	scene, repo, commit := replayScene(t, func(s string) string {
		return strings.Replace(s, "bravo\n", "bravo upstream\n", 1)
	})

	_, err := repo.Replay(ctx, commit)
	require.NoError(t, err)

	// Resolve by hand the way a merge tool would
	require.NoError(t, scene.New.WriteFile("file.txt", strings.Replace(baseText, "bravo\n", "bravo merged\n", 1)))
	require.NoError(t, scene.New.RunGitCommand("add", "file.txt"))

	state, err := repo.ReplayState(ctx)
	require.NoError(t, err)
	require.True(t, state.InProgress)
	require.Empty(t, state.Unmerged)

	head, err := repo.CommitResolution(ctx, commit)
	require.NoError(t, err)
	require.False(t, scene.New.ReplayInProgress())

	msg, err := repo.CommitMessage(ctx, head)
	require.NoError(t, err)
	require.Equal(t, "P1\n", msg)
}
