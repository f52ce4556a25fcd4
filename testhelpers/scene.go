package testhelpers

import (
	"fmt"
	"path/filepath"
	"testing"
)

// Scene is a pair of lineages for one rebase: the old upstream tree with
// the patch queue committed on top, and the new upstream tree.
type Scene struct {
	Dir       string
	Old       *GitRepo
	New       *GitRepo
	OutputDir string
	// OldCommits are the old lineage's commits, root first
	OldCommits []string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates old and new repositories under a temporary directory.
// The directory is removed by t.Cleanup.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	dir := t.TempDir()
	oldRepo, err := NewGitRepo(filepath.Join(dir, "old_sources"))
	if err != nil {
		t.Fatalf("Failed to create old repo: %v", err)
	}
	newRepo, err := NewGitRepo(filepath.Join(dir, "new_sources"))
	if err != nil {
		t.Fatalf("Failed to create new repo: %v", err)
	}

	scene := &Scene{
		Dir:       dir,
		Old:       oldRepo,
		New:       newRepo,
		OutputDir: filepath.Join(dir, "rebased_sources"),
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	return scene
}

// CommitOldBase commits the old upstream snapshot as the old lineage's root.
func (s *Scene) CommitOldBase(files map[string]string) error {
	sha, err := commitFiles(s.Old, files, "Initial commit")
	if err != nil {
		return err
	}
	s.OldCommits = append(s.OldCommits, sha)
	return nil
}

// CommitOldPatch commits one patch's effect on the old lineage.
func (s *Scene) CommitOldPatch(subject string, files map[string]string) error {
	sha, err := commitFiles(s.Old, files, subject)
	if err != nil {
		return err
	}
	s.OldCommits = append(s.OldCommits, sha)
	return nil
}

// CommitNewBase commits the new upstream snapshot as the new lineage's root.
func (s *Scene) CommitNewBase(files map[string]string) error {
	_, err := commitFiles(s.New, files, "Initial commit")
	return err
}

func commitFiles(repo *GitRepo, files map[string]string, message string) (string, error) {
	for name, content := range files {
		if err := repo.WriteFile(name, content); err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
	}
	return repo.CommitAll(message)
}
