// Package testhelpers provides testing utilities for patchrebase,
// including throwaway Git repositories and lineage scenes.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Test identity configured in every repository created by this package
const (
	TestUserName  = "Test User"
	TestUserEmail = "test@example.com"
)

// GitRepo represents a Git repository for testing purposes.
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new Git repository in the specified directory using 'git init'.
func NewGitRepo(dir string) (*GitRepo, error) {
	return newGitRepo(dir, true)
}

// NewGitRepoWithoutUser initializes a repository with no user configured.
func NewGitRepoWithoutUser(dir string) (*GitRepo, error) {
	return newGitRepo(dir, false)
}

func newGitRepo(dir string, withUser bool) (*GitRepo, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	repo := &GitRepo{Dir: dir}

	// Use git -c flags to avoid reading global config and set local configs
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", "--quiet", dir, "-b", "main")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w", err)
	}

	if withUser {
		if err := repo.runGitCommand("config", "user.name", TestUserName); err != nil {
			return nil, err
		}
		if err := repo.runGitCommand("config", "user.email", TestUserEmail); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// runGitCommand executes a git command in the repository directory.
// Uses GIT_CONFIG_GLOBAL=/dev/null to avoid reading global config.
func (r *GitRepo) runGitCommand(args ...string) error {
	_, err := r.runGitCommandAndGetOutput(args...)
	return err
}

// runGitCommandAndGetOutput executes a git command and returns its trimmed output.
func (r *GitRepo) runGitCommandAndGetOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output)), nil
}

// RunGitCommand executes a git command and returns an error if it fails.
func (r *GitRepo) RunGitCommand(args ...string) error {
	return r.runGitCommand(args...)
}

// RunGitCommandAndGetOutput executes a git command and returns its output.
func (r *GitRepo) RunGitCommandAndGetOutput(args ...string) (string, error) {
	return r.runGitCommandAndGetOutput(args...)
}

// WriteFile writes a file relative to the repository root.
func (r *GitRepo) WriteFile(name, content string) error {
	path := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ReadFile reads a file relative to the repository root.
func (r *GitRepo) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CommitAll stages everything and commits it, returning the new HEAD.
func (r *GitRepo) CommitAll(message string) (string, error) {
	if err := r.runGitCommand("add", "--all"); err != nil {
		return "", err
	}
	if err := r.runGitCommand("commit", "--quiet", "--allow-empty", "-m", message); err != nil {
		return "", err
	}
	return r.GetCurrentSHA()
}

// WriteAndCommit writes one file and commits it.
func (r *GitRepo) WriteAndCommit(name, content, message string) (string, error) {
	if err := r.WriteFile(name, content); err != nil {
		return "", err
	}
	return r.CommitAll(message)
}

// GetRevision returns the SHA of a revision (branch, tag, or commit reference).
func (r *GitRepo) GetRevision(rev string) (string, error) {
	return r.runGitCommandAndGetOutput("rev-parse", rev)
}

// GetCurrentSHA returns the SHA of HEAD.
func (r *GitRepo) GetCurrentSHA() (string, error) {
	return r.GetRevision("HEAD")
}

// GetCommitCount returns the number of commits reachable from rev.
func (r *GitRepo) GetCommitCount(rev string) (int, error) {
	output, err := r.runGitCommandAndGetOutput("rev-list", "--count", rev)
	if err != nil {
		return 0, err
	}
	var count int
	if _, err := fmt.Sscanf(output, "%d", &count); err != nil {
		return 0, fmt.Errorf("failed to parse commit count: %w", err)
	}
	return count, nil
}

// ListCommitSubjects returns the subjects of HEAD's history, oldest first.
func (r *GitRepo) ListCommitSubjects() ([]string, error) {
	output, err := r.runGitCommandAndGetOutput("log", "--reverse", "--format=%s")
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

// ReplayInProgress reports whether a cherry-pick is stopped in the repository.
func (r *GitRepo) ReplayInProgress() bool {
	_, err := os.Stat(filepath.Join(r.Dir, ".git", "CHERRY_PICK_HEAD"))
	return err == nil
}
