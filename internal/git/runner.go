package git

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	rberrors "patchrebase.dev/patchrebase/internal/errors"
)

// DefaultCommandTimeout is the default timeout for git commands
const DefaultCommandTimeout = 5 * time.Minute

// CommandRunner handles execution of git commands in one working directory
type CommandRunner struct {
	workingDir string
	env        []string
}

// NewCommandRunner creates a new CommandRunner
func NewCommandRunner(workingDir string, env ...string) *CommandRunner {
	return &CommandRunner{workingDir: workingDir, env: env}
}

// WorkingDir returns the directory commands run in
func (r *CommandRunner) WorkingDir() string {
	return r.workingDir
}

// Run executes a git command with the given context and returns the trimmed output
func (r *CommandRunner) Run(ctx context.Context, args ...string) (string, error) {
	return r.runInternal(ctx, nil, "", true, args...)
}

// RunRaw executes a git command and returns the output untouched
func (r *CommandRunner) RunRaw(ctx context.Context, args ...string) (string, error) {
	return r.runInternal(ctx, nil, "", false, args...)
}

// RunWithEnv executes a git command with extra environment variables
func (r *CommandRunner) RunWithEnv(ctx context.Context, env []string, args ...string) (string, error) {
	return r.runInternal(ctx, env, "", true, args...)
}

// RunLines executes a git command and returns its output as lines
func (r *CommandRunner) RunLines(ctx context.Context, args ...string) ([]string, error) {
	output, err := r.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

// runInternal is the internal implementation that handles environment and input
func (r *CommandRunner) runInternal(ctx context.Context, env []string, input string, trim bool, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if extra := append(append([]string{}, r.env...), env...); len(extra) > 0 {
		cmd.Env = append(os.Environ(), extra...)
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", rberrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), ctx.Err())
		}
		return "", rberrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), err)
	}
	if trim {
		return strings.TrimSpace(stdout.String()), nil
	}
	return stdout.String(), nil
}

// RunInteractive executes a git command attached to the given streams.
// No default timeout is applied: the command waits on a human.
func (r *CommandRunner) RunInteractive(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return rberrors.NewGitCommandError("git", args, "", "", err)
	}
	return nil
}
