// Package errors provides sentinel errors and custom error types for patchrebase.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrToolInvocation indicates that the version-control tooling failed unexpectedly
	ErrToolInvocation = errors.New("version control tool failed")

	// ErrConflictUnresolved indicates that a patch conflicted and no policy could resolve it.
	// It is never returned from a session; the patch is recorded as inapplicable instead.
	ErrConflictUnresolved = errors.New("conflict left unresolved")

	// ErrInteractiveResolutionAborted indicates that the human cancelled conflict resolution
	ErrInteractiveResolutionAborted = errors.New("interactive conflict resolution aborted")

	// ErrConflictStillUnresolved indicates that a session was continued while unmerged paths remain
	ErrConflictStillUnresolved = errors.New("conflict is still unresolved")

	// ErrNoContinuation indicates that there is no suspended session to continue
	ErrNoContinuation = errors.New("no suspended rebase session")

	// ErrQueueMismatch indicates that a continued session was given a different patch queue
	ErrQueueMismatch = errors.New("patch queue does not match the suspended session")

	// ErrLineageMismatch indicates that the old lineage does not have one commit per patch
	ErrLineageMismatch = errors.New("old lineage does not match the patch queue")

	// ErrEmission indicates that a rebased patch document could not be written
	ErrEmission = errors.New("failed to emit patch")
)

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrToolInvocation
func (e *GitCommandError) Is(target error) bool {
	return target == ErrToolInvocation
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

// EmissionError represents a failure to write a rebased patch document
type EmissionError struct {
	FileName string
	Err      error
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("failed to emit patch %s: %v", e.FileName, e.Err)
}

func (e *EmissionError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrEmission
func (e *EmissionError) Is(target error) bool {
	return target == ErrEmission
}

// NewEmissionError creates a new EmissionError
func NewEmissionError(fileName string, err error) *EmissionError {
	return &EmissionError{FileName: fileName, Err: err}
}

// SessionError is returned when a rebase session stops without completing.
// Outcomes holds whatever was recorded before the failure, keyed by
// outcome category, so callers can report which patches were processed.
type SessionError struct {
	State    string
	Outcomes map[string][]string
	Err      error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("rebase session %s: %v", e.State, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError
func NewSessionError(state string, outcomes map[string][]string, err error) *SessionError {
	return &SessionError{
		State:    state,
		Outcomes: outcomes,
		Err:      err,
	}
}
