package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	rberrors "patchrebase.dev/patchrebase/internal/errors"
)

// ContinuationFile is the name of the state file inside the new lineage's git dir
const ContinuationFile = "patchrebase_continue.json"

// StepState is one processed patch
type StepState struct {
	// Order is the 1-based position of the patch in the queue
	Order     int    `json:"order"`
	OldCommit string `json:"oldCommit"`
	Pre       string `json:"pre"`
	Post      string `json:"post"`
	Outcome   string `json:"outcome"`
}

// SuspendedStep is the patch a session stopped on
type SuspendedStep struct {
	// Order is the 1-based position of the patch in the queue
	Order     int      `json:"order"`
	OldCommit string   `json:"oldCommit"`
	Pre       string   `json:"pre"`
	Paths     []string `json:"paths,omitempty"`
}

// SessionState represents a rebase session interrupted by a conflict
type SessionState struct {
	SessionID        string        `json:"sessionId"`
	QueueFingerprint string        `json:"queueFingerprint"`
	OldSources       string        `json:"oldSources"`
	Favor            string        `json:"favor"`
	Interactive      bool          `json:"interactive"`
	OldCommits       []string      `json:"oldCommits"`
	Steps            []StepState   `json:"steps,omitempty"`
	Suspended        SuspendedStep `json:"suspended"`
	SuspendedAt      time.Time     `json:"suspendedAt"`
}

// ContinuationStore persists SessionState in a lineage's git directory
type ContinuationStore struct {
	path string
}

// NewContinuationStore creates a store for the given git directory
func NewContinuationStore(gitDir string) *ContinuationStore {
	return &ContinuationStore{path: filepath.Join(gitDir, ContinuationFile)}
}

// Path returns the location of the state file
func (s *ContinuationStore) Path() string {
	return s.path
}

// Load reads the continuation state from disk
func (s *ContinuationStore) Load() (*SessionState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, rberrors.ErrNoContinuation
		}
		return nil, fmt.Errorf("failed to read continuation state: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse continuation state: %w", err)
	}
	return &state, nil
}

// Save writes the continuation state to disk
func (s *ContinuationStore) Save(state *SessionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal continuation state: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}

// Clear removes the continuation state file
func (s *ContinuationStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear continuation state: %w", err)
	}
	return nil
}

// Exists reports whether a suspended session is waiting
func (s *ContinuationStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
