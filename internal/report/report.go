package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"patchrebase.dev/patchrebase/internal/engine"
	rberrors "patchrebase.dev/patchrebase/internal/errors"
)

// ResultsFile is the name of the file a FileSink writes
const ResultsFile = "results.yaml"

// Conflict names the patch a suspended run is waiting on
type Conflict struct {
	Patch string   `yaml:"patch"`
	Paths []string `yaml:"paths"`
}

// Run is the recorded result of one session run
type Run struct {
	SessionID       string              `yaml:"session_id,omitempty"`
	State           string              `yaml:"state"`
	Favor           string              `yaml:"favor"`
	RecordedAt      time.Time           `yaml:"recorded_at"`
	Outcomes        map[string][]string `yaml:"outcomes"`
	Emitted         []string            `yaml:"emitted,omitempty"`
	Suspended       bool                `yaml:"suspended"`
	Conflict        *Conflict           `yaml:"conflict,omitempty"`
	RebuildRequired bool                `yaml:"rebuild_required"`
	Error           string              `yaml:"error,omitempty"`
}

// FromResult builds a Run from a session result. err is the error the
// session returned alongside it, if any.
func FromResult(res *engine.Result, favor string, at time.Time, err error) Run {
	run := Run{
		SessionID:       res.SessionID,
		State:           res.State.String(),
		Favor:           favor,
		RecordedAt:      at,
		Outcomes:        res.Outcomes.Named(),
		Suspended:       res.Suspended,
		RebuildRequired: res.RebuildRequired(),
	}
	for _, doc := range res.Documents {
		run.Emitted = append(run.Emitted, doc.Patch.FileName)
	}
	if res.Conflict != nil {
		run.Conflict = &Conflict{Patch: res.Conflict.Patch.FileName, Paths: res.Conflict.Paths}
	}
	if err != nil {
		run.Error = err.Error()
	}
	return run
}

// FromError builds a Run for a session that failed without a result
func FromError(err error, favor string, at time.Time) Run {
	run := Run{
		State:      engine.StateFailed.String(),
		Favor:      favor,
		RecordedAt: at,
		Outcomes:   map[string][]string{},
		Error:      err.Error(),
	}
	var sessionErr *rberrors.SessionError
	if errors.As(err, &sessionErr) {
		run.State = sessionErr.State
		if sessionErr.Outcomes != nil {
			run.Outcomes = sessionErr.Outcomes
		}
	}
	for category := range run.Outcomes {
		if category != "untouched" {
			run.RebuildRequired = true
		}
	}
	return run
}

// Sink receives the result of every run
type Sink interface {
	Record(ctx context.Context, run Run) error
}

// FileSink writes the last run to a YAML file
type FileSink struct {
	dir string
}

// NewFileSink creates a sink writing results.yaml into dir
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Path returns the results file location
func (s *FileSink) Path() string {
	return filepath.Join(s.dir, ResultsFile)
}

// Record overwrites the results file with run
func (s *FileSink) Record(_ context.Context, run Run) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	f, err := os.Create(s.Path())
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(run); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return f.Close()
}

// Load reads the last recorded run
func Load(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("failed to read results: %w", err)
	}
	var run Run
	if err := yaml.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("failed to parse results: %w", err)
	}
	return run, nil
}
