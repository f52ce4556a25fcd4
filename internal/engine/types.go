package engine

import (
	"fmt"

	"patchrebase.dev/patchrebase/internal/config"
	"patchrebase.dev/patchrebase/internal/emit"
	"patchrebase.dev/patchrebase/internal/patch"
)

// State is the lifecycle state of a Session
type State int

const (
	StateInit State = iota
	StateRunning
	StateCompleted
	StateSuspended
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	case StateSuspended:
		return "SUSPENDED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Step records how one patch was processed. Pre and Post are the tips of
// the new lineage before and after the patch; they are equal when the
// patch left no commit behind.
type Step struct {
	Patch     patch.Patch
	OldCommit string
	Pre       string
	Post      string
	Outcome   patch.Outcome
}

func (s Step) item() emit.Item {
	return emit.Item{
		Patch:     s.Patch,
		Outcome:   s.Outcome,
		OldCommit: s.OldCommit,
		Pre:       s.Pre,
		Post:      s.Post,
	}
}

func (s Step) state() config.StepState {
	return config.StepState{
		Order:     s.Patch.Order,
		OldCommit: s.OldCommit,
		Pre:       s.Pre,
		Post:      s.Post,
		Outcome:   s.Outcome.String(),
	}
}

// Conflict identifies the patch a suspended session is waiting on
type Conflict struct {
	Patch patch.Patch
	Paths []string
}

// Result is what a session run produced
type Result struct {
	SessionID string
	State     State
	Outcomes  *patch.Outcomes
	Steps     []Step
	Documents []emit.Document
	Suspended bool
	// Conflict is set when the session is suspended
	Conflict *Conflict
}

// RebuildRequired reports whether any patch changed or disappeared
func (r *Result) RebuildRequired() bool {
	return r.Outcomes != nil && r.Outcomes.RebuildRequired()
}
