package tui

import (
	"sync"

	"patchrebase.dev/patchrebase/internal/patch"
)

// Progress update kinds
const (
	UpdateStarted   = "started"
	UpdateFinished  = "finished"
	UpdateSuspended = "suspended"
	UpdateFailed    = "failed"
)

// ProgressUpdate is one event from a running session
type ProgressUpdate struct {
	Type    string
	// Order is the 1-based queue position
	Order   int
	Name    string
	Outcome patch.Outcome
	Paths   []string
	Error   error
}

// ChannelProgressReporter forwards session progress over a channel
type ChannelProgressReporter struct {
	updates chan ProgressUpdate
	once    sync.Once
}

// NewChannelProgressReporter creates a new channel-based progress reporter
func NewChannelProgressReporter() *ChannelProgressReporter {
	return &ChannelProgressReporter{
		updates: make(chan ProgressUpdate, 100),
	}
}

// Updates returns the channel for receiving updates
func (r *ChannelProgressReporter) Updates() <-chan ProgressUpdate {
	return r.updates
}

// Close closes the update channel (safe to call multiple times)
func (r *ChannelProgressReporter) Close() {
	r.once.Do(func() {
		close(r.updates)
	})
}

// PatchStarted reports that a patch is being replayed
func (r *ChannelProgressReporter) PatchStarted(p patch.Patch) {
	r.updates <- ProgressUpdate{Type: UpdateStarted, Order: p.Order, Name: p.Name}
}

// PatchFinished reports the outcome of a patch
func (r *ChannelProgressReporter) PatchFinished(p patch.Patch, outcome patch.Outcome) {
	r.updates <- ProgressUpdate{Type: UpdateFinished, Order: p.Order, Name: p.Name, Outcome: outcome}
}

// PatchSuspended reports that a patch waits for a human
func (r *ChannelProgressReporter) PatchSuspended(p patch.Patch, paths []string) {
	r.updates <- ProgressUpdate{Type: UpdateSuspended, Order: p.Order, Name: p.Name, Paths: paths}
}

// PatchFailed reports that replaying a patch failed
func (r *ChannelProgressReporter) PatchFailed(p patch.Patch, err error) {
	r.updates <- ProgressUpdate{Type: UpdateFailed, Order: p.Order, Name: p.Name, Error: err}
}
