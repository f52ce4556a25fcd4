package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"patchrebase.dev/patchrebase/internal/config"
	"patchrebase.dev/patchrebase/internal/emit"
	rberrors "patchrebase.dev/patchrebase/internal/errors"
	"patchrebase.dev/patchrebase/internal/git"
	"patchrebase.dev/patchrebase/internal/patch"
	"patchrebase.dev/patchrebase/internal/policy"
)

// Options configures a rebase session
type Options struct {
	// Lineage is the new lineage the queue is replayed onto
	Lineage Lineage
	// OldDir is the working tree of the old lineage
	OldDir      string
	Queue       *patch.Queue
	Favor       policy.Favor
	Interactive bool
	// Continuing resumes the session suspended in Store
	Continuing bool
	OutputDir  string
	Store      StateStore
	Log        Logger
	Progress   Progress
	Clock      clock.Clock
}

// Session is one rebase of a patch queue. It is not safe for concurrent use.
type Session struct {
	id          string
	state       State
	lineage     Lineage
	queue       *patch.Queue
	favor       policy.Favor
	interactive bool
	opts        Options
	log         Logger
	progress    Progress
	clock       clock.Clock

	oldCommits []string
	steps      []Step
	outcomes   *patch.Outcomes
}

// NewSession creates a session in the INIT state
func NewSession(opts Options) (*Session, error) {
	if opts.Lineage == nil {
		return nil, errors.New("session requires a lineage")
	}
	if opts.Queue == nil {
		return nil, errors.New("session requires a patch queue")
	}
	if opts.Store == nil {
		return nil, errors.New("session requires a state store")
	}
	if opts.Log == nil {
		opts.Log = nopLogger{}
	}
	if opts.Progress == nil {
		opts.Progress = nopProgress{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Session{
		state:       StateInit,
		lineage:     opts.Lineage,
		queue:       opts.Queue,
		favor:       opts.Favor,
		interactive: opts.Interactive,
		opts:        opts,
		log:         opts.Log,
		progress:    opts.Progress,
		clock:       opts.Clock,
		outcomes:    patch.NewOutcomes(),
	}, nil
}

// RunRebase runs a session to completion or suspension
func RunRebase(ctx context.Context, opts Options) (*Result, error) {
	s, err := NewSession(opts)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

// ID returns the session id, empty until the session has started
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return s.state
}

// Run replays the queue. A fresh run starts from the first patch; a
// continuing run picks up the suspended patch from the working tree.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if s.state != StateInit {
		return nil, fmt.Errorf("session already %s", s.state)
	}
	s.state = StateRunning

	next := 1
	if s.opts.Continuing {
		resumed, res, err := s.resume(ctx)
		if err != nil {
			if res != nil {
				return res, rberrors.NewSessionError(s.state.String(), s.outcomes.Named(), err)
			}
			return nil, s.fail(err)
		}
		next = resumed
	} else if err := s.start(ctx); err != nil {
		return nil, s.fail(err)
	}

	// orders are 1-based; oldCommits holds the patch commits without the root
	for order := next; order <= s.queue.Len(); order++ {
		p, _ := s.queue.At(order)
		oldCommit := s.oldCommits[order-1]

		s.progress.PatchStarted(p)
		step, conflict, err := s.replayPatch(ctx, p, oldCommit)
		if err != nil {
			s.progress.PatchFailed(p, err)
			return nil, s.fail(err)
		}
		if conflict != nil {
			return s.suspend(*step, conflict)
		}
		if err := s.record(*step); err != nil {
			return nil, s.fail(err)
		}
	}

	return s.complete(ctx)
}

// Abort cancels a suspended session: the stopped replay is abandoned and
// the continuation state removed. The returned error always wraps
// ErrInteractiveResolutionAborted.
func (s *Session) Abort(ctx context.Context) error {
	saved, err := s.opts.Store.Load()
	if err != nil && !errors.Is(err, rberrors.ErrNoContinuation) {
		return s.fail(err)
	}
	if saved != nil {
		if err := s.restore(saved); err != nil {
			return s.fail(err)
		}
	}

	if err := s.lineage.AbortReplay(ctx); err != nil {
		return s.fail(err)
	}
	if saved != nil {
		if err := s.lineage.Reset(ctx, saved.Suspended.Pre); err != nil {
			return s.fail(err)
		}
	}
	if err := s.opts.Store.Clear(); err != nil {
		return s.fail(err)
	}
	return s.fail(rberrors.ErrInteractiveResolutionAborted)
}

// start prepares the new lineage for a fresh run and imports the old one
func (s *Session) start(ctx context.Context) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to create session id: %w", err)
	}
	s.id = id.String()

	if err := s.opts.Store.Clear(); err != nil {
		return err
	}

	// Rewind whatever an earlier run left on the new lineage.
	if err := s.lineage.AbortReplay(ctx); err != nil {
		return err
	}
	history, err := s.lineage.FirstParentHistory(ctx, "HEAD")
	if err != nil {
		return err
	}
	if err := s.lineage.Reset(ctx, history[0]); err != nil {
		return err
	}

	oldHistory, err := s.lineage.ImportLineage(ctx, s.opts.OldDir)
	if err != nil {
		return err
	}
	if len(oldHistory) != s.queue.Len()+1 {
		return fmt.Errorf("%d patches but %d commits on top of the old base: %w",
			s.queue.Len(), len(oldHistory)-1, rberrors.ErrLineageMismatch)
	}
	s.oldCommits = oldHistory[1:]

	s.log.Debug("session %s: replaying %d patches (favor %s, interactive %t)",
		s.id, s.queue.Len(), s.favor, s.interactive)
	return nil
}

// resume restores a suspended session and settles the patch it stopped on.
// It returns the order of the next patch to replay. A non-nil result comes
// back with the error when the session has to stay suspended.
func (s *Session) resume(ctx context.Context) (int, *Result, error) {
	saved, err := s.opts.Store.Load()
	if err != nil {
		return 0, nil, err
	}
	if err := s.restore(saved); err != nil {
		return 0, nil, err
	}

	p, ok := s.queue.At(saved.Suspended.Order)
	if !ok {
		return 0, nil, fmt.Errorf("suspended patch %d is not in the queue: %w", saved.Suspended.Order, rberrors.ErrQueueMismatch)
	}

	replay, err := s.lineage.ReplayState(ctx)
	if err != nil {
		return 0, nil, err
	}
	if replay.InProgress && len(replay.Unmerged) > 0 {
		s.state = StateSuspended
		s.progress.PatchSuspended(p, replay.Unmerged)
		return 0, s.result(nil, &Conflict{Patch: p, Paths: replay.Unmerged}), rberrors.ErrConflictStillUnresolved
	}

	post := ""
	if replay.InProgress {
		post, err = s.lineage.CommitResolution(ctx, saved.Suspended.OldCommit)
	} else {
		// Already committed (or dropped) by hand.
		post, err = s.lineage.Head(ctx)
	}
	if err != nil {
		return 0, nil, err
	}

	step := Step{Patch: p, OldCommit: saved.Suspended.OldCommit, Pre: saved.Suspended.Pre}
	if err := s.classifyResolved(ctx, &step, post); err != nil {
		return 0, nil, err
	}
	if err := s.record(step); err != nil {
		return 0, nil, err
	}
	s.log.Debug("session %s: %s resolved as %s", s.id, p.Name, step.Outcome)
	return saved.Suspended.Order + 1, nil, nil
}

// restore loads the progress of a suspended session
func (s *Session) restore(saved *config.SessionState) error {
	if saved.QueueFingerprint != s.queue.Fingerprint() {
		return rberrors.ErrQueueMismatch
	}
	if len(saved.OldCommits) != s.queue.Len() {
		return fmt.Errorf("saved session has %d commits for %d patches: %w",
			len(saved.OldCommits), s.queue.Len(), rberrors.ErrLineageMismatch)
	}
	favor, err := policy.ParseFavor(saved.Favor)
	if err != nil {
		return err
	}

	s.id = saved.SessionID
	s.favor = favor
	s.interactive = saved.Interactive
	s.oldCommits = saved.OldCommits
	for _, st := range saved.Steps {
		p, ok := s.queue.At(st.Order)
		if !ok {
			return fmt.Errorf("saved step %d is not in the queue: %w", st.Order, rberrors.ErrQueueMismatch)
		}
		outcome, err := patch.ParseOutcome(st.Outcome)
		if err != nil {
			return err
		}
		if err := s.record(Step{Patch: p, OldCommit: st.OldCommit, Pre: st.Pre, Post: st.Post, Outcome: outcome}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) record(step Step) error {
	if err := s.outcomes.Record(step.Patch, step.Outcome); err != nil {
		return err
	}
	s.steps = append(s.steps, step)
	s.progress.PatchFinished(step.Patch, step.Outcome)
	s.log.Debug("%s: %s", step.Patch.Name, step.Outcome)
	return nil
}

// suspend saves the session so a human can resolve the conflict
func (s *Session) suspend(step Step, conflict *git.Conflict) (*Result, error) {
	state := &config.SessionState{
		SessionID:        s.id,
		QueueFingerprint: s.queue.Fingerprint(),
		OldSources:       s.opts.OldDir,
		Favor:            s.favor.String(),
		Interactive:      s.interactive,
		OldCommits:       s.oldCommits,
		Suspended: config.SuspendedStep{
			Order:     step.Patch.Order,
			OldCommit: step.OldCommit,
			Pre:       step.Pre,
			Paths:     conflict.Paths,
		},
		SuspendedAt: s.clock.Now(),
	}
	for _, done := range s.steps {
		state.Steps = append(state.Steps, done.state())
	}
	if err := s.opts.Store.Save(state); err != nil {
		return nil, s.fail(fmt.Errorf("failed to save session: %w", err))
	}

	s.state = StateSuspended
	s.progress.PatchSuspended(step.Patch, conflict.Paths)
	s.log.Info("%s conflicts in %d file(s); resolve them and continue", step.Patch.Name, len(conflict.Paths))
	return s.result(nil, &Conflict{Patch: step.Patch, Paths: conflict.Paths}), nil
}

// complete emits the surviving patches and finishes the session
func (s *Session) complete(ctx context.Context) (*Result, error) {
	items := make([]emit.Item, 0, len(s.steps))
	for _, step := range s.steps {
		items = append(items, step.item())
	}

	emitter := emit.New(s.lineage, s.opts.OutputDir, s.lineage.Identity(ctx), s.clock)
	docs, err := emitter.Emit(ctx, items)
	if err != nil {
		return nil, s.fail(err)
	}
	for _, doc := range docs {
		if doc.Delta != nil {
			s.log.Debug("%s: %s", doc.Patch.Name, doc.Delta)
		}
	}

	if err := s.opts.Store.Clear(); err != nil {
		return nil, s.fail(err)
	}
	s.state = StateCompleted
	return s.result(docs, nil), nil
}

func (s *Session) result(docs []emit.Document, conflict *Conflict) *Result {
	return &Result{
		SessionID: s.id,
		State:     s.state,
		Outcomes:  s.outcomes,
		Steps:     append([]Step(nil), s.steps...),
		Documents: docs,
		Suspended: s.state == StateSuspended,
		Conflict:  conflict,
	}
}

// fail moves the session to FAILED and wraps err with the partial outcomes
func (s *Session) fail(err error) error {
	s.state = StateFailed
	return rberrors.NewSessionError(s.state.String(), s.outcomes.Named(), err)
}
