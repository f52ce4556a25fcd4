package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"patchrebase.dev/patchrebase/internal/config"
	"patchrebase.dev/patchrebase/internal/engine"
	"patchrebase.dev/patchrebase/internal/git"
	"patchrebase.dev/patchrebase/internal/patch"
	"patchrebase.dev/patchrebase/internal/report"
	"patchrebase.dev/patchrebase/internal/runtime"
	"patchrebase.dev/patchrebase/internal/tui"
)

// sessionRunner drives engine sessions for one configuration
type sessionRunner struct {
	rc          *runtime.Context
	repo        *git.Repository
	queue       *patch.Queue
	store       *config.ContinuationStore
	interactive bool
	// progressView shows the live view instead of log lines
	progressView bool
}

func newSessionRunner(ctx context.Context, rc *runtime.Context) (*sessionRunner, error) {
	cfg := rc.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	queue, err := cfg.Queue()
	if err != nil {
		return nil, err
	}
	repo, err := git.OpenRepository(cfg.Resolve(cfg.NewSources))
	if err != nil {
		return nil, fmt.Errorf("new lineage: %w", err)
	}
	gitDir, err := repo.GitDir(ctx)
	if err != nil {
		return nil, err
	}

	tty := tui.IsTTY()
	return &sessionRunner{
		rc:           rc,
		repo:         repo,
		queue:        queue,
		store:        config.NewContinuationStore(gitDir),
		interactive:  !cfg.NonInteractive && tty,
		progressView: tty && !rc.Debug,
	}, nil
}

func (s *sessionRunner) options(continuing bool) engine.Options {
	cfg := s.rc.Config
	return engine.Options{
		Lineage:     s.repo,
		OldDir:      cfg.Resolve(cfg.OldSources),
		Queue:       s.queue,
		Favor:       cfg.FavorOnConflict,
		Interactive: s.interactive,
		Continuing:  continuing,
		OutputDir:   cfg.Resolve(cfg.OutputDir),
		Store:       s.store,
		Log:         s.rc.Splog,
		Clock:       s.rc.Clock,
	}
}

// run executes one session, behind the progress view when there is a terminal
func (s *sessionRunner) run(ctx context.Context, continuing bool) (*engine.Result, error) {
	opts := s.options(continuing)
	if !s.progressView {
		return engine.RunRebase(ctx, opts)
	}

	reporter := tui.NewChannelProgressReporter()
	opts.Progress = reporter

	type sessionResult struct {
		res *engine.Result
		err error
	}
	done := make(chan sessionResult, 1)

	s.rc.Splog.SetQuiet(true)
	go func() {
		res, err := engine.RunRebase(ctx, opts)
		reporter.Close()
		done <- sessionResult{res, err}
	}()

	names := make([]string, 0, s.queue.Len())
	for _, p := range s.queue.Patches() {
		names = append(names, p.Name)
	}
	if err := tui.RunReplayTUI(names, reporter.Updates()); err != nil {
		s.rc.Splog.Debug("progress view failed: %v", err)
	}
	// The view may quit early; keep the session from blocking on updates.
	go func() {
		for range reporter.Updates() {
		}
	}()

	out := <-done
	s.rc.Splog.SetQuiet(false)
	return out.res, out.err
}

// abort cancels the suspended session and records the failure
func (s *sessionRunner) abort(ctx context.Context) error {
	session, err := engine.NewSession(s.options(true))
	if err != nil {
		return err
	}
	err = session.Abort(ctx)
	s.record(ctx, nil, err)
	return err
}

// record writes the run to the results sink and prints the summary
func (s *sessionRunner) record(ctx context.Context, res *engine.Result, err error) {
	favor := s.rc.Config.FavorOnConflict.String()
	now := s.rc.Clock.Now()

	var run report.Run
	if res != nil {
		run = report.FromResult(res, favor, now, err)
	} else {
		run = report.FromError(err, favor, now)
	}
	if sinkErr := s.rc.Sink.Record(ctx, run); sinkErr != nil {
		s.rc.Splog.Warn("failed to record results: %v", sinkErr)
	}
	s.rc.Splog.Newline()
	s.rc.Splog.Page(report.Summary(run))
}

// runSession runs or continues a session. While it suspends on a conflict
// and a human is at the terminal, it offers the merge tool and continues.
func runSession(cmd *cobra.Command, rc *runtime.Context, continuing bool) error {
	ctx := cmd.Context()
	s, err := newSessionRunner(ctx, rc)
	if err != nil {
		return err
	}

	warning, err := config.CheckVersions(rc.Config.OldVersion, rc.Config.NewVersion)
	if err != nil {
		return err
	}
	if warning != "" {
		rc.Splog.Warn("%s", warning)
	}

	for {
		res, err := s.run(ctx, continuing)
		s.record(ctx, res, err)
		if err != nil {
			return err
		}
		if !res.Suspended {
			if res.RebuildRequired() {
				rc.Splog.Tip("Patches changed; rebuild the package.")
			}
			return nil
		}

		if !s.interactive {
			rc.Splog.Tip("Resolve the conflict in %s, then run 'patchrebase continue' (or 'patchrebase abort').", s.repo.Path())
			return nil
		}

		run, perr := tui.PromptConfirm(fmt.Sprintf("%s conflicts. Run git mergetool now?", res.Conflict.Patch.Name), true)
		if perr != nil || !run {
			return s.abort(ctx)
		}
		streams := git.Streams{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
		if err := s.repo.RunMergeTool(ctx, streams); err != nil {
			rc.Splog.Warn("merge tool failed: %v", err)
			return s.abort(ctx)
		}
		continuing = true
	}
}
