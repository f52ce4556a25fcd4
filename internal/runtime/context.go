package runtime

import (
	"context"
	"errors"
	"io"

	"github.com/benbjohnson/clock"

	"patchrebase.dev/patchrebase/internal/config"
	"patchrebase.dev/patchrebase/internal/report"
	"patchrebase.dev/patchrebase/internal/tui"
)

// Context provides access to configuration, output and the results sink for commands
type Context struct {
	Config     *config.Config
	ConfigPath string
	Splog      *tui.Splog
	Sink       report.Sink
	// ResultsPath is where the file sink writes
	ResultsPath string
	Clock       clock.Clock
	Debug       bool
}

// Options configures NewContext
type Options struct {
	ConfigPath string
	LogFile    string
	Debug      bool
	Output     io.Writer
}

// NewContext loads the configuration and sets up logging and the results sink
func NewContext(opts Options) (*Context, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logFile := opts.LogFile
	if logFile == "" && cfg.LogFile != "" {
		logFile = cfg.Resolve(cfg.LogFile)
	}
	if logFile == "" && opts.Debug {
		logFile = tui.GetLogFilePath()
	}
	splog, err := tui.NewSplogWithConfig(opts.Output, logFile, opts.Debug)
	if err != nil {
		return nil, err
	}

	resultsDir := cfg.ResultsDir
	if resultsDir == "" {
		resultsDir = "."
	}
	sink := report.NewFileSink(cfg.Resolve(resultsDir))
	return &Context{
		Config:      cfg,
		ConfigPath:  opts.ConfigPath,
		Splog:       splog,
		Sink:        sink,
		ResultsPath: sink.Path(),
		Clock:       clock.New(),
		Debug:       opts.Debug,
	}, nil
}

// Close releases the log file
func (c *Context) Close() error {
	return c.Splog.Close()
}

type contextKey struct{}

// WithContext stores a runtime context in ctx
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// GetContext returns the runtime context stored by WithContext
func GetContext(ctx context.Context) (*Context, error) {
	if ctx != nil {
		if rc, ok := ctx.Value(contextKey{}).(*Context); ok {
			return rc, nil
		}
	}
	return nil, errors.New("patchrebase context not initialized")
}
