package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"patchrebase.dev/patchrebase/internal/report"
)

// TestShell runs patchrebase commands in a working directory so tests read
// like a terminal session.
type TestShell struct {
	t          *testing.T
	dir        string
	binaryPath string
	lastOutput string
}

// NewTestShell creates a shell rooted at a fresh temporary directory
func NewTestShell(t *testing.T, binaryPath string) *TestShell {
	t.Helper()
	return NewTestShellIn(t, binaryPath, t.TempDir())
}

// NewTestShellIn creates a shell rooted at dir
func NewTestShellIn(t *testing.T, binaryPath, dir string) *TestShell {
	t.Helper()
	return &TestShell{t: t, dir: dir, binaryPath: binaryPath}
}

// Dir returns the working directory of the shell
func (s *TestShell) Dir() string {
	return s.dir
}

func (s *TestShell) exec(args string) error {
	cmd := exec.Command(s.binaryPath, strings.Fields(args)...)
	cmd.Dir = s.dir
	cmd.Env = append(os.Environ(),
		"PATCHREBASE_TEST_NO_INTERACTIVE=1",
		"HOME="+s.dir,
		"GIT_AUTHOR_NAME=Packager",
		"GIT_AUTHOR_EMAIL=packager@example.com",
		"GIT_COMMITTER_NAME=Packager",
		"GIT_COMMITTER_EMAIL=packager@example.com",
	)
	output, err := cmd.CombinedOutput()
	s.lastOutput = string(output)
	return err
}

// Run executes a patchrebase command and requires it to succeed
func (s *TestShell) Run(args string) *TestShell {
	s.t.Helper()
	err := s.exec(args)
	require.NoError(s.t, err, "$ patchrebase %s\n%s", args, s.lastOutput)
	return s
}

// RunExpectError executes a patchrebase command and requires it to fail
func (s *TestShell) RunExpectError(args string) *TestShell {
	s.t.Helper()
	err := s.exec(args)
	require.Error(s.t, err, "$ patchrebase %s (expected error)\n%s", args, s.lastOutput)
	return s
}

// Write creates a file relative to the shell directory
func (s *TestShell) Write(name, content string) *TestShell {
	s.t.Helper()
	path := filepath.Join(s.dir, name)
	require.NoError(s.t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(s.t, os.WriteFile(path, []byte(content), 0600))
	return s
}

// Read returns a file relative to the shell directory
func (s *TestShell) Read(name string) string {
	s.t.Helper()
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	require.NoError(s.t, err)
	return string(data)
}

// Output returns the last command's output
func (s *TestShell) Output() string {
	return s.lastOutput
}

// OutputContains asserts the last output contains substr
func (s *TestShell) OutputContains(substr string) *TestShell {
	s.t.Helper()
	require.Contains(s.t, s.lastOutput, substr)
	return s
}

// Results loads the results file of the last run
func (s *TestShell) Results() report.Run {
	s.t.Helper()
	run, err := report.Load(filepath.Join(s.dir, report.ResultsFile))
	require.NoError(s.t, err)
	return run
}
