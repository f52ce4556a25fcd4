// Package testhelper builds the patchrebase binary for end-to-end tests.
package testhelper

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

var (
	binaryPath string
	binaryOnce sync.Once
	binaryErr  error
)

// BinaryPath returns the path to the patchrebase binary, building it on
// first use. Safe for parallel tests.
func BinaryPath() (string, error) {
	binaryOnce.Do(func() {
		binaryPath, binaryErr = buildBinary()
	})
	return binaryPath, binaryErr
}

func buildBinary() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	moduleRoot := findModuleRoot(wd)
	if moduleRoot == "" {
		return "", fmt.Errorf("could not find module root (go.mod) starting from %s", wd)
	}

	tmpDir, err := os.MkdirTemp("", "patchrebase-test-binary-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	path := filepath.Join(tmpDir, "patchrebase")

	cmd := exec.Command("go", "build", "-o", path, "./cmd/patchrebase")
	cmd.Dir = moduleRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("failed to build: %s: %w", string(output), err)
	}
	return path, nil
}

// findModuleRoot walks up from startDir to the directory holding go.mod
func findModuleRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
