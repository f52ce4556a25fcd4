// Package integration runs the patchrebase binary end to end.
package integration

import (
	"testing"

	"patchrebase.dev/patchrebase/internal/testhelper"
)

// getBinary returns the path to the built patchrebase binary
func getBinary(t *testing.T) string {
	t.Helper()
	path, err := testhelper.BinaryPath()
	if err != nil {
		t.Fatalf("failed to build patchrebase binary: %v", err)
	}
	return path
}
