package testhelpers

import (
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. This is useful for test setup code
// where errors are not expected and should halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectFiles asserts that dir contains exactly the named regular files.
func ExpectFiles(t *testing.T, dir string, expected []string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err, "Failed to list %s", dir)

	actual := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() {
			actual = append(actual, e.Name())
		}
	}
	sort.Strings(actual)

	want := append([]string{}, expected...)
	sort.Strings(want)

	require.Equal(t, want, actual, "files in %s", dir)
}
