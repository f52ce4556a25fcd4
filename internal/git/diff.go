package git

import (
	"context"
	"fmt"
	"strings"
)

// DiffOptions controls how a diff is rendered
type DiffOptions struct {
	// NoPrefix renders paths without the a/ and b/ prefixes (strip level 0)
	NoPrefix bool
}

func (o DiffOptions) args() []string {
	args := []string{"diff", "--no-color", "--no-ext-diff", "--no-renames", "--binary"}
	if o.NoPrefix {
		args = append(args, "--no-prefix")
	} else {
		args = append(args, "--src-prefix=a/", "--dst-prefix=b/")
	}
	return args
}

// Diff returns the unified diff between two revisions
func (r *Repository) Diff(ctx context.Context, from, to string, opts DiffOptions) (string, error) {
	args := append(opts.args(), from, to, "--")
	output, err := r.runner.RunRaw(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to diff %s..%s: %w", from, to, err)
	}
	return output, nil
}

// DiffOf returns the change commit introduced relative to its first parent
func (r *Repository) DiffOf(ctx context.Context, commit string, opts DiffOptions) (string, error) {
	return r.Diff(ctx, commit+"^", commit, opts)
}

// NormalizeDiff strips the parts of a diff that change without the
// change itself changing: blob ids on index lines and trailing whitespace
// at the end of the output. Hunk headers are kept, so shifted context
// still counts as a difference.
func NormalizeDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, "index ") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
