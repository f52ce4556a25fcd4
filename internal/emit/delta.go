package emit

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Delta counts the lines a rebased patch gained and lost compared with
// the original patch document
type Delta struct {
	Added   int
	Removed int
}

// Changed reports whether the two documents differ at all
func (d Delta) Changed() bool {
	return d.Added > 0 || d.Removed > 0
}

func (d Delta) String() string {
	return fmt.Sprintf("+%d/-%d lines", d.Added, d.Removed)
}

// Compare diffs two patch bodies line by line, ignoring index lines
func Compare(original, rebased string) Delta {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(stripIndexLines(original), stripIndexLines(rebased))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var d Delta
	for _, diff := range diffs {
		n := strings.Count(diff.Text, "\n")
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			d.Added += n
		case diffmatchpatch.DiffDelete:
			d.Removed += n
		}
	}
	return d
}

func stripIndexLines(diff string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, "index ") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}
