package testhelpers

import (
	"fmt"
	"strings"
)

// LipsumFile is the file every patch in the four patch scene touches
const LipsumFile = "lipsum.txt"

// lipsum returns thirty numbered lines with the given replacements.
// A replacement keyed by a negative line number inserts a line after
// its absolute value.
func lipsum(replace map[int]string) string {
	var b strings.Builder
	for i := 1; i <= 30; i++ {
		line := fmt.Sprintf("Lorem ipsum line %02d dolor sit amet", i)
		if r, ok := replace[i]; ok {
			line = r
		}
		b.WriteString(line + "\n")
		if extra, ok := replace[-i]; ok {
			b.WriteString(extra + "\n")
		}
	}
	return b.String()
}

// FourPatchSceneSetup builds the reference scenario:
//   - P1 edits line 3, which upstream left alone (clean, same diff)
//   - P2 edits line 12; upstream inserted a line above it (clean, shifted hunk)
//   - P3 edits line 20, which upstream changed differently (conflict)
//   - P4 edits line 27 exactly the way upstream already did (no-op)
func FourPatchSceneSetup(s *Scene) error {
	if err := s.CommitOldBase(map[string]string{LipsumFile: lipsum(nil)}); err != nil {
		return err
	}

	applied := map[int]string{}
	edits := []struct {
		subject string
		line    int
		text    string
	}{
		{"P1", 3, "Lorem ipsum line 03 patched by P1"},
		{"P2", 12, "Lorem ipsum line 12 patched by P2"},
		{"P3", 20, "Lorem ipsum line 20 patched by P3"},
		{"P4", 27, "Lorem ipsum line 27 fixed upstream"},
	}
	for _, e := range edits {
		applied[e.line] = e.text
		if err := s.CommitOldPatch(e.subject, map[string]string{LipsumFile: lipsum(applied)}); err != nil {
			return err
		}
	}

	return s.CommitNewBase(map[string]string{LipsumFile: lipsum(map[int]string{
		-7: "Lorem ipsum line 07a added upstream",
		20: "Lorem ipsum line 20 rewritten upstream",
		27: "Lorem ipsum line 27 fixed upstream",
	})})
}
