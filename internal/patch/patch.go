package patch

import (
	"errors"
	"fmt"
	"strings"
)

// Entry is the raw description of a patch as supplied by package metadata
type Entry struct {
	Name       string `yaml:"name" json:"name"`
	FileName   string `yaml:"file" json:"file"`
	StripLevel int    `yaml:"strip" json:"strip"`
}

// Patch is one element of a patch queue
type Patch struct {
	Name       string
	FileName   string
	Order      int
	StripLevel int
}

func (p Patch) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.FileName)
}

// Queue is an ordered, read-only list of patches
type Queue struct {
	patches []Patch
}

// NewQueue builds a queue from entries, assigning 1-based order from position
func NewQueue(entries []Entry) (*Queue, error) {
	patches := make([]Patch, 0, len(entries))
	names := make(map[string]bool, len(entries))
	files := make(map[string]bool, len(entries))

	var errs []error
	for i, e := range entries {
		order := i + 1
		switch {
		case e.Name == "":
			errs = append(errs, fmt.Errorf("patch %d: missing name", order))
		case names[e.Name]:
			errs = append(errs, fmt.Errorf("patch %d: duplicate name %q", order, e.Name))
		}
		switch {
		case e.FileName == "":
			errs = append(errs, fmt.Errorf("patch %d: missing file name", order))
		case files[e.FileName]:
			errs = append(errs, fmt.Errorf("patch %d: duplicate file name %q", order, e.FileName))
		case strings.ContainsAny(e.FileName, `/\`):
			errs = append(errs, fmt.Errorf("patch %d: file name %q must not contain a path", order, e.FileName))
		}
		if e.StripLevel < 0 {
			errs = append(errs, fmt.Errorf("patch %d: negative strip level %d", order, e.StripLevel))
		}

		names[e.Name] = true
		files[e.FileName] = true
		patches = append(patches, Patch{
			Name:       e.Name,
			FileName:   e.FileName,
			Order:      order,
			StripLevel: e.StripLevel,
		})
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid patch queue: %w", errors.Join(errs...))
	}

	return &Queue{patches: patches}, nil
}

// Len returns the number of patches in the queue
func (q *Queue) Len() int {
	return len(q.patches)
}

// Patches returns a copy of the patches in queue order
func (q *Queue) Patches() []Patch {
	out := make([]Patch, len(q.patches))
	copy(out, q.patches)
	return out
}

// At returns the patch with the given 1-based order
func (q *Queue) At(order int) (Patch, bool) {
	if order < 1 || order > len(q.patches) {
		return Patch{}, false
	}
	return q.patches[order-1], true
}

// ByFileName looks a patch up by its file name
func (q *Queue) ByFileName(fileName string) (Patch, bool) {
	for _, p := range q.patches {
		if p.FileName == fileName {
			return p, true
		}
	}
	return Patch{}, false
}

// Fingerprint identifies the queue by its ordered file names
func (q *Queue) Fingerprint() string {
	names := make([]string, len(q.patches))
	for i, p := range q.patches {
		names[i] = p.FileName
	}
	return strings.Join(names, "\n")
}
