package patch

import (
	"errors"
	"fmt"
	"slices"
)

// Outcome is the category a patch is assigned after a rebase attempt
type Outcome int

const (
	// Untouched means the patch replayed cleanly with an identical diff
	Untouched Outcome = iota + 1
	// Modified means the patch survived with different content or context
	Modified
	// Deleted means the new upstream sources already contain the change
	Deleted
	// Inapplicable means the patch conflicted and nothing resolved it
	Inapplicable
)

// AllOutcomes lists every outcome in reporting order
var AllOutcomes = []Outcome{Untouched, Modified, Deleted, Inapplicable}

// ErrOutcomeAlreadyRecorded is returned when a patch is given a second outcome
var ErrOutcomeAlreadyRecorded = errors.New("outcome already recorded")

func (o Outcome) String() string {
	switch o {
	case Untouched:
		return "untouched"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Inapplicable:
		return "inapplicable"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ParseOutcome parses the lowercase name of an outcome
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range AllOutcomes {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown patch outcome %q", s)
}

// Emitted reports whether a patch with this outcome gets an output document
func (o Outcome) Emitted() bool {
	return o != Deleted
}

// MarshalText implements encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Outcomes collects the outcome of every processed patch
type Outcomes struct {
	byOrder map[int]Outcome
	patches map[int]Patch
}

// NewOutcomes creates an empty outcome set
func NewOutcomes() *Outcomes {
	return &Outcomes{
		byOrder: make(map[int]Outcome),
		patches: make(map[int]Patch),
	}
}

// Record attaches an outcome to a patch. A patch can only be recorded once.
func (o *Outcomes) Record(p Patch, outcome Outcome) error {
	if existing, ok := o.byOrder[p.Order]; ok {
		return fmt.Errorf("%s is already %s: %w", p.Name, existing, ErrOutcomeAlreadyRecorded)
	}
	o.byOrder[p.Order] = outcome
	o.patches[p.Order] = p
	return nil
}

// Get returns the outcome recorded for a patch
func (o *Outcomes) Get(p Patch) (Outcome, bool) {
	outcome, ok := o.byOrder[p.Order]
	return outcome, ok
}

// Len returns the number of patches with a recorded outcome
func (o *Outcomes) Len() int {
	return len(o.byOrder)
}

// ByCategory groups patch file names by outcome, in queue order.
// Categories without patches are omitted.
func (o *Outcomes) ByCategory() map[Outcome][]string {
	result := make(map[Outcome][]string)
	for _, order := range o.orders() {
		outcome := o.byOrder[order]
		result[outcome] = append(result[outcome], o.patches[order].FileName)
	}
	return result
}

// Named is ByCategory keyed by outcome name, for reporting
func (o *Outcomes) Named() map[string][]string {
	result := make(map[string][]string)
	for outcome, files := range o.ByCategory() {
		result[outcome.String()] = files
	}
	return result
}

// RebuildRequired reports whether any patch changed, which means the
// containing package has to be rebuilt
func (o *Outcomes) RebuildRequired() bool {
	for _, outcome := range o.byOrder {
		if outcome != Untouched {
			return true
		}
	}
	return false
}

func (o *Outcomes) orders() []int {
	orders := make([]int, 0, len(o.byOrder))
	for order := range o.byOrder {
		orders = append(orders, order)
	}
	slices.Sort(orders)
	return orders
}
