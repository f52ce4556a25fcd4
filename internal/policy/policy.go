// Package policy decides what happens when a patch conflicts with the new
// upstream sources.
package policy

import (
	"fmt"
	"strings"
)

// Favor is the configured side to keep when a conflict is resolved automatically
type Favor int

const (
	// FavorNone means conflicts are never resolved automatically
	FavorNone Favor = iota
	// FavorUpstream keeps the new upstream content
	FavorUpstream
	// FavorDownstream keeps the patch content
	FavorDownstream
)

func (f Favor) String() string {
	switch f {
	case FavorNone:
		return "none"
	case FavorUpstream:
		return "upstream"
	case FavorDownstream:
		return "downstream"
	default:
		return fmt.Sprintf("Favor(%d)", int(f))
	}
}

// ParseFavor parses a favor-on-conflict setting. An empty string means none.
func ParseFavor(s string) (Favor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FavorNone, nil
	case "upstream":
		return FavorUpstream, nil
	case "downstream":
		return FavorDownstream, nil
	default:
		return FavorNone, fmt.Errorf("invalid favor-on-conflict %q (want upstream, downstream or none)", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (f Favor) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Favor) UnmarshalText(text []byte) error {
	parsed, err := ParseFavor(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Action is what the engine does with a conflicting patch
type Action int

const (
	// ActionResolveIncoming resolves every conflicting region with the new tree's content
	ActionResolveIncoming Action = iota + 1
	// ActionResolveOwn resolves every conflicting region with the patch's content
	ActionResolveOwn
	// ActionDefer suspends the session so a human can resolve the conflict
	ActionDefer
	// ActionMarkUnresolved records the patch as inapplicable and skips it
	ActionMarkUnresolved
)

func (a Action) String() string {
	switch a {
	case ActionResolveIncoming:
		return "resolve-incoming"
	case ActionResolveOwn:
		return "resolve-own"
	case ActionDefer:
		return "defer"
	case ActionMarkUnresolved:
		return "mark-unresolved"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decide maps the configured favor and whether a human is available to an action.
func Decide(favor Favor, interactive bool) Action {
	switch favor {
	case FavorUpstream:
		return ActionResolveIncoming
	case FavorDownstream:
		return ActionResolveOwn
	case FavorNone:
		if interactive {
			return ActionDefer
		}
		return ActionMarkUnresolved
	}
	panic(fmt.Sprintf("policy: unhandled favor %v", favor))
}
