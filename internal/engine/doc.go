// Package engine replays a patch queue from an old lineage onto a new one.
//
// A Session walks the queue in order, replays each patch commit onto the
// tip of the new lineage and classifies the result:
//   - untouched when the patch applies with an identical diff
//   - modified when it applies with a different diff or after a conflict was resolved
//   - deleted when nothing is left of it
//   - inapplicable when it conflicted and the policy gave up on it
//
// A conflict that needs a human suspends the session. The caller resolves
// it in the working tree and runs the session again with Continuing set.
package engine
