// Package git provides the version-control operations the rebase engine
// is built on.
//
// A Repository is bound to one lineage working tree. Read-only queries go
// through go-git; anything that writes history (fetch, cherry-pick,
// commit, reset) runs the git executable through a CommandRunner:
//   - Lineage preparation (InitLineage, ApplyPatches, ImportLineage)
//   - Replay of one commit onto HEAD with conflict detection
//   - Automatic resolution favoring either side, or a commit of a human resolution
//   - Diffs and the author identity stamped on emitted patches
//
// This package should be the only place where git commands are executed.
package git
