// Package patch models the queue of downstream patches being carried
// from one upstream version to the next.
//
// A Queue is immutable once built. The only mutable state is the set of
// Outcomes recorded against its patches while a rebase session runs.
package patch
