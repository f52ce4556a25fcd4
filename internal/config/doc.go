// Package config manages patchrebase configuration and state persistence.
//
// It handles:
//   - The YAML run configuration (lineage locations, output, policy, patch queue)
//   - Upstream version sanity checks
//   - Continuation state for sessions suspended on a conflict
package config
