// Package report records the result of every rebase run in a results
// file and renders the human summary printed at the end of a run.
package report
