// Package tui provides the terminal user interface for patchrebase.
//
// It handles:
//   - Structured logging and status reporting (Splog)
//   - The live replay progress view (bubbletea)
//   - Yes/no prompts (survey)
package tui
