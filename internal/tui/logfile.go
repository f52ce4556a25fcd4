package tui

import (
	"os"
	"path/filepath"
)

// GetLogFilePath returns the path to the log file.
// If PATCHREBASE_LOG_FILE is set, uses that path.
// Otherwise, uses ~/.patchrebase/logs/patchrebase.log
func GetLogFilePath() string {
	if customPath := os.Getenv("PATCHREBASE_LOG_FILE"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if we can't get home dir
		return "patchrebase.log"
	}

	return filepath.Join(homeDir, ".patchrebase", "logs", "patchrebase.log")
}
