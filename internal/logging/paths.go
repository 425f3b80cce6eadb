package logging

import (
	"os"
	"path/filepath"
)

// DataDir returns the MisMisQuote data directory (~/.mismisquote).
// Falls back to the temp directory if the home directory is unavailable.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".mismisquote")
	}
	return filepath.Join(home, ".mismisquote")
}

// DefaultLogDir returns the default log directory (~/.mismisquote/logs).
func DefaultLogDir() string {
	return filepath.Join(DataDir(), "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "mismisquote.log")
}

// DefaultHistoryPath returns the default scan-history database path.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history.db")
}
