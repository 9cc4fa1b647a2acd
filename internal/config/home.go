package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the pfind home directory.
const HomeEnv = "PFIND_HOME"

// GetHome returns the pfind home directory
// Priority order:
//  1. PFIND_HOME environment variable (if set)
//  2. ~/.pfind
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".pfind")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create pfind home directory: %w", err)
	}

	return home, nil
}

// GetHistoryDBPath returns the path to the default history database
// Always returns: $PFIND_HOME/history.db
func GetHistoryDBPath() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, "history.db"), nil
}
