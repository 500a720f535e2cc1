// Package config loads accusync configuration from viper, the environment
// and .env files.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// Dir returns the accusync configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".accusync"
	}
	return filepath.Join(home, ".config", "accusync")
}

// DefaultDatabasePath is the local store used when database.path is unset.
func DefaultDatabasePath() string {
	return filepath.Join(Dir(), "accusync.db")
}
