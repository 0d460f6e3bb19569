package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the global configuration directory (~/.storywing).
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".storywing"), nil
}

// GetDataPath returns the directory holding the database.
// Resolution order (first match wins):
// 1. Explicit config via "db.path" (Viper/env/flag)
// 2. Local project directory: .storywing/data (if exists)
// 3. XDG_DATA_HOME/storywing
// 4. Global fallback: ~/.storywing/data
func GetDataPath() string {
	if path := viper.GetString("db.path"); path != "" {
		return path
	}

	local := filepath.Join(".storywing", "data")
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "storywing")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(dir, "data")
}
