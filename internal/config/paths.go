package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName     = "wingetbridge"
	configFile  = "config.toml"
	historyFile = "history.db"

	// Environment overrides, mainly for services running under a system
	// account whose profile directories are not writable.
	envConfigDir = "WINGETBRIDGE_CONFIG_DIR"
	envDataDir   = "WINGETBRIDGE_DATA_DIR"
)

// ConfigDir returns the directory holding config.toml: %APPDATA% on
// Windows and the XDG config home elsewhere.
func ConfigDir() string {
	if dir := os.Getenv(envConfigDir); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(os.TempDir(), appName)
}

// DataDir returns the directory holding the history database:
// %LOCALAPPDATA% on Windows and the XDG data home elsewhere.
func DataDir() string {
	if dir := os.Getenv(envDataDir); dir != "" {
		return dir
	}
	switch {
	case runtime.GOOS == "windows" && os.Getenv("LOCALAPPDATA") != "":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName)
	case os.Getenv("XDG_DATA_HOME") != "":
		return filepath.Join(os.Getenv("XDG_DATA_HOME"), appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appName)
	}
	return filepath.Join(os.TempDir(), appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}

// HistoryPath returns the full path to the history database.
func HistoryPath() string {
	return filepath.Join(DataDir(), historyFile)
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0o700)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o700)
}
