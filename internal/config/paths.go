package config

import (
	"os"
	"path/filepath"
)

// AppName is the application name used for config directories
const AppName = "butterfly"

// configDir returns the config directory path (~/.config/butterfly)
// Uses XDG_CONFIG_HOME if set, otherwise falls back to ~/.config
func configDir() (string, error) {
	// XDG_CONFIG_HOME を優先
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// DefaultPath returns the user config file path (~/.config/butterfly/config.yaml)
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
