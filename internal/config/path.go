package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config (or a cwd fallback).
func ConfigPath() string {
	return filepath.Join(configHome(), "volume-bridge", "config.toml")
}

// StatePath returns the default state file of the file backend.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state.
func StatePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			cwd, _ := os.Getwd()
			return filepath.Join(cwd, "volume-bridge-state.json")
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "volume-bridge", "streams.json")
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config")
	}
	cwd, _ := os.Getwd()
	return cwd
}

func defaultSettingsCommand() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open", "x-apple.systempreferences:com.apple.preference.notifications"}
	case "linux":
		return []string{"xdg-open", "settings://notifications"}
	default:
		return nil
	}
}
