// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Audio backends selectable with audio.backend.
const (
	BackendSimulated   = "simulated"
	BackendFile        = "file"
	BackendAppleScript = "applescript"
	BackendSystem      = "system"
)

// Default configuration values.
const (
	DefaultBackend      = BackendSimulated
	DefaultPollInterval = "1s"
	DefaultSDKVersion   = 34
	DefaultAddr         = "127.0.0.1:7070"
)

// Config represents the volume-bridge configuration.
type Config struct {
	Audio    AudioConfig    `toml:"audio"`
	Platform PlatformConfig `toml:"platform"`
	Events   EventsConfig   `toml:"events"`
	Web      WebConfig      `toml:"web"`
}

// AudioConfig selects and tunes the audio backend.
type AudioConfig struct {
	Backend      string `toml:"backend"`
	StateFile    string `toml:"state_file"`     // file backend only
	PollInterval string `toml:"poll_interval"`  // applescript and system backends, e.g. "500ms"
	DoNotDisturb bool   `toml:"do_not_disturb"` // simulated backend only
}

// PlatformConfig describes the permission environment.
type PlatformConfig struct {
	SDKVersion          int      `toml:"sdk_version"`
	PolicyAccessGranted bool     `toml:"policy_access_granted"`
	SettingsCommand     []string `toml:"settings_command"`
}

// EventsConfig selects event transports besides the in-process hub.
type EventsConfig struct {
	DBus bool `toml:"dbus"`
}

// WebConfig holds HTTP server settings.
type WebConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			Backend:      DefaultBackend,
			StateFile:    StatePath(),
			PollInterval: DefaultPollInterval,
		},
		Platform: PlatformConfig{
			SDKVersion:      DefaultSDKVersion,
			SettingsCommand: defaultSettingsCommand(),
		},
		Web: WebConfig{
			Addr: DefaultAddr,
		},
	}
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Atomic write
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}

// Poll returns the parsed poll interval, DefaultPollInterval when unset.
func (a AudioConfig) Poll() (time.Duration, error) {
	raw := a.PollInterval
	if raw == "" {
		raw = DefaultPollInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("audio.poll_interval: %w", err)
	}
	return d, nil
}
