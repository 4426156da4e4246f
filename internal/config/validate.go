package config

import (
	"fmt"
	"time"
)

// MinPollInterval bounds how often polling backends read the mixer.
const MinPollInterval = 100 * time.Millisecond

// Validate rejects values the bridge cannot run with.
func (c *Config) Validate() error {
	switch c.Audio.Backend {
	case BackendSimulated, BackendFile, BackendAppleScript, BackendSystem:
	default:
		return fmt.Errorf("audio.backend must be one of %s, %s, %s, %s (got %q)",
			BackendSimulated, BackendFile, BackendAppleScript, BackendSystem, c.Audio.Backend)
	}
	if c.Audio.Backend == BackendFile && c.Audio.StateFile == "" {
		return fmt.Errorf("audio.state_file is required for the file backend")
	}
	poll, err := c.Audio.Poll()
	if err != nil {
		return err
	}
	if poll < MinPollInterval {
		return fmt.Errorf("audio.poll_interval must be >=%s", MinPollInterval)
	}
	if c.Platform.SDKVersion < 1 {
		return fmt.Errorf("platform.sdk_version must be positive")
	}
	return nil
}
