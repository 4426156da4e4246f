package audio

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"volume-bridge/internal/domain"
)

// AppleScriptMax is the raw range macOS reports for output and alert volume.
const AppleScriptMax = 100

// AppleScript implements domain.AudioService using macOS osascript.
// Music and voice call share the output volume; the remaining streams
// share the alert volume.
// This is a secondary adapter.
type AppleScript struct {
	// run executes a script and returns its output; replaced in tests.
	run func(script string) (string, error)
}

// NewAppleScript creates a new AppleScript audio service.
func NewAppleScript() *AppleScript {
	return &AppleScript{run: runOsascript}
}

func runOsascript(script string) (string, error) {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("osascript failed: %w, output: %s", err, string(output))
	}
	return strings.TrimSpace(string(output)), nil
}

func appleScriptSetting(stream domain.Stream) string {
	switch stream {
	case domain.PlatformStreamMusic, domain.PlatformStreamVoiceCall:
		return "output volume"
	default:
		return "alert volume"
	}
}

// StreamVolume reads the setting backing stream.
func (a *AppleScript) StreamVolume(stream domain.Stream) (int, error) {
	out, err := a.run(fmt.Sprintf("%s of (get volume settings)", appleScriptSetting(stream)))
	if err != nil {
		return 0, err
	}
	if out == "missing value" {
		return 0, nil
	}
	level, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parse osascript output %q: %w", out, err)
	}
	return level, nil
}

// StreamMaxVolume is always AppleScriptMax.
func (a *AppleScript) StreamMaxVolume(domain.Stream) (int, error) {
	return AppleScriptMax, nil
}

// SetStreamVolume sets the setting backing stream. macOS has no flags, so
// they are ignored.
func (a *AppleScript) SetStreamVolume(stream domain.Stream, level int, _ domain.Flags) error {
	if level < 0 || level > AppleScriptMax {
		return fmt.Errorf("volume must be between 0 and %d, got %d", AppleScriptMax, level)
	}
	_, err := a.run(fmt.Sprintf("set volume %s %d", appleScriptSetting(stream), level))
	return err
}
