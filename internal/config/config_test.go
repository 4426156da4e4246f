package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, BackendSimulated, cfg.Audio.Backend)
	poll, err := cfg.Audio.Poll()
	require.NoError(t, err)
	assert.Equal(t, time.Second, poll)
	assert.NotEmpty(t, cfg.Audio.StateFile)
	assert.Equal(t, 34, cfg.Platform.SDKVersion)
	assert.False(t, cfg.Platform.PolicyAccessGranted)
	assert.False(t, cfg.Events.DBus)
	assert.Equal(t, "127.0.0.1:7070", cfg.Web.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Audio.Backend, cfg.Audio.Backend)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[audio]
backend = "file"
state_file = "/tmp/streams.json"
poll_interval = "250ms"

[platform]
sdk_version = 22
policy_access_granted = true
settings_command = ["echo", "settings"]

[events]
dbus = true

[web]
addr = "0.0.0.0:8080"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Audio.Backend)
	assert.Equal(t, "/tmp/streams.json", cfg.Audio.StateFile)
	poll, err := cfg.Audio.Poll()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, poll)
	assert.Equal(t, 22, cfg.Platform.SDKVersion)
	assert.True(t, cfg.Platform.PolicyAccessGranted)
	assert.Equal(t, []string{"echo", "settings"}, cfg.Platform.SettingsCommand)
	assert.True(t, cfg.Events.DBus)
	assert.Equal(t, "0.0.0.0:8080", cfg.Web.Addr)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[audio]\nbackend = \"pulse\"\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "audio.backend")

	require.NoError(t, os.WriteFile(path, []byte("not = [toml"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.PollInterval = "1ms"
	assert.Error(t, cfg.Validate())

	cfg.Audio.PollInterval = "soon"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Platform.SDKVersion = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Audio.Backend = BackendFile
	cfg.Audio.StateFile = ""
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := DefaultConfig()
	cfg.Audio.Backend = BackendSystem
	cfg.Platform.SDKVersion = 29

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSystem, loaded.Audio.Backend)
	assert.Equal(t, 29, loaded.Platform.SDKVersion)
}

func TestConfigPath_UsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")
	assert.Equal(t, "/xdg/config/volume-bridge/config.toml", ConfigPath())
	assert.Equal(t, "/xdg/state/volume-bridge/streams.json", StatePath())
}
