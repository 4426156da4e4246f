package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func resetBridge(t *testing.T) string {
	t.Helper()
	t.Cleanup(func() {
		if active != nil {
			active.Stop()
		}
		active, activePath = nil, ""
	})
	return filepath.Join(t.TempDir(), "config.toml")
}

func TestGetAndSet(t *testing.T) {
	cfg := resetBridge(t)

	out, err := run(t, "--config", cfg, "get", "--type", "alarm")
	require.NoError(t, err)
	assert.Equal(t, "alarm=0.4286\n", out)

	out, err = run(t, "--config", cfg, "set", "0.5", "--type", "music", "--show-ui")
	require.NoError(t, err)
	assert.Equal(t, "music=0.4667\n", out)

	// Unknown streams fall back to music.
	out, err = run(t, "--config", cfg, "get", "--type", "speaker")
	require.NoError(t, err)
	assert.Equal(t, "music=0.4667\n", out)

	out, err = run(t, "--config", cfg, "get", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, `"notification"`)
}

func TestSet_RejectsNonNumbers(t *testing.T) {
	cfg := resetBridge(t)
	_, err := run(t, "--config", cfg, "set", "loud")
	assert.Error(t, err)
}

func TestHostAndDevice(t *testing.T) {
	cfg := resetBridge(t)
	require.NoError(t, os.WriteFile(cfg, []byte("[platform]\nsettings_command = [\"true\"]\n"), 0o644))

	out, err := run(t, "--config", cfg, "host", "resume")
	require.NoError(t, err)
	assert.Equal(t, "receiver registered: true\n", out)

	out, err = run(t, "--config", cfg, "device", "raw", "99", "--type", "ring")
	require.NoError(t, err)
	assert.Equal(t, "STREAM_RING raw=7/7\n", out)

	_, err = run(t, "--config", cfg, "device", "dnd", "on")
	require.NoError(t, err)
	_, err = run(t, "--config", cfg, "device", "raw", "0", "--type", "ring")
	assert.Error(t, err)

	// The bridge swallows the same failure.
	out, err = run(t, "--config", cfg, "set", "0", "--type", "ring")
	require.NoError(t, err)
	assert.Equal(t, "ring=1.0000\n", out)

	out, err = run(t, "--config", cfg, "host", "pause")
	require.NoError(t, err)
	assert.Equal(t, "receiver registered: false\n", out)

	_, err = run(t, "--config", cfg, "device", "dnd", "maybe")
	assert.Error(t, err)
}

func TestConfigSetAndGet(t *testing.T) {
	cfg := resetBridge(t)

	out, err := run(t, "--config", cfg, "config", "set", "--sdk-version", "22", "--policy-access-granted")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "saved "))

	out, err = run(t, "--config", cfg, "config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "sdk_version = 22")
	assert.Contains(t, out, "policy_access_granted = true")

	_, err = run(t, "--config", cfg, "config", "set", "--backend", "pulse")
	assert.Error(t, err)

	out, err = run(t, "--config", cfg, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfg+"\n", out)
}

func TestWithConfig(t *testing.T) {
	assert.Equal(t, []string{"get", "--config", "a.toml"}, withConfig([]string{"get"}, "a.toml"))
	assert.Equal(t, []string{"get", "--config=b.toml"}, withConfig([]string{"get", "--config=b.toml"}, "a.toml"))
}

func TestParseSwitch(t *testing.T) {
	on, err := parseSwitch("on")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = parseSwitch("false")
	require.NoError(t, err)
	assert.False(t, on)
}
