package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionOptionsDefaults(t *testing.T) {
	var settings *Settings

	opts := settings.ConnectionOptions()

	assert.Equal(t, DefaultReconnectAttempts, opts.ReconnectAttempts)
	assert.Equal(t, time.Second, opts.ReconnectInterval)
	assert.Equal(t, 10*time.Second, opts.Timeout)
}

func TestConnectionOptionsFromSettings(t *testing.T) {
	attempts := 2
	interval := 250
	timeout := 3000
	settings := &Settings{
		ReconnectAttempts:   &attempts,
		ReconnectIntervalMs: &interval,
		TimeoutMs:           &timeout,
	}

	opts := settings.ConnectionOptions()

	assert.Equal(t, 2, opts.ReconnectAttempts)
	assert.Equal(t, 250*time.Millisecond, opts.ReconnectInterval)
	assert.Equal(t, 3*time.Second, opts.Timeout)
}

func TestEffectiveURLs(t *testing.T) {
	assert.Equal(t, DefaultAPIURL, (&Settings{}).EffectiveAPIURL())
	assert.Equal(t, DefaultSocketURL, (&Settings{}).EffectiveSocketURL())

	settings := &Settings{
		APIURL:    "https://gw.internal:8443",
		SocketURL: "wss://gw.internal:8443/ws",
	}
	assert.Equal(t, "https://gw.internal:8443", settings.EffectiveAPIURL())
	assert.Equal(t, "wss://gw.internal:8443/ws", settings.EffectiveSocketURL())
}

func TestLoadSettingsMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("VOXDASH_HOME", t.TempDir())

	settings, err := LoadSettings()

	require.NoError(t, err)
	assert.Equal(t, &Settings{}, settings)
}

func TestLoadSettingsRejectsInvalidJSON(t *testing.T) {
	home := t.TempDir()
	t.Setenv("VOXDASH_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "settings.json"), []byte("{nope"), 0644))

	_, err := LoadSettings()

	assert.Error(t, err)
}

func TestSaveAndLoadSettings(t *testing.T) {
	t.Setenv("VOXDASH_HOME", t.TempDir())

	debug := true
	require.NoError(t, SaveSettings(&Settings{
		APIURL: "https://gw.internal",
		Debug:  &debug,
	}))

	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "https://gw.internal", loaded.APIURL)
	require.NotNil(t, loaded.Debug)
	assert.True(t, *loaded.Debug)
}

func TestVoxdashHomePaths(t *testing.T) {
	t.Setenv("VOXDASH_HOME", "/tmp/voxdash-test")

	assert.Equal(t, "/tmp/voxdash-test", GetVoxdashHome())
	assert.Equal(t, "/tmp/voxdash-test/credentials.db", GetDBPath())
	assert.Equal(t, "/tmp/voxdash-test/device.json", GetDevicePath())
	assert.Equal(t, "/tmp/voxdash-test/settings.json", GetSettingsPath())
	assert.Equal(t, "/tmp/voxdash-test/ssh", GetSSHDir())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".voxdash"), ExpandPath("~/.voxdash"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/opt/voxdash", ExpandPath("/opt/voxdash"))
}
