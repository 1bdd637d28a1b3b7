package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "config.toml"))

	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hyprshot", "config.toml")
	m := NewManager(path)

	require.NoError(t, m.Save())
	assert.FileExists(t, path)

	cfg, err := NewManager(path).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadReadsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
screenshots_dir = "/data/shots"

[capture]
notification = false
notification_timeout = 1500

[advanced]
freeze_on_region = true
delay_ms = 250
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewManager(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/shots", cfg.Paths.ScreenshotsDir)
	assert.False(t, cfg.Capture.Notification)
	assert.EqualValues(t, 1500, cfg.Capture.NotificationTimeout)
	assert.True(t, cfg.Advanced.FreezeOnRegion)
	assert.EqualValues(t, 250, cfg.Advanced.DelayMs)
	assert.Equal(t, Default().Hotkeys, cfg.Hotkeys, "unset sections keep defaults")
}

func TestSetValidatesKeysAndValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	m := NewManager(path)

	require.NoError(t, m.Set("advanced.freeze_on_region", "true"))
	cfg, err := NewManager(path).Load()
	require.NoError(t, err)
	assert.True(t, cfg.Advanced.FreezeOnRegion)

	assert.Error(t, m.Set("advanced.freeze_on_region", "maybe"))
	assert.Error(t, m.Set("capture.notification_timeout", "soon"))
	assert.Error(t, m.Set("paths.unknown", "x"))
	assert.Error(t, m.Set("noseparator", "x"))
}

func TestScreenshotsDirOverrideAndExpansion(t *testing.T) {
	cfg := Default()
	cfg.Paths.ScreenshotsDir = "/configured"

	dir, err := ScreenshotsDir("", cfg)
	require.NoError(t, err)
	assert.Equal(t, "/configured", dir)

	dir, err = ScreenshotsDir("/override", cfg)
	require.NoError(t, err)
	assert.Equal(t, "/override", dir)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg.Paths.ScreenshotsDir = "~/Pictures/Shots"
	dir, err = ScreenshotsDir("", cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Pictures", "Shots"), dir)
}

func TestHyprlandBinds(t *testing.T) {
	cfg := Default()
	binds := cfg.HyprlandBinds(false)

	assert.Contains(t, binds, "bind = SUPER, Print, exec, hyprshot -m window")
	assert.Contains(t, binds, "bind = SUPER SHIFT, Print, exec, hyprshot -m region")
	assert.Contains(t, binds, "bind = , Print, exec, hyprshot -m output -m active")
	assert.NotContains(t, binds, "--clipboard-only")
}

func TestHyprlandBindsWithClipboard(t *testing.T) {
	cfg := Default()
	binds := cfg.HyprlandBinds(true)

	assert.Contains(t, binds, "bind = ALT SUPER, Print, exec, hyprshot -m window --clipboard-only")
	assert.Contains(t, binds, "bind = ALT, Print, exec, hyprshot -m output -m active --clipboard-only")
}

func TestInstallHyprlandBinds(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(dir, "hyprland.conf")
	require.NoError(t, os.WriteFile(confPath, []byte("monitor=,preferred,auto,1\n"), 0o644))

	cfg := Default()
	require.NoError(t, cfg.InstallHyprlandBinds(confPath, false))

	updated, err := os.ReadFile(confPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(updated), "monitor="), "original content preserved")
	assert.Contains(t, string(updated), bindsMarker)

	backup, err := os.ReadFile(filepath.Join(dir, "hyprland.conf.backup"))
	require.NoError(t, err)
	assert.Equal(t, "monitor=,preferred,auto,1\n", string(backup))

	err = cfg.InstallHyprlandBinds(confPath, false)
	assert.Error(t, err, "refuses to install twice")
}
