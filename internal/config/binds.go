package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const bindsMarker = "# Hyprshot keybindings"

// HyprlandConfigPath returns ~/.config/hypr/hyprland.conf.
func HyprlandConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(configDir, "hypr", "hyprland.conf"), nil
}

// HyprlandBinds renders the bind lines for the configured hotkeys. With
// clipboard variants each binding gets a second line with an extra ALT
// modifier that copies without saving.
func (c *Config) HyprlandBinds(withClipboard bool) string {
	var b strings.Builder
	b.WriteString(bindsMarker + "\n\n")

	entries := []struct {
		hotkey string
		args   string
	}{
		{c.Hotkeys.Window, "-m window"},
		{c.Hotkeys.Region, "-m region"},
		{c.Hotkeys.Output, "-m output"},
		{c.Hotkeys.ActiveOutput, "-m output -m active"},
	}

	for _, e := range entries {
		if e.hotkey == "" {
			continue
		}
		fmt.Fprintf(&b, "bind = %s, exec, hyprshot %s\n", e.hotkey, e.args)
		if withClipboard {
			fmt.Fprintf(&b, "bind = %s, exec, hyprshot %s --clipboard-only\n", withAltModifier(e.hotkey), e.args)
		}
	}
	return b.String()
}

// withAltModifier prepends ALT to the modifier part of a "MODIFIER, KEY"
// hotkey.
func withAltModifier(hotkey string) string {
	parts := strings.SplitN(hotkey, ",", 2)
	if len(parts) != 2 {
		return "ALT " + hotkey
	}
	mods := strings.TrimSpace(parts[0])
	if mods == "" {
		mods = "ALT"
	} else {
		mods = "ALT " + mods
	}
	return mods + "," + parts[1]
}

// InstallHyprlandBinds appends the bind lines to hyprland.conf, writing a
// .conf.backup copy of the original first. Refuses to install twice.
func (c *Config) InstallHyprlandBinds(confPath string, withClipboard bool) error {
	original, err := os.ReadFile(confPath)
	if err != nil {
		return fmt.Errorf("read hyprland config %q: %w", confPath, err)
	}
	if strings.Contains(string(original), bindsMarker) {
		return fmt.Errorf("keybindings already installed in %q", confPath)
	}

	backup := strings.TrimSuffix(confPath, filepath.Ext(confPath)) + ".conf.backup"
	if err := os.WriteFile(backup, original, 0o644); err != nil {
		return fmt.Errorf("write backup %q: %w", backup, err)
	}

	updated := string(original)
	if !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += "\n" + c.HyprlandBinds(withClipboard)

	if err := os.WriteFile(confPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("update hyprland config %q: %w", confPath, err)
	}
	return nil
}
