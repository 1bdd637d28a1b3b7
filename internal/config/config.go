// Package config loads and persists the TOML configuration at
// ~/.config/hyprshot/config.toml. CLI flags always win over file values;
// the file wins over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Paths section.
type Paths struct {
	ScreenshotsDir string `mapstructure:"screenshots_dir" toml:"screenshots_dir"`
}

// Capture section.
type Capture struct {
	Notification        bool   `mapstructure:"notification" toml:"notification"`
	NotificationTimeout uint32 `mapstructure:"notification_timeout" toml:"notification_timeout"`
}

// Hotkeys section, "MODIFIER, KEY" per binding.
type Hotkeys struct {
	Window       string `mapstructure:"window" toml:"window"`
	Region       string `mapstructure:"region" toml:"region"`
	Output       string `mapstructure:"output" toml:"output"`
	ActiveOutput string `mapstructure:"active_output" toml:"active_output"`
}

// Advanced section.
type Advanced struct {
	FreezeOnRegion bool   `mapstructure:"freeze_on_region" toml:"freeze_on_region"`
	DelayMs        uint32 `mapstructure:"delay_ms" toml:"delay_ms"`
}

type Config struct {
	Paths    Paths    `mapstructure:"paths" toml:"paths"`
	Capture  Capture  `mapstructure:"capture" toml:"capture"`
	Hotkeys  Hotkeys  `mapstructure:"hotkeys" toml:"hotkeys"`
	Advanced Advanced `mapstructure:"advanced" toml:"advanced"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: Paths{ScreenshotsDir: "~/Pictures/Screenshots"},
		Capture: Capture{
			Notification:        true,
			NotificationTimeout: 5000,
		},
		Hotkeys: Hotkeys{
			Window:       "SUPER, Print",
			Region:       "SUPER SHIFT, Print",
			Output:       "SUPER CTRL, Print",
			ActiveOutput: ", Print",
		},
		Advanced: Advanced{
			FreezeOnRegion: false,
			DelayMs:        0,
		},
	}
}

// DefaultPath returns ~/.config/hyprshot/config.toml.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(configDir, "hyprshot", "config.toml"), nil
}

// Manager reads and writes one config file.
type Manager struct {
	path string
	v    *viper.Viper
}

func NewManager(path string) *Manager {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	applyDefaults(v)
	return &Manager{path: path, v: v}
}

func applyDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("paths.screenshots_dir", d.Paths.ScreenshotsDir)
	v.SetDefault("capture.notification", d.Capture.Notification)
	v.SetDefault("capture.notification_timeout", d.Capture.NotificationTimeout)
	v.SetDefault("hotkeys.window", d.Hotkeys.Window)
	v.SetDefault("hotkeys.region", d.Hotkeys.Region)
	v.SetDefault("hotkeys.output", d.Hotkeys.Output)
	v.SetDefault("hotkeys.active_output", d.Hotkeys.ActiveOutput)
	v.SetDefault("advanced.freeze_on_region", d.Advanced.FreezeOnRegion)
	v.SetDefault("advanced.delay_ms", d.Advanced.DelayMs)
}

// Path returns the file this manager operates on.
func (m *Manager) Path() string { return m.path }

// Exists reports whether the config file is present on disk.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Load reads the file and returns the merged configuration. A missing file
// yields the defaults without error.
func (m *Manager) Load() (*Config, error) {
	if err := m.v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config %q: %w", m.path, err)
			}
		}
	}
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", m.path, err)
	}
	return &cfg, nil
}

// Save writes the current values to disk, creating the directory as
// needed.
func (m *Manager) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := m.v.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("write config %q: %w", m.path, err)
	}
	return nil
}

// settableKeys maps "section.field" to a parser validating the value.
var settableKeys = map[string]func(string) (any, error){
	"paths.screenshots_dir":        func(s string) (any, error) { return s, nil },
	"hotkeys.window":               func(s string) (any, error) { return s, nil },
	"hotkeys.region":               func(s string) (any, error) { return s, nil },
	"hotkeys.output":               func(s string) (any, error) { return s, nil },
	"hotkeys.active_output":        func(s string) (any, error) { return s, nil },
	"capture.notification":         parseBool,
	"advanced.freeze_on_region":    parseBool,
	"capture.notification_timeout": parseUint,
	"advanced.delay_ms":            parseUint,
}

func parseBool(s string) (any, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("value must be 'true' or 'false'")
	}
	return b, nil
}

func parseUint(s string) (any, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("value must be a number (milliseconds)")
	}
	return uint32(n), nil
}

// Set validates and updates one "section.field" key, persisting the result.
func (m *Manager) Set(key, value string) error {
	parse, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q\n\navailable keys:\n  %s", key, strings.Join(SettableKeys(), "\n  "))
	}
	parsed, err := parse(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if _, err := m.Load(); err != nil {
		return err
	}
	m.v.Set(key, parsed)
	return m.Save()
}

// SettableKeys lists the keys accepted by Set, sorted by section.
func SettableKeys() []string {
	return []string{
		"paths.screenshots_dir",
		"hotkeys.window",
		"hotkeys.region",
		"hotkeys.output",
		"hotkeys.active_output",
		"capture.notification",
		"capture.notification_timeout",
		"advanced.freeze_on_region",
		"advanced.delay_ms",
	}
}

// ScreenshotsDir resolves the directory screenshots are saved to.
// An explicit override wins; "~" expands to the home directory.
func ScreenshotsDir(override string, cfg *Config) (string, error) {
	dir := cfg.Paths.ScreenshotsDir
	if override != "" {
		dir = override
	}
	return expandHome(dir)
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
