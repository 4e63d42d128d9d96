package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type fileSettings struct {
	LogLevel      string `toml:"log_level,omitempty"`
	ScreenWidth   int    `toml:"screen_width,omitempty"`
	ScreenHeight  int    `toml:"screen_height,omitempty"`
	DeviceGlob    string `toml:"device_glob,omitempty"`
	LegacyMice    string `toml:"legacy_mice,omitempty"`
	Listen        string `toml:"listen,omitempty"`
	OverlayWindow string `toml:"overlay_window,omitempty"`
	Stdout        *bool  `toml:"stdout"`
}

func defaultSettingsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", ".overlayinput.toml"), nil
	}
	return filepath.Join(configDir, "overlayinput", "config.toml"), nil
}

// loadSettings returns nil without error when path does not exist.
func loadSettings(path string) (*fileSettings, error) {
	var cfg fileSettings
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

func saveSettings(path string, cfg fileSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist config: %w", err)
	}
	return nil
}
