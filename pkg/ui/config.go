package ui

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// fileConfig is the on-disk editor configuration. Every setting is
// optional; zero values defer to the engine defaults.
type fileConfig struct {
	Display struct {
		MinFrames    int     `toml:"min_frames"`
		MaxFrames    int     `toml:"max_frames"`
		MinHalfRange float64 `toml:"min_half_range"`
	} `toml:"display"`

	Input struct {
		Mouse        *bool `toml:"mouse"`
		DebounceMS   int   `toml:"debounce_ms"`
		ClickGuardMS int   `toml:"click_guard_ms"`
	} `toml:"input"`

	Playback struct {
		FPS float64 `toml:"fps"`
	} `toml:"playback"`

	UndoLimit int `toml:"undo_limit"`
}

// DefaultConfigPath returns the editor config location, honoring
// XDG_CONFIG_HOME and falling back to ~/.config.
func DefaultConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "marionet", "config.toml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "marionet", "config.toml")
	}
	return filepath.Join(os.TempDir(), "marionet", "config.toml")
}

// LoadConfig reads the editor config file and applies MARIONET_* environment
// overrides on top. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := Config{Mouse: true}

	var fc fileConfig
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return cfg, errors.Wrapf(err, "parsing %s", path)
		}
	}

	cfg.Timeline.MinDisplayFrames = fc.Display.MinFrames
	cfg.Timeline.MaxDisplayFrames = fc.Display.MaxFrames
	cfg.Timeline.MinHalfRange = fc.Display.MinHalfRange
	cfg.Timeline.RecomputeDebounce = time.Duration(fc.Input.DebounceMS) * time.Millisecond
	cfg.Timeline.ClickGuard = time.Duration(fc.Input.ClickGuardMS) * time.Millisecond
	cfg.Timeline.UndoLimit = fc.UndoLimit
	if fc.Input.Mouse != nil {
		cfg.Mouse = *fc.Input.Mouse
	}
	cfg.FPS = fc.Playback.FPS

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides applies MARIONET_* environment variables on top of the
// file config. Unparseable values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MARIONET_MOUSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Mouse = b
		}
	}
	if v := os.Getenv("MARIONET_FPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.FPS = f
		}
	}
	if v := os.Getenv("MARIONET_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Timeline.RecomputeDebounce = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("MARIONET_UNDO_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Timeline.UndoLimit = n
		}
	}
}
