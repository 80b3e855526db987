package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Package config provides configuration management for BiggerTask: the last
// used macro directory and the three bindable hotkey combos. The file is
// rewritten in full on every mutation; only the UI-facing control path ever
// calls the mutators.

// ComboSlot identifies one of the three bindable hotkey actions.
type ComboSlot int

// Combo slots, in config file order.
const (
	SlotStartRecording ComboSlot = iota
	SlotStartPlayback
	SlotStopPlayback
)

// String returns the human-readable name of the slot.
func (s ComboSlot) String() string {
	switch s {
	case SlotStartRecording:
		return "Start Recording"
	case SlotStartPlayback:
		return "Start Playback"
	case SlotStopPlayback:
		return "Stop Playback"
	}
	return fmt.Sprintf("Slot(%d)", int(s))
}

// HotkeyCombo is a bindable key combination: up to three unique keycodes.
// Keys preserves capture order for display; matching treats it as a set.
type HotkeyCombo struct {
	Display string   `json:"display"`
	Keys    []uint32 `json:"keys"`
}

// Empty reports whether no keys are bound.
func (h HotkeyCombo) Empty() bool {
	return len(h.Keys) == 0
}

// Config holds all persisted settings.
type Config struct {
	LastDirectory  string      `json:"lastDirectory"`
	StartRecording HotkeyCombo `json:"startRecording"`
	StartPlayback  HotkeyCombo `json:"startPlayback"`
	StopPlayback   HotkeyCombo `json:"stopPlayback"`

	path string
}

// Dir returns the path to the user's config directory.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "."+strings.ToLower(AppName)), nil
}

// Load reads the config file, falling back to defaults when it does not
// exist yet. The returned Config remembers its own file path for Save.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(dir, "config.json"))
}

// LoadFrom reads the config from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := defaults()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{LastDirectory: home}
}

// Save rewrites the whole config file.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Combo returns the combo bound to the given slot.
func (c *Config) Combo(slot ComboSlot) HotkeyCombo {
	switch slot {
	case SlotStartRecording:
		return c.StartRecording
	case SlotStartPlayback:
		return c.StartPlayback
	case SlotStopPlayback:
		return c.StopPlayback
	}
	return HotkeyCombo{}
}

// SetCombo binds a combo to a slot and persists the change.
func (c *Config) SetCombo(slot ComboSlot, combo HotkeyCombo) error {
	switch slot {
	case SlotStartRecording:
		c.StartRecording = combo
	case SlotStartPlayback:
		c.StartPlayback = combo
	case SlotStopPlayback:
		c.StopPlayback = combo
	default:
		return fmt.Errorf("unknown combo slot %d", int(slot))
	}
	return c.Save()
}

// ClearCombo removes the binding for a slot and persists the change.
func (c *Config) ClearCombo(slot ComboSlot) error {
	return c.SetCombo(slot, HotkeyCombo{})
}

// SetLastDirectory records the directory of the most recent save/load and
// persists the change.
func (c *Config) SetLastDirectory(dir string) error {
	c.LastDirectory = dir
	return c.Save()
}
