// Package config loads, validates, and persists the synthesizer's
// configuration (§6 EXTERNAL INTERFACES "Configuration"): everything a
// Synth needs to size its voice pool, mixer, and channel set before the
// first event arrives. Values round-trip through YAML (§2.1 AMBIENT
// STACK), following the same default/load/save shape the donor's
// devkit settings use.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the schema of §6's configuration table; every field has a
// validated range and a default applied on load or explicit Defaults().
type Config struct {
	SampleRate          float64 `yaml:"sample_rate"`
	Gain                float64 `yaml:"gain"`
	Polyphony           int     `yaml:"polyphony"`
	MIDIChannels        int     `yaml:"midi_channels"`
	AudioGroups         int     `yaml:"audio_groups"`
	EffectsChannels     int     `yaml:"effects_channels"`
	ReverbActive        bool    `yaml:"reverb_active"`
	ChorusActive        bool    `yaml:"chorus_active"`
	DrumsChannelActive  bool    `yaml:"drums_channel_active"`
	MinNoteLengthMillis int     `yaml:"min_note_length"`
}

const (
	minSampleRate = 22050
	maxSampleRate = 96000

	minGain = 0.0
	maxGain = 10.0

	minPolyphony = 1
	maxPolyphony = 4096

	minAudioGroups = 1
	maxAudioGroups = 128

	minNoteLengthMillisMax = 65535
)

// Defaults returns the configuration listed in §6's table: 44100Hz,
// gain 0.2, 256-voice polyphony, 16 MIDI channels, one audio group, the
// mandatory two effects channels, both aux busses enabled, channel 9 not
// yet reserved for drums, and no minimum note length.
func Defaults() Config {
	return Config{
		SampleRate:          44100,
		Gain:                0.2,
		Polyphony:           256,
		MIDIChannels:        16,
		AudioGroups:         1,
		EffectsChannels:     2,
		ReverbActive:        true,
		ChorusActive:        true,
		DrumsChannelActive:  false,
		MinNoteLengthMillis: 0,
	}
}

// Validate clamps every field to its documented range and rounds
// midi_channels up to the next multiple of 16, matching §6's
// "midi_channels (multiple of 16)" constraint. It never fails: an
// out-of-range configuration is always repaired, not rejected, since
// configuration loading happens well before any event can be misrouted.
func (c *Config) Validate() {
	c.SampleRate = clampF(c.SampleRate, minSampleRate, maxSampleRate)
	c.Gain = clampF(c.Gain, minGain, maxGain)
	c.Polyphony = clampI(c.Polyphony, minPolyphony, maxPolyphony)
	c.AudioGroups = clampI(c.AudioGroups, minAudioGroups, maxAudioGroups)

	if c.MIDIChannels <= 0 {
		c.MIDIChannels = 16
	}
	if rem := c.MIDIChannels % 16; rem != 0 {
		c.MIDIChannels += 16 - rem
	}

	c.EffectsChannels = 2

	if c.MinNoteLengthMillis < 0 {
		c.MinNoteLengthMillis = 0
	}
	if c.MinNoteLengthMillis > minNoteLengthMillisMax {
		c.MinNoteLengthMillis = minNoteLengthMillisMax
	}
}

// MinNoteLengthTicks converts the millisecond minimum note length to a
// sample-tick count at the configured sample rate, the unit the voice
// pool and zone selector operate in.
func (c *Config) MinNoteLengthTicks() uint32 {
	return uint32(float64(c.MinNoteLengthMillis) * c.SampleRate / 1000.0)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Path returns the default per-user config file location, or "" if the
// platform config directory can't be resolved.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "sftsynth", "config.yaml")
}

// Load reads and validates a config file at path, falling back to
// Defaults() if the file doesn't exist. A malformed file is reported as
// an error alongside a valid default configuration the caller may still
// use.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Validate()
	return cfg, nil
}

// Save validates and writes cfg to path as YAML, creating parent
// directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return nil
	}
	cfg.Validate()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir for %s: %w", path, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
