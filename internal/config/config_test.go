package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreAlreadyValid(t *testing.T) {
	d := Defaults()
	before := d
	d.Validate()
	if d != before {
		t.Errorf("Validate() changed Defaults(): before %+v, after %+v", before, d)
	}
}

func TestValidateClampsOutOfRangeFields(t *testing.T) {
	c := Config{
		SampleRate:          1,
		Gain:                -5,
		Polyphony:           0,
		MIDIChannels:        17,
		AudioGroups:         0,
		EffectsChannels:     4,
		MinNoteLengthMillis: -1,
	}
	c.Validate()

	if c.SampleRate != minSampleRate {
		t.Errorf("SampleRate = %v, want %v", c.SampleRate, float64(minSampleRate))
	}
	if c.Gain != minGain {
		t.Errorf("Gain = %v, want %v", c.Gain, minGain)
	}
	if c.Polyphony != minPolyphony {
		t.Errorf("Polyphony = %v, want %v", c.Polyphony, minPolyphony)
	}
	if c.MIDIChannels != 32 {
		t.Errorf("MIDIChannels = %v, want 32 (rounded up to next multiple of 16)", c.MIDIChannels)
	}
	if c.AudioGroups != minAudioGroups {
		t.Errorf("AudioGroups = %v, want %v", c.AudioGroups, minAudioGroups)
	}
	if c.EffectsChannels != 2 {
		t.Errorf("EffectsChannels = %v, want 2 (always forced)", c.EffectsChannels)
	}
	if c.MinNoteLengthMillis != 0 {
		t.Errorf("MinNoteLengthMillis = %v, want 0", c.MinNoteLengthMillis)
	}

	c2 := Config{SampleRate: 1000000, Polyphony: 100000, AudioGroups: 100000, MinNoteLengthMillis: 100000}
	c2.Validate()
	if c2.SampleRate != maxSampleRate {
		t.Errorf("SampleRate = %v, want %v", c2.SampleRate, float64(maxSampleRate))
	}
	if c2.Polyphony != maxPolyphony {
		t.Errorf("Polyphony = %v, want %v", c2.Polyphony, maxPolyphony)
	}
	if c2.AudioGroups != maxAudioGroups {
		t.Errorf("AudioGroups = %v, want %v", c2.AudioGroups, maxAudioGroups)
	}
	if c2.MinNoteLengthMillis != minNoteLengthMillisMax {
		t.Errorf("MinNoteLengthMillis = %v, want %v", c2.MinNoteLengthMillis, minNoteLengthMillisMax)
	}
}

func TestValidateZeroMIDIChannelsDefaultsTo16(t *testing.T) {
	c := Config{MIDIChannels: 0}
	c.Validate()
	if c.MIDIChannels != 16 {
		t.Errorf("MIDIChannels = %v, want 16", c.MIDIChannels)
	}
}

func TestMinNoteLengthTicks(t *testing.T) {
	c := Config{SampleRate: 44100, MinNoteLengthMillis: 1000}
	if got, want := c.MinNoteLengthTicks(), uint32(44100); got != want {
		t.Errorf("MinNoteLengthTicks() = %d, want %d", got, want)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg != Defaults() {
		t.Errorf("Load() = %+v, want Defaults()", cfg)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg != Defaults() {
		t.Errorf("Load() = %+v, want Defaults()", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	want := Defaults()
	want.Gain = 0.5
	want.Polyphony = 128

	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("round-tripped config = %+v, want %+v", got, want)
	}
}

func TestLoadMalformedFileReturnsDefaultsAndError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("gain: [this is not, a scalar"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg, err := Load(path)
	if err == nil {
		t.Fatal("Load() error = nil, want non-nil for malformed YAML")
	}
	if cfg != Defaults() {
		t.Errorf("Load() on malformed file = %+v, want Defaults()", cfg)
	}
}

func TestPathIncludesModuleName(t *testing.T) {
	p := Path()
	if p == "" {
		t.Skip("no user config dir available in this environment")
	}
	if filepath.Base(p) != "config.yaml" {
		t.Errorf("Path() = %s, want basename config.yaml", p)
	}
	if filepath.Base(filepath.Dir(p)) != "sftsynth" {
		t.Errorf("Path() = %s, want it inside an sftsynth directory", p)
	}
}
