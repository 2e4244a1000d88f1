// Package soundfont defines the in-memory instrument hierarchy a decoded
// SoundFont 2 bank presents to the synthesis engine: presets, instruments,
// and their zones. The RIFF/SF2 binary reader that populates these shapes
// is an external collaborator (§1 Out of scope) — this package only
// specifies what it must hand back. Field names mirror the SF2 chunk
// vocabulary a binary reader would use (PresetHeader/Instrument/Generator
// naming, per the pack's own SF2 reader).
package soundfont

import "sftsynth/internal/sf2"

// Zone is the common shape shared by preset and instrument zones: a
// key/velocity range plus the generator/modulator set that applies within
// it (§3 Modulator, glossary "Zone").
type Zone struct {
	KeyLo, KeyHi uint8
	VelLo, VelHi int32

	Gen  sf2.GeneratorSet
	Mods []sf2.Modulator
}

// InsideRange reports whether (key, vel) falls within the zone's key and
// velocity ranges (§4.7 preset_zone_inside_range / inst_zone_inside_range).
func (z *Zone) InsideRange(key, vel uint8) bool {
	return z.KeyLo <= key && key <= z.KeyHi && z.VelLo <= int32(vel) && int32(vel) <= z.VelHi
}

// InstrumentZone is one zone of an Instrument: a key/velocity range bound
// to a Sample (via the package-level Sample handle used by the zone
// selector and voice).
type InstrumentZone struct {
	Zone
	Sample SampleRef
}

// SampleRef is the interface the zone selector and voice need from a bound
// sample: just enough to decide playability (ROM/validity) without this
// package depending on the concrete sample.Sample type, keeping the
// dependency order leaves-first (sample -> soundfont -> ... -> zone).
type SampleRef interface {
	IsValid() bool
	IsROM() bool
}

// Instrument is a named collection of instrument zones plus an optional
// global zone (applies to every local zone, §3 Modulator / glossary
// "Preset global zone" applies symmetrically to instruments).
type Instrument struct {
	Name       string
	GlobalZone *InstrumentZone
	Zones      []InstrumentZone
}

// PresetZone is one zone of a Preset: a key/velocity range bound to an
// Instrument.
type PresetZone struct {
	Zone
	Inst *Instrument
}

// Preset is one SoundFont preset (a "patch" in GM terms): bank/program
// number, a set of preset zones, and an optional global zone.
type Preset struct {
	Name       string
	Bank       uint32
	Program    uint32
	GlobalZone *PresetZone
	Zones      []PresetZone
}

// Font is a loaded SoundFont: an ordered list of presets plus the bank
// offset the engine should subtract from an incoming bank number before
// matching against this font's presets (§4.4 "Preset search").
type Font struct {
	ID         uint32
	Name       string
	BankOffset uint32
	Presets    []*Preset
}

// FindPreset returns the first preset in f matching (bank, program) after
// subtracting f.BankOffset, or nil.
func (f *Font) FindPreset(bank, program uint32) *Preset {
	adjBank := bank
	if adjBank >= f.BankOffset {
		adjBank -= f.BankOffset
	}
	for _, p := range f.Presets {
		if p.Bank == adjBank && p.Program == program {
			return p
		}
	}
	return nil
}

// Stack is the ordered collection of loaded fonts a Synth searches
// top-to-bottom for preset resolution (§4.4 "Preset search: iterate the
// soundfont stack top-to-bottom").
type Stack struct {
	fonts []*Font
}

// Add appends a font to the top of the stack (searched first).
func (s *Stack) Add(f *Font) {
	s.fonts = append([]*Font{f}, s.fonts...)
}

// Remove removes a font by id. Returns false if no such font is loaded.
func (s *Stack) Remove(id uint32) bool {
	for i, f := range s.fonts {
		if f.ID == id {
			s.fonts = append(s.fonts[:i], s.fonts[i+1:]...)
			return true
		}
	}
	return false
}

// FindPreset searches every font in the stack, top to bottom, returning
// the first preset matching (bank, program) and the font it came from.
func (s *Stack) FindPreset(bank, program uint32) (*Preset, *Font) {
	for _, f := range s.fonts {
		if p := f.FindPreset(bank, program); p != nil {
			return p, f
		}
	}
	return nil, nil
}
