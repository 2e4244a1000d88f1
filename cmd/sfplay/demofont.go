package main

import (
	"math"

	"sftsynth/internal/sample"
	"sftsynth/internal/sf2"
	"sftsynth/internal/soundfont"
)

// buildDemoFont synthesizes a tiny one-preset, one-instrument SoundFont
// entirely in memory: a single looping sine-wave sample at concert A,
// bound to the full key/velocity range on bank 0 program 0. The real RIFF
// SF2 binary reader is an external collaborator outside this engine's
// scope, so sfplay always plays this font (it takes no .sf2 path on the
// command line), the same way the donor's demorom command synthesizes a
// ROM image instead of shipping one.
func buildDemoFont(sampleRate uint32) *soundfont.Font {
	const (
		freq    = 440.0
		cycles  = 8
		origKey = 69 // A4
	)
	period := int(float64(sampleRate) / freq)
	n := period * cycles
	data := make([]int16, n)
	for i := range data {
		data[i] = int16(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * 24000)
	}

	smp := sample.New("demo-sine", data, 0, uint32(n), 0, uint32(n), origKey, 0, sampleRate, sample.TypeMono)

	gen := sf2.NewGeneratorSet()
	gen.Set(sf2.GenSampleModes, float64(sf2.SampleModeLoop))
	gen.Set(sf2.GenSampleID, 0)

	instZone := soundfont.InstrumentZone{
		Zone: soundfont.Zone{
			KeyLo: 0, KeyHi: 127,
			VelLo: 0, VelHi: 127,
			Gen: gen,
		},
		Sample: smp,
	}
	inst := &soundfont.Instrument{Name: "demo-sine-instrument", Zones: []soundfont.InstrumentZone{instZone}}

	presetZone := soundfont.PresetZone{
		Zone: soundfont.Zone{KeyLo: 0, KeyHi: 127, VelLo: 0, VelHi: 127},
		Inst: inst,
	}
	preset := &soundfont.Preset{
		Name:    "Demo Sine",
		Bank:    0,
		Program: 0,
		Zones:   []soundfont.PresetZone{presetZone},
	}

	return &soundfont.Font{Name: "demo.sf2", Presets: []*soundfont.Preset{preset}}
}
