package zone

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sftsynth/internal/channel"
	"sftsynth/internal/sample"
	"sftsynth/internal/sf2"
	"sftsynth/internal/soundfont"
	"sftsynth/internal/voice"
	"sftsynth/internal/voicepool"
)

const testSampleRate = 44100

func sineSample(n int) *sample.Sample {
	data := make([]int16, n)
	for i := range data {
		data[i] = int16((i % 100) * 300)
	}
	return sample.New("test-sine", data, 0, uint32(n), 0, uint32(n), 60, 0, testSampleRate, sample.TypeMono)
}

func onePresetFont(smp *sample.Sample) *soundfont.Preset {
	gen := sf2.NewGeneratorSet()
	gen.Set(sf2.GenSampleModes, float64(sf2.SampleModeLoop))

	instZone := soundfont.InstrumentZone{
		Zone:   soundfont.Zone{KeyLo: 0, KeyHi: 127, VelLo: 0, VelHi: 127, Gen: gen},
		Sample: smp,
	}
	inst := &soundfont.Instrument{Name: "test-instrument", Zones: []soundfont.InstrumentZone{instZone}}
	presetZone := soundfont.PresetZone{Zone: soundfont.Zone{KeyLo: 0, KeyHi: 127, VelLo: 0, VelHi: 127}, Inst: inst}
	return &soundfont.Preset{Name: "test-preset", Zones: []soundfont.PresetZone{presetZone}}
}

func TestNoteOnStartsOneVoicePerMatchingZone(t *testing.T) {
	pool := voicepool.New(16, testSampleRate)
	chn := channel.New(0, false)
	chn.Preset = onePresetFont(sineSample(1000))

	NoteOn(pool, chn, 0, 60, 100, 1, 0, 0.2, 0)

	v := pool.Voice(0)
	require.True(t, v.IsPlaying(), "voice should be playing after NoteOn matches a zone")
	require.Equal(t, uint8(60), v.Key)
	require.Equal(t, uint8(100), v.Vel)
}

func TestNoteOnOutsideZoneRangeStartsNoVoice(t *testing.T) {
	pool := voicepool.New(16, testSampleRate)
	chn := channel.New(0, false)
	preset := onePresetFont(sineSample(1000))
	preset.Zones[0].KeyLo, preset.Zones[0].KeyHi = 0, 59 // excludes key 60
	chn.Preset = preset

	NoteOn(pool, chn, 0, 60, 100, 1, 0, 0.2, 0)

	require.Equal(t, 0, len(voicesOf(pool)), "no voice should be allocated for a key outside every zone's range")
}

func TestNoteOnWithNilPresetIsANoOp(t *testing.T) {
	pool := voicepool.New(16, testSampleRate)
	chn := channel.New(0, false)

	require.NotPanics(t, func() {
		NoteOn(pool, chn, 0, 60, 100, 1, 0, 0.2, 0)
	})
}

func TestNoteOnSkipsInvalidSample(t *testing.T) {
	pool := voicepool.New(16, testSampleRate)
	chn := channel.New(0, false)
	chn.Preset = onePresetFont(sineSample(4)) // under the 8-frame validity floor

	NoteOn(pool, chn, 0, 60, 100, 1, 0, 0.2, 0)

	require.Equal(t, 0, len(voicesOf(pool)), "an invalid sample must never start a voice")
}

func TestNoteOnRetriggerReleasesPriorVoiceOnSameKey(t *testing.T) {
	pool := voicepool.New(16, testSampleRate)
	chn := channel.New(0, false)
	chn.Preset = onePresetFont(sineSample(1000))

	NoteOn(pool, chn, 0, 60, 100, 1, 0, 0.2, 0)
	first := pool.Voice(0)
	require.True(t, first.IsOn())

	NoteOn(pool, chn, 0, 60, 100, 2, 100, 0.2, 0)
	require.Equal(t, voice.EnvRelease, first.VolEnvSection, "retriggering the same key should release the prior voice")
}

// voicesOf counts how many voice slots the pool is occupying by probing
// sequential ids until an out-of-range access would occur; tests only call
// this against a pool they built, immediately after zero or one NoteOn.
func voicesOf(pool *voicepool.Pool) []int {
	var ids []int
	for i := 0; i < 16; i++ {
		func() {
			defer func() { recover() }()
			v := pool.Voice(voicepool.ID(i))
			if v != nil && v.IsPlaying() {
				ids = append(ids, i)
			}
		}()
	}
	return ids
}
