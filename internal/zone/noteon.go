// Package zone implements note-on zone selection (§4.7 Zone Selection):
// walking a channel's resolved preset's zone hierarchy to find every
// instrument zone a (key, velocity) pair falls into, then allocating and
// configuring one voice per match.
package zone

import (
	"sftsynth/internal/channel"
	"sftsynth/internal/sample"
	"sftsynth/internal/sf2"
	"sftsynth/internal/soundfont"
	"sftsynth/internal/voice"
	"sftsynth/internal/voicepool"
)

// NoteOn resolves chn's current preset against (key, vel) and starts one
// voice per matching, playable instrument zone (§4.7). noteID is the
// monotonically increasing note counter used both as the new voice's
// identity and as the reference point for the pool's voice-stealing
// priority; startTime is the running sample-tick clock at the moment of
// this event. minNoteLengthTicks bounds how quickly a just-triggered
// voice on the same (channel, key) can be released by a retrigger,
// matching the synth-wide configuration value of the same name.
func NoteOn(pool *voicepool.Pool, chn *channel.Channel, chanNum uint8, key, vel uint8, noteID uint64, startTime uint32, gain float32, minNoteLengthTicks uint32) {
	preset := chn.Preset
	if preset == nil {
		return
	}

	pool.ReleaseVoiceOnSameNote(minNoteLengthTicks, chanNum, key, noteID)

	for pz := range preset.Zones {
		presetZone := &preset.Zones[pz]
		if !presetZone.InsideRange(key, vel) {
			continue
		}
		inst := presetZone.Inst
		if inst == nil {
			continue
		}

		for iz := range inst.Zones {
			instZone := &inst.Zones[iz]

			smp, ok := instZone.Sample.(*sample.Sample)
			if !ok || smp == nil || !smp.IsValid() || smp.IsROM() {
				continue
			}
			if !instZone.InsideRange(key, vel) {
				continue
			}

			desc := voice.Descriptor{
				Sample:    smp,
				Chan:      chn,
				ChanNum:   chanNum,
				Key:       key,
				Vel:       vel,
				ID:        noteID,
				StartTime: startTime,
				Gain:      gain,
			}

			id, ok := pool.RequestNewVoice(noteID, desc, func(v *voice.Voice) {
				configureVoice(v, inst.GlobalZone, instZone, preset.GlobalZone, presetZone)
			})
			if !ok {
				continue
			}
			pool.StartVoice(id)
		}
	}
}

// configureVoice layers default, instrument, and preset generators and
// modulators onto a freshly allocated voice, in the precedence order
// SF2.01 §9.4 mandates: local instrument zone > global instrument zone >
// default; preset generators apply additively on top of whatever the
// instrument level already set (§4.7).
func configureVoice(v *voice.Voice, globalInstZone *soundfont.InstrumentZone, instZone *soundfont.InstrumentZone, globalPresetZone *soundfont.PresetZone, presetZone *soundfont.PresetZone) {
	v.AddDefaultMods()

	for g := sf2.GenParam(0); g < sf2.GenLast; g++ {
		if instZone.Gen[g].Set {
			v.GenSet(g, instZone.Gen[g].Val)
		} else if globalInstZone != nil && globalInstZone.Gen[g].Set {
			v.GenSet(g, globalInstZone.Gen[g].Val)
		}
	}

	var globalInstMods, instMods []sf2.Modulator
	if globalInstZone != nil {
		globalInstMods = globalInstZone.Mods
	}
	instMods = instZone.Mods
	for _, m := range dedupMods(globalInstMods, instMods) {
		v.AddMod(m, sf2.AddModeOverwrite)
	}

	for g := sf2.GenParam(0); g < sf2.GenLast; g++ {
		if sf2.IgnoredAtPresetLevel(g) {
			continue
		}
		if presetZone.Gen[g].Set {
			v.GenIncr(g, presetZone.Gen[g].Val)
		} else if globalPresetZone != nil && globalPresetZone.Gen[g].Set {
			v.GenIncr(g, globalPresetZone.Gen[g].Val)
		}
	}

	var globalPresetMods, presetMods []sf2.Modulator
	if globalPresetZone != nil {
		globalPresetMods = globalPresetZone.Mods
	}
	presetMods = presetZone.Mods
	for _, m := range dedupMods(globalPresetMods, presetMods) {
		if m.Amount == 0 {
			continue
		}
		v.AddMod(m, sf2.AddModeAdd)
	}
}

// dedupMods merges a global zone's modulator list with a local zone's,
// with the local entry replacing any global entry SF2.01 §9.5.1 bullet 3
// calls "identical" (§4.7, "local zone modulator identical to a global
// zone modulator knocks it out of the list").
func dedupMods(global, local []sf2.Modulator) []sf2.Modulator {
	list := append([]sf2.Modulator(nil), global...)
	for _, m := range local {
		for i := range list {
			if list[i].Identical(m) {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		list = append(list, m)
	}
	return list
}
