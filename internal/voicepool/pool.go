// Package voicepool manages the fixed-capacity collection of active
// voices a Synth renders through: allocation, exclusive-class stealing,
// priority-based voice stealing when at capacity, and the per-block
// write fan-out to stereo buffers grouped by audio channel (§4.6 Voice
// Pool).
package voicepool

import (
	"sftsynth/internal/sf2"
	"sftsynth/internal/voice"
)

// ID identifies a voice slot within the pool. It stays valid only until
// the slot is reused by a later request_new_voice-equivalent call.
type ID int

// Pool owns every live voice. Voices are never removed once allocated,
// only reinitialized in place (§4.6 "voice slots are reused, not
// reallocated").
type Pool struct {
	voices         []*voice.Voice
	sampleRate     float32
	polyphonyLimit int
}

// New creates an empty pool with the given polyphony ceiling.
func New(polyphonyLimit int, sampleRate float32) *Pool {
	return &Pool{sampleRate: sampleRate, polyphonyLimit: polyphonyLimit}
}

// SetSampleRate drops every voice and adopts a new output sample rate
// (§4.6 set_sample_rate): changing sample rate mid-stream would leave
// existing voices' cached phase increments wrong, so the reference
// simply clears the pool.
func (p *Pool) SetSampleRate(sampleRate float32) {
	p.voices = p.voices[:0]
	p.sampleRate = sampleRate
}

// SetPolyphonyLimit lowers or raises the ceiling, dropping any voices
// above a new, smaller limit.
func (p *Pool) SetPolyphonyLimit(n int) {
	if len(p.voices) > n {
		p.voices = p.voices[:n]
	}
	p.polyphonyLimit = n
}

// SetGen broadcasts a channel-wide generator change (from an NRPN/RPN
// message) to every voice currently on that channel. abs carries the
// GEN_ABS_NRPN transform (§9.6) through to each voice.
func (p *Pool) SetGen(chanNum uint8, g sf2.GenParam, value float64, abs bool) {
	for _, v := range p.voices {
		if v.ChanNum == chanNum {
			v.SetNRPNParam(g, value, abs)
		}
	}
}

// SetGain rescales every playing voice's cached amplitude for a new
// master gain.
func (p *Pool) SetGain(gain float32) {
	for _, v := range p.voices {
		if v.IsPlaying() {
			v.SetGain(gain)
		}
	}
}

// NoteOff releases every voice on chan/key still sounding (§4.6 noteoff).
func (p *Pool) NoteOff(minNoteLengthTicks uint32, chanNum, key uint8) {
	for _, v := range p.voices {
		if v.IsOn() && v.ChanNum == chanNum && v.Key == key {
			v.NoteOff(minNoteLengthTicks)
		}
	}
}

// AllNotesOff releases every playing voice on chan (CC 123).
func (p *Pool) AllNotesOff(minNoteLengthTicks uint32, chanNum uint8) {
	for _, v := range p.voices {
		if v.IsPlaying() && v.ChanNum == chanNum {
			v.NoteOff(minNoteLengthTicks)
		}
	}
}

// AllSoundsOff silences every voice on chan immediately, no release tail
// (CC 120).
func (p *Pool) AllSoundsOff(chanNum uint8) {
	for _, v := range p.voices {
		if v.IsPlaying() && v.ChanNum == chanNum {
			v.Off()
		}
	}
}

// SystemReset silences every voice in the pool.
func (p *Pool) SystemReset() {
	for _, v := range p.voices {
		v.Off()
	}
}

// KeyPressure recomputes generators driven by polyphonic key pressure for
// every voice on chan/key.
func (p *Pool) KeyPressure(chanNum, key uint8) {
	const modKeyPressure = 10
	for _, v := range p.voices {
		if v.ChanNum == chanNum && v.Key == key {
			v.Modulate(false, modKeyPressure)
		}
	}
}

// DampVoices releases every sustained voice on chan once the sustain
// pedal lifts.
func (p *Pool) DampVoices(minNoteLengthTicks uint32, chanNum uint8) {
	for _, v := range p.voices {
		if v.ChanNum == chanNum && v.Status == voice.StatusSustained {
			v.NoteOff(minNoteLengthTicks)
		}
	}
}

// ModulateVoices recomputes every generator on chan driven by controller
// ctrl (isCC distinguishes a CC index from a general-controller index).
func (p *Pool) ModulateVoices(chanNum uint8, isCC bool, ctrl uint8) {
	for _, v := range p.voices {
		if v.ChanNum == chanNum {
			v.Modulate(isCC, ctrl)
		}
	}
}

// ModulateVoicesAll recomputes every generator targeted by any modulator
// on chan, used after a bulk controller reset.
func (p *Pool) ModulateVoicesAll(chanNum uint8) {
	for _, v := range p.voices {
		if v.ChanNum == chanNum {
			v.ModulateAll()
		}
	}
}

// freeVoiceByKill scans for a clean/off slot to reuse, or failing that
// steals the lowest-priority playing voice and silences it (§4.6
// free_voice_by_kill). The priority formula favors killing voices already
// marked released (chan==0xff), sustained voices, older notes, and
// quieter late-release voices.
func (p *Pool) freeVoiceByKill(noteID uint64) (ID, bool) {
	bestPrio := float32(999999.0)
	bestIdx := -1

	for i, v := range p.voices {
		if v.IsAvailable() {
			return ID(i), true
		}
		prio := float32(10000.0)
		if v.ChanNum == 0xff {
			prio -= 2000.0
		}
		if v.Status == voice.StatusSustained {
			prio -= 1000.0
		}
		prio -= float32(int64(noteID - v.ID))
		if v.VolEnvSection != voice.EnvAttack {
			prio += v.VolEnvValue() * 1000.0
		}
		if prio < bestPrio {
			bestIdx = i
			bestPrio = prio
		}
	}

	if bestIdx < 0 {
		return 0, false
	}
	p.voices[bestIdx].Off()
	return ID(bestIdx), true
}

// killByExclusiveClass force-releases every other playing voice on the
// same channel sharing newVoice's exclusive class (§4.6
// kill_by_exclusive_class): SF2 exclusive classes let one instrument
// (e.g. an open hi-hat) choke another (a closed hi-hat) the instant the
// new note starts.
func (p *Pool) killByExclusiveClass(newVoice ID) {
	nv := p.voices[newVoice]
	exclClass := nv.ExclusiveClass()
	if exclClass == 0 {
		return
	}
	for i, v := range p.voices {
		if ID(i) == newVoice || !v.IsPlaying() {
			continue
		}
		if v.ChanNum == nv.ChanNum && v.ExclusiveClass() == exclClass && v.ID != nv.ID {
			v.KillExcl()
		}
	}
}

// StartVoice kills any exclusive-class conflicts then finalizes and
// starts the given voice (§4.6 start_voice).
func (p *Pool) StartVoice(id ID) {
	p.killByExclusiveClass(id)
	p.voices[id].Start()
}

// ReleaseVoiceOnSameNote releases every other playing voice on chan/key
// that isn't this note-on's own id, implementing the "retrigger the same
// key" legato behavior (§4.6).
func (p *Pool) ReleaseVoiceOnSameNote(minNoteLengthTicks uint32, chanNum, key uint8, noteID uint64) {
	for _, v := range p.voices {
		if v.IsPlaying() && v.ChanNum == chanNum && v.Key == key && v.ID != noteID {
			v.NoteOff(minNoteLengthTicks)
		}
	}
}

// WriteVoices renders every playing voice into the per-group stereo
// buffers (§4.8): a voice's MIDI channel number modulo audioGroups
// selects which buffer pair it's summed into, letting callers use the
// audio groups as mixer subgroups.
func (p *Pool) WriteVoices(minNoteLengthTicks uint32, audioGroups int, dspLeftBuf, dspRightBuf [][voice.BlockSize]float32, fx *voice.FxBuf, reverbActive, chorusActive bool) {
	groups := channelGroupCount(audioGroups)
	for _, v := range p.voices {
		if !v.IsPlaying() {
			continue
		}
		auChan := int(v.ChanNum) % groups
		v.Write(minNoteLengthTicks, dspLeftBuf[auChan][:], dspRightBuf[auChan][:], fx, reverbActive, chorusActive)
	}
}

// RequestNewVoice finds a reusable slot, grows the pool if under the
// polyphony limit, or steals the lowest-priority voice, then reinits it
// with desc (§4.6 request_new_voice). after runs against the allocated
// voice before it's started, letting the caller install zone generators
// and modulators first.
func (p *Pool) RequestNewVoice(noteID uint64, desc voice.Descriptor, after func(*voice.Voice)) (ID, bool) {
	for i, v := range p.voices {
		if v.IsAvailable() {
			v.Reinit(desc)
			after(v)
			return ID(i), true
		}
	}

	if len(p.voices) < p.polyphonyLimit {
		v := voice.New(p.sampleRate, desc)
		p.voices = append(p.voices, v)
		after(v)
		return ID(len(p.voices) - 1), true
	}

	id, ok := p.freeVoiceByKill(noteID)
	if !ok {
		return 0, false
	}
	p.voices[id].Reinit(desc)
	after(p.voices[id])
	return id, true
}

// Voice returns the voice at id for callers that need direct access
// (e.g. to install generators/modulators inside RequestNewVoice's after
// callback via a closure over the returned id).
func (p *Pool) Voice(id ID) *voice.Voice { return p.voices[id] }

// channelGroupCount is a defensive floor: %-by-zero would panic if a
// caller ever misconfigures audio groups to 0.
func channelGroupCount(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
