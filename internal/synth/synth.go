// Package synth ties every other package together into the top-level
// engine a caller drives (§6 External Interfaces): channel/CC/NRPN state,
// the soundfont stack, the zone selector, the voice pool, and the mixer.
// It validates every incoming event, dispatches the channel-level side
// effects Channel.ControlChange defers, and exposes the block-buffered
// audio write surface.
package synth

import (
	"errors"
	"fmt"

	"sftsynth/internal/channel"
	"sftsynth/internal/config"
	"sftsynth/internal/debug"
	"sftsynth/internal/mixer"
	"sftsynth/internal/sf2"
	"sftsynth/internal/soundfont"
	"sftsynth/internal/voicepool"
	"sftsynth/internal/zone"
)

// Error kinds (§7 Error Handling Design): each is a package-level sentinel
// in the donor's plain-error idiom; call sites wrap with %w for context and
// callers test with errors.Is.
var (
	ErrChannelOutOfRange  = errors.New("channel out of range")
	ErrKeyOutOfRange      = errors.New("key out of range")
	ErrValueOutOfRange    = errors.New("value out of range")
	ErrCtrlOutOfRange     = errors.New("controller out of range")
	ErrPresetNotFound     = errors.New("preset not found")
	ErrSoundFontLoadFailed = errors.New("soundfont load failed")
)

// Synth is the top-level engine (§2 System Overview).
type Synth struct {
	cfg config.Config
	log *debug.Logger

	channels []*channel.Channel
	fonts    soundfont.Stack
	pool     *voicepool.Pool
	mix      *mixer.Mixer

	noteID     uint64
	nextFontID uint32
}

// New constructs a Synth from a validated configuration. Pass nil for log
// to disable the logging subsystem entirely.
func New(cfg config.Config, log *debug.Logger) *Synth {
	cfg.Validate()

	s := &Synth{cfg: cfg, log: log}
	s.channels = make([]*channel.Channel, cfg.MIDIChannels)
	for i := range s.channels {
		s.channels[i] = channel.New(uint8(i), cfg.DrumsChannelActive)
	}

	s.pool = voicepool.New(cfg.Polyphony, float32(cfg.SampleRate))
	s.mix = mixer.New(s.pool, cfg.AudioGroups, mixer.PassThrough{}, mixer.PassThrough{},
		cfg.ReverbActive, cfg.ChorusActive, cfg.MinNoteLengthTicks(), log)
	return s
}

// Config returns the synth's current configuration.
func (s *Synth) Config() config.Config { return s.cfg }

// SetGain changes the master gain applied to every voice (§6 "gain").
func (s *Synth) SetGain(gain float64) {
	s.cfg.Gain = gain
	s.cfg.Validate()
	s.pool.SetGain(float32(s.cfg.Gain))
}

// SetEffectsActive toggles the reverb/chorus aux busses at runtime.
func (s *Synth) SetEffectsActive(reverbActive, chorusActive bool) {
	s.cfg.ReverbActive = reverbActive
	s.cfg.ChorusActive = chorusActive
	s.mix.SetEffectsActive(reverbActive, chorusActive)
}

// LoadSoundFont adds f to the top of the soundfont stack (searched first
// on program change) and assigns it an id if it doesn't already have one.
func (s *Synth) LoadSoundFont(f *soundfont.Font) (uint32, error) {
	if f == nil || len(f.Presets) == 0 {
		return 0, fmt.Errorf("load soundfont %q: %w", f.Name, ErrSoundFontLoadFailed)
	}
	if f.ID == 0 {
		s.nextFontID++
		f.ID = s.nextFontID
	}
	s.fonts.Add(f)
	return f.ID, nil
}

// UnloadSoundFont removes the font with the given id from the stack. Any
// channel still bound to a preset from that font keeps playing off its
// already-resolved *soundfont.Preset; the next program change on that
// channel re-searches the stack and, missing the font, falls back exactly
// as a missing preset would (§9 Design Notes "Cyclic references").
func (s *Synth) UnloadSoundFont(id uint32) bool {
	return s.fonts.Remove(id)
}

func (s *Synth) channelAt(chanNum uint8) (*channel.Channel, error) {
	if int(chanNum) >= len(s.channels) {
		return nil, fmt.Errorf("channel %d: %w", chanNum, ErrChannelOutOfRange)
	}
	return s.channels[chanNum], nil
}

// ProgramChange resolves (bank, program) against the soundfont stack and
// binds it to chanNum (§4.4). The drum channel (9, when DrumsChannelActive)
// is looked up against bank 128 directly instead of its own bank number.
// If the exact lookup misses, it substitutes bank 0 at the same program
// (or, when the channel's bank is already 128, program 0 at bank 128), and
// if that also misses and program != 0, falls back once more to program 0
// at the substituted bank (§8 property 9). Any substitution logs a
// warning; if every attempt misses, the channel's preset is cleared and
// ErrPresetNotFound is returned.
func (s *Synth) ProgramChange(chanNum uint8, program uint8) error {
	chn, err := s.channelAt(chanNum)
	if err != nil {
		return err
	}
	if program > 127 {
		return fmt.Errorf("program %d: %w", program, ErrValueOutOfRange)
	}

	bank := chn.BankNum()
	chn.SetProgNum(uint32(program))

	var preset *soundfont.Preset
	var font *soundfont.Font
	if chn.Num == 9 && chn.DrumsChannelActive {
		preset, font = s.fonts.FindPreset(128, uint32(program))
	} else {
		preset, font = s.fonts.FindPreset(bank, uint32(program))
	}

	if preset == nil {
		substBank := bank
		substProg := uint32(program)
		if bank != 128 {
			substBank = 0
			preset, font = s.fonts.FindPreset(0, uint32(program))
			if preset == nil && program != 0 {
				preset, font = s.fonts.FindPreset(0, 0)
				substProg = 0
			}
		} else {
			preset, font = s.fonts.FindPreset(128, 0)
			substProg = 0
		}
		if s.log != nil {
			msg := "program change substituted"
			if preset == nil {
				msg = "program change substitution failed"
			}
			s.log.LogSystem(debug.LogLevelWarning, msg, map[string]interface{}{
				"channel": chanNum, "bank": bank, "program": program,
				"subst_bank": substBank, "subst_program": substProg,
			})
		}
	}

	if preset == nil {
		chn.Preset = nil
		return fmt.Errorf("bank %d program %d: %w", bank, program, ErrPresetNotFound)
	}
	chn.Preset = preset
	if font != nil {
		chn.SetSFontID(font.ID)
	}
	return nil
}

// BankSelect sets the channel's pending bank number directly (e.g. for a
// caller that doesn't want to go through CC0/CC32).
func (s *Synth) BankSelect(chanNum uint8, bank uint32) error {
	chn, err := s.channelAt(chanNum)
	if err != nil {
		return err
	}
	chn.SetBankNum(bank)
	return nil
}

// NoteOn validates and starts a note (§6 "NoteOn {channel, key, vel}").
// vel == 0 is treated as a note-off, matching standard MIDI convention and
// the reference's own noteon dispatch.
func (s *Synth) NoteOn(chanNum, key, vel uint8) error {
	chn, err := s.channelAt(chanNum)
	if err != nil {
		return err
	}
	if key > 127 {
		return fmt.Errorf("key %d: %w", key, ErrKeyOutOfRange)
	}
	if vel > 127 {
		return fmt.Errorf("velocity %d: %w", vel, ErrValueOutOfRange)
	}
	if vel == 0 {
		return s.NoteOff(chanNum, key)
	}
	if chn.Preset == nil {
		if s.log != nil {
			s.log.LogSystem(debug.LogLevelWarning, "noteon on channel with no preset", map[string]interface{}{"channel": chanNum})
		}
		return fmt.Errorf("channel %d: %w", chanNum, ErrPresetNotFound)
	}

	id := s.noteID
	s.noteID++
	zone.NoteOn(s.pool, chn, chanNum, key, vel, id, s.mix.Ticks(), float32(s.cfg.Gain), s.cfg.MinNoteLengthTicks())
	return nil
}

// NoteOff validates and releases a note (§6 "NoteOff {channel, key}").
func (s *Synth) NoteOff(chanNum, key uint8) error {
	_, err := s.channelAt(chanNum)
	if err != nil {
		return err
	}
	if key > 127 {
		return fmt.Errorf("key %d: %w", key, ErrKeyOutOfRange)
	}
	s.pool.NoteOff(s.cfg.MinNoteLengthTicks(), chanNum, key)
	return nil
}

// ControlChange validates and applies a CC message, dispatching whatever
// deferred Action the channel's ControlChange surfaces against the voice
// pool (§6 "ControlChange {channel, ctrl 0..127, value 0..127}").
func (s *Synth) ControlChange(chanNum, ctrl, value uint8) error {
	chn, err := s.channelAt(chanNum)
	if err != nil {
		return err
	}
	if ctrl > 127 {
		return fmt.Errorf("ctrl %d: %w", ctrl, ErrCtrlOutOfRange)
	}
	if value > 127 {
		return fmt.Errorf("value %d: %w", value, ErrValueOutOfRange)
	}

	action := chn.ControlChange(ctrl, value)
	s.dispatch(chanNum, action)
	return nil
}

func (s *Synth) dispatch(chanNum uint8, action channel.Action) {
	switch action.Kind {
	case channel.ActionNone:
	case channel.ActionSustainOff:
		s.pool.DampVoices(s.cfg.MinNoteLengthTicks(), chanNum)
	case channel.ActionAllNotesOff:
		s.pool.AllNotesOff(s.cfg.MinNoteLengthTicks(), chanNum)
	case channel.ActionAllSoundOff:
		s.pool.AllSoundsOff(chanNum)
	case channel.ActionResetControllers:
		s.pool.ModulateVoicesAll(chanNum)
	case channel.ActionModulateCC:
		s.pool.ModulateVoices(chanNum, true, action.Ctrl)
	case channel.ActionGenSet:
		s.pool.SetGen(chanNum, action.Gen, action.Value, action.Abs)
	}
}

// AllNotesOff implements CC123 as a direct call (§6 "AllNotesOff {channel}").
func (s *Synth) AllNotesOff(chanNum uint8) error {
	if _, err := s.channelAt(chanNum); err != nil {
		return err
	}
	s.pool.AllNotesOff(s.cfg.MinNoteLengthTicks(), chanNum)
	return nil
}

// AllSoundOff implements CC120 as a direct call (§6 "AllSoundOff {channel}").
func (s *Synth) AllSoundOff(chanNum uint8) error {
	if _, err := s.channelAt(chanNum); err != nil {
		return err
	}
	s.pool.AllSoundsOff(chanNum)
	return nil
}

// PitchBend validates and applies a 14-bit pitch-bend value (§6
// "PitchBend {channel, value 0..16383}").
func (s *Synth) PitchBend(chanNum uint8, value uint16) error {
	chn, err := s.channelAt(chanNum)
	if err != nil {
		return err
	}
	if value > 16383 {
		return fmt.Errorf("pitch bend %d: %w", value, ErrValueOutOfRange)
	}
	chn.SetPitchBend(value)
	s.pool.ModulateVoices(chanNum, false, sf2.GeneralPitchWheel)
	return nil
}

// ChannelPressure validates and applies channel (monophonic) aftertouch
// (§6 "ChannelPressure {channel, value 0..127}").
func (s *Synth) ChannelPressure(chanNum, value uint8) error {
	chn, err := s.channelAt(chanNum)
	if err != nil {
		return err
	}
	if value > 127 {
		return fmt.Errorf("channel pressure %d: %w", value, ErrValueOutOfRange)
	}
	chn.SetChannelPressure(value)
	s.pool.ModulateVoices(chanNum, false, sf2.GeneralChannelPressure)
	return nil
}

// PolyphonicKeyPressure validates and applies per-key aftertouch (§6
// "PolyphonicKeyPressure {channel, key, value}").
func (s *Synth) PolyphonicKeyPressure(chanNum, key, value uint8) error {
	chn, err := s.channelAt(chanNum)
	if err != nil {
		return err
	}
	if key > 127 {
		return fmt.Errorf("key %d: %w", key, ErrKeyOutOfRange)
	}
	if value > 127 {
		return fmt.Errorf("value %d: %w", value, ErrValueOutOfRange)
	}
	chn.SetKeyPressure(key, value)
	s.pool.KeyPressure(chanNum, key)
	return nil
}

// SystemReset silences every voice and restores every channel's controller
// defaults (§6 "SystemReset").
func (s *Synth) SystemReset() {
	s.pool.SystemReset()
	for _, chn := range s.channels {
		chn.Init(nil)
		chn.InitCtrl(false)
	}
	if s.log != nil {
		s.log.LogSystem(debug.LogLevelInfo, "system reset", nil)
	}
}

// WriteInt16 renders dual-mono 16-bit PCM into left/right (§6 "write(samples) ... [i16]").
func (s *Synth) WriteInt16(left, right []int16) { s.mix.WriteInt16(left, right) }

// WriteInt16Interleaved renders interleaved stereo 16-bit PCM.
func (s *Synth) WriteInt16Interleaved(out []int16) { s.mix.WriteInt16Interleaved(out) }

// WriteFloat32 renders dual-mono float32 PCM.
func (s *Synth) WriteFloat32(left, right []float32) { s.mix.WriteFloat32(left, right) }

// WriteFloat32Interleaved renders interleaved stereo float32 PCM.
func (s *Synth) WriteFloat32Interleaved(out []float32) { s.mix.WriteFloat32Interleaved(out) }

// WriteFloat64 renders dual-mono float64 PCM.
func (s *Synth) WriteFloat64(left, right []float64) { s.mix.WriteFloat64(left, right) }

// WriteFloat64Interleaved renders interleaved stereo float64 PCM.
func (s *Synth) WriteFloat64Interleaved(out []float64) { s.mix.WriteFloat64Interleaved(out) }
