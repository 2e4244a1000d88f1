// Package channel implements per-MIDI-channel state (§3 Channel, §4.4):
// controller values, the resolved preset, pitch-bend, tuning, and the
// 60-entry generator overlay NRPN/RPN messages write into.
package channel

import (
	"sftsynth/internal/sf2"
	"sftsynth/internal/soundfont"
	"sftsynth/internal/tuning"
)

// Standard MIDI CC indices the channel gives special handling, matching
// the reference's MidiControlChange constants (§4.4).
const (
	CCBankSelectMSB   uint8 = 0
	CCVolumeMSB       uint8 = 7
	CCPanMSB          uint8 = 10
	CCExpressionMSB   uint8 = 11
	CCDataEntryMSB    uint8 = 6
	CCDataEntryLSB    uint8 = 38
	CCVolumeLSB       uint8 = 39
	CCPanLSB          uint8 = 42
	CCExpressionLSB   uint8 = 43
	CCSustain         uint8 = 64
	CCSoundCtrl1      uint8 = 70
	CCSoundCtrl10     uint8 = 79
	CCBankSelectLSB   uint8 = 32
	CCEffects1Depth   uint8 = 91
	CCEffects5Depth   uint8 = 95
	CCNRPNLSB         uint8 = 98
	CCNRPNMSB         uint8 = 99
	CCRPNLSB          uint8 = 100
	CCRPNMSB          uint8 = 101
	CCAllSoundOff     uint8 = 120
	CCAllCtrlOff      uint8 = 121
	CCAllNotesOff     uint8 = 123
)

// ActionKind identifies the side effect a CC message demands of the voice
// pool / zone selector, which live above Channel in the dependency order
// and so cannot be called directly from here.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionSustainOff
	ActionAllNotesOff
	ActionAllSoundOff
	ActionResetControllers
	ActionModulateCC
	ActionModulateAll
	ActionGenSet
)

// Action describes one deferred side effect of a ControlChange call; the
// caller (normally the top-level Synth) dispatches it against the voice
// pool.
type Action struct {
	Kind  ActionKind
	Ctrl  uint8        // valid for ActionModulateCC
	Gen   sf2.GenParam // valid for ActionGenSet
	Value float64      // valid for ActionGenSet
	Abs   bool         // valid for ActionGenSet: GEN_ABS_NRPN (SF2.01 §9.6)
}

// Channel is one MIDI channel's live state (§3 Channel).
type Channel struct {
	Num uint8

	sfontID uint32
	bankNum uint32
	progNum uint32
	Preset  *soundfont.Preset

	KeyPressure      [128]uint8
	channelPressure  uint8
	pitchBend        uint16 // 14-bit, centered at 8192
	pitchWheelSens   uint16 // semitones

	cc      [128]uint8
	bankMSB uint8

	InterpMethod InterpMethod
	Tuning       *tuning.Tuning

	nrpnSelect int32
	nrpnActive bool

	Gen    [sf2.GenLast]float64
	GenAbs [sf2.GenLast]bool

	DrumsChannelActive bool
}

// InterpMethod selects one of the four interpolation kernels (§4.5.1
// step 9).
type InterpMethod uint8

const (
	InterpNone InterpMethod = iota
	InterpLinear
	InterpFourthOrder
	InterpSeventhOrder
)

// DefaultInterpMethod matches the reference default (fourth order).
const DefaultInterpMethod = InterpFourthOrder

// New creates channel num with its controllers at power-on defaults.
func New(num uint8, drumsChannelActive bool) *Channel {
	c := &Channel{Num: num, DrumsChannelActive: drumsChannelActive}
	c.InterpMethod = DefaultInterpMethod
	c.InitCtrl(false)
	return c
}

// Init resets program/bank/preset/tuning state, matching the reference's
// Channel::init (used on construction and system reset).
func (c *Channel) Init(preset *soundfont.Preset) {
	c.progNum = 0
	c.bankNum = 0
	c.sfontID = 0
	c.Preset = preset
	c.InterpMethod = DefaultInterpMethod
	c.Tuning = nil
	c.nrpnSelect = 0
	c.nrpnActive = false
}

// InitCtrl resets controller values. If isAllCtrlOff, CCs in the "don't
// reset on all-controllers-off" ranges (effects depth, sound controllers,
// bank select, volume, pan) are preserved, matching SF2 convention (§4.4
// "121 (reset-all-controllers)").
func (c *Channel) InitCtrl(isAllCtrlOff bool) {
	c.channelPressure = 0
	c.pitchBend = 0x2000
	for i := range c.Gen {
		c.Gen[i] = 0
		c.GenAbs[i] = false
	}

	if isAllCtrlOff {
		for i := uint8(0); i < CCAllSoundOff; i++ {
			if i >= CCEffects1Depth && i <= CCEffects5Depth {
				continue
			}
			if i >= CCSoundCtrl1 && i <= CCSoundCtrl10 {
				continue
			}
			if i == CCBankSelectMSB || i == CCBankSelectLSB ||
				i == CCVolumeMSB || i == CCVolumeLSB ||
				i == CCPanMSB || i == CCPanLSB {
				continue
			}
			c.cc[i] = 0
		}
	} else {
		for i := range c.cc {
			c.cc[i] = 0
		}
	}

	for i := range c.KeyPressure {
		c.KeyPressure[i] = 0
	}

	c.cc[CCRPNLSB] = 127
	c.cc[CCRPNMSB] = 127
	c.cc[CCNRPNLSB] = 127
	c.cc[CCNRPNMSB] = 127
	c.cc[CCExpressionMSB] = 127
	c.cc[CCExpressionLSB] = 127

	if !isAllCtrlOff {
		c.pitchWheelSens = 2
		for i := CCSoundCtrl1; i <= CCSoundCtrl10; i++ {
			c.cc[i] = 64
		}
		c.cc[CCVolumeMSB] = 100
		c.cc[CCVolumeLSB] = 0
		c.cc[CCPanMSB] = 64
		c.cc[CCPanLSB] = 0
	}
}

// CC returns the raw value of controller num, or 0 if out of range. Along
// with PitchWheel/PitchWheelSensitivity/ChannelPressure/KeyPressureAt,
// this supplies every channel-scoped field sf2.ControllerState needs; a
// voice adapter adds the note-scoped Key/Velocity to complete it.
func (c *Channel) CC(num uint8) uint8 {
	if int(num) < len(c.cc) {
		return c.cc[num]
	}
	return 0
}

func (c *Channel) PitchWheel() uint16            { return c.pitchBend }
func (c *Channel) PitchWheelSensitivity() uint16 { return c.pitchWheelSens }
func (c *Channel) ChannelPressure() uint8        { return c.channelPressure }
func (c *Channel) KeyPressureAt(key uint8) uint8 {
	if int(key) < len(c.KeyPressure) {
		return c.KeyPressure[key]
	}
	return 0
}

func (c *Channel) BankNum() uint32 { return c.bankNum }
func (c *Channel) ProgNum() uint32 { return c.progNum }
func (c *Channel) SetBankNum(b uint32) { c.bankNum = b }
func (c *Channel) SetProgNum(p uint32) { c.progNum = p }
func (c *Channel) SFontID() uint32     { return c.sfontID }
func (c *Channel) SetSFontID(id uint32) { c.sfontID = id }

// SetPitchBend records a pitch-bend event (§6 External Interfaces).
func (c *Channel) SetPitchBend(value uint16) { c.pitchBend = value }

// SetChannelPressure records a channel-pressure event.
func (c *Channel) SetChannelPressure(value uint8) { c.channelPressure = value }

// SetKeyPressure records a polyphonic key-pressure event.
func (c *Channel) SetKeyPressure(key, value uint8) {
	if int(key) < len(c.KeyPressure) {
		c.KeyPressure[key] = value
	}
}

// SetGen implements the public set_gen operation (§4.5 gen_set equivalent
// at channel scope, §9 gen.rs grounding): sets the channel's generator
// overlay value additively (GEN_ABS_NRPN clear) and returns the Action the
// caller must broadcast to every voice on this channel.
func (c *Channel) SetGen(g sf2.GenParam, value float64) Action {
	return c.SetGenAbs(g, value, false)
}

// SetGenAbs is SetGen with explicit control over the GEN_ABS_NRPN
// transform (§9.6): abs true makes the generator's NRPN component the
// sole effective value for every voice started or already sounding on
// this channel, bypassing its zone value and modulation entirely.
func (c *Channel) SetGenAbs(g sf2.GenParam, value float64, abs bool) Action {
	c.Gen[g] = value
	c.GenAbs[g] = abs
	return Action{Kind: ActionGenSet, Gen: g, Value: value, Abs: abs}
}

// GetGen returns the channel's generator overlay value for g.
func (c *Channel) GetGen(g sf2.GenParam) float64 {
	return c.Gen[g]
}

// GetGenAbs reports whether g's generator overlay carries the
// GEN_ABS_NRPN transform.
func (c *Channel) GetGenAbs(g sf2.GenParam) bool {
	return c.GenAbs[g]
}

// ControlChange applies a raw CC message to channel state and returns the
// Action (if any) the caller must take against the voice pool (§4.4).
func (c *Channel) ControlChange(num, value uint8) Action {
	if int(num) < len(c.cc) {
		c.cc[num] = value
	}

	switch num {
	case CCSustain:
		if value < 64 {
			return Action{Kind: ActionSustainOff}
		}
		return Action{Kind: ActionNone}

	case CCBankSelectMSB:
		if c.Num == 9 && c.DrumsChannelActive {
			return Action{Kind: ActionNone}
		}
		c.bankMSB = value & 0x7f
		c.bankNum = uint32(value & 0x7f)
		return Action{Kind: ActionNone}

	case CCBankSelectLSB:
		if c.Num == 9 && c.DrumsChannelActive {
			return Action{Kind: ActionNone}
		}
		c.bankNum = uint32(value&0x7f) + uint32(c.bankMSB)<<7
		return Action{Kind: ActionNone}

	case CCAllNotesOff:
		return Action{Kind: ActionAllNotesOff}

	case CCAllSoundOff:
		return Action{Kind: ActionAllSoundOff}

	case CCAllCtrlOff:
		c.InitCtrl(true)
		return Action{Kind: ActionResetControllers}

	case CCDataEntryMSB:
		return c.handleDataEntry(value)

	case CCNRPNMSB:
		c.cc[CCNRPNLSB] = 0
		c.nrpnSelect = 0
		c.nrpnActive = true
		return Action{Kind: ActionNone}

	case CCNRPNLSB:
		if c.cc[CCNRPNMSB] == 120 {
			switch {
			case value == 100:
				c.nrpnSelect += 100
			case value == 101:
				c.nrpnSelect += 1000
			case value == 102:
				c.nrpnSelect += 10000
			case value < 100:
				c.nrpnSelect += int32(value)
			}
		}
		c.nrpnActive = true
		return Action{Kind: ActionNone}

	case CCRPNMSB, CCRPNLSB:
		c.nrpnActive = false
		return Action{Kind: ActionNone}

	default:
		return Action{Kind: ActionModulateCC, Ctrl: num}
	}
}

// handleDataEntry implements the CC6 (data entry MSB) routing to NRPN or
// RPN (§4.4), mirroring Synth::channel_cc's "num => 6" arm.
func (c *Channel) handleDataEntry(value uint8) Action {
	data := int32(value)<<7 + int32(c.cc[CCDataEntryLSB])

	if c.nrpnActive {
		// SoundFont 2.01 NRPN Message (§9.6 p.74)
		if c.cc[CCNRPNMSB] == 120 && c.cc[CCNRPNLSB] < 100 {
			if c.nrpnSelect < int32(sf2.GenLast) {
				g := sf2.GenParam(c.nrpnSelect)
				val := sf2.ScaleNRPN(g, data)
				return c.SetGen(g, val)
			}
			c.nrpnSelect = 0
		}
		return Action{Kind: ActionNone}
	}

	if c.cc[CCRPNMSB] == 0 {
		switch c.cc[CCRPNLSB] {
		case 0: // RPN_PITCH_BEND_RANGE
			c.pitchWheelSens = uint16(value)
			return Action{Kind: ActionNone}
		case 1: // RPN_CHANNEL_FINE_TUNE: an absolute retuning value, not an
			// incremental offset, so it bypasses zone/modulator components
			// on every voice (GEN_ABS_NRPN, SF2.01 §9.6).
			return c.SetGenAbs(sf2.GenFineTune, float64(data-8192)/8192.0*100.0, true)
		case 2: // RPN_CHANNEL_COARSE_TUNE: same absolute semantics.
			return c.SetGenAbs(sf2.GenCoarseTune, float64(value)-64, true)
		}
	}
	return Action{Kind: ActionNone}
}
