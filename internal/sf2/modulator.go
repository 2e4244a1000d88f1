package sf2

import "math"

// SourceKind distinguishes a MIDI continuous-controller source from one of
// the fixed "general controller" sources (pitch wheel, pressure, velocity,
// key number, or the unity constant).
type SourceKind uint8

const (
	SourceGeneral SourceKind = iota
	SourceCC
)

// General controller source indices, matching the reference's ModSrc
// constants for the non-CC sources a modulator can read.
const (
	GeneralNone              uint8 = 0
	GeneralNoteOnVelocity    uint8 = 2
	GeneralNoteOnKeyNumber   uint8 = 3
	GeneralPolyPressure      uint8 = 10
	GeneralChannelPressure   uint8 = 13
	GeneralPitchWheel        uint8 = 14
	GeneralPitchWheelSens    uint8 = 16
	GeneralLink              uint8 = 127
)

// Direction of a source mapping: positive (min input -> min output) or
// negative (min input -> max output).
type Direction uint8

const (
	DirPositive Direction = iota
	DirNegative
)

// Polarity of a source mapping: unipolar [0,1] or bipolar [-1,1].
type Polarity uint8

const (
	PolarityUnipolar Polarity = iota
	PolarityBipolar
)

// Shape of a source's remapping curve.
type Shape uint8

const (
	ShapeLinear Shape = iota
	ShapeConcave
	ShapeConvex
	ShapeSwitch
)

// Source describes one of a modulator's two source mappings (§3 Modulator,
// §4.2).
type Source struct {
	Kind      SourceKind
	Index     uint8 // CC number, or one of the General* constants
	Direction Direction
	Polarity  Polarity
	Shape     Shape
}

// Unity is the constant-1 source used by default modulators that always
// apply their amount unconditionally (e.g. velocity-to-initial-attenuation
// uses a real source, but default key-to-pitch style unity mods use this).
var Unity = Source{Kind: SourceGeneral, Index: GeneralNone}

// AddMode controls how add_mod installs a modulator relative to any
// existing identical modulator on the voice (§4.5, §4.7).
type AddMode uint8

const (
	AddModeOverwrite AddMode = iota
	AddModeAdd
	AddModeDefault
)

// Modulator is one SF2 modulator: two sources feeding a product, scaled by
// Amount, routed to Dest. Transform is currently always linear-sum
// (SF2.01 defines only the linear transform as mandatory).
type Modulator struct {
	Src1   Source
	Src2   Source
	Dest   GenParam
	Amount float64
}

// Identical implements the SF2.01 §9.5.1 bullet-3 definition of "the same
// modulator": both sources (index + flags) and destination match; amount
// may differ.
func (m Modulator) Identical(o Modulator) bool {
	return m.Src1 == o.Src1 && m.Src2 == o.Src2 && m.Dest == o.Dest
}

// MaxModulators is the per-voice modulator ceiling (§3 Voice, §9 Design
// Notes: "up to 64 modulators per voice, stored inline").
const MaxModulators = 64

// DefaultModulators returns the built-in modulator list every voice
// installs before instrument/preset modulators are layered on top
// (§4.5 init, §4.7 step "Install default modulators"). These are the ten
// SF2.01 §8.4.2 default modulators.
func DefaultModulators() []Modulator {
	return []Modulator{
		// MIDI Note-On Velocity -> Initial Attenuation (concave, negative, unipolar)
		{
			Src1:   Source{Kind: SourceGeneral, Index: GeneralNoteOnVelocity, Direction: DirNegative, Polarity: PolarityUnipolar, Shape: ShapeConcave},
			Src2:   Unity,
			Dest:   GenInitialAttenuation,
			Amount: 960,
		},
		// MIDI Note-On Velocity -> Filter Cutoff (linear, negative, unipolar)
		{
			Src1:   Source{Kind: SourceGeneral, Index: GeneralNoteOnVelocity, Direction: DirNegative, Polarity: PolarityUnipolar, Shape: ShapeLinear},
			Src2:   Unity,
			Dest:   GenInitialFilterFc,
			Amount: -2400,
		},
		// MIDI Channel Pressure -> Vibrato LFO Pitch Depth
		{
			Src1:   Source{Kind: SourceGeneral, Index: GeneralChannelPressure, Direction: DirPositive, Polarity: PolarityUnipolar, Shape: ShapeLinear},
			Src2:   Unity,
			Dest:   GenVibLFOToPitch,
			Amount: 50,
		},
		// CC1 (Modulation Wheel) -> Vibrato LFO Pitch Depth
		{
			Src1:   Source{Kind: SourceCC, Index: 1, Direction: DirPositive, Polarity: PolarityUnipolar, Shape: ShapeLinear},
			Src2:   Unity,
			Dest:   GenVibLFOToPitch,
			Amount: 50,
		},
		// CC7 (Volume) -> Initial Attenuation (concave, negative, unipolar)
		{
			Src1:   Source{Kind: SourceCC, Index: 7, Direction: DirNegative, Polarity: PolarityUnipolar, Shape: ShapeConcave},
			Src2:   Unity,
			Dest:   GenInitialAttenuation,
			Amount: 960,
		},
		// CC10 (Pan) -> Pan
		{
			Src1:   Source{Kind: SourceCC, Index: 10, Direction: DirPositive, Polarity: PolarityBipolar, Shape: ShapeLinear},
			Src2:   Unity,
			Dest:   GenPan,
			Amount: 500,
		},
		// CC11 (Expression) -> Initial Attenuation (concave, negative, unipolar)
		{
			Src1:   Source{Kind: SourceCC, Index: 11, Direction: DirNegative, Polarity: PolarityUnipolar, Shape: ShapeConcave},
			Src2:   Unity,
			Dest:   GenInitialAttenuation,
			Amount: 960,
		},
		// CC91 (Reverb Send) -> Reverb Effects Send
		{
			Src1:   Source{Kind: SourceCC, Index: 91, Direction: DirPositive, Polarity: PolarityUnipolar, Shape: ShapeLinear},
			Src2:   Unity,
			Dest:   GenReverbEffectsSend,
			Amount: 200,
		},
		// CC93 (Chorus Send) -> Chorus Effects Send
		{
			Src1:   Source{Kind: SourceCC, Index: 93, Direction: DirPositive, Polarity: PolarityUnipolar, Shape: ShapeLinear},
			Src2:   Unity,
			Dest:   GenChorusEffectsSend,
			Amount: 200,
		},
		// Pitch Wheel x Pitch Wheel Sensitivity -> Pitch
		{
			Src1:   Source{Kind: SourceGeneral, Index: GeneralPitchWheel, Direction: DirPositive, Polarity: PolarityBipolar, Shape: ShapeLinear},
			Src2:   Source{Kind: SourceGeneral, Index: GeneralPitchWheelSens, Direction: DirPositive, Polarity: PolarityUnipolar, Shape: ShapeLinear},
			Dest:   GenFineTune,
			Amount: 12700,
		},
	}
}

// mapUnipolar maps a normalized [0,1] source input through the source's
// shape and direction.
func mapUnipolar(x float64, dir Direction, shape Shape) float64 {
	if dir == DirNegative {
		x = 1 - x
	}
	switch shape {
	case ShapeConcave:
		return concaveCurve(x)
	case ShapeConvex:
		return 1 - concaveCurve(1-x)
	case ShapeSwitch:
		if x >= 0.5 {
			return 1
		}
		return 0
	default:
		return x
	}
}

// concaveCurve approximates the SF2.01 concave transform curve used for
// velocity/volume-style controllers, where small source values produce a
// disproportionately small contribution.
func concaveCurve(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	// -20*log10(1-x) normalized to [0,1] over x in [0,1), matching the
	// SF2.01 concave curve's audio-taper shape.
	const floorDb = 96.0
	db := -20.0 * math.Log10(1-x)
	if db > floorDb {
		db = floorDb
	}
	return db / floorDb
}

// ControllerState is the read-only view of a channel/voice's live
// controller values that modulator evaluation needs. Channel does not
// implement it on its own (it has no Key/Velocity); the voice package
// supplies it through an adapter that pairs the voice's own key/velocity
// with the channel's live controllers.
type ControllerState interface {
	CC(index uint8) uint8
	PitchWheel() uint16 // 0..16383, centered at 8192
	PitchWheelSensitivity() uint16
	ChannelPressure() uint8
	KeyPressure(key uint8) uint8
	Key() uint8
	Velocity() uint8
}

// sourceValue fetches and normalizes one source's raw controller reading
// into [0,1] (unipolar) or [-1,1] (bipolar), then applies direction/shape.
func sourceValue(s Source, cs ControllerState) float64 {
	var raw, max float64
	switch {
	case s.Kind == SourceCC:
		raw, max = float64(cs.CC(s.Index)), 127
	case s.Index == GeneralNoteOnVelocity:
		raw, max = float64(cs.Velocity()), 127
	case s.Index == GeneralNoteOnKeyNumber:
		raw, max = float64(cs.Key()), 127
	case s.Index == GeneralPolyPressure:
		raw, max = float64(cs.KeyPressure(cs.Key())), 127
	case s.Index == GeneralChannelPressure:
		raw, max = float64(cs.ChannelPressure()), 127
	case s.Index == GeneralPitchWheel:
		raw, max = float64(cs.PitchWheel()), 16383
	case s.Index == GeneralPitchWheelSens:
		raw, max = float64(cs.PitchWheelSensitivity()), 127
	default:
		// Unity / unsupported general controller / link: always 1, a
		// warning is the caller's responsibility at install time.
		return 1
	}

	if s.Polarity == PolarityBipolar {
		x := (raw/max)*2 - 1 // -> [-1, 1]
		if s.Direction == DirNegative {
			x = -x
		}
		switch s.Shape {
		case ShapeSwitch:
			if x >= 0 {
				return 1
			}
			return -1
		default:
			return x
		}
	}

	x := raw / max // -> [0, 1]
	return mapUnipolar(x, s.Direction, s.Shape)
}

// Evaluate computes the signed contribution of modulator m given the
// current controller state (§4.2): the product of the two source mappings
// times Amount.
func Evaluate(m Modulator, cs ControllerState) float64 {
	return sourceValue(m.Src1, cs) * sourceValue(m.Src2, cs) * m.Amount
}

// SourceReferences reports whether source s reads controller ctrl, honoring
// the CC-vs-general distinction §4.5's modulate() uses to decide which
// installed modulators a single CC/general-controller change must
// recompute.
func SourceReferences(s Source, isCC bool, ctrl uint8) bool {
	if s.Kind == SourceCC {
		return isCC && s.Index == ctrl
	}
	return !isCC && s.Index == ctrl
}
