// Package sf2 models the SoundFont 2 parameter graph shared by every other
// package in this module: the sixty-entry generator array, the modulator
// evaluation rules, and the centibel/timecent/Hertz conversion functions
// that the voice DSP pipeline and the zone selector both depend on.
package sf2

// GenParam identifies one of the 60 SoundFont 2 generator slots (SF2.01
// §8.1.3). The numeric values match the SF2 generator enumeration exactly;
// voice and zone code index GeneratorSet by these constants.
type GenParam uint8

const (
	GenStartAddrOfs GenParam = iota
	GenEndAddrOfs
	GenStartLoopAddrOfs
	GenEndLoopAddrOfs
	GenStartAddrCoarseOfs
	GenModLFOToPitch
	GenVibLFOToPitch
	GenModEnvToPitch
	GenInitialFilterFc
	GenInitialFilterQ
	GenModLFOToFilterFc
	GenModEnvToFilterFc
	GenEndAddrCoarseOfs
	GenModLFOToVolume
	GenUnused1
	GenChorusEffectsSend
	GenReverbEffectsSend
	GenPan
	GenUnused2
	GenUnused3
	GenUnused4
	GenDelayModLFO
	GenFreqModLFO
	GenDelayVibLFO
	GenFreqVibLFO
	GenDelayModEnv
	GenAttackModEnv
	GenHoldModEnv
	GenDecayModEnv
	GenSustainModEnv
	GenReleaseModEnv
	GenKeynumToModEnvHold
	GenKeynumToModEnvDecay
	GenDelayVolEnv
	GenAttackVolEnv
	GenHoldVolEnv
	GenDecayVolEnv
	GenSustainVolEnv
	GenReleaseVolEnv
	GenKeynumToVolEnvHold
	GenKeynumToVolEnvDecay
	GenInstrument
	GenReserved1
	GenKeyRange
	GenVelRange
	GenStartLoopAddrCoarseOfs
	GenKeynum
	GenVelocity
	GenInitialAttenuation
	GenReserved2
	GenEndLoopAddrCoarseOfs
	GenCoarseTune
	GenFineTune
	GenSampleID
	GenSampleModes
	GenReserved3
	GenScaleTuning
	GenExclusiveClass
	GenOverrideRootKey
	GenEndOper
	GenLast = GenEndOper + 1

	// GenPitch is a virtual 61st generator slot: the reference synth
	// computes a voice's net pitch (coarse/fine tune folded together with
	// tuning-table lookups) as though it were a generator so the existing
	// additive val+mod+nrpn machinery and update_param dispatch can apply
	// to it, even though SF2 files never encode it directly.
	GenPitch = GenLast
)

// SampleMode values for GenSampleModes.
const (
	SampleModeUnLooped      = 0
	SampleModeLoop          = 1
	SampleModeUnUsed        = 2
	SampleModeLoopUntilRelease = 3
)

// Generator holds the three additive components of one generator slot.
// The effective value is normally Val + Mod + Nrpn (§4.2). Set records
// whether Val was explicitly assigned by a zone (as opposed to sitting at
// its default), which the zone selector needs to implement the "local
// supersedes global, both supersede default" rule (SF2.01 §9.4 bullet 4).
// Abs selects the GEN_ABS_NRPN transform (§9.6): when true, Nrpn alone is
// the effective value, bypassing the zone/modulator components entirely.
type Generator struct {
	Val  float64
	Mod  float64
	Nrpn float64
	Set  bool
	Abs  bool
}

// Value returns the effective value of the generator.
func (g Generator) Value() float64 {
	if g.Abs {
		return g.Nrpn
	}
	return g.Val + g.Mod + g.Nrpn
}

// GeneratorSet is the full 60-slot generator array carried by channels,
// instrument/preset zones, and voices.
type GeneratorSet [GenLast]Generator

// NewGeneratorSet returns a generator set with every slot at its SF2.01
// §8.1.3 default value.
func NewGeneratorSet() GeneratorSet {
	var gs GeneratorSet
	for g := GenParam(0); g < GenLast; g++ {
		gs[g] = Generator{Val: defaultValue[g]}
	}
	return gs
}

// Set assigns the base (zone) value of generator g and marks it as set.
// This implements voice.gen_set from §4.5.
func (gs *GeneratorSet) Set(g GenParam, v float64) {
	gs[g].Val = v
	gs[g].Set = true
}

// Incr adds to the base (zone) value of generator g and marks it as set.
// This implements voice.gen_incr from §4.5, used for additive preset-level
// application (SF2.01 §9.4 bullet 9).
func (gs *GeneratorSet) Incr(g GenParam, v float64) {
	gs[g].Val += v
	gs[g].Set = true
}

// presetIgnored is the set of generator indices SF2.01 §8.5 says must be
// ignored when they appear at the preset level: sample address offsets,
// key/velocity ranges, instrument/sample references, keynum/velocity
// overrides, sample mode, exclusive class, and root key override.
var presetIgnored = map[GenParam]bool{
	GenStartAddrOfs:           true,
	GenEndAddrOfs:             true,
	GenStartLoopAddrOfs:       true,
	GenEndLoopAddrOfs:         true,
	GenStartAddrCoarseOfs:     true,
	GenEndAddrCoarseOfs:       true,
	GenStartLoopAddrCoarseOfs: true,
	GenKeynum:                 true,
	GenVelocity:               true,
	GenEndLoopAddrCoarseOfs:   true,
	GenSampleModes:            true,
	GenExclusiveClass:         true,
	GenOverrideRootKey:        true,
	GenInstrument:             true,
	GenSampleID:               true,
	GenKeyRange:               true,
	GenVelRange:               true,
}

// IgnoredAtPresetLevel reports whether generator g must be skipped when
// walking preset zones (§4.7 step 3.2, bullet "for every generator g not
// in the set of preset-ignored generators").
func IgnoredAtPresetLevel(g GenParam) bool {
	return presetIgnored[g]
}

// defaultValue holds the SF2.01 §8.1.3 default for each generator. Most
// generators default to 0; key/velocity ranges default to the full
// 0..127 span encoded as lo | hi<<8, matching the reference's packed
// representation for range generators.
var defaultValue = func() [GenLast]float64 {
	var d [GenLast]float64
	d[GenKeyRange] = 0 | 127<<8
	d[GenVelRange] = 0 | 127<<8
	d[GenInitialFilterFc] = 13500
	d[GenDelayModLFO] = -12000
	d[GenDelayVibLFO] = -12000
	d[GenDelayModEnv] = -12000
	d[GenAttackModEnv] = -12000
	d[GenHoldModEnv] = -12000
	d[GenDecayModEnv] = -12000
	d[GenReleaseModEnv] = -12000
	d[GenDelayVolEnv] = -12000
	d[GenAttackVolEnv] = -12000
	d[GenHoldVolEnv] = -12000
	d[GenDecayVolEnv] = -12000
	d[GenReleaseVolEnv] = -12000
	d[GenScaleTuning] = 100
	d[GenOverrideRootKey] = -1
	return d
}()

// UnpackRange decodes a packed key/velocity range generator value into its
// low and high bytes.
func UnpackRange(v float64) (lo, hi uint8) {
	packed := int32(v)
	return uint8(packed & 0xff), uint8((packed >> 8) & 0xff)
}
