// Package voice implements the per-note DSP state machine (§4.5): dual
// envelopes, dual LFOs, a resonant filter, and the fixed-point sample
// playback pointer a block renderer advances 64 frames at a time.
package voice

import (
	"math"

	"sftsynth/internal/channel"
	"sftsynth/internal/sample"
	"sftsynth/internal/sf2"
)

// BlockSize is the number of frames rendered per Write call (§4.8 "block
// driver"), matching the reference's FLUID_BUFSIZE.
const BlockSize = 64

// Status is the voice lifecycle state (§3 Voice).
type Status uint8

const (
	StatusClean Status = iota
	StatusOn
	StatusSustained
	StatusOff
)

// EnvSection indexes the seven envelope stages shared by the volume and
// modulation envelopes.
type EnvSection int32

const (
	EnvDelay EnvSection = iota
	EnvAttack
	EnvHold
	EnvDecay
	EnvSustain
	EnvRelease
	EnvFinished
)

// LoopMode mirrors the GenSampleModes values relevant to playback.
type LoopMode int32

const (
	LoopUnLooped      LoopMode = 0
	LoopDuringRelease LoopMode = 1
	LoopUntilRelease  LoopMode = 3
)

// envSegment is one stage of an envelope's per-sample recurrence:
// val' = clamp(coeff*val + incr, min, max), holding for Count samples
// before advancing (§4.5.1's volenv_data/modenv_data).
type envSegment struct {
	Count uint32
	Coeff float32
	Incr  float32
	Min   float32
	Max   float32
}

// Descriptor carries everything NoteOn needs to start or reinitialize a
// voice (§4.6 request_new_voice).
type Descriptor struct {
	Sample    *sample.Sample
	Chan      *channel.Channel
	ChanNum   uint8
	Key       uint8
	Vel       uint8
	ID        uint64
	StartTime uint32
	Gain      float32
}

// Voice is one playing (or idle/killed) note (§3 Voice).
type Voice struct {
	ID      uint64
	ChanNum uint8
	Key     uint8
	Vel     uint8

	interpMethod channel.InterpMethod
	chn          *channel.Channel
	modCount     int

	Sample    *sample.Sample
	StartTime uint32

	Ticks         uint32
	noteOffTicks  uint32

	hasLooped bool

	filterStartup bool

	volEnvCount   uint32
	VolEnvSection EnvSection
	volEnvVal     float32

	amp         float32
	modEnvCount uint32
	modEnvSection EnvSection
	modEnvVal   float32

	modLFOVal  float32
	vibLFOVal  float32

	hist1, hist2 float32

	gen [sf2.GenPitch + 1]sf2.Generator

	synthGain float32

	ampNoiseFloorNonLoop float32
	ampNoiseFloorLoop    float32

	Status                Status
	checkSampleSanityFlag uint8
	minAttenuationCB      float32

	lastFres float32

	pan                float32
	ampLeft, ampRight  float32
	attenuation        float32
	pitch              float32
	reverbSend         float32
	ampReverb          float32
	chorusSend         float32
	ampChorus          float32
	rootPitch          float32
	fres               float32
	qLin               float32
	filterGain         float32

	modLFOToPitch  float32
	modLFOToVol    float32
	modLFOToFc     float32
	modLFODelay    uint32
	modLFOIncr     float32

	vibLFOIncr  float32
	vibLFODelay uint32
	vibLFOToPitch float32

	modEnvToPitch float32
	modEnvToFc    float32

	start, end           int32
	loopStart, loopEnd   int32

	volEnvData [7]envSegment
	modEnvData [7]envSegment

	mods []sf2.Modulator

	outputRate float32

	phase uint64 // 32.32 fixed-point sample index

	filterCoeffIncrCount int32

	a1, a2, b02, b1             float32
	a1Incr, a2Incr, b02Incr, b1Incr float32
}

// New constructs a voice from desc. Matches the reference's Voice::new,
// which seeds the sustain/finished envelope stages (held forever, no
// further movement) before any generator has been applied.
func New(outputRate float32, desc Descriptor) *Voice {
	v := &Voice{outputRate: outputRate}
	v.volEnvData[EnvSustain] = envSegment{Count: 0xffffffff, Coeff: 1, Min: -1, Max: 2}
	v.volEnvData[EnvFinished] = envSegment{Count: 0xffffffff, Min: -1, Max: 1}
	v.modEnvData[EnvSustain] = envSegment{Count: 0xffffffff, Coeff: 1, Min: -1, Max: 2}
	v.modEnvData[EnvFinished] = envSegment{Count: 0xffffffff, Min: -1, Max: 1}
	v.reinitFields(desc)
	return v
}

// Reinit reuses a killed/idle voice for a new note, matching the
// reference's Voice::reinit (avoids an allocation per note-on).
func (v *Voice) Reinit(desc Descriptor) {
	v.reinitFields(desc)
}

func (v *Voice) reinitFields(desc Descriptor) {
	gain := desc.Gain
	if gain < 0.0000001 {
		gain = 0.0000001
	}

	v.ID = desc.ID
	v.ChanNum = desc.ChanNum
	v.Key = desc.Key
	v.Vel = desc.Vel
	v.interpMethod = desc.Chan.InterpMethod
	v.chn = desc.Chan
	v.modCount = 0
	v.Sample = desc.Sample
	v.StartTime = desc.StartTime
	v.Ticks = 0
	v.noteOffTicks = 0
	v.hasLooped = false
	v.lastFres = -1
	v.filterStartup = true
	v.volEnvCount = 0
	v.VolEnvSection = EnvDelay
	v.volEnvVal = 0
	v.amp = 0
	v.modEnvCount = 0
	v.modEnvSection = EnvDelay
	v.modEnvVal = 0
	v.modLFOVal = 0
	v.vibLFOVal = 0
	v.hist1, v.hist2 = 0, 0
	v.gen = newGenArray(desc.Chan)
	v.synthGain = gain
	v.ampNoiseFloorNonLoop = 0.00003 / gain
	v.ampNoiseFloorLoop = 0.00003 / gain
	v.Status = StatusClean
	v.mods = v.mods[:0]
	v.checkSampleSanityFlag = 0
	v.phase = 0
	v.pitch = 0
	v.attenuation = 0
	v.minAttenuationCB = 0
	v.rootPitch = 0
	v.start, v.end, v.loopStart, v.loopEnd = 0, 0, 0, 0
	v.modEnvToFc, v.modEnvToPitch = 0, 0
	v.modLFODelay, v.modLFOIncr, v.modLFOToFc, v.modLFOToPitch, v.modLFOToVol = 0, 0, 0, 0, 0
	v.vibLFODelay, v.vibLFOIncr, v.vibLFOToPitch = 0, 0, 0
	v.fres, v.qLin, v.filterGain = 0, 0, 0
	v.b02, v.b1, v.a1, v.a2 = 0, 0, 0, 0
	v.b02Incr, v.b1Incr, v.a1Incr, v.a2Incr = 0, 0, 0, 0
	v.filterCoeffIncrCount = 0
	v.pan, v.ampLeft, v.ampRight = 0, 0, 0
	v.reverbSend, v.ampReverb, v.chorusSend, v.ampChorus = 0, 0, 0, 0
}

// IsAvailable reports whether the voice is free for reuse by NoteOn.
func (v *Voice) IsAvailable() bool { return v.Status == StatusClean || v.Status == StatusOff }

// IsOn reports whether the voice is actively sounding: not sustained, not
// off, and not already releasing. A duplicate NoteOff on a voice already
// past this point must not restart its release timer.
func (v *Voice) IsOn() bool { return v.Status == StatusOn && v.VolEnvSection < EnvRelease }

// IsPlaying reports whether the voice is on or sustained — i.e. still
// occupies a pool slot and the DSP loop must process it.
func (v *Voice) IsPlaying() bool { return v.Status == StatusOn || v.Status == StatusSustained }

// VolEnvValue exposes the voice's current volume-envelope value, used by
// the pool's voice-stealing priority formula to favor killing voices
// that have already decayed furthest.
func (v *Voice) VolEnvValue() float32 { return v.volEnvVal }

// AddMod installs a modulator using SF2.01's identical-modulator merge
// rule (§4.7 "install default modulators", §9.5.1 bullet 3): Add sums
// amounts with an existing identical modulator, Overwrite replaces it,
// Default always appends without a duplicate check.
func (v *Voice) AddMod(m sf2.Modulator, mode sf2.AddMode) {
	if mode == sf2.AddModeAdd || mode == sf2.AddModeOverwrite {
		for i := range v.mods {
			if v.mods[i].Identical(m) {
				if mode == sf2.AddModeAdd {
					v.mods[i].Amount += m.Amount
				} else {
					v.mods[i].Amount = m.Amount
				}
				return
			}
		}
	}
	if len(v.mods) < sf2.MaxModulators {
		v.mods = append(v.mods, m)
		v.modCount = len(v.mods)
	}
}

// AddDefaultMods installs the ten SF2.01 default modulators (§4.7).
func (v *Voice) AddDefaultMods() {
	for _, m := range sf2.DefaultModulators() {
		v.AddMod(m, sf2.AddModeDefault)
	}
}

// GenSet assigns a zone-level (non-NRPN) generator value and recomputes
// its dependent voice parameters.
func (v *Voice) GenSet(g sf2.GenParam, val float64) {
	v.gen[g].Val = val
	v.gen[g].Set = true
	v.updateParam(g)
}

// GenIncr adds to a zone-level generator value (preset additive layering,
// SF2.01 §9.4 bullet 9) and recomputes its dependent voice parameters.
func (v *Voice) GenIncr(g sf2.GenParam, val float64) {
	v.gen[g].Val += val
	v.gen[g].Set = true
	v.updateParam(g)
}

// SetNRPNParam applies an already-scaled NRPN offset to a generator
// (§4.4's data-entry routing lands here via the pool/channel dispatch).
// abs selects the GEN_ABS_NRPN transform (§9.6): the generator's NRPN
// component becomes its sole effective value instead of adding to the
// zone value and modulation.
func (v *Voice) SetNRPNParam(g sf2.GenParam, value float64, abs bool) {
	v.gen[g].Nrpn = value
	v.gen[g].Abs = abs
	v.updateParam(g)
}

// ExclusiveClass returns the voice's effective exclusive-class generator
// value (§4.6 kill_by_exclusive_class).
func (v *Voice) ExclusiveClass() int32 {
	return int32(v.gen[sf2.GenExclusiveClass].Value())
}

// KillExcl forces the voice into a fast release to make way for another
// voice in the same exclusive class (§4.6).
func (v *Voice) KillExcl() {
	if !v.IsPlaying() {
		return
	}
	v.gen[sf2.GenExclusiveClass].Val = 0
	v.gen[sf2.GenExclusiveClass].Set = true

	if v.VolEnvSection != EnvRelease {
		v.VolEnvSection = EnvRelease
		v.volEnvCount = 0
		v.modEnvSection = EnvRelease
		v.modEnvCount = 0
	}

	v.GenSet(sf2.GenReleaseVolEnv, -200)
	v.GenSet(sf2.GenReleaseModEnv, -200)
}

// SetGain rescales the voice's cached pan/send amplitudes for a new
// master gain (§4.6 set_gain), avoiding division by zero the way the
// reference clamps its input.
func (v *Voice) SetGain(gain float32) {
	if gain < 0.0000001 {
		gain = 0.0000001
	}
	v.synthGain = gain
	v.ampLeft = float32(sf2.Pan(float64(v.pan), true)) * gain / 32768.0
	v.ampRight = float32(sf2.Pan(float64(v.pan), false)) * gain / 32768.0
	v.ampReverb = v.reverbSend * gain / 32768.0
	v.ampChorus = v.chorusSend * gain / 32768.0
}

// Start finalizes runtime synthesis parameters and flips the voice on
// (§4.6 start_voice).
func (v *Voice) Start() {
	v.calculateRuntimeSynthesisParameters()
	v.checkSampleSanityFlag |= 1 << 1
	v.Status = StatusOn
}

// NoteOff begins release, unless the channel's sustain pedal is held (in
// which case the voice becomes Sustained) or the minimum note length
// hasn't elapsed yet (§4.6 noteoff / damp_voices).
func (v *Voice) NoteOff(minNoteLengthTicks uint32) {
	if minNoteLengthTicks > v.Ticks {
		v.noteOffTicks = minNoteLengthTicks
		return
	}

	if v.chn.CC(channel.CCSustain) >= 64 {
		v.Status = StatusSustained
		return
	}

	if v.VolEnvSection == EnvAttack && v.volEnvVal > 0 {
		// Attack ramps linearly while later stages are logarithmic;
		// recompute an equivalent log-domain value for a seamless
		// transition into release (§4.5.1 noteoff).
		lfo := v.modLFOVal * -v.modLFOToVol
		ampv := v.volEnvVal * float32(math.Pow(10, float64(lfo/-200.0)))
		envValue := float32(-((-200.0*math.Log10(float64(ampv)) - float64(lfo)) / 960.0 - 1.0))
		v.volEnvVal = clampF32(envValue, 0, 1)
	}
	v.VolEnvSection = EnvRelease
	v.volEnvCount = 0
	v.modEnvSection = EnvRelease
	v.modEnvCount = 0
}

// Off immediately silences the voice without a release tail (§4.6
// all_sounds_off / system_reset).
func (v *Voice) Off() {
	v.ChanNum = 0xff
	v.VolEnvSection = EnvFinished
	v.volEnvCount = 0
	v.modEnvSection = EnvFinished
	v.modEnvCount = 0
	v.Status = StatusOff
}

// controllerAdapter completes sf2.ControllerState by pairing the voice's
// own note-scoped key/velocity with its channel's live controllers.
type controllerAdapter struct {
	v *Voice
}

func (a controllerAdapter) CC(i uint8) uint8                { return a.v.chn.CC(i) }
func (a controllerAdapter) PitchWheel() uint16               { return a.v.chn.PitchWheel() }
func (a controllerAdapter) PitchWheelSensitivity() uint16    { return a.v.chn.PitchWheelSensitivity() }
func (a controllerAdapter) ChannelPressure() uint8            { return a.v.chn.ChannelPressure() }
func (a controllerAdapter) KeyPressure(key uint8) uint8       { return a.v.chn.KeyPressureAt(key) }
func (a controllerAdapter) Key() uint8                        { return a.v.Key }
func (a controllerAdapter) Velocity() uint8                   { return a.v.Vel }

// Modulate recomputes every generator targeted by a modulator that reads
// controller ctrl (§4.5 "modulate"): isCC distinguishes a CC number from
// a general-controller index, matching the reference's (cc, ctrl) pair.
func (v *Voice) Modulate(isCC bool, ctrl uint8) {
	cs := controllerAdapter{v}
	for i := range v.mods {
		if !sf2.SourceReferences(v.mods[i].Src1, isCC, ctrl) && !sf2.SourceReferences(v.mods[i].Src2, isCC, ctrl) {
			continue
		}
		dest := v.mods[i].Dest
		v.recomputeModDest(cs, dest)
	}
}

// ModulateAll recomputes every generator targeted by any installed
// modulator (§4.5 "modulate_all"), used after a bulk reset.
func (v *Voice) ModulateAll() {
	cs := controllerAdapter{v}
	seen := map[sf2.GenParam]bool{}
	for i := range v.mods {
		dest := v.mods[i].Dest
		if seen[dest] {
			continue
		}
		seen[dest] = true
		v.recomputeModDest(cs, dest)
	}
}

func (v *Voice) recomputeModDest(cs sf2.ControllerState, dest sf2.GenParam) {
	var modval float64
	for i := range v.mods {
		if v.mods[i].Dest == dest {
			modval += sf2.Evaluate(v.mods[i], cs)
		}
	}
	v.gen[dest].Mod = modval
	v.updateParam(dest)
}

// getLowerBoundaryForAttenuation computes a worst-case floor on the
// voice's attenuation across every modulator that can still move it
// (§4.6 get_lower_boundary_for_attenuation): used to decide, during
// playback, whether the voice can be safely turned off early.
func (v *Voice) getLowerBoundaryForAttenuation() float32 {
	cs := controllerAdapter{v}
	const modPitchWheel = sf2.GeneralPitchWheel

	var possibleReduction float32
	for i := range v.mods {
		m := v.mods[i]
		if m.Dest != sf2.GenInitialAttenuation {
			continue
		}
		isCCSource := m.Src1.Kind == sf2.SourceCC || m.Src2.Kind == sf2.SourceCC
		if !isCCSource {
			continue
		}
		currentVal := float32(sf2.Evaluate(m, cs))
		vv := float32(absF64(m.Amount))

		negative := m.Src1.Index == modPitchWheel || m.Src1.Polarity == sf2.PolarityBipolar ||
			m.Src2.Polarity == sf2.PolarityBipolar || m.Amount < 0
		if negative {
			vv = -vv
		} else {
			vv = 0
		}
		if currentVal > vv {
			possibleReduction += currentVal - vv
		}
	}
	lower := v.attenuation - possibleReduction
	if lower < 0 {
		lower = 0
	}
	return lower
}

// runtimeGens lists the generators a fresh note-on must resolve before
// the first Write call (§4.6 calculate_runtime_synthesis_parameters).
var runtimeGens = [...]sf2.GenParam{
	sf2.GenStartAddrOfs, sf2.GenEndAddrOfs, sf2.GenStartLoopAddrOfs, sf2.GenEndLoopAddrOfs,
	sf2.GenModLFOToPitch, sf2.GenVibLFOToPitch, sf2.GenModEnvToPitch,
	sf2.GenInitialFilterFc, sf2.GenInitialFilterQ, sf2.GenModLFOToFilterFc, sf2.GenModEnvToFilterFc,
	sf2.GenModLFOToVolume, sf2.GenChorusEffectsSend, sf2.GenReverbEffectsSend, sf2.GenPan,
	sf2.GenDelayModLFO, sf2.GenFreqModLFO, sf2.GenDelayVibLFO, sf2.GenFreqVibLFO,
	sf2.GenDelayModEnv, sf2.GenAttackModEnv, sf2.GenHoldModEnv, sf2.GenDecayModEnv, sf2.GenReleaseModEnv,
	sf2.GenDelayVolEnv, sf2.GenAttackVolEnv, sf2.GenHoldVolEnv, sf2.GenDecayVolEnv, sf2.GenReleaseVolEnv,
	sf2.GenKeynum, sf2.GenVelocity, sf2.GenInitialAttenuation, sf2.GenOverrideRootKey, sf2.GenPitch,
}

func (v *Voice) calculateRuntimeSynthesisParameters() {
	cs := controllerAdapter{v}
	for i := range v.mods {
		modval := sf2.Evaluate(v.mods[i], cs)
		v.gen[v.mods[i].Dest].Mod += modval
	}

	if t := v.chn.Tuning; t != nil {
		v.gen[sf2.GenPitch].Val = t.Pitch[60] + v.gen[sf2.GenScaleTuning].Val/100.0*(t.Pitch[v.Key]-t.Pitch[60])
	} else {
		v.gen[sf2.GenPitch].Val = v.gen[sf2.GenScaleTuning].Val*(float64(v.Key)-60.0) + 100.0*60.0
	}

	for _, g := range runtimeGens {
		v.updateParam(g)
	}

	v.minAttenuationCB = v.getLowerBoundaryForAttenuation()
}

// newGenArray returns a fresh 60-slot generator array at its SF2.01
// defaults, sized up by one slot for the virtual GenPitch, with chn's
// generator overlay (NRPN/RPN data-entry state, §3 Channel) copied into
// each slot's Nrpn component and GEN_ABS_NRPN flag so a freshly started
// voice reflects whatever the channel had already dialed in.
func newGenArray(chn *channel.Channel) [sf2.GenPitch + 1]sf2.Generator {
	var g [sf2.GenPitch + 1]sf2.Generator
	base := sf2.NewGeneratorSet()
	copy(g[:sf2.GenLast], base[:])
	for i := sf2.GenParam(0); i < sf2.GenLast; i++ {
		g[i].Nrpn = chn.GetGen(i)
		g[i].Abs = chn.GetGenAbs(i)
	}
	return g
}

func clampF32(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func absF64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func pow32(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
