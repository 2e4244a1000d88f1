package voice

import (
	"math"

	"sftsynth/internal/channel"
	"sftsynth/internal/sf2"
)

// FxBuf carries one block's worth of auxiliary send buffers, shared by
// every voice routed through a given audio channel group (§4.8 mixer).
type FxBuf struct {
	Reverb [BlockSize]float32
	Chorus [BlockSize]float32
}

// interpCoeffLinear, interpCoeff and sincTable7 are precomputed once at
// package init: 256-row tables indexed by the top 8 bits of the phase
// accumulator's fractional part, one row of kernel weights per possible
// sub-sample offset (§4.5.1 step 9, grounded on dsp_float.rs's
// DspFloatGlobal::new).
var (
	interpCoeffLinear [256][2]float32
	interpCoeff       [256][4]float32
	sincTable7        [256][7]float32
)

func init() {
	for i := 0; i < 256; i++ {
		x := float64(i) / 256.0
		interpCoeff[i][0] = float32(x * (-0.5 + x*(1.0-0.5*x)))
		interpCoeff[i][1] = float32(1.0 + x*x*(1.5*x-2.5))
		interpCoeff[i][2] = float32(x * (0.5 + x*(2.0-1.5*x)))
		interpCoeff[i][3] = float32(0.5 * x * x * (x - 1.0))
		interpCoeffLinear[i][0] = float32(1.0 - x)
		interpCoeffLinear[i][1] = float32(x)
	}
	for i := 0; i < 7; i++ {
		for i2 := 0; i2 < 256; i2++ {
			iShifted := float64(i) - 7.0/2.0 + float64(i2)/256.0
			var v float64
			if math.Abs(iShifted) > 0.000001 {
				v = float64(float32(math.Sin(iShifted*math.Pi))) / (math.Pi * iShifted)
				v *= 0.5 * (1.0 + math.Cos(2.0*math.Pi*iShifted/7.0))
			} else {
				v = 1.0
			}
			sincTable7[256-i2-1][i] = float32(v)
		}
	}
}

// phaseSetFloat converts a floating-point phase increment (samples per
// output sample) into the 32.32 fixed-point representation voice.phase
// advances by every tick (§4.5.1 step 9).
func phaseSetFloat(b float32) uint64 {
	const fractMax = 4294967296.0
	f := float64(b)
	i := int32(b)
	return uint64(f)<<32 | uint64((f-float64(i))*fractMax)
}

func phaseFractToTableRow(phase uint64) int {
	return int((phase & 0xff000000) >> 24)
}

func (v *Voice) isLooping() bool {
	mode := int32(v.gen[sf2.GenSampleModes].Value())
	return mode == int32(LoopDuringRelease) ||
		(mode == int32(LoopUntilRelease) && v.VolEnvSection < EnvRelease)
}

// tapSample fetches one PCM sample at idx, wrapping through the loop
// region once the voice has reached it and duplicating the boundary
// sample otherwise — the non-looping "off the end" case every
// interpolation kernel in the reference handles explicitly.
func (v *Voice) tapSample(idx int32, looping bool) float32 {
	data := v.Sample.Data
	if looping && v.loopEnd > v.loopStart {
		span := v.loopEnd - v.loopStart
		for idx < v.loopStart {
			idx += span
		}
		for idx >= v.loopEnd {
			idx -= span
		}
	}
	switch {
	case idx < v.start:
		idx = v.start
	case idx > v.end:
		idx = v.end
	}
	if idx < 0 || int(idx) >= len(data) {
		return 0
	}
	return float32(data[idx])
}

// tap evaluates the interpolation kernel selected by method at the given
// integer phase index and fractional table row (§4.5.1 step 9, grounded
// on dsp_float.rs's four dsp_float_interpolate_* functions).
func (v *Voice) tap(method channel.InterpMethod, idx int32, frac int, looping bool) float32 {
	switch method {
	case channel.InterpNone:
		return v.tapSample(idx, looping)
	case channel.InterpLinear:
		co := interpCoeffLinear[frac]
		return co[0]*v.tapSample(idx, looping) + co[1]*v.tapSample(idx+1, looping)
	case channel.InterpFourthOrder:
		co := interpCoeff[frac]
		return co[0]*v.tapSample(idx-1, looping) + co[1]*v.tapSample(idx, looping) +
			co[2]*v.tapSample(idx+1, looping) + co[3]*v.tapSample(idx+2, looping)
	default: // InterpSeventhOrder
		co := sincTable7[frac]
		var sum float32
		for k := 0; k < 7; k++ {
			sum += co[k] * v.tapSample(idx-3+int32(k), looping)
		}
		return sum
	}
}

// interpolate fills dspBuf with count <= BlockSize samples, advancing the
// voice's phase and amplitude ramp and wrapping the phase through the
// loop region as it's crossed (§4.5.1 step 9). It returns count; a count
// below BlockSize means playback reached the end of a non-looping
// sample mid-block.
func (v *Voice) interpolate(dspBuf *[BlockSize]float32, ampIncr, phaseIncr float32) int {
	looping := v.isLooping()
	phaseIncrFixed := phaseSetFloat(phaseIncr)

	phase := v.phase
	if v.interpMethod == channel.InterpNone || v.interpMethod == channel.InterpSeventhOrder {
		// None rounds to nearest; 7th order centers on the 4th tap — both
		// achieved by biasing the phase half a sample before flooring.
		phase += 0x80000000
	}

	endIndex := v.end
	if looping {
		endIndex = v.loopEnd - 1
	}

	amp := v.amp
	n := 0
	for n < BlockSize {
		idx := int32(phase >> 32)
		if !looping && idx > endIndex {
			break
		}
		frac := phaseFractToTableRow(phase)
		dspBuf[n] = amp * v.tap(v.interpMethod, idx, frac, looping)

		phase += phaseIncrFixed
		amp += ampIncr
		n++

		if looping {
			if int32(phase>>32) > endIndex {
				phase -= uint64(v.loopEnd-v.loopStart) << 32
				v.hasLooped = true
			}
		}
	}

	v.phase = phase
	v.amp = amp
	return n
}

// checkSampleSanity clamps the voice's sample/loop offsets into the
// underlying PCM buffer and, on a fresh note-on, seeds the initial phase
// (§4.6 check_sample_sanity): offset generators and modulators can push
// start/end/loop points arbitrarily far, so this must run before every
// block that follows a generator change.
func (v *Voice) checkSampleSanity() {
	if v.checkSampleSanityFlag == 0 {
		return
	}

	minNonLoop := int32(v.Sample.Start)
	maxNonLoop := int32(v.Sample.End)
	minLoop := int32(v.Sample.Start)
	maxLoop := int32(v.Sample.End) + 1

	v.start = clampI32(v.start, minNonLoop, maxNonLoop)
	v.end = clampI32(v.end, minNonLoop, maxNonLoop)
	if v.start > v.end {
		v.start, v.end = v.end, v.start
	}
	if v.start == v.end {
		v.Off()
		return
	}

	mode := int32(v.gen[sf2.GenSampleModes].Value())
	if mode == int32(LoopUntilRelease) || mode == int32(LoopDuringRelease) {
		v.loopStart = clampI32(v.loopStart, minLoop, maxLoop)
		v.loopEnd = clampI32(v.loopEnd, minLoop, maxLoop)
		if v.loopStart > v.loopEnd {
			v.loopStart, v.loopEnd = v.loopEnd, v.loopStart
		}
		if v.loopEnd < v.loopStart+2 {
			v.gen[sf2.GenSampleModes].Val = float64(LoopUnLooped)
		}

		if v.loopStart >= int32(v.Sample.LoopStart) && v.loopEnd <= int32(v.Sample.LoopEnd) {
			v.ampNoiseFloorLoop = float32(v.Sample.AmplitudeThatReachesNoiseFloor) / v.synthGain
		} else {
			v.ampNoiseFloorLoop = v.ampNoiseFloorNonLoop
		}
	}

	if v.checkSampleSanityFlag&(1<<1) != 0 {
		if maxLoop-minLoop < 2 {
			if mode == int32(LoopUntilRelease) || mode == int32(LoopDuringRelease) {
				v.gen[sf2.GenSampleModes].Val = float64(LoopUnLooped)
			}
		}
		v.phase = uint64(v.start) << 32
	}

	mode = int32(v.gen[sf2.GenSampleModes].Value())
	if (mode == int32(LoopUntilRelease) && v.VolEnvSection < EnvRelease) || mode == int32(LoopDuringRelease) {
		indexInSample := int32(v.phase >> 32)
		if indexInSample >= v.loopEnd {
			v.phase = uint64(v.loopStart) << 32
		}
	}

	v.checkSampleSanityFlag = 0
}

func clampI32(x, lo, hi int32) int32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Write renders up to BlockSize samples of this voice into dspLeftBuf/
// dspRightBuf (and the reverb/chorus send buffers in fx), stepping the
// volume/mod envelopes, both LFOs, and the resonant filter's biquad
// coefficients along the way (§4.5.1 step 9, grounded on voice.rs's
// write/effects).
func (v *Voice) Write(minNoteLengthTicks uint32, dspLeftBuf, dspRightBuf []float32, fx *FxBuf, reverbActive, chorusActive bool) {
	if !v.IsPlaying() {
		return
	}

	if v.noteOffTicks != 0 && v.Ticks >= v.noteOffTicks {
		v.NoteOff(minNoteLengthTicks)
	}

	v.checkSampleSanity()

	// volume envelope
	seg := v.volEnvData[v.VolEnvSection]
	for v.volEnvCount >= seg.Count {
		if v.VolEnvSection == EnvDecay {
			v.volEnvVal = seg.Min * seg.Coeff
		}
		v.VolEnvSection++
		seg = v.volEnvData[v.VolEnvSection]
		v.volEnvCount = 0
	}
	x := seg.Coeff*v.volEnvVal + seg.Incr
	if x < seg.Min {
		x = seg.Min
		v.VolEnvSection++
		v.volEnvCount = 0
	} else if x > seg.Max {
		x = seg.Max
		v.VolEnvSection++
		v.volEnvCount = 0
	}
	v.volEnvVal = x
	v.volEnvCount++

	if v.VolEnvSection == EnvFinished {
		v.Off()
		return
	}

	// modulation envelope
	mseg := v.modEnvData[v.modEnvSection]
	for v.modEnvCount >= mseg.Count {
		v.modEnvSection++
		mseg = v.modEnvData[v.modEnvSection]
		v.modEnvCount = 0
	}
	mx := mseg.Coeff*v.modEnvVal + mseg.Incr
	if mx < mseg.Min {
		mx = mseg.Min
		v.modEnvSection++
		v.modEnvCount = 0
	} else if mx > mseg.Max {
		mx = mseg.Max
		v.modEnvSection++
		v.modEnvCount = 0
	}
	v.modEnvVal = mx
	v.modEnvCount++

	// mod LFO
	if v.Ticks >= v.modLFODelay {
		v.modLFOVal += v.modLFOIncr
		if v.modLFOVal > 1.0 {
			v.modLFOIncr = -v.modLFOIncr
			v.modLFOVal = 2.0 - v.modLFOVal
		} else if v.modLFOVal < -1.0 {
			v.modLFOIncr = -v.modLFOIncr
			v.modLFOVal = -2.0 - v.modLFOVal
		}
	}

	// vibrato LFO
	if v.Ticks >= v.vibLFODelay {
		v.vibLFOVal += v.vibLFOIncr
		if v.vibLFOVal > 1.0 {
			v.vibLFOIncr = -v.vibLFOIncr
			v.vibLFOVal = 2.0 - v.vibLFOVal
		} else if v.vibLFOVal < -1.0 {
			v.vibLFOIncr = -v.vibLFOIncr
			v.vibLFOVal = -2.0 - v.vibLFOVal
		}
	}

	// amplitude
	var targetAmp float32
	if v.VolEnvSection == EnvDelay {
		v.Ticks += BlockSize
		return
	}
	if v.VolEnvSection == EnvAttack {
		targetAmp = atten2amp32(v.attenuation) * cb2amp32(v.modLFOVal*-v.modLFOToVol) * v.volEnvVal
	} else {
		targetAmp = atten2amp32(v.attenuation) * cb2amp32(960.0*(1.0-v.volEnvVal)+v.modLFOVal*-v.modLFOToVol)

		var noiseFloor float32
		if v.hasLooped {
			noiseFloor = v.ampNoiseFloorLoop
		} else {
			noiseFloor = v.ampNoiseFloorNonLoop
		}
		ampMax := atten2amp32(v.minAttenuationCB) * v.volEnvVal
		if ampMax < noiseFloor {
			v.Off()
			return
		}
	}

	ampIncr := (targetAmp - v.amp) / BlockSize
	if v.amp == 0 && ampIncr == 0 {
		v.Ticks += BlockSize
		return
	}

	phaseIncr := float32(sf2.Ct2HzReal(float64(v.pitch+v.modLFOVal*v.modLFOToPitch+v.vibLFOVal*v.vibLFOToPitch+v.modEnvVal*v.modEnvToPitch))) / v.rootPitch
	if phaseIncr == 0 {
		phaseIncr = 1.0
	}

	fres := float32(sf2.Ct2Hz(float64(v.fres + v.modLFOVal*v.modLFOToFc + v.modEnvVal*v.modEnvToFc)))
	switch {
	case fres > 0.45*v.outputRate:
		fres = 0.45 * v.outputRate
	case fres < 5.0:
		fres = 5.0
	}

	if absF32(fres-v.lastFres) > 0.01 {
		v.recalcFilterCoeffs(fres)
	}

	var dspBuf [BlockSize]float32
	count := v.interpolate(&dspBuf, ampIncr, phaseIncr)

	if count > 0 {
		v.effects(&dspBuf, count, dspLeftBuf, dspRightBuf, fx, reverbActive, chorusActive)
	}
	if count < BlockSize {
		v.Off()
	}
	v.Ticks += BlockSize
}

func absF32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func atten2amp32(cb float32) float32 { return float32(sf2.Atten2Amp(float64(cb))) }
func cb2amp32(cb float32) float32    { return float32(sf2.Cb2Amp(float64(cb))) }

// recalcFilterCoeffs derives the Direct-II biquad coefficients for cutoff
// fres via the bilinear-transform cookbook formula (§4.5.1 step 9): on
// first use (filterStartup) the new coefficients apply immediately,
// otherwise they ramp to the new value over one block to avoid a click.
func (v *Voice) recalcFilterCoeffs(fres float32) {
	omega := float32(2.0 * math.Pi * float64(fres/v.outputRate))
	sinCoeff := float32(math.Sin(float64(omega)))
	cosCoeff := float32(math.Cos(float64(omega)))
	alpha := sinCoeff / (2.0 * v.qLin)
	a0Inv := 1.0 / (1.0 + alpha)

	a1 := -2.0 * cosCoeff * a0Inv
	a2 := (1.0 - alpha) * a0Inv
	b1 := (1.0 - cosCoeff) * a0Inv * v.filterGain
	b02 := b1 * 0.5

	if v.filterStartup {
		v.a1, v.a2, v.b02, v.b1 = a1, a2, b02, b1
		v.filterCoeffIncrCount = 0
		v.filterStartup = false
	} else {
		v.a1Incr = (a1 - v.a1) / BlockSize
		v.a2Incr = (a2 - v.a2) / BlockSize
		v.b02Incr = (b02 - v.b02) / BlockSize
		v.b1Incr = (b1 - v.b1) / BlockSize
		v.filterCoeffIncrCount = BlockSize
	}
	v.lastFres = fres
}

// effects applies the resonant filter to dspBuf in place, then mixes it
// into the left/right output buffers and the reverb/chorus send buffers
// according to pan and send levels (§4.5.1 step 9, grounded on voice.rs's
// effects). count may be less than BlockSize when a non-looping sample
// ended mid-block.
func (v *Voice) effects(dspBuf *[BlockSize]float32, count int, dspLeftBuf, dspRightBuf []float32, fx *FxBuf, reverbActive, chorusActive bool) {
	hist1, hist2 := v.hist1, v.hist2
	if absF32(hist1) < 1e-20 {
		hist1 = 0
	}
	a1, a2, b02, b1 := v.a1, v.a2, v.b02, v.b1
	incrCount := v.filterCoeffIncrCount

	for i := 0; i < count; i++ {
		center := dspBuf[i] - a1*hist1 - a2*hist2
		dspBuf[i] = b02*(center+hist2) + b1*hist1
		hist2 = hist1
		hist1 = center
		if incrCount > 0 {
			a1 += v.a1Incr
			a2 += v.a2Incr
			b02 += v.b02Incr
			b1 += v.b1Incr
			incrCount--
		}
	}

	switch {
	case v.pan > -0.5 && v.pan < 0.5:
		for i := 0; i < count; i++ {
			val := v.ampLeft * dspBuf[i]
			dspLeftBuf[i] += val
			dspRightBuf[i] += val
		}
	default:
		if v.ampLeft != 0 {
			for i := 0; i < count; i++ {
				dspLeftBuf[i] += v.ampLeft * dspBuf[i]
			}
		}
		if v.ampRight != 0 {
			for i := 0; i < count; i++ {
				dspRightBuf[i] += v.ampRight * dspBuf[i]
			}
		}
	}

	if reverbActive && v.ampReverb != 0 {
		for i := 0; i < count; i++ {
			fx.Reverb[i] += v.ampReverb * dspBuf[i]
		}
	}
	if chorusActive && v.ampChorus != 0 {
		for i := 0; i < count; i++ {
			fx.Chorus[i] += v.ampChorus * dspBuf[i]
		}
	}

	v.hist1, v.hist2 = hist1, hist2
	v.a1, v.a2, v.b02, v.b1 = a1, a2, b02, b1
	v.filterCoeffIncrCount = incrCount
}
