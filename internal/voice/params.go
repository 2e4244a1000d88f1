package voice

import "sftsynth/internal/sf2"

// gensum returns the effective (val+mod+nrpn) value of generator g as a
// float32, matching the reference's gen_sum! macro in update_param.
func (v *Voice) gensum(g sf2.GenParam) float32 {
	return float32(v.gen[g].Value())
}

// updateParam recomputes the voice's cached DSP parameters that depend on
// generator g, mirroring the reference's fluid_voice_update_param (§4.5.1
// step 6): called whenever a generator's val/mod/nrpn component changes,
// whether from zone application, a modulator, or live CC/NRPN/pitch-bend
// traffic.
func (v *Voice) updateParam(g sf2.GenParam) {
	switch g {
	case sf2.GenPan:
		v.pan = v.gensum(sf2.GenPan)
		v.ampLeft = float32(sf2.Pan(float64(v.pan), true)) * v.synthGain / 32768.0
		v.ampRight = float32(sf2.Pan(float64(v.pan), false)) * v.synthGain / 32768.0

	case sf2.GenInitialAttenuation:
		// EMU10K1 cards scale preset/instrument-level attenuation by 0.4;
		// the val component alone carries that scale, mod/nrpn do not
		// (SF2.01 §8.1.3 #48).
		const altAttenuationScale = 0.4
		v.attenuation = float32(v.gen[sf2.GenInitialAttenuation].Val*altAttenuationScale +
			v.gen[sf2.GenInitialAttenuation].Mod + v.gen[sf2.GenInitialAttenuation].Nrpn)
		v.attenuation = clampF32(v.attenuation, 0, 1440)

	case sf2.GenPitch, sf2.GenCoarseTune, sf2.GenFineTune:
		v.pitch = v.gensum(sf2.GenPitch) + 100.0*v.gensum(sf2.GenCoarseTune) + v.gensum(sf2.GenFineTune)

	case sf2.GenReverbEffectsSend:
		v.reverbSend = clampF32(v.gensum(sf2.GenReverbEffectsSend)/1000.0, 0, 1)
		v.ampReverb = v.reverbSend * v.synthGain / 32768.0

	case sf2.GenChorusEffectsSend:
		v.chorusSend = clampF32(v.gensum(sf2.GenChorusEffectsSend)/1000.0, 0, 1)
		v.ampChorus = v.chorusSend * v.synthGain / 32768.0

	case sf2.GenOverrideRootKey:
		// Non-realtime: only .Val is consulted. -1 means "not overridden".
		var rootPitch float32
		if v.gen[sf2.GenOverrideRootKey].Val > -1 {
			rootPitch = float32(v.gen[sf2.GenOverrideRootKey].Val*100.0 - float64(v.Sample.PitchCorrection))
		} else {
			rootPitch = float32(v.Sample.OrigPitch)*100.0 - float32(v.Sample.PitchCorrection)
		}
		v.rootPitch = float32(sf2Ct2Hz(float64(rootPitch)))
		v.rootPitch *= v.outputRate / float32(v.Sample.SampleRate)

	case sf2.GenInitialFilterFc:
		v.fres = v.gensum(sf2.GenInitialFilterFc)
		v.lastFres = -1

	case sf2.GenInitialFilterQ:
		qDB := clampF32(v.gensum(sf2.GenInitialFilterQ)/10.0, 0, 96)
		// A documented 0 dB setting should produce no resonance hump; shift
		// by -3.01 dB so q_lin works out to 1/sqrt(2) at q_db=0 (SF2.01 p.39
		// item 9).
		qDB -= 3.01
		v.qLin = pow32(10, qDB/20.0)
		v.filterGain = 1.0 / sqrt32(v.qLin)
		v.lastFres = -1

	case sf2.GenModLFOToPitch:
		v.modLFOToPitch = clampF32(v.gensum(sf2.GenModLFOToPitch), -12000, 12000)

	case sf2.GenModLFOToVolume:
		v.modLFOToVol = clampF32(v.gensum(sf2.GenModLFOToVolume), -960, 960)

	case sf2.GenModLFOToFilterFc:
		v.modLFOToFc = clampF32(v.gensum(sf2.GenModLFOToFilterFc), -12000, 12000)

	case sf2.GenDelayModLFO:
		val := clampF32(v.gensum(sf2.GenDelayModLFO), -12000, 5000)
		v.modLFODelay = uint32(v.outputRate * float32(sf2TcToSecDelay(float64(val))))

	case sf2.GenFreqModLFO:
		val := clampF32(v.gensum(sf2.GenFreqModLFO), -16000, 4500)
		v.modLFOIncr = 4.0 * 64.0 * float32(sf2Act2Hz(float64(val))) / v.outputRate

	case sf2.GenFreqVibLFO:
		val := clampF32(v.gensum(sf2.GenFreqVibLFO), -16000, 4500)
		v.vibLFOIncr = 4.0 * 64.0 * float32(sf2Act2Hz(float64(val))) / v.outputRate

	case sf2.GenDelayVibLFO:
		val := clampF32(v.gensum(sf2.GenDelayVibLFO), -12000, 5000)
		v.vibLFODelay = uint32(v.outputRate * float32(sf2TcToSecDelay(float64(val))))

	case sf2.GenVibLFOToPitch:
		v.vibLFOToPitch = clampF32(v.gensum(sf2.GenVibLFOToPitch), -12000, 12000)

	case sf2.GenKeynum:
		if val := v.gensum(sf2.GenKeynum); val >= 0 {
			v.Key = uint8(val)
		}

	case sf2.GenVelocity:
		if val := v.gensum(sf2.GenVelocity); val > 0 {
			v.Vel = uint8(val)
		}

	case sf2.GenModEnvToPitch:
		v.modEnvToPitch = clampF32(v.gensum(sf2.GenModEnvToPitch), -12000, 12000)

	case sf2.GenModEnvToFilterFc:
		v.modEnvToFc = clampF32(v.gensum(sf2.GenModEnvToFilterFc), -12000, 12000)

	case sf2.GenStartAddrOfs, sf2.GenStartAddrCoarseOfs:
		v.start = int32(v.Sample.Start) + int32(v.gensum(sf2.GenStartAddrOfs)) + 32768*int32(v.gensum(sf2.GenStartAddrCoarseOfs))
		v.checkSampleSanityFlag |= 1 << 0

	case sf2.GenEndAddrOfs, sf2.GenEndAddrCoarseOfs:
		v.end = int32(v.Sample.End) + int32(v.gensum(sf2.GenEndAddrOfs)) + 32768*int32(v.gensum(sf2.GenEndAddrCoarseOfs))
		v.checkSampleSanityFlag |= 1 << 0

	case sf2.GenStartLoopAddrOfs, sf2.GenStartLoopAddrCoarseOfs:
		v.loopStart = int32(v.Sample.LoopStart) + int32(v.gensum(sf2.GenStartLoopAddrOfs)) + 32768*int32(v.gensum(sf2.GenStartLoopAddrCoarseOfs))
		v.checkSampleSanityFlag |= 1 << 0

	case sf2.GenEndLoopAddrOfs, sf2.GenEndLoopAddrCoarseOfs:
		v.loopEnd = int32(v.Sample.LoopEnd) + int32(v.gensum(sf2.GenEndLoopAddrOfs)) + 32768*int32(v.gensum(sf2.GenEndLoopAddrCoarseOfs))
		v.checkSampleSanityFlag |= 1 << 0

	case sf2.GenDelayVolEnv:
		val := clampF32(v.gensum(sf2.GenDelayVolEnv), -12000, 5000)
		count := uint32(v.outputRate * float32(sf2TcToSecDelay(float64(val))) / 64.0)
		v.volEnvData[EnvDelay] = envSegment{Count: count, Min: -1, Max: 1}

	case sf2.GenAttackVolEnv:
		val := clampF32(v.gensum(sf2.GenAttackVolEnv), -12000, 8000)
		count := 1 + uint32(v.outputRate*float32(sf2TcToSecAttack(float64(val)))/64.0)
		v.volEnvData[EnvAttack] = envSegment{Count: count, Coeff: 1, Incr: incrOrZero(count), Min: -1, Max: 1}

	case sf2.GenHoldVolEnv, sf2.GenKeynumToVolEnvHold:
		count := uint32(v.calculateHoldDecayBuffers(sf2.GenHoldVolEnv, sf2.GenKeynumToVolEnvHold, false))
		v.volEnvData[EnvHold] = envSegment{Count: count, Coeff: 1, Min: -1, Max: 2}

	case sf2.GenDecayVolEnv, sf2.GenSustainVolEnv, sf2.GenKeynumToVolEnvDecay:
		y := clampF32(1.0-0.001*v.gensum(sf2.GenSustainVolEnv), 0, 1)
		count := uint32(v.calculateHoldDecayBuffers(sf2.GenDecayVolEnv, sf2.GenKeynumToVolEnvDecay, true))
		v.volEnvData[EnvDecay] = envSegment{Count: count, Coeff: 1, Incr: -incrOrZero(count), Min: y, Max: 2}

	case sf2.GenReleaseVolEnv:
		val := clampF32(v.gensum(sf2.GenReleaseVolEnv), -7200, 8000)
		count := 1 + uint32(v.outputRate*float32(sf2TcToSecRelease(float64(val)))/64.0)
		v.volEnvData[EnvRelease] = envSegment{Count: count, Coeff: 1, Incr: -incrOrZero(count), Min: 0, Max: 1}

	case sf2.GenDelayModEnv:
		val := clampF32(v.gensum(sf2.GenDelayModEnv), -12000, 5000)
		count := uint32(v.outputRate * float32(sf2TcToSecDelay(float64(val))) / 64.0)
		v.modEnvData[EnvDelay] = envSegment{Count: count, Min: -1, Max: 1}

	case sf2.GenAttackModEnv:
		val := clampF32(v.gensum(sf2.GenAttackModEnv), -12000, 8000)
		count := 1 + uint32(v.outputRate*float32(sf2TcToSecAttack(float64(val)))/64.0)
		v.modEnvData[EnvAttack] = envSegment{Count: count, Coeff: 1, Incr: incrOrZero(count), Min: -1, Max: 1}

	case sf2.GenHoldModEnv, sf2.GenKeynumToModEnvHold:
		count := uint32(v.calculateHoldDecayBuffers(sf2.GenHoldModEnv, sf2.GenKeynumToModEnvHold, false))
		v.modEnvData[EnvHold] = envSegment{Count: count, Coeff: 1, Min: -1, Max: 2}

	case sf2.GenDecayModEnv, sf2.GenSustainModEnv, sf2.GenKeynumToModEnvDecay:
		count := uint32(v.calculateHoldDecayBuffers(sf2.GenDecayModEnv, sf2.GenKeynumToModEnvDecay, true))
		y := clampF32(1.0-0.001*v.gensum(sf2.GenSustainModEnv), 0, 1)
		v.modEnvData[EnvDecay] = envSegment{Count: count, Coeff: 1, Incr: -incrOrZero(count), Min: y, Max: 2}

	case sf2.GenReleaseModEnv:
		val := clampF32(v.gensum(sf2.GenReleaseModEnv), -12000, 8000)
		count := 1 + uint32(v.outputRate*float32(sf2TcToSecRelease(float64(val)))/64.0)
		v.modEnvData[EnvRelease] = envSegment{Count: count, Coeff: 1, Incr: -incrOrZero(count), Min: 0, Max: 2}
	}
}

func incrOrZero(count uint32) float32 {
	if count == 0 {
		return 0
	}
	return 1.0 / float32(count)
}

// calculateHoldDecayBuffers converts a hold/decay timecent generator
// (optionally scaled by key-to-X tracking) into a block count, matching
// the reference's calculate_hold_decay_buffers (§4.5.1 step 6).
func (v *Voice) calculateHoldDecayBuffers(genBase, genKey2Base sf2.GenParam, isDecay bool) int32 {
	timecents := v.gen[genBase].Value() + v.gen[genKey2Base].Value()*(60.0-float64(v.Key))
	if isDecay {
		if timecents > 8000 {
			timecents = 8000
		}
	} else {
		if timecents > 5000 {
			timecents = 5000
		}
		if timecents <= -32768 {
			return 0
		}
	}
	if timecents < -12000 {
		timecents = -12000
	}
	seconds := sf2TcToSec(timecents)
	return int32(float64(v.outputRate)*seconds/64.0 + 0.5)
}

// Small float32 wrappers keep the update_param switch above free of
// repeated float64 conversions; the sf2 conversion functions are
// canonically float64 because zone/generator math elsewhere is too.
func sf2Ct2Hz(cents float64) float64          { return sf2.Ct2HzReal(cents) }
func sf2Act2Hz(cents float64) float64         { return sf2.Act2Hz(cents) }
func sf2TcToSec(tc float64) float64           { return sf2.Tc2Sec(tc) }
func sf2TcToSecAttack(tc float64) float64     { return sf2.Tc2SecAttack(tc) }
func sf2TcToSecDelay(tc float64) float64      { return sf2.Tc2SecDelay(tc) }
func sf2TcToSecRelease(tc float64) float64    { return sf2.Tc2SecRelease(tc) }
