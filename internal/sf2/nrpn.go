package sf2

// nrpnScale gives each generator's NRPN data-to-value scale factor, per
// SF2.01 §9.6's documented NRPN ranges (e.g. coarse/fine tune scale by
// whole cents, filter cutoff scales by whole cents of a different range).
// Generators with no documented NRPN mapping scale 1:1.
var nrpnScale = map[GenParam]float64{
	GenStartAddrOfs:       1,
	GenEndAddrOfs:         1,
	GenStartLoopAddrOfs:   1,
	GenEndLoopAddrOfs:     1,
	GenStartAddrCoarseOfs: 1,
	GenModLFOToPitch:      1,
	GenVibLFOToPitch:      1,
	GenModEnvToPitch:      1,
	GenInitialFilterFc:    2,
	GenInitialFilterQ:     1,
	GenModLFOToFilterFc:   1,
	GenModEnvToFilterFc:   1,
	GenEndAddrCoarseOfs:   1,
	GenModLFOToVolume:     1,
	GenChorusEffectsSend:  1,
	GenReverbEffectsSend:  1,
	GenPan:                1,
	GenDelayModLFO:        1,
	GenFreqModLFO:         1,
	GenDelayVibLFO:        1,
	GenFreqVibLFO:         1,
	GenDelayModEnv:        1,
	GenAttackModEnv:       1,
	GenHoldModEnv:         1,
	GenDecayModEnv:        1,
	GenSustainModEnv:      1,
	GenReleaseModEnv:      1,
	GenDelayVolEnv:        1,
	GenAttackVolEnv:       1,
	GenHoldVolEnv:         1,
	GenDecayVolEnv:        1,
	GenSustainVolEnv:      1,
	GenReleaseVolEnv:      1,
	GenInitialAttenuation: 1,
	GenCoarseTune:         1,
	GenFineTune:           1,
}

// ScaleNRPN implements the SF2.01 §9.6 NRPN data-entry scaling
// (`fluid_gen_scale_nrpn` in the reference): a 14-bit data-entry value
// centered at 8192 becomes a signed offset, scaled per-generator.
func ScaleNRPN(g GenParam, data int32) float64 {
	scale, ok := nrpnScale[g]
	if !ok {
		scale = 1
	}
	return float64(data-8192) * scale
}
