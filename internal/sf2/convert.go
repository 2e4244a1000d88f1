package sf2

import "math"

// Conversion functions translate SoundFont 2's centibel/timecent/cent units
// into the linear amplitude, second, and Hertz domains the voice DSP
// pipeline works in (§4.2, §4.5.1 step 6-8). These functions are
// standard SoundFont2/FluidSynth conversion-table formulas; no file in the
// retrieved example pack defines them (the pack's filter kept call sites of
// an equivalent conversion-table module, not the module itself), so they
// are implemented directly from the published SF2 formulas. See DESIGN.md.

// Cb2Amp converts an attenuation/amplitude value in centibels to a linear
// amplitude multiplier: 10^(-cb/200).
func Cb2Amp(cb float64) float64 {
	return math.Pow(10, -cb/200.0)
}

// Atten2Amp converts an initial-attenuation value in centibels to a linear
// amplitude multiplier. It is the same curve as Cb2Amp; kept as a distinct
// name because the two are conceptually different generators in §4.5.1.
func Atten2Amp(cb float64) float64 {
	return Cb2Amp(cb)
}

// minTimecentSeconds is the floor Tc2Sec applies to every input above the
// -32768 "negative infinity" sentinel, which alone converts to zero
// seconds. The attack/delay/release variants clamp their input to -12000
// first, so they never return less than this floor.
const minTimecentSeconds = 0.001

// Tc2Sec converts a timecent duration to seconds: 2^(tc/1200).
func Tc2Sec(tc float64) float64 {
	if tc <= -32768 {
		return 0
	}
	s := math.Pow(2, tc/1200.0)
	if s < minTimecentSeconds {
		return minTimecentSeconds
	}
	return s
}

// Tc2SecAttack converts an attack-stage timecent value, clamping the input
// to the SF2.01-documented attack range before conversion.
func Tc2SecAttack(tc float64) float64 {
	return Tc2Sec(clamp(tc, -12000, 8000))
}

// Tc2SecDelay converts a delay-stage timecent value (volume/mod envelope
// delay, or LFO delay), clamping to the documented delay range.
func Tc2SecDelay(tc float64) float64 {
	return Tc2Sec(clamp(tc, -12000, 5000))
}

// Tc2SecRelease converts a release-stage timecent value, clamping to the
// documented release range.
func Tc2SecRelease(tc float64) float64 {
	return Tc2Sec(clamp(tc, -12000, 8000))
}

// Ct2HzReal converts an absolute pitch in cents to Hertz:
// 8.176 * 2^(cents/1200). 8.176 Hz is MIDI note 0 (the SF2 reference pitch).
func Ct2HzReal(cents float64) float64 {
	return 8.176 * math.Pow(2, cents/1200.0)
}

// Ct2Hz is the same conversion, additionally snapping to the nearest
// semitone (100-cent) boundary — the quantized form a non-interpolated
// fixed lookup table would produce, used where the reference only needs
// coarse per-semitone resolution.
func Ct2Hz(cents float64) float64 {
	quantized := math.Round(cents/100.0) * 100.0
	return Ct2HzReal(quantized)
}

// Act2Hz converts an absolute-cents LFO frequency generator to Hertz. It is
// numerically identical to Ct2HzReal; kept distinct because the generator
// feeding it (GenFreqModLFO / GenFreqVibLFO) has its own clamping range
// applied before conversion (§4.5.1 step 5).
func Act2Hz(cents float64) float64 {
	return Ct2HzReal(cents)
}

// Pan implements SF2 equal-power panning. p ranges over [-500, 500]
// (tenths of a percent hard left/right); Pan returns the left-channel gain
// when left is true, the complementary right-channel gain otherwise.
// At p=0 both channels return cos(pi/4) (Testable Property 8).
func Pan(p float64, left bool) float64 {
	theta := (p/500.0 + 1.0) * math.Pi / 4.0
	if left {
		return math.Cos(theta)
	}
	return math.Sin(theta)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampF64 is an exported clamp helper shared across packages that adjust
// generator-derived values (voice, zone, mixer).
func ClampF64(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}
