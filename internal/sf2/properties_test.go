package sf2

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

// Property 8: pan law. At p=0 both channels equal cos(pi/4); at the hard
// extremes one channel goes silent.
func TestPropertyPanLawCenterIsEqualPower(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		left := Pan(0, true)
		right := Pan(0, false)
		want := math.Cos(math.Pi / 4)

		if math.Abs(left-want) > 1e-12 {
			t.Fatalf("Pan(0, true) = %v, want %v", left, want)
		}
		if math.Abs(right-want) > 1e-12 {
			t.Fatalf("Pan(0, false) = %v, want %v", right, want)
		}
	})
}

func TestPropertyPanLawHardExtremesSilenceOneChannel(t *testing.T) {
	if got := Pan(-500, false); math.Abs(got) > 1e-9 {
		t.Errorf("Pan(-500, false) = %v, want ~0 (hard left silences the right channel)", got)
	}
	if got := Pan(500, true); math.Abs(got) > 1e-9 {
		t.Errorf("Pan(500, true) = %v, want ~0 (hard right silences the left channel)", got)
	}
}

// Property 8 (generalized): for any pan position in range, left^2 + right^2
// stays at unity power (the defining trait of equal-power panning).
func TestPropertyPanPreservesUnityPower(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := rapid.Float64Range(-500, 500).Draw(t, "p")
		left := Pan(p, true)
		right := Pan(p, false)
		power := left*left + right*right
		if math.Abs(power-1.0) > 1e-9 {
			t.Fatalf("Pan(%v): left^2+right^2 = %v, want 1.0", p, power)
		}
	})
}

// Property 10: NRPN scaling. A data-entry value centered at 8192 yields a
// zero offset; any other value scales linearly by the generator's
// documented NRPN range, matching within 1 ULP.
func TestPropertyNRPNScalingIsLinearAroundCenter(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.Int32Range(0, 16383).Draw(t, "data")
		g := rapid.SampledFrom([]GenParam{
			GenCoarseTune, GenFineTune, GenInitialFilterFc, GenInitialFilterQ, GenPan,
		}).Draw(t, "gen")

		got := ScaleNRPN(g, data)
		want := float64(data-8192) * nrpnScale[g]
		if got != want {
			t.Fatalf("ScaleNRPN(%v, %d) = %v, want %v", g, data, got, want)
		}
	})
}

func TestPropertyNRPNScalingCenterIsZero(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := rapid.SampledFrom([]GenParam{GenCoarseTune, GenInitialFilterFc, GenPan}).Draw(t, "gen")
		if got := ScaleNRPN(g, 8192); got != 0 {
			t.Fatalf("ScaleNRPN(%v, 8192) = %v, want 0 (centered data entry)", g, got)
		}
	})
}

// Property: Cb2Amp is monotonically non-increasing as attenuation (in
// centibels) increases, and clamps to unity gain at zero attenuation.
func TestPropertyCb2AmpIsMonotonicNonIncreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(0, 1000).Draw(t, "a")
		b := rapid.Float64Range(0, 1000).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		if Cb2Amp(a) < Cb2Amp(b) {
			t.Fatalf("Cb2Amp(%v)=%v < Cb2Amp(%v)=%v, want non-increasing in attenuation", a, Cb2Amp(a), b, Cb2Amp(b))
		}
	})
	if got := Cb2Amp(0); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("Cb2Amp(0) = %v, want 1.0 (no attenuation)", got)
	}
}

func TestPropertyClampF64StaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lo := rapid.Float64Range(-1000, 0).Draw(t, "lo")
		hi := rapid.Float64Range(0, 1000).Draw(t, "hi")
		v := rapid.Float64Range(-2000, 2000).Draw(t, "v")

		got := ClampF64(v, lo, hi)
		if got < lo || got > hi {
			t.Fatalf("ClampF64(%v, %v, %v) = %v, outside [%v, %v]", v, lo, hi, got, lo, hi)
		}
	})
}
