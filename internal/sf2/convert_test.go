package sf2

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestCb2AmpZeroIsUnityGain(t *testing.T) {
	if got := Cb2Amp(0); !approxEqual(got, 1.0, 1e-9) {
		t.Errorf("Cb2Amp(0) = %v, want 1.0", got)
	}
}

func TestCb2AmpIsMonotonicallyDecreasing(t *testing.T) {
	if Cb2Amp(100) >= Cb2Amp(0) {
		t.Errorf("Cb2Amp(100) = %v, want less than Cb2Amp(0) = %v", Cb2Amp(100), Cb2Amp(0))
	}
}

func TestAtten2AmpMatchesCb2Amp(t *testing.T) {
	for _, cb := range []float64{0, 6, 60, 200} {
		if Atten2Amp(cb) != Cb2Amp(cb) {
			t.Errorf("Atten2Amp(%v) = %v, want %v", cb, Atten2Amp(cb), Cb2Amp(cb))
		}
	}
}

func TestTc2SecFloorsAtMinimum(t *testing.T) {
	if got := Tc2Sec(-32768); got != 0 {
		t.Errorf("Tc2Sec(-32768) = %v, want 0", got)
	}
	if got := Tc2Sec(-100000); got != 0 {
		t.Errorf("Tc2Sec(-100000) = %v, want 0", got)
	}
	if got := Tc2Sec(-20000); got < minTimecentSeconds {
		t.Errorf("Tc2Sec(-20000) = %v, want at least %v", got, minTimecentSeconds)
	}
}

func TestTc2SecZeroIsOneSecond(t *testing.T) {
	if got := Tc2Sec(0); !approxEqual(got, 1.0, 1e-9) {
		t.Errorf("Tc2Sec(0) = %v, want 1.0", got)
	}
}

func TestTc2SecVariantsClampTheirRange(t *testing.T) {
	// Values far outside the documented range should clamp identically to
	// the boundary value rather than blowing up.
	if got, want := Tc2SecAttack(100000), Tc2SecAttack(8000); got != want {
		t.Errorf("Tc2SecAttack(100000) = %v, want clamp to Tc2SecAttack(8000) = %v", got, want)
	}
	if got, want := Tc2SecDelay(100000), Tc2SecDelay(5000); got != want {
		t.Errorf("Tc2SecDelay(100000) = %v, want clamp to Tc2SecDelay(5000) = %v", got, want)
	}
	if got, want := Tc2SecRelease(100000), Tc2SecRelease(8000); got != want {
		t.Errorf("Tc2SecRelease(100000) = %v, want clamp to Tc2SecRelease(8000) = %v", got, want)
	}
}

func TestCt2HzRealMIDINoteZero(t *testing.T) {
	if got := Ct2HzReal(0); !approxEqual(got, 8.176, 1e-9) {
		t.Errorf("Ct2HzReal(0) = %v, want 8.176", got)
	}
}

func TestCt2HzQuantizesToNearestSemitone(t *testing.T) {
	if got, want := Ct2Hz(49), Ct2HzReal(0); got != want {
		t.Errorf("Ct2Hz(49) = %v, want Ct2HzReal(0) = %v (rounds down to nearest semitone)", got, want)
	}
	if got, want := Ct2Hz(51), Ct2HzReal(100); got != want {
		t.Errorf("Ct2Hz(51) = %v, want Ct2HzReal(100) = %v (rounds up to nearest semitone)", got, want)
	}
}

func TestAct2HzMatchesCt2HzReal(t *testing.T) {
	for _, c := range []float64{-1200, 0, 1200, 6900} {
		if Act2Hz(c) != Ct2HzReal(c) {
			t.Errorf("Act2Hz(%v) = %v, want %v", c, Act2Hz(c), Ct2HzReal(c))
		}
	}
}

func TestPanCenterIsEqualPower(t *testing.T) {
	l := Pan(0, true)
	r := Pan(0, false)
	if !approxEqual(l, r, 1e-9) {
		t.Errorf("Pan(0, true) = %v, Pan(0, false) = %v, want equal at center", l, r)
	}
	if !approxEqual(l, math.Cos(math.Pi/4), 1e-9) {
		t.Errorf("Pan(0, true) = %v, want cos(pi/4) = %v", l, math.Cos(math.Pi/4))
	}
	if sum := l*l + r*r; !approxEqual(sum, 1.0, 1e-9) {
		t.Errorf("Pan(0) left^2+right^2 = %v, want 1.0 (equal-power law)", sum)
	}
}

func TestPanHardLeftSilencesRight(t *testing.T) {
	if got := Pan(-500, false); !approxEqual(got, 0, 1e-9) {
		t.Errorf("Pan(-500, false) = %v, want 0", got)
	}
	if got := Pan(-500, true); !approxEqual(got, 1.0, 1e-9) {
		t.Errorf("Pan(-500, true) = %v, want 1.0", got)
	}
}

func TestPanHardRightSilencesLeft(t *testing.T) {
	if got := Pan(500, true); !approxEqual(got, 0, 1e-9) {
		t.Errorf("Pan(500, true) = %v, want 0", got)
	}
	if got := Pan(500, false); !approxEqual(got, 1.0, 1e-9) {
		t.Errorf("Pan(500, false) = %v, want 1.0", got)
	}
}

func TestClampF64(t *testing.T) {
	if got := ClampF64(5, 0, 10); got != 5 {
		t.Errorf("ClampF64(5, 0, 10) = %v, want 5", got)
	}
	if got := ClampF64(-5, 0, 10); got != 0 {
		t.Errorf("ClampF64(-5, 0, 10) = %v, want 0", got)
	}
	if got := ClampF64(50, 0, 10); got != 10 {
		t.Errorf("ClampF64(50, 0, 10) = %v, want 10", got)
	}
}
