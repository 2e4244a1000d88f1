package sf2

import "testing"

// fakeControllerState is a minimal ControllerState for modulator evaluation
// tests, mirroring the donor's mock-interface test style (cpu_test.go).
type fakeControllerState struct {
	cc         [128]uint8
	pitchWheel uint16
	pitchSens  uint16
	chanPress  uint8
	keyPress   [128]uint8
	key, vel   uint8
}

func (f *fakeControllerState) CC(index uint8) uint8            { return f.cc[index] }
func (f *fakeControllerState) PitchWheel() uint16               { return f.pitchWheel }
func (f *fakeControllerState) PitchWheelSensitivity() uint16    { return f.pitchSens }
func (f *fakeControllerState) ChannelPressure() uint8           { return f.chanPress }
func (f *fakeControllerState) KeyPressure(key uint8) uint8      { return f.keyPress[key] }
func (f *fakeControllerState) Key() uint8                       { return f.key }
func (f *fakeControllerState) Velocity() uint8                  { return f.vel }

func TestIdenticalIgnoresAmount(t *testing.T) {
	a := Modulator{Src1: Unity, Src2: Unity, Dest: GenPan, Amount: 10}
	b := Modulator{Src1: Unity, Src2: Unity, Dest: GenPan, Amount: 999}
	if !a.Identical(b) {
		t.Error("Identical() = false for modulators differing only in Amount, want true")
	}
	c := Modulator{Src1: Unity, Src2: Unity, Dest: GenInitialFilterFc, Amount: 10}
	if a.Identical(c) {
		t.Error("Identical() = true for modulators with different destinations, want false")
	}
}

func TestDefaultModulatorsCountAndVelocityToAttenuation(t *testing.T) {
	mods := DefaultModulators()
	if got, want := len(mods), 10; got != want {
		t.Fatalf("len(DefaultModulators()) = %d, want %d", got, want)
	}

	velToAtten := mods[0]
	cs := &fakeControllerState{vel: 127}
	if got := Evaluate(velToAtten, cs); got != 0 {
		t.Errorf("velocity-to-attenuation at full velocity = %v, want 0 (no attenuation)", got)
	}
	csQuiet := &fakeControllerState{vel: 0}
	if got := Evaluate(velToAtten, csQuiet); got <= 0 {
		t.Errorf("velocity-to-attenuation at zero velocity = %v, want positive (full attenuation)", got)
	}
}

func TestEvaluateUnityModulatorIgnoresControllerState(t *testing.T) {
	m := Modulator{Src1: Unity, Src2: Unity, Dest: GenPan, Amount: 42}
	cs := &fakeControllerState{}
	if got, want := Evaluate(m, cs), 42.0; got != want {
		t.Errorf("Evaluate(unity modulator) = %v, want %v", got, want)
	}
}

func TestSourceValueBipolarCCCentered(t *testing.T) {
	cs := &fakeControllerState{}
	cs.cc[10] = 64 // near-center pan CC
	s := Source{Kind: SourceCC, Index: 10, Direction: DirPositive, Polarity: PolarityBipolar, Shape: ShapeLinear}
	got := sourceValue(s, cs)
	if got < -0.02 || got > 0.02 {
		t.Errorf("sourceValue(CC10=64, bipolar) = %v, want near 0", got)
	}

	cs.cc[10] = 127
	if got := sourceValue(s, cs); got < 0.9 {
		t.Errorf("sourceValue(CC10=127, bipolar) = %v, want near 1", got)
	}
}

func TestSourceValueNegativeDirectionInverts(t *testing.T) {
	cs := &fakeControllerState{vel: 127}
	pos := Source{Kind: SourceGeneral, Index: GeneralNoteOnVelocity, Direction: DirPositive, Polarity: PolarityUnipolar, Shape: ShapeLinear}
	neg := Source{Kind: SourceGeneral, Index: GeneralNoteOnVelocity, Direction: DirNegative, Polarity: PolarityUnipolar, Shape: ShapeLinear}
	if got := sourceValue(pos, cs); got < 0.99 {
		t.Errorf("sourceValue(velocity=127, positive) = %v, want near 1", got)
	}
	if got := sourceValue(neg, cs); got > 0.01 {
		t.Errorf("sourceValue(velocity=127, negative) = %v, want near 0", got)
	}
}

func TestConcaveCurveBoundaries(t *testing.T) {
	if got := concaveCurve(0); got != 0 {
		t.Errorf("concaveCurve(0) = %v, want 0", got)
	}
	if got := concaveCurve(1); got != 1 {
		t.Errorf("concaveCurve(1) = %v, want 1", got)
	}
	if got := concaveCurve(-5); got != 0 {
		t.Errorf("concaveCurve(-5) = %v, want clamp to 0", got)
	}
}

func TestSourceReferencesDistinguishesCCFromGeneral(t *testing.T) {
	ccSrc := Source{Kind: SourceCC, Index: 7}
	genSrc := Source{Kind: SourceGeneral, Index: GeneralChannelPressure}

	if !SourceReferences(ccSrc, true, 7) {
		t.Error("SourceReferences(CC7 source, isCC=true, ctrl=7) = false, want true")
	}
	if SourceReferences(ccSrc, false, 7) {
		t.Error("SourceReferences(CC7 source, isCC=false, ctrl=7) = true, want false")
	}
	if !SourceReferences(genSrc, false, GeneralChannelPressure) {
		t.Error("SourceReferences(channel-pressure source, isCC=false, ctrl=GeneralChannelPressure) = false, want true")
	}
	if SourceReferences(genSrc, true, GeneralChannelPressure) {
		t.Error("SourceReferences(channel-pressure source, isCC=true, ...) = true, want false")
	}
}
