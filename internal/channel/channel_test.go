package channel

import (
	"testing"

	"sftsynth/internal/sf2"
)

func TestNewChannelDefaults(t *testing.T) {
	c := New(0, false)
	if c.InterpMethod != DefaultInterpMethod {
		t.Errorf("InterpMethod = %v, want %v", c.InterpMethod, DefaultInterpMethod)
	}
	if c.PitchWheel() != 0x2000 {
		t.Errorf("PitchWheel() = %d, want 0x2000 (centered)", c.PitchWheel())
	}
	if c.PitchWheelSensitivity() != 2 {
		t.Errorf("PitchWheelSensitivity() = %d, want 2", c.PitchWheelSensitivity())
	}
	if c.CC(CCVolumeMSB) != 100 {
		t.Errorf("CC(volume) = %d, want 100", c.CC(CCVolumeMSB))
	}
	if c.CC(CCPanMSB) != 64 {
		t.Errorf("CC(pan) = %d, want 64 (centered)", c.CC(CCPanMSB))
	}
}

func TestCCOutOfRangeReturnsZero(t *testing.T) {
	c := New(0, false)
	if got := c.CC(200); got != 0 {
		t.Errorf("CC(200) = %d, want 0", got)
	}
}

func TestControlChangeSustainPedal(t *testing.T) {
	c := New(0, false)
	if a := c.ControlChange(CCSustain, 127); a.Kind != ActionNone {
		t.Errorf("ControlChange(sustain, 127).Kind = %v, want ActionNone", a.Kind)
	}
	if a := c.ControlChange(CCSustain, 10); a.Kind != ActionSustainOff {
		t.Errorf("ControlChange(sustain, 10).Kind = %v, want ActionSustainOff", a.Kind)
	}
}

func TestControlChangeBankSelectCombinesMSBAndLSB(t *testing.T) {
	c := New(0, false)
	c.ControlChange(CCBankSelectMSB, 2)
	c.ControlChange(CCBankSelectLSB, 5)
	if got, want := c.BankNum(), uint32(2)<<7+5; got != want {
		t.Errorf("BankNum() = %d, want %d", got, want)
	}
}

func TestControlChangeBankSelectIgnoredOnDrumsChannel(t *testing.T) {
	c := New(9, true)
	c.ControlChange(CCBankSelectMSB, 5)
	if got := c.BankNum(); got != 0 {
		t.Errorf("BankNum() after bank-select on active drums channel = %d, want 0 (ignored)", got)
	}
}

func TestControlChangeAllNotesOffAndAllSoundOff(t *testing.T) {
	c := New(0, false)
	if a := c.ControlChange(CCAllNotesOff, 0); a.Kind != ActionAllNotesOff {
		t.Errorf("ControlChange(AllNotesOff).Kind = %v, want ActionAllNotesOff", a.Kind)
	}
	if a := c.ControlChange(CCAllSoundOff, 0); a.Kind != ActionAllSoundOff {
		t.Errorf("ControlChange(AllSoundOff).Kind = %v, want ActionAllSoundOff", a.Kind)
	}
}

func TestControlChangeResetControllersPreservesBankAndVolume(t *testing.T) {
	c := New(0, false)
	c.ControlChange(CCBankSelectMSB, 3)
	c.ControlChange(CCVolumeMSB, 50)

	a := c.ControlChange(CCAllCtrlOff, 0)
	if a.Kind != ActionResetControllers {
		t.Errorf("ControlChange(AllCtrlOff).Kind = %v, want ActionResetControllers", a.Kind)
	}
	if c.CC(CCBankSelectMSB) != 3 {
		t.Errorf("CC(bank select MSB) after reset-all-controllers = %d, want preserved 3", c.CC(CCBankSelectMSB))
	}
	if c.CC(CCVolumeMSB) != 50 {
		t.Errorf("CC(volume) after reset-all-controllers = %d, want preserved 50", c.CC(CCVolumeMSB))
	}
}

func TestControlChangeUnknownCCReturnsModulateAction(t *testing.T) {
	c := New(0, false)
	a := c.ControlChange(1, 64) // modulation wheel
	if a.Kind != ActionModulateCC || a.Ctrl != 1 {
		t.Errorf("ControlChange(CC1) = %+v, want {ActionModulateCC, Ctrl: 1}", a)
	}
}

func TestNRPNDataEntryScalesGenerator(t *testing.T) {
	c := New(0, false)
	c.ControlChange(CCNRPNMSB, 120)
	c.ControlChange(CCNRPNLSB, uint8(sf2.GenInitialFilterFc))
	a := c.ControlChange(CCDataEntryMSB, 64) // data = 64<<7 = 8192, centered
	if a.Kind != ActionGenSet {
		t.Fatalf("ControlChange(data entry) after NRPN select = %+v, want ActionGenSet", a)
	}
	if a.Gen != sf2.GenInitialFilterFc {
		t.Errorf("Action.Gen = %v, want GenInitialFilterFc", a.Gen)
	}
	if got, want := c.GetGen(sf2.GenInitialFilterFc), 0.0; got != want {
		t.Errorf("GetGen(GenInitialFilterFc) = %v, want %v (centered data entry)", got, want)
	}
}

func TestRPNPitchBendRangeSetsSensitivity(t *testing.T) {
	c := New(0, false)
	c.ControlChange(CCRPNMSB, 0)
	c.ControlChange(CCRPNLSB, 0)
	c.ControlChange(CCDataEntryMSB, 12)
	if got, want := c.PitchWheelSensitivity(), uint16(12); got != want {
		t.Errorf("PitchWheelSensitivity() = %d, want %d", got, want)
	}
}

func TestSetGenReturnsGenSetAction(t *testing.T) {
	c := New(0, false)
	a := c.SetGen(sf2.GenPan, 250)
	if a.Kind != ActionGenSet || a.Gen != sf2.GenPan || a.Value != 250 {
		t.Errorf("SetGen(GenPan, 250) = %+v, want {ActionGenSet, GenPan, 250}", a)
	}
	if got := c.GetGen(sf2.GenPan); got != 250 {
		t.Errorf("GetGen(GenPan) = %v, want 250", got)
	}
}

func TestSetGenAbsMarksGeneratorAbsolute(t *testing.T) {
	c := New(0, false)
	a := c.SetGenAbs(sf2.GenPan, 250, true)
	if !a.Abs {
		t.Errorf("SetGenAbs(..., true).Abs = false, want true")
	}
	if !c.GetGenAbs(sf2.GenPan) {
		t.Errorf("GetGenAbs(GenPan) = false after SetGenAbs(..., true), want true")
	}
}

func TestSetGenClearsAbsoluteFlag(t *testing.T) {
	c := New(0, false)
	c.SetGenAbs(sf2.GenPan, 250, true)
	c.SetGen(sf2.GenPan, 10)
	if c.GetGenAbs(sf2.GenPan) {
		t.Errorf("GetGenAbs(GenPan) = true after plain SetGen, want false")
	}
}

func TestRPNCoarseAndFineTuneAreAbsolute(t *testing.T) {
	c := New(0, false)
	c.ControlChange(CCRPNMSB, 0)
	c.ControlChange(CCRPNLSB, 2) // RPN_CHANNEL_COARSE_TUNE
	a := c.ControlChange(CCDataEntryMSB, 70)
	if !a.Abs {
		t.Errorf("RPN coarse tune Action.Abs = false, want true")
	}
	if !c.GetGenAbs(sf2.GenCoarseTune) {
		t.Errorf("GetGenAbs(GenCoarseTune) = false after RPN coarse tune, want true")
	}
}

func TestInitResetsProgramAndPreset(t *testing.T) {
	c := New(0, false)
	c.SetProgNum(5)
	c.SetBankNum(3)
	c.Init(nil)
	if c.ProgNum() != 0 || c.BankNum() != 0 || c.Preset != nil {
		t.Errorf("after Init(nil): ProgNum=%d BankNum=%d Preset=%v, want all zeroed", c.ProgNum(), c.BankNum(), c.Preset)
	}
}
