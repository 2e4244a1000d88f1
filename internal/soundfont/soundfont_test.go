package soundfont

import "testing"

func TestZoneInsideRange(t *testing.T) {
	z := Zone{KeyLo: 36, KeyHi: 60, VelLo: 20, VelHi: 100}

	cases := []struct {
		key, vel uint8
		want     bool
	}{
		{48, 64, true},
		{36, 20, true},  // lower bound inclusive
		{60, 100, true}, // upper bound inclusive
		{35, 64, false}, // below key range
		{61, 64, false}, // above key range
		{48, 19, false}, // below vel range
		{48, 101, false}, // above vel range
	}
	for _, c := range cases {
		if got := z.InsideRange(c.key, c.vel); got != c.want {
			t.Errorf("InsideRange(%d, %d) = %v, want %v", c.key, c.vel, got, c.want)
		}
	}
}

func TestFontFindPresetMatchesBankAndProgram(t *testing.T) {
	p0 := &Preset{Name: "Piano", Bank: 0, Program: 0}
	p1 := &Preset{Name: "Strings", Bank: 0, Program: 48}
	f := &Font{Name: "test.sf2", Presets: []*Preset{p0, p1}}

	if got := f.FindPreset(0, 0); got != p0 {
		t.Errorf("FindPreset(0, 0) = %v, want %v", got, p0)
	}
	if got := f.FindPreset(0, 48); got != p1 {
		t.Errorf("FindPreset(0, 48) = %v, want %v", got, p1)
	}
	if got := f.FindPreset(0, 99); got != nil {
		t.Errorf("FindPreset(0, 99) = %v, want nil", got)
	}
}

func TestFontFindPresetSubtractsBankOffset(t *testing.T) {
	p := &Preset{Name: "Offset preset", Bank: 0, Program: 0}
	f := &Font{Name: "test.sf2", BankOffset: 1, Presets: []*Preset{p}}

	if got := f.FindPreset(1, 0); got != p {
		t.Errorf("FindPreset(1, 0) with BankOffset 1 = %v, want %v", got, p)
	}
	// A bank below the offset must not underflow; it's treated as bank 0 too.
	if got := f.FindPreset(0, 0); got != p {
		t.Errorf("FindPreset(0, 0) with BankOffset 1 = %v, want %v", got, p)
	}
}

func TestStackSearchesTopToBottom(t *testing.T) {
	s := &Stack{}
	bottom := &Font{ID: 1, Name: "bottom", Presets: []*Preset{{Name: "bottom preset", Bank: 0, Program: 0}}}
	top := &Font{ID: 2, Name: "top", Presets: []*Preset{{Name: "top preset", Bank: 0, Program: 0}}}

	s.Add(bottom)
	s.Add(top)

	p, f := s.FindPreset(0, 0)
	if f != top || p.Name != "top preset" {
		t.Errorf("FindPreset found preset %q from font %q, want top preset from top font", p.Name, f.Name)
	}
}

func TestStackRemove(t *testing.T) {
	s := &Stack{}
	f := &Font{ID: 7, Name: "removable"}
	s.Add(f)

	if ok := s.Remove(7); !ok {
		t.Fatalf("Remove(7) = false, want true")
	}
	if ok := s.Remove(7); ok {
		t.Errorf("Remove(7) a second time = true, want false (already removed)")
	}
	if p, fnd := s.FindPreset(0, 0); p != nil || fnd != nil {
		t.Errorf("FindPreset after removing the only font = (%v, %v), want (nil, nil)", p, fnd)
	}
}

func TestStackFindPresetFallsThroughWhenTopLacksProgram(t *testing.T) {
	s := &Stack{}
	bottom := &Font{ID: 1, Name: "bottom", Presets: []*Preset{{Name: "fallback", Bank: 0, Program: 5}}}
	top := &Font{ID: 2, Name: "top", Presets: []*Preset{{Name: "top preset", Bank: 0, Program: 0}}}
	s.Add(bottom)
	s.Add(top)

	p, f := s.FindPreset(0, 5)
	if f != bottom || p.Name != "fallback" {
		t.Errorf("FindPreset(0, 5) = (%v, %v), want fallback preset from bottom font", p, f)
	}
}
