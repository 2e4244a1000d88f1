// Package tuning implements the optional per-channel key-to-cents mapping
// (§4.3): a tuning is a 128-entry pitch table in cents, addressable by
// (bank, program) and attachable to a channel.
package tuning

// Tuning is a 128-key pitch table in cents. A channel with no Tuning
// attached uses equal temperament (100 cents per key); see the voice
// package's calculateRuntimeSynthesisParameters.
type Tuning struct {
	Name  string
	Bank  uint32
	Prog  uint32
	Pitch [128]float64
}

// New creates a tuning initialized to the well-tempered (equal-temperament)
// scale, matching the reference's "pitches is NULL" default (§4.3).
func New(name string, bank, prog uint32) *Tuning {
	t := &Tuning{Name: name, Bank: bank, Prog: prog}
	for k := range t.Pitch {
		t.Pitch[k] = 100.0 * float64(k)
	}
	return t
}

// SetAll replaces every key's pitch with an absolute-cents table.
func (t *Tuning) SetAll(pitch [128]float64) {
	t.Pitch = pitch
}

// SetOctave applies a 12-entry per-octave cents deviation from
// equal-temperament to every key (e.g. pitch[0] == -33 tunes every C key 33
// cents flat of well-tempered C).
func (t *Tuning) SetOctave(pitch [12]float64) {
	for k := range t.Pitch {
		t.Pitch[k] = 100.0*float64(k) + pitch[k%12]
	}
}

// SetPitch sets a single key's absolute pitch in cents.
func (t *Tuning) SetPitch(key uint32, cents float64) {
	if key < 128 {
		t.Pitch[key] = cents
	}
}

// Table is the (bank, program)-indexed store of tunings a Synth owns
// (§4.3, §9's select_tuning/create_tuning family).
type Table struct {
	tunings [128][128]*Tuning
}

// Get returns the tuning at (bank, prog), or nil if none exists or the
// indices are out of range.
func (t *Table) Get(bank, prog uint32) *Tuning {
	if bank >= 128 || prog >= 128 {
		return nil
	}
	return t.tunings[bank][prog]
}

// GetOrCreate returns the tuning at (bank, prog), creating a new
// well-tempered one named name if none exists yet. Returns nil if the
// indices are out of range.
func (t *Table) GetOrCreate(bank, prog uint32, name string) *Tuning {
	if bank >= 128 || prog >= 128 {
		return nil
	}
	if t.tunings[bank][prog] == nil {
		t.tunings[bank][prog] = New(name, bank, prog)
	} else {
		t.tunings[bank][prog].Name = name
	}
	return t.tunings[bank][prog]
}
