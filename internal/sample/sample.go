// Package sample implements the immutable, shared sample store (§4.1): the
// PCM data and loop metadata every voice reads from, loaded once and never
// mutated thereafter.
package sample

// Type tags the channel layout/role of a sample, mirroring the SF2 RIFF
// sfSampleType bitfield a binary SF2 reader would decode (see
// Alextopher-sf's hydra.go SfSampleType for the authentic chunk naming this
// mirrors).
type Type uint16

const (
	TypeMono   Type = 1
	TypeRight  Type = 2
	TypeLeft   Type = 4
	TypeLinked Type = 8
	TypeRomBit Type = 0x8000
)

// IsROM reports whether the sample is a ROM sample, which the zone selector
// must skip (§4.7 step "make sure this instrument zone has a valid
// sample").
func (t Type) IsROM() bool {
	return t&TypeRomBit != 0
}

// noiseFloorConstant is the reference noise-floor amplitude threshold used
// to compute Sample.AmplitudeThatReachesNoiseFloor (§4.1).
const noiseFloorConstant = 0.00003

// Sample is immutable once returned by New: its PCM buffer is shared by
// every voice that references it. A voice holds an owning share (a Go
// slice header referencing the same backing array), never a bare pointer,
// so the PCM outlives any single voice.
type Sample struct {
	Name string

	// Data is the full decoded 16-bit PCM buffer this sample's offsets
	// index into. Multiple samples (e.g. stereo left/right pairs) may
	// share one Data buffer pointing at different Start/End ranges.
	Data []int16

	Start, End           uint32
	LoopStart, LoopEnd   uint32

	OrigPitch uint8   // original MIDI key number
	PitchCorrection int8 // fine pitch adjustment in cents
	SampleRate uint32

	SampleType Type
	Valid      bool

	// AmplitudeThatReachesNoiseFloor is the cached early-termination
	// threshold computed from the loop region's peak magnitude (§4.1).
	AmplitudeThatReachesNoiseFloor float64
}

// New constructs a Sample and computes its validity flag and cached
// noise-floor amplitude (§4.1). A sample with fewer than 8 frames between
// start and end is flagged invalid and never plays.
func New(name string, data []int16, start, end, loopStart, loopEnd uint32, origPitch uint8, pitchCorrection int8, sampleRate uint32, sampleType Type) *Sample {
	s := &Sample{
		Name:            name,
		Data:            data,
		Start:           start,
		End:             end,
		LoopStart:       loopStart,
		LoopEnd:         loopEnd,
		OrigPitch:       origPitch,
		PitchCorrection: pitchCorrection,
		SampleRate:      sampleRate,
		SampleType:      sampleType,
	}

	if end < start || end-start < 8 {
		s.Valid = false
		return s
	}
	s.Valid = true
	s.AmplitudeThatReachesNoiseFloor = computeNoiseFloorAmplitude(data, loopStart, loopEnd)
	return s
}

// IsValid reports whether the sample has usable PCM data (§4.1). Part of
// soundfont.SampleRef.
func (s *Sample) IsValid() bool { return s.Valid }

// IsROM reports whether the sample is a ROM sample, which the zone
// selector must skip. Part of soundfont.SampleRef.
func (s *Sample) IsROM() bool { return s.SampleType.IsROM() }

// computeNoiseFloorAmplitude scans the loop region for its peak magnitude p
// (treating 0 as 1 to avoid division by zero) and returns
// 0.00003 / (p/32768), per §4.1.
func computeNoiseFloorAmplitude(data []int16, loopStart, loopEnd uint32) float64 {
	var peak int32 = 1
	lo, hi := loopStart, loopEnd
	if hi > uint32(len(data)) {
		hi = uint32(len(data))
	}
	for i := lo; i < hi; i++ {
		v := int32(data[i])
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return noiseFloorConstant / (float64(peak) / 32768.0)
}
