// Package mixer implements the per-block audio driver (§4.8 Mixer/block
// driver): it owns the per-audio-group stereo buffers and the reverb/chorus
// aux buffers, renders one 64-frame block at a time through the voice pool,
// and converts the result to whatever sample format a caller's write() asks
// for.
package mixer

import (
	"math"
	"math/rand"

	"sftsynth/internal/debug"
	"sftsynth/internal/voice"
	"sftsynth/internal/voicepool"
)

// Effect is the external collaborator a reverb or chorus implementation
// satisfies. This package only owns the aux buffers and the plumbing to
// push them through an Effect each block; the DSP itself is out of scope
// (§1 Out of scope).
type Effect interface {
	// Process renders one block's worth of aux-bus input into a stereo
	// pair of the same length.
	Process(in []float32) (outL, outR []float32)
}

// PassThrough is a no-op Effect: it copies the aux signal to both output
// channels unchanged. It exists so a Mixer can be built and exercised
// (including with reverb_active/chorus_active both true) without requiring
// a real reverb/chorus implementation, matching this spec's decision to
// leave the actual effect DSP external (§1, §4.8).
type PassThrough struct{}

func (PassThrough) Process(in []float32) (outL, outR []float32) {
	return in, in
}

// Mixer drives one 64-frame block at a time (§4.8).
type Mixer struct {
	pool               *voicepool.Pool
	groups             int
	minNoteLengthTicks uint32

	reverb        Effect
	chorus        Effect
	reverbActive  bool
	chorusActive  bool

	leftBuf, rightBuf [][voice.BlockSize]float32
	fx                voice.FxBuf

	ticks uint32
	cur   int

	ditherIndex int
	log         *debug.Logger
}

// ditherTable is a precomputed triangular-PDF dither table for the two
// stereo channels, generated once at startup like the reference's
// RAND_TABLE rather than calling into a PRNG per sample on the render path.
var ditherTable = func() [2][48000]float32 {
	var t [2][48000]float32
	rng := rand.New(rand.NewSource(1))
	for ch := 0; ch < 2; ch++ {
		for i := range t[ch] {
			t[ch][i] = float32(rng.Float64() + rng.Float64() - 1.0)
		}
	}
	return t
}()

// New creates a mixer driving pool, with groups audio-group buffer pairs
// and the given reverb/chorus collaborators (§4.8, §2.2 DOMAIN STACK
// effects wiring point). Passing PassThrough{} for an effect keeps the
// aux-bus plumbing exercised without any effect DSP: while that bus is
// active, its unprocessed send signal is mixed into group 0's output.
func New(pool *voicepool.Pool, groups int, reverb, chorus Effect, reverbActive, chorusActive bool, minNoteLengthTicks uint32, log *debug.Logger) *Mixer {
	if groups < 1 {
		groups = 1
	}
	m := &Mixer{
		pool:               pool,
		groups:             groups,
		minNoteLengthTicks: minNoteLengthTicks,
		reverb:             reverb,
		chorus:             chorus,
		reverbActive:       reverbActive,
		chorusActive:       chorusActive,
		cur:                voice.BlockSize,
		log:                log,
	}
	m.leftBuf = make([][voice.BlockSize]float32, groups)
	m.rightBuf = make([][voice.BlockSize]float32, groups)
	return m
}

// SetEffectsActive toggles the reverb/chorus aux busses (§6 Configuration
// "reverb_active"/"chorus_active").
func (m *Mixer) SetEffectsActive(reverbActive, chorusActive bool) {
	m.reverbActive = reverbActive
	m.chorusActive = chorusActive
}

// SetGroups changes the audio-group count, reallocating the per-group
// buffers and discarding any partially rendered block.
func (m *Mixer) SetGroups(groups int) {
	if groups < 1 {
		groups = 1
	}
	m.groups = groups
	m.leftBuf = make([][voice.BlockSize]float32, groups)
	m.rightBuf = make([][voice.BlockSize]float32, groups)
	m.cur = voice.BlockSize
}

// Ticks returns the running sample-tick clock, advanced by one block size
// each time block() fires.
func (m *Mixer) Ticks() uint32 { return m.ticks }

// block renders one 64-frame block (§4.8 "one_block"): zero every buffer,
// fan every playing voice's output into its channel-group's stereo pair
// and the active aux buffers, push the aux buffers through the reverb and
// chorus effects and mix the result into group 0, then advance the tick
// counter.
func (m *Mixer) block() {
	for g := range m.leftBuf {
		m.leftBuf[g] = [voice.BlockSize]float32{}
		m.rightBuf[g] = [voice.BlockSize]float32{}
	}
	m.fx.Reverb = [voice.BlockSize]float32{}
	m.fx.Chorus = [voice.BlockSize]float32{}

	m.pool.WriteVoices(m.minNoteLengthTicks, m.groups, m.leftBuf, m.rightBuf, &m.fx, m.reverbActive, m.chorusActive)

	if m.reverbActive {
		outL, outR := m.reverb.Process(m.fx.Reverb[:])
		mixInto(m.leftBuf[0][:], outL)
		mixInto(m.rightBuf[0][:], outR)
	}
	if m.chorusActive {
		outL, outR := m.chorus.Process(m.fx.Chorus[:])
		mixInto(m.leftBuf[0][:], outL)
		mixInto(m.rightBuf[0][:], outR)
	}

	m.ticks += voice.BlockSize
	if m.log != nil {
		m.log.LogMixer(debug.LogLevelTrace, "block rendered", map[string]interface{}{"ticks": m.ticks})
	}
}

func mixInto(dst []float32, src []float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// advance drains n frames from group 0's stereo pair, rendering fresh
// blocks as needed, and hands each frame to emit.
func (m *Mixer) advance(n int, emit func(i int, l, r float32)) {
	for i := 0; i < n; i++ {
		if m.cur == voice.BlockSize {
			m.block()
			m.cur = 0
		}
		emit(i, m.leftBuf[0][m.cur], m.rightBuf[0][m.cur])
		m.cur++
	}
}

// WriteFloat32 writes n = min(len(left), len(right)) frames of de-interleaved
// stereo float32 output (§6 "audio output write(samples), dual-mono [f32]").
func (m *Mixer) WriteFloat32(left, right []float32) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	m.advance(n, func(i int, l, r float32) { left[i] = l; right[i] = r })
}

// WriteFloat32Interleaved writes interleaved stereo float32 output
// (§6 "... interleaved ... [f32]").
func (m *Mixer) WriteFloat32Interleaved(out []float32) {
	n := len(out) / 2
	m.advance(n, func(i int, l, r float32) { out[2*i] = l; out[2*i+1] = r })
}

// WriteFloat64 writes de-interleaved stereo float64 output (§6 "[f64]").
func (m *Mixer) WriteFloat64(left, right []float64) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	m.advance(n, func(i int, l, r float32) { left[i] = float64(l); right[i] = float64(r) })
}

// WriteFloat64Interleaved writes interleaved stereo float64 output.
func (m *Mixer) WriteFloat64Interleaved(out []float64) {
	n := len(out) / 2
	m.advance(n, func(i int, l, r float32) { out[2*i] = float64(l); out[2*i+1] = float64(r) })
}

// WriteInt16 writes de-interleaved stereo 16-bit output, applying a
// triangular dither and clamping exactly as the reference's write_s16 does
// (§6 "[i16]").
func (m *Mixer) WriteInt16(left, right []int16) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	m.advance(n, func(i int, l, r float32) {
		left[i] = m.ditherSample(0, l)
		right[i] = m.ditherSample(1, r)
	})
}

// WriteInt16Interleaved writes interleaved stereo 16-bit output.
func (m *Mixer) WriteInt16Interleaved(out []int16) {
	n := len(out) / 2
	m.advance(n, func(i int, l, r float32) {
		out[2*i] = m.ditherSample(0, l)
		out[2*i+1] = m.ditherSample(1, r)
	})
}

// ditherSample converts one float32 sample in channel ch to a dithered,
// clamped int16, advancing the shared dither index after both channels of
// a frame have drawn from it (matching the reference, which advances once
// per stereo frame rather than once per channel).
func (m *Mixer) ditherSample(ch int, x float32) int16 {
	v := roundi(x*32766.0 + ditherTable[ch][m.ditherIndex])
	if ch == 1 {
		m.ditherIndex++
		if m.ditherIndex >= len(ditherTable[0]) {
			m.ditherIndex = 0
		}
	}
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}

func roundi(x float32) int32 {
	if x >= 0 {
		return int32(math.Floor(float64(x) + 0.5))
	}
	return int32(math.Ceil(float64(x) - 0.5))
}
