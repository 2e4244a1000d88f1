package main

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"sftsynth/internal/synth"
)

// otoSink adapts a *synth.Synth to oto's io.Reader-based player, pulling
// interleaved float32 stereo frames on demand the same way the donor's
// OtoPlayer pulls from its ring buffer: Read() is oto's audio callback, so
// it must never block on anything but the synth's own (lock-free) render
// path.
type otoSink struct {
	ctx    *oto.Context
	player *oto.Player

	s atomic.Pointer[synth.Synth]

	scratch []float32
	mu      sync.Mutex
	started bool
}

func newOtoSink(sampleRate int) (*otoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	return &otoSink{ctx: ctx}, nil
}

func (o *otoSink) setup(s *synth.Synth) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.s.Store(s)
	o.player = o.ctx.NewPlayer(o)
}

// Read implements io.Reader for oto: p holds len(p)/8 interleaved stereo
// float32 frames (4 bytes per sample, 2 channels).
func (o *otoSink) Read(p []byte) (int, error) {
	s := o.s.Load()
	if s == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numFloats := len(p) / 4
	if len(o.scratch) < numFloats {
		o.scratch = make([]float32, numFloats)
	}
	samples := o.scratch[:numFloats]
	s.WriteFloat32Interleaved(samples)

	for i, v := range samples {
		bits := math.Float32bits(v)
		p[4*i] = byte(bits)
		p[4*i+1] = byte(bits >> 8)
		p[4*i+2] = byte(bits >> 16)
		p[4*i+3] = byte(bits >> 24)
	}
	return len(p), nil
}

func (o *otoSink) start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
}

func (o *otoSink) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	o.started = false
}
