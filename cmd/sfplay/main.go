// Command sfplay is a minimal demo host for the synthesis engine: it
// synthesizes an in-memory demo SoundFont, plays a single note (--key)
// for --duration seconds, releases it, and streams the rendered audio to
// the default output device via oto.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"sftsynth/internal/config"
	"sftsynth/internal/debug"
	"sftsynth/internal/synth"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", config.Path(), "Path to a YAML configuration file.")
		sampleRate = pflag.IntP("sample-rate", "r", 44100, "Output sample rate in Hz.")
		gain       = pflag.Float64P("gain", "g", 0.2, "Master gain (0.0-10.0).")
		polyphony  = pflag.IntP("polyphony", "p", 256, "Maximum simultaneous voices.")
		duration   = pflag.Float64P("duration", "d", 3.0, "Seconds to play each note.")
		key        = pflag.Uint8P("key", "k", 69, "MIDI key number to play (0-127).")
		verbose    = pflag.BoolP("verbose", "v", false, "Log to stderr at debug level.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sfplay - plays a demo note through the synthesis engine.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: sfplay [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		cfg = config.Defaults()
	}
	cfg.SampleRate = float64(*sampleRate)
	cfg.Gain = *gain
	cfg.Polyphony = *polyphony
	cfg.Validate()

	log := debug.NewLogger(4096, os.Stderr)
	defer log.Shutdown()
	if *verbose {
		log.SetMinLevel(debug.LogLevelDebug)
		for _, c := range []debug.Component{debug.ComponentVoice, debug.ComponentPool, debug.ComponentZone, debug.ComponentChannel, debug.ComponentMixer, debug.ComponentSystem} {
			log.SetComponentEnabled(c, true)
		}
	}

	s := synth.New(cfg, log)

	font := buildDemoFont(uint32(cfg.SampleRate))
	if _, err := s.LoadSoundFont(font); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load soundfont: %v\n", err)
		os.Exit(1)
	}
	if err := s.ProgramChange(0, 0); err != nil {
		fmt.Fprintf(os.Stderr, "failed to select program: %v\n", err)
		os.Exit(1)
	}

	sink, err := newOtoSink(int(cfg.SampleRate))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open audio device: %v\n", err)
		os.Exit(1)
	}
	defer sink.close()
	sink.setup(s)
	sink.start()

	if err := s.NoteOn(0, *key, 100); err != nil {
		fmt.Fprintf(os.Stderr, "noteon failed: %v\n", err)
		os.Exit(1)
	}
	time.Sleep(time.Duration(*duration * float64(time.Second)))

	if err := s.NoteOff(0, *key); err != nil {
		fmt.Fprintf(os.Stderr, "noteoff failed: %v\n", err)
	}
	time.Sleep(1 * time.Second)
}
