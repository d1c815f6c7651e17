// Package config loads the synth's TOML configuration file and watches
// it for changes, pushing the hot-reloadable subset of parameters back
// out through a supplied apply callback.
package config

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/fmvoice/synthcore/internal/audio"
)

// EnvelopeConfig mirrors audio.EnvelopeParameters in TOML-friendly field
// names.
type EnvelopeConfig struct {
	AttackSeconds  float64 `toml:"attack_seconds"`
	DecaySeconds   float64 `toml:"decay_seconds"`
	ReleaseSeconds float64 `toml:"release_seconds"`
	SustainLevel   float64 `toml:"sustain_level"`
	Hold           bool    `toml:"hold"`
}

func (e EnvelopeConfig) toParameters() audio.EnvelopeParameters {
	return audio.EnvelopeParameters{
		AttackSeconds:  e.AttackSeconds,
		DecaySeconds:   e.DecaySeconds,
		ReleaseSeconds: e.ReleaseSeconds,
		SustainLevel:   e.SustainLevel,
		Hold:           e.Hold,
	}
}

// SynthConfig is the full on-disk shape of the configuration file.
// SampleRate, BlockSize, and VoiceCount are read once at startup;
// Envelope, Waveform, FMMode, and ModIndex are re-applied on every
// subsequent reload.
type SynthConfig struct {
	SampleRate int            `toml:"sample_rate"`
	BlockSize  int            `toml:"block_size"`
	VoiceCount int            `toml:"voice_count"`
	Envelope   EnvelopeConfig `toml:"envelope"`
	Waveform   [2]string      `toml:"waveform"`
	FMMode     bool           `toml:"fm_mode"`
	ModIndex   int            `toml:"mod_index"`
}

// Default returns the configuration the synth starts with if no file is
// supplied, matching the hull curve and wave defaults the panel controls
// themselves seed.
func Default() SynthConfig {
	return SynthConfig{
		SampleRate: 44100,
		BlockSize:  441,
		VoiceCount: 6,
		Envelope: EnvelopeConfig{
			AttackSeconds:  0.05,
			DecaySeconds:   0.10,
			ReleaseSeconds: 0.25,
			SustainLevel:   0.90,
			Hold:           true,
		},
		Waveform: [2]string{"sine", "sine"},
		FMMode:   true,
		ModIndex: 0,
	}
}

// Load decodes a TOML configuration file at path.
func Load(path string) (SynthConfig, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return SynthConfig{}, fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	return cfg, nil
}

// Applier receives the hot-reloadable subset of a SynthConfig.
type Applier interface {
	SetEnvelope(idx int, p audio.EnvelopeParameters) error
	SetWaveform(idx int, w audio.Waveform) error
	SetFMMode(fmMode bool)
	SetModulationIndex(idx int)
}

// Apply pushes cfg's hot-reloadable fields through a ControlFanout (or
// any other Applier).
func Apply(a Applier, cfg SynthConfig) error {
	params := cfg.Envelope.toParameters()
	for idx := range cfg.Waveform {
		if err := a.SetEnvelope(idx, params); err != nil {
			return err
		}
		if err := a.SetWaveform(idx, audio.ParseWaveform(cfg.Waveform[idx])); err != nil {
			return err
		}
	}
	a.SetFMMode(cfg.FMMode)
	a.SetModulationIndex(cfg.ModIndex)
	return nil
}

// Watcher reloads a configuration file whenever fsnotify reports it has
// changed, applying the result through Apply.
type Watcher struct {
	path    string
	applier Applier

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewWatcher builds (but does not start) a watcher for path.
func NewWatcher(path string, applier Applier) *Watcher {
	return &Watcher{path: path, applier: applier}
}

// Start begins watching the configuration file and returns a stop
// function. Errors from individual reloads are sent to onError rather
// than stopping the watch loop.
func (w *Watcher) Start(onError func(error)) (stop func(), err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to start watcher: %w", err)
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: failed to watch %s: %w", w.path, err)
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(w.path)
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				if err := Apply(w.applier, cfg); err != nil && onError != nil {
					onError(err)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(fmt.Errorf("config: watch error: %w", err))
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		fw.Close()
	}, nil
}
