package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fmvoice/synthcore/internal/audio"
)

func TestDefaultConfigIsValidShape(t *testing.T) {
	cfg := Default()
	require.Equal(t, 44100, cfg.SampleRate)
	require.True(t, cfg.Envelope.Hold)
	require.Equal(t, "sine", cfg.Waveform[0])
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synth.toml")

	contents := `
voice_count = 8
fm_mode = false

[envelope]
attack_seconds = 0.02
decay_seconds = 0.05
release_seconds = 0.3
sustain_level = 0.7
hold = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.VoiceCount)
	require.False(t, cfg.FMMode)
	require.InDelta(t, 0.7, cfg.Envelope.SustainLevel, 0.001)
	// Fields absent from the file retain their default value.
	require.Equal(t, 44100, cfg.SampleRate)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

type fakeApplier struct {
	envelopes map[int]audio.EnvelopeParameters
	waveforms map[int]audio.Waveform
	fmMode    bool
	modIndex  int
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{
		envelopes: make(map[int]audio.EnvelopeParameters),
		waveforms: make(map[int]audio.Waveform),
	}
}

func (f *fakeApplier) SetEnvelope(idx int, p audio.EnvelopeParameters) error {
	f.envelopes[idx] = p
	return nil
}

func (f *fakeApplier) SetWaveform(idx int, w audio.Waveform) error {
	f.waveforms[idx] = w
	return nil
}

func (f *fakeApplier) SetFMMode(fmMode bool) { f.fmMode = fmMode }

func (f *fakeApplier) SetModulationIndex(idx int) { f.modIndex = idx }

func TestApplyPushesHotReloadableFieldsToBothCells(t *testing.T) {
	applier := newFakeApplier()
	cfg := Default()
	cfg.FMMode = false
	cfg.ModIndex = 7
	cfg.Waveform = [2]string{"sawtooth", "square"}

	require.NoError(t, Apply(applier, cfg))

	require.Len(t, applier.envelopes, 2)
	require.Equal(t, audio.WaveSawtooth, applier.waveforms[0])
	require.Equal(t, audio.WaveSquare, applier.waveforms[1])
	require.False(t, applier.fmMode)
	require.Equal(t, 7, applier.modIndex)
}
