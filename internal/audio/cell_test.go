package audio

import (
	"math"
	"testing"
)

func newTestCell(t *testing.T) *Cell {
	t.Helper()
	c := NewCell(0, 44100, 64, nil)
	if err := c.SetEnvelope(EnvelopeParameters{
		AttackSeconds: 0.0001, DecaySeconds: 0.0001, ReleaseSeconds: 0.01,
		SustainLevel: 1, Hold: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestCellSilentWithoutFrequency(t *testing.T) {
	c := newTestCell(t)
	c.SetWaveform(WaveSine)
	c.Strike()

	block := c.Pull()
	for i, v := range block {
		if v != 0 {
			t.Fatalf("sample %d: expected silence without a frequency, got %v", i, v)
		}
	}
}

func TestCellUnmodulatedProducesNonzeroOutput(t *testing.T) {
	c := newTestCell(t)
	c.SetWaveform(WaveSine)
	c.SetFrequency(440)
	c.Strike()

	for i := 0; i < 5; i++ {
		c.Pull()
	}

	block := c.Pull()
	nonzero := false
	for _, v := range block {
		if v != 0 {
			nonzero = true
			break
		}
	}
	if !nonzero {
		t.Error("expected nonzero output once the envelope reaches sustain")
	}
}

func TestCellModulationIndexClamped(t *testing.T) {
	c := newTestCell(t)
	c.SetModulationIndex(100)
	if got := c.ModulationIndex(); got != 15 {
		t.Errorf("expected modulation index clamped to 15, got %d", got)
	}

	c.SetModulationIndex(-5)
	if got := c.ModulationIndex(); got != 0 {
		t.Errorf("expected modulation index clamped to 0, got %d", got)
	}
}

func TestCellWithModulatorPullsFullBlock(t *testing.T) {
	carrier := newTestCell(t)
	modulator := newTestCell(t)

	modulator.SetFrequency(110)
	modulator.SetWaveform(WaveSine)
	modulator.Strike()

	carrier.SetWaveform(WaveSine)
	carrier.SetFrequency(440)
	carrier.SetModulator(modulator)
	carrier.Strike()

	block := carrier.Pull()
	if len(block) != 64 {
		t.Fatalf("expected 64 samples, got %d", len(block))
	}
}

// flatSustainEnvelope reaches an exact, flat 1.0 amplitude on the third
// Pull after Strike: the first Pull emits silence while the strike moves
// the envelope from INIT to ATTACK, the second emits the single attack
// sample (0), and the third the single decay sample (1.0); sustain then
// holds the previous block's last amplitude, 1.0. blockSize=1 makes
// the reasoning exact and keeps the oscillator's per-sample advance
// small enough that table quantization stays negligible.
func flatSustainEnvelope(sampleRate int) EnvelopeParameters {
	return EnvelopeParameters{
		AttackSeconds: 0.5 / float64(sampleRate),
		DecaySeconds:  0.5 / float64(sampleRate),
		SustainLevel:  1,
		Hold:          true,
	}
}

// TestCellFMOnMatchesModulationFormula is the numeric S4 scenario: a
// SINE@440 carrier phase-modulated by a SINE@660 modulator at index 3
// must equal sin(2*pi*440*n/S + 3*sin(2*pi*660*n/S)) once both
// envelopes sit flat at their sustain level.
func TestCellFMOnMatchesModulationFormula(t *testing.T) {
	const sampleRate = 44100
	const blockSize = 1

	modulator := NewCell(1, sampleRate, blockSize, nil)
	if err := modulator.SetEnvelope(flatSustainEnvelope(sampleRate)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	modulator.SetWaveform(WaveSine)
	modulator.SetFrequency(660)
	modulator.Strike()

	carrier := NewCell(0, sampleRate, blockSize, nil)
	if err := carrier.SetEnvelope(flatSustainEnvelope(sampleRate)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	carrier.SetWaveform(WaveSine)
	carrier.SetFrequency(440)
	carrier.SetModulator(modulator)
	carrier.SetModulationIndex(3)
	carrier.Strike()

	for i := 0; i < 4; i++ {
		carrier.Pull()
	}
	got := carrier.Pull()[0]

	// n is the absolute sample index reached by now: 4 prior Pulls plus
	// this one, each advancing the oscillator by one sample.
	const n = 4.0
	modSine := math.Sin(2 * math.Pi * 660 * n / sampleRate)
	want := math.Sin(2*math.Pi*440*n/sampleRate + 3*modSine)

	// onePeriodPhase quantizes each operator's period to floor(S/f)
	// table entries, so the realized per-sample phase step differs
	// slightly from the ideal continuous one; the tolerance absorbs
	// that quantization rather than the FM composition itself.
	if diff := math.Abs(got - want); diff > 0.05 {
		t.Errorf("FM-on sample %d: got %v, want %v (diff %v)", int(n), got, want, diff)
	}
}

// TestCellFMOffMatchesAverageFormula is S4's FM-off half: two
// independent, unmodulated cells average to 0.5*(sin_440+sin_660) once
// both envelopes are flat.
func TestCellFMOffMatchesAverageFormula(t *testing.T) {
	const sampleRate = 44100
	const blockSize = 1

	cell0 := NewCell(0, sampleRate, blockSize, nil)
	if err := cell0.SetEnvelope(flatSustainEnvelope(sampleRate)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cell0.SetWaveform(WaveSine)
	cell0.SetFrequency(440)
	cell0.Strike()

	cell1 := NewCell(1, sampleRate, blockSize, nil)
	if err := cell1.SetEnvelope(flatSustainEnvelope(sampleRate)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cell1.SetWaveform(WaveSine)
	cell1.SetFrequency(660)
	cell1.Strike()

	var out0, out1 float64
	for i := 0; i < 5; i++ {
		out0 = cell0.Pull()[0]
		out1 = cell1.Pull()[0]
	}
	got := 0.5 * (out0 + out1)

	const n = 4.0
	want := 0.5 * (math.Sin(2*math.Pi*440*n/sampleRate) + math.Sin(2*math.Pi*660*n/sampleRate))

	if diff := math.Abs(got - want); diff > 0.02 {
		t.Errorf("FM-off sample %d: got %v, want %v (diff %v)", int(n), got, want, diff)
	}
}
