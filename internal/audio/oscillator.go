package audio

import "math"

// oscillator emits a looped, block-wise stream built from one period of a
// waveform (or, in phase-ramp mode, one period of a bare phase ramp used
// downstream by a modulated Cell). The table is padded to at least one
// block in length by repeating the period, so a single Pull crosses the
// table boundary at most once, which is what keeps phase continuous across
// block calls.
type oscillator struct {
	sampleRate int
	blockSize  int

	table []float64
	idx   int
}

func newOscillator(sampleRate, blockSize int) *oscillator {
	return &oscillator{sampleRate: sampleRate, blockSize: blockSize}
}

// setWaveformTable builds a table that already has the waveform function
// applied — used for an unmodulated (no-modulator) Cell.
func (o *oscillator) setWaveformTable(frequency float64, w Waveform) {
	phase := onePeriodPhase(o.sampleRate, frequency)
	table := make([]float64, len(phase))
	for i, p := range phase {
		table[i] = applyWaveform(w, p)
	}
	o.table = repeatToAtLeast(table, o.blockSize)
	o.idx = 0
}

// setPhaseRampTable builds a table holding the raw phase ramp [0, 2π] for
// one period — used for a Cell that has a modulator, since the waveform
// function is applied downstream after summing in the modulator's output.
func (o *oscillator) setPhaseRampTable(frequency float64) {
	phase := onePeriodPhase(o.sampleRate, frequency)
	o.table = repeatToAtLeast(phase, o.blockSize)
	o.idx = 0
}

func (o *oscillator) pull() []float64 {
	out := make([]float64, o.blockSize)
	if len(o.table) == 0 {
		return out
	}

	n := copy(out, o.table[o.idx:])
	if n < o.blockSize {
		copy(out[n:], o.table[:o.blockSize-n])
		o.idx = o.blockSize - n
	} else {
		o.idx += o.blockSize
		if o.idx >= len(o.table) {
			o.idx -= len(o.table)
		}
	}
	return out
}

// onePeriodPhase returns floor(S/f) phase samples spanning [0, 2π].
func onePeriodPhase(sampleRate int, frequency float64) []float64 {
	if frequency <= 0 {
		return []float64{0}
	}
	length := int(float64(sampleRate) / frequency)
	if length < 1 {
		length = 1
	}
	if length == 1 {
		return []float64{0}
	}

	phase := make([]float64, length)
	step := 2 * math.Pi / float64(length-1)
	for i := range phase {
		phase[i] = step * float64(i)
	}
	return phase
}

// repeatToAtLeast repeats period until its length is >= min, preserving
// periodicity rather than truncating mid-cycle.
func repeatToAtLeast(period []float64, min int) []float64 {
	if len(period) == 0 {
		return period
	}
	out := append([]float64(nil), period...)
	for len(out) < min {
		out = append(out, period...)
	}
	return out
}

// applyWaveform evaluates waveform w at phase angle t ∈ [0, 2π).
func applyWaveform(w Waveform, t float64) float64 {
	switch w {
	case WaveSine:
		return math.Sin(t)
	case WaveSawtooth:
		return sawtooth(t)
	case WaveSquare:
		return square(t)
	default:
		return 0
	}
}

func sawtooth(t float64) float64 {
	t = math.Mod(t, 2*math.Pi)
	if t < 0 {
		t += 2 * math.Pi
	}
	return t/math.Pi - 1
}

func square(t float64) float64 {
	t = math.Mod(t, 2*math.Pi)
	if t < 0 {
		t += 2 * math.Pi
	}
	if t < math.Pi {
		return 1
	}
	return -1
}
