package audio

// Cell is one FM operator: an oscillator plus its own envelope, optionally
// phase-modulated by another Cell (its "modulator"). The modulator
// reference is non-owning and never crosses voice boundaries — it always
// points at the sibling Cell of the same FMChannel.
type Cell struct {
	id int

	sampleRate int
	blockSize  int

	waveform  Waveform
	frequency float64
	modIndex  int

	modulator *Cell

	osc      *oscillator
	envelope *EnvelopeGenerator

	done doneSignal
}

// NewCell constructs an operator with no assigned frequency/waveform yet;
// SetFrequency and SetWaveform must be called before the first strike.
func NewCell(id, sampleRate, blockSize int, doneCB DoneFunc) *Cell {
	c := &Cell{
		id:         id,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		modIndex:   1,
		osc:        newOscillator(sampleRate, blockSize),
		done:       newDoneSignal(id, doneCB),
	}
	c.envelope = NewEnvelopeGenerator(id, sampleRate, blockSize, nil, c.envelopeDone)
	return c
}

func (c *Cell) envelopeDone(int) {
	c.done.fire()
}

// SetEnvelope replaces this operator's ADSR shape.
func (c *Cell) SetEnvelope(p EnvelopeParameters) error {
	return c.envelope.SetParameters(p)
}

// SetFrequency assigns the operator's fundamental and rebuilds its
// oscillator table (waveform table if unmodulated, phase-ramp table if it
// has a modulator).
func (c *Cell) SetFrequency(f float64) {
	c.frequency = f
	c.rebuildTable()
}

// SetWaveform assigns the operator's waveform shape and rebuilds its
// oscillator table (the waveform table if unmodulated, the phase-ramp
// table if it has a modulator).
func (c *Cell) SetWaveform(w Waveform) {
	c.waveform = w
	c.rebuildTable()
}

// Waveform returns the operator's current waveform.
func (c *Cell) Waveform() Waveform {
	return c.waveform
}

// SetModulator installs (or clears, with nil) the Cell that phase-modulates
// this one, and rebuilds the oscillator table accordingly.
func (c *Cell) SetModulator(m *Cell) {
	c.modulator = m
	c.rebuildTable()
}

// SetModulationIndex sets the modulation depth applied to the modulator's
// output before it is summed into this cell's phase.
func (c *Cell) SetModulationIndex(idx int) {
	if idx < 0 {
		idx = 0
	}
	if idx > 15 {
		idx = 15
	}
	c.modIndex = idx
}

// ModulationIndex returns the current modulation depth.
func (c *Cell) ModulationIndex() int {
	return c.modIndex
}

func (c *Cell) rebuildTable() {
	if c.frequency <= 0 {
		return
	}
	if c.modulator != nil {
		c.osc.setPhaseRampTable(c.frequency)
	} else {
		c.osc.setWaveformTable(c.frequency, c.waveform)
	}
}

// Strike, Release, Tunedown, Stop delegate to the envelope.
func (c *Cell) Strike()   { c.envelope.Strike() }
func (c *Cell) Release()  { c.envelope.Release() }
func (c *Cell) Tunedown() { c.envelope.Tunedown() }
func (c *Cell) Stop()     { c.envelope.Stop() }

// IsDone reports whether this operator's envelope has reached DONE.
func (c *Cell) IsDone() bool {
	return c.envelope.IsDone()
}

// Pull implements WaveSource. Unmodulated, it emits oscillator·envelope.
// Modulated, it emits waveform_fn(phase_ramp + modIndex·modulator_output)·envelope.
func (c *Cell) Pull() []float64 {
	envAmp := c.envelope.Pull()

	if c.frequency <= 0 {
		return zeroBlock(c.blockSize)
	}

	var wave []float64
	if c.modulator == nil {
		wave = c.osc.pull()
	} else {
		phase := c.osc.pull()
		mod := c.modulator.Pull()
		wave = make([]float64, c.blockSize)
		for i := range wave {
			wave[i] = applyWaveform(c.waveform, phase[i]+float64(c.modIndex)*mod[i])
		}
	}

	out := make([]float64, c.blockSize)
	for i := range out {
		out[i] = wave[i] * envAmp[i]
	}
	return out
}
