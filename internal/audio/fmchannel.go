package audio

import "fmt"

// cellCount is the fixed number of operators per voice: cells[0] is always
// the carrier, cells[1] is always the (optional) modulator.
const cellCount = 2

// FMChannel is a fixed two-operator FM voice. cells[0] is the carrier;
// cells[1] is its modulator iff FM mode is enabled, otherwise the two
// cells are simply averaged.
type FMChannel struct {
	id int

	cells      [cellCount]*Cell
	cellActive [cellCount]bool
	fmMode     bool

	blockSize int

	done doneSignal
}

// NewFMChannel builds a voice with both cells wired and FM mode on.
func NewFMChannel(id, sampleRate, blockSize int, doneCB DoneFunc) *FMChannel {
	fc := &FMChannel{id: id, blockSize: blockSize, done: newDoneSignal(id, doneCB)}

	for i := 0; i < cellCount; i++ {
		idx := i
		fc.cells[i] = NewCell(i, sampleRate, blockSize, func(int) { fc.cellDone(idx) })
		fc.cellActive[i] = true
	}

	fc.SetFMMode(true)
	return fc
}

func (fc *FMChannel) cellDone(idx int) {
	fc.cellActive[idx] = false
	for _, active := range fc.cellActive {
		if active {
			return
		}
	}
	fc.done.fire()
}

// SetEnvelope assigns the envelope shape of cell idx (0=carrier, 1=modulator).
func (fc *FMChannel) SetEnvelope(idx int, p EnvelopeParameters) error {
	if idx < 0 || idx >= cellCount {
		return fmt.Errorf("%w: cell %d", ErrChannelIndex, idx)
	}
	return fc.cells[idx].SetEnvelope(p)
}

// SetWaveform assigns the waveform of cell idx.
func (fc *FMChannel) SetWaveform(idx int, w Waveform) error {
	if idx < 0 || idx >= cellCount {
		return fmt.Errorf("%w: cell %d", ErrChannelIndex, idx)
	}
	fc.cells[idx].SetWaveform(w)
	return nil
}

// Waveform returns the waveform of cell idx (0=carrier, 1=modulator).
func (fc *FMChannel) Waveform(idx int) Waveform {
	if idx < 0 || idx >= cellCount {
		return WaveOff
	}
	return fc.cells[idx].Waveform()
}

// SetFrequency sets both cells to the same fundamental. Frequency-ratio
// variation between carrier and modulator is a documented future extension.
func (fc *FMChannel) SetFrequency(f float64) {
	for _, c := range fc.cells {
		c.SetFrequency(f)
	}
}

// SetModulationIndex sets the carrier's modulation depth.
func (fc *FMChannel) SetModulationIndex(idx int) {
	fc.cells[0].SetModulationIndex(idx)
}

// ModulationIndex returns the carrier's modulation depth.
func (fc *FMChannel) ModulationIndex() int {
	return fc.cells[0].ModulationIndex()
}

// SetFMMode toggles whether cells[1] modulates cells[0]'s phase, or the two
// cells are simply averaged.
func (fc *FMChannel) SetFMMode(fmMode bool) {
	fc.fmMode = fmMode
	if fmMode {
		fc.cells[0].SetModulator(fc.cells[1])
	} else {
		fc.cells[0].SetModulator(nil)
	}
}

// FMMode reports whether FM mode is currently active.
func (fc *FMChannel) FMMode() bool {
	return fc.fmMode
}

// Strike, Release, Tunedown broadcast to both cells.
func (fc *FMChannel) Strike() {
	for _, c := range fc.cells {
		c.Strike()
	}
}

func (fc *FMChannel) Release() {
	for _, c := range fc.cells {
		c.Release()
	}
}

func (fc *FMChannel) Tunedown() {
	for _, c := range fc.cells {
		c.Tunedown()
	}
}

// IsDone reports whether both cells' envelopes have reached DONE.
func (fc *FMChannel) IsDone() bool {
	return fc.cells[0].IsDone() && fc.cells[1].IsDone()
}

// Pull implements WaveSource. FM on: the carrier's own Pull already folds
// in the modulator internally. FM off: the arithmetic mean of both cells.
func (fc *FMChannel) Pull() []float64 {
	carrier := fc.cells[0].Pull()

	if fc.fmMode {
		return carrier
	}

	modulator := fc.cells[1].Pull()
	out := make([]float64, fc.blockSize)
	for i := range out {
		out[i] = (carrier[i] + modulator[i]) / 2
	}
	return out
}
