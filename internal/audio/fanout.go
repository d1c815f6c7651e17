package audio

// ControlFanout broadcasts panel/MIDI parameter changes to every voice in
// a VoiceAllocator's pool, synchronously, under the allocator's lock so a
// strike/release racing a parameter change can never observe a half
// applied update.
type ControlFanout struct {
	allocator *VoiceAllocator
}

// NewControlFanout wires a fanout to the given allocator's voice pool.
func NewControlFanout(allocator *VoiceAllocator) *ControlFanout {
	return &ControlFanout{allocator: allocator}
}

// SetEnvelope applies an envelope shape to cell idx of every voice.
func (f *ControlFanout) SetEnvelope(idx int, p EnvelopeParameters) error {
	f.allocator.mu.Lock()
	defer f.allocator.mu.Unlock()

	for _, ch := range f.allocator.channels {
		if err := ch.SetEnvelope(idx, p); err != nil {
			return err
		}
	}
	return nil
}

// SetWaveform applies a waveform to cell idx of every voice.
func (f *ControlFanout) SetWaveform(idx int, w Waveform) error {
	f.allocator.mu.Lock()
	defer f.allocator.mu.Unlock()

	for _, ch := range f.allocator.channels {
		if err := ch.SetWaveform(idx, w); err != nil {
			return err
		}
	}
	return nil
}

// SetFMMode toggles FM mode on every voice.
func (f *ControlFanout) SetFMMode(fmMode bool) {
	f.allocator.mu.Lock()
	defer f.allocator.mu.Unlock()

	for _, ch := range f.allocator.channels {
		ch.SetFMMode(fmMode)
	}
}

// SetModulationIndex applies a modulation depth to every voice's carrier.
func (f *ControlFanout) SetModulationIndex(idx int) {
	f.allocator.mu.Lock()
	defer f.allocator.mu.Unlock()

	for _, ch := range f.allocator.channels {
		ch.SetModulationIndex(idx)
	}
}

// FMMode reports the FM mode of the first voice, which every voice shares
// since SetFMMode always broadcasts.
func (f *ControlFanout) FMMode() bool {
	f.allocator.mu.Lock()
	defer f.allocator.mu.Unlock()

	if len(f.allocator.channels) == 0 {
		return false
	}
	return f.allocator.channels[0].FMMode()
}

// ModulationIndex reports the modulation depth shared by every voice.
func (f *ControlFanout) ModulationIndex() int {
	f.allocator.mu.Lock()
	defer f.allocator.mu.Unlock()

	if len(f.allocator.channels) == 0 {
		return 0
	}
	return f.allocator.channels[0].ModulationIndex()
}

// Waveform reports the waveform of cell idx shared by every voice.
func (f *ControlFanout) Waveform(idx int) Waveform {
	f.allocator.mu.Lock()
	defer f.allocator.mu.Unlock()

	if len(f.allocator.channels) == 0 {
		return WaveOff
	}
	return f.allocator.channels[0].Waveform(idx)
}
