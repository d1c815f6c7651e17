package midi

import (
	"math"

	"github.com/fmvoice/synthcore/internal/audio"
)

// HullCurveControls maps knobs 4..7 to an EnvelopeParameters shape and
// invokes a callback whenever any of them changes. Attack/decay/release
// knobs use a logarithmic response curve so fine adjustment is available
// at short times; the sustain knob is linear.
type HullCurveControls struct {
	kp *KnobPanel

	attack  float64
	decay   float64
	release float64
	sustain float64

	knobMap [128]float64

	onChange func(audio.EnvelopeParameters)
}

// NewHullCurveControls registers itself against kp and seeds the default
// hull curve: 50ms attack, 100ms decay, 250ms release, 90% sustain.
func NewHullCurveControls(kp *KnobPanel, onChange func(audio.EnvelopeParameters)) *HullCurveControls {
	hc := &HullCurveControls{
		kp:       kp,
		attack:   0.05,
		decay:    0.10,
		release:  0.25,
		sustain:  0.90,
		onChange: onChange,
	}
	for i := range hc.knobMap {
		t := 1.7 * float64(i) / 127
		hc.knobMap[i] = (math.Pow(10, t) - 1) / 9
	}

	kp.AddKnobValueListener(hc)

	kp.SetTargetValue(4, 12)  // attack
	kp.SetTargetValue(5, 21)  // decay
	kp.SetTargetValue(6, 115) // sustain
	kp.SetTargetValue(7, 39)  // release

	hc.publish()
	return hc
}

// KnobValueChanged implements KnobValueListener.
func (hc *HullCurveControls) KnobValueChanged(idx int, value uint8) {
	switch idx {
	case 4:
		hc.attack = hc.knobMap[value]
	case 5:
		hc.decay = hc.knobMap[value]
	case 6:
		hc.sustain = float64(value) / 127
	case 7:
		hc.release = hc.knobMap[value]
	default:
		return
	}
	hc.publish()
}

func (hc *HullCurveControls) publish() {
	if hc.onChange == nil {
		return
	}
	hc.onChange(audio.EnvelopeParameters{
		AttackSeconds:  hc.attack,
		DecaySeconds:   hc.decay,
		ReleaseSeconds: hc.release,
		SustainLevel:   hc.sustain,
		Hold:           true,
	})
}

// ModulationIndexControl maps knob 0 to a carrier/modulator amplitude
// split and knob 1 to the FM modulation index. The amplitude split is
// computed and exposed (Amp) for a future stereo/multi-amp mix stage; the
// current mono MixingSink does not yet apply it — see SPEC_FULL.md §9
// Open Question (ii).
type ModulationIndexControl struct {
	kp *KnobPanel

	amp     [2]float64
	midIdx  int
	midxMap [128]int
	ampMap  [128]float64

	onModIndex func(int)
}

// NewModulationIndexControl registers itself against kp and seeds the
// default 50/50 amplitude split and modulation index 1.
func NewModulationIndexControl(kp *KnobPanel, onModIndex func(int)) *ModulationIndexControl {
	mc := &ModulationIndexControl{
		kp:         kp,
		amp:        [2]float64{0.5, 0.5},
		midIdx:     1,
		onModIndex: onModIndex,
	}

	for i := 0; i < 64; i++ {
		mc.ampMap[i] = -0.9 + 0.9*float64(i)/63
	}
	for i := 64; i < 128; i++ {
		mc.ampMap[i] = 0.9 * float64(i-64) / 63
	}
	for i := range mc.midxMap {
		mc.midxMap[i] = int(math.Floor(15 * float64(i) / 127))
	}

	kp.AddKnobValueListener(mc)

	kp.SetTargetValue(0, 64)
	kp.SetTargetValue(1, 9)

	return mc
}

// KnobValueChanged implements KnobValueListener.
func (mc *ModulationIndexControl) KnobValueChanged(idx int, value uint8) {
	switch idx {
	case 0:
		v := mc.ampMap[value]
		mc.amp[0] = 1 - v
		mc.amp[1] = 1 + v
	case 1:
		mc.midIdx = mc.midxMap[value]
		if mc.onModIndex != nil {
			mc.onModIndex(mc.midIdx)
		}
	}
}

// Amp returns the carrier (idx=0) or modulator (idx=1) amplitude weight.
func (mc *ModulationIndexControl) Amp(idx int) float64 {
	return mc.amp[idx]
}

// ModulationIndex returns the current modulation depth.
func (mc *ModulationIndexControl) ModulationIndex() int {
	return mc.midIdx
}

// waveModeColor maps a waveform to the dispatch-panel button color that
// represents it.
var waveModeColor = [4]LEDColor{ColorOff, ColorGreen, ColorYellow, ColorRed}

// waveNotes holds the two waveform-cycle buttons (carrier, modulator);
// fmNote the FM-mode toggle; modIdxNotes the modulation-index +/- buttons.
var (
	waveNotes   = [2]uint8{22, 23}
	fmNote      = uint8(21)
	modIdxNotes = [2]uint8{65, 64}
)

// WaveControls drives the carrier/modulator waveform selectors, the FM
// mode toggle, and the modulation-index increment/decrement buttons on
// the dispatch panel, mirroring their state back as LED colors.
type WaveControls struct {
	dp *DispatchPanel

	waveform [2]audio.Waveform
	fmMode   bool
	modIdx   int

	onWaveform func(idx int, w audio.Waveform)
	onFMMode   func(fmMode bool)
	onModIdx   func(modIdx int)
}

// NewWaveControls registers itself against dp and seeds both cells to
// sine, FM mode on, and modulation index 0.
func NewWaveControls(dp *DispatchPanel, onWaveform func(int, audio.Waveform), onFMMode func(bool), onModIdx func(int)) *WaveControls {
	wc := &WaveControls{
		dp:         dp,
		onWaveform: onWaveform,
		onFMMode:   onFMMode,
		onModIdx:   onModIdx,
	}
	dp.AddListener(wc)

	wc.SetWaveform(0, audio.WaveSine)
	wc.SetWaveform(1, audio.WaveSine)
	wc.SetFMMode(true)
	wc.SetModulationIndex(0)

	return wc
}

// ButtonPressed implements DispatchPanelListener.
func (wc *WaveControls) ButtonPressed(note uint8) {
	for idx, n := range waveNotes {
		if n == note {
			next := audio.Waveform((int(wc.waveform[idx]) + 1) % len(waveModeColor))
			wc.SetWaveform(idx, next)
			return
		}
	}

	if note == fmNote {
		wc.SetFMMode(!wc.fmMode)
		return
	}
	if note == modIdxNotes[0] {
		wc.SetModulationIndex(wc.modIdx - 1)
		return
	}
	if note == modIdxNotes[1] {
		wc.SetModulationIndex(wc.modIdx + 1)
		return
	}
}

// ButtonReleased implements DispatchPanelListener; these buttons only act
// on press.
func (wc *WaveControls) ButtonReleased(note uint8) {}

// SetWaveform assigns cell idx's waveform (0=carrier, 1=modulator).
func (wc *WaveControls) SetWaveform(idx int, w audio.Waveform) {
	wc.waveform[idx] = w
	wc.dp.SetColor(waveNotes[idx], waveModeColor[w])
	if wc.onWaveform != nil {
		wc.onWaveform(idx, w)
	}
}

// Waveform returns cell idx's current waveform.
func (wc *WaveControls) Waveform(idx int) audio.Waveform {
	return wc.waveform[idx]
}

// SetFMMode toggles FM mode and reflects it via the FM button's color.
func (wc *WaveControls) SetFMMode(fmMode bool) {
	wc.fmMode = fmMode
	if fmMode {
		wc.dp.SetColor(fmNote, ColorGreen)
	} else {
		wc.dp.SetColor(fmNote, ColorYellow)
	}
	if wc.onFMMode != nil {
		wc.onFMMode(fmMode)
	}
}

// FMMode reports the current FM mode.
func (wc *WaveControls) FMMode() bool {
	return wc.fmMode
}

// SetModulationIndex clamps and assigns the modulation depth and sends a
// color for each of the two modulation-index buttons (red while room
// remains to move further in that direction). DispatchPanel.SetColor
// drops colors for notes above 39, so notes 64 and 65 show no LED state.
func (wc *WaveControls) SetModulationIndex(modIdx int) {
	if modIdx < 0 {
		modIdx = 0
	}
	if modIdx > 15 {
		modIdx = 15
	}
	wc.modIdx = modIdx

	if wc.modIdx > 0 {
		wc.dp.SetColor(modIdxNotes[0], ColorRed)
	} else {
		wc.dp.SetColor(modIdxNotes[0], ColorOff)
	}
	if wc.modIdx < 15 {
		wc.dp.SetColor(modIdxNotes[1], ColorRed)
	} else {
		wc.dp.SetColor(modIdxNotes[1], ColorOff)
	}

	if wc.onModIdx != nil {
		wc.onModIdx(wc.modIdx)
	}
}

// ModulationIndex returns the current modulation depth.
func (wc *WaveControls) ModulationIndex() int {
	return wc.modIdx
}
