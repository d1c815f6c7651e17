// Package midi adapts raw MIDI messages from an AKAI-style controller into
// typed calls against the synth core: note on/off on channel 1 strike and
// release voices, while channel 0 carries a knob/button control surface
// whose state is tracked here and reflected back out as LED colors.
package midi

// LEDColor is one of the seven colors the dispatch panel's buttons (which
// double as LEDs) can be driven to.
type LEDColor int

const (
	ColorOff LEDColor = iota
	ColorGreen
	ColorGreenBlink
	ColorRed
	ColorRedBlink
	ColorYellow
	ColorYellowBlink
)

// PanelWriter drives LED feedback back out the MIDI output port.
type PanelWriter interface {
	SetColor(note uint8, color LEDColor)
}

// DispatchPanelListener reacts to channel-0 button presses/releases.
type DispatchPanelListener interface {
	ButtonPressed(note uint8)
	ButtonReleased(note uint8)
}

// DispatchPanel fans out channel-0 note on/off messages, whatever their
// note number, to registered listeners, and exposes LED feedback via
// SetColor, which relays only notes 0..39. It may
// drive more than one PanelWriter at once (a real MIDI output port and a
// terminal status view, say); all of them receive every color change.
type DispatchPanel struct {
	outputs   []PanelWriter
	listeners []DispatchPanelListener
}

// NewDispatchPanel wires a panel to the output(s) it drives LEDs on.
func NewDispatchPanel(outputs ...PanelWriter) *DispatchPanel {
	return &DispatchPanel{outputs: outputs}
}

// AddOutput registers an additional PanelWriter to receive LED updates,
// e.g. once a real MIDI output port becomes available after startup.
func (dp *DispatchPanel) AddOutput(out PanelWriter) {
	if out != nil {
		dp.outputs = append(dp.outputs, out)
	}
}

// AddListener registers l to receive button press/release events.
func (dp *DispatchPanel) AddListener(l DispatchPanelListener) {
	if l != nil {
		dp.listeners = append(dp.listeners, l)
	}
}

// SetColor relays a color change for note to every registered output.
func (dp *DispatchPanel) SetColor(note uint8, color LEDColor) {
	if note > 39 {
		return
	}
	for _, out := range dp.outputs {
		out.SetColor(note, color)
	}
}

// ButtonPressed dispatches a channel-0 note-on to every listener.
func (dp *DispatchPanel) ButtonPressed(note uint8) {
	for _, l := range dp.listeners {
		l.ButtonPressed(note)
	}
}

// ButtonReleased dispatches a channel-0 note-off to every listener.
func (dp *DispatchPanel) ButtonReleased(note uint8) {
	for _, l := range dp.listeners {
		l.ButtonReleased(note)
	}
}

// KnobValueListener is notified whenever a knob's tracked value changes,
// either from an incoming MIDI CC or from an explicit SetTargetValue.
type KnobValueListener interface {
	KnobValueChanged(idx int, value uint8)
}

// dispatchNotes maps knob index to the dispatch-panel button that forces
// sync for that knob.
var dispatchNotes = [8]uint8{36, 37, 38, 39, 28, 29, 30, 31}

// knobControls maps knob index to its MIDI CC controller number.
var knobControls = [8]uint8{48, 49, 50, 51, 52, 53, 54, 55}

// KnobPanel tracks eight physical knobs against eight internal target
// values, resolving drift between the two via LED color feedback and a
// per-knob sync flag. See SPEC_FULL.md §4.9 / §6.
type KnobPanel struct {
	dp *DispatchPanel

	midiValue      [8]*uint8
	targetValue    [8]uint8
	synced         [8]bool
	valueListeners []KnobValueListener
}

// NewKnobPanel builds a panel with every knob unsynced and its target at
// zero, and registers itself as a DispatchPanel button listener.
func NewKnobPanel(dp *DispatchPanel) *KnobPanel {
	kp := &KnobPanel{dp: dp}
	dp.AddListener(kp)
	for i := range kp.targetValue {
		kp.updateColor(i)
	}
	return kp
}

// AddKnobValueListener registers l to be notified of synced knob changes.
func (kp *KnobPanel) AddKnobValueListener(l KnobValueListener) {
	if l != nil {
		kp.valueListeners = append(kp.valueListeners, l)
	}
}

// ControlIndex returns the knob index for a MIDI CC controller number, or
// -1 if control is not one of the eight tracked controls.
func ControlIndex(control uint8) int {
	for i, c := range knobControls {
		if c == control {
			return i
		}
	}
	return -1
}

// UpdateKnobMIDIValue records an incoming CC value for knob idx, updates
// sync state, and notifies listeners if the knob is (now) synced.
func (kp *KnobPanel) UpdateKnobMIDIValue(idx int, value uint8) {
	if idx < 0 || idx >= len(kp.midiValue) {
		return
	}

	v := value
	kp.midiValue[idx] = &v

	if !kp.synced[idx] {
		kp.synced[idx] = value == kp.targetValue[idx]
	}

	if kp.synced[idx] {
		kp.targetValue[idx] = value
		kp.notify(idx, value)
	}

	kp.updateColor(idx)
}

// SetTargetValue assigns knob idx's target directly (e.g. to apply a
// loaded configuration), resyncing against the current midi value.
func (kp *KnobPanel) SetTargetValue(idx int, value uint8) {
	if idx < 0 || idx >= len(kp.targetValue) {
		return
	}

	kp.synced[idx] = kp.midiValue[idx] != nil && *kp.midiValue[idx] == value
	kp.targetValue[idx] = value
	kp.notify(idx, value)
	kp.updateColor(idx)
}

// ButtonPressed implements DispatchPanelListener: pressing a knob's
// dispatch button forces sync, snapping the target to the current midi
// value if one is known.
func (kp *KnobPanel) ButtonPressed(note uint8) {
	idx := -1
	for i, n := range dispatchNotes {
		if n == note {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	kp.synced[idx] = true

	if kp.midiValue[idx] != nil {
		kp.SetTargetValue(idx, *kp.midiValue[idx])
	} else {
		kp.updateColor(idx)
	}
}

// ButtonReleased implements DispatchPanelListener; the dispatch buttons
// only act on press.
func (kp *KnobPanel) ButtonReleased(note uint8) {}

func (kp *KnobPanel) notify(idx int, value uint8) {
	for _, l := range kp.valueListeners {
		l.KnobValueChanged(idx, value)
	}
}

func (kp *KnobPanel) updateColor(idx int) {
	var color LEDColor

	switch {
	case kp.midiValue[idx] == nil:
		if kp.synced[idx] {
			color = ColorGreenBlink
		} else {
			color = ColorOff
		}
	case *kp.midiValue[idx] > kp.targetValue[idx]:
		color = ColorRed
	case *kp.midiValue[idx] < kp.targetValue[idx]:
		color = ColorYellow
	default:
		color = ColorGreen
	}

	kp.dp.SetColor(dispatchNotes[idx], color)
}
