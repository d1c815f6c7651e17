package midi

import "github.com/fmvoice/synthcore/internal/audio"

// Raw MIDI status nibbles, matching the byte-level parsing the teacher's
// own virtual MIDI device uses.
const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusControlChange = 0xB0
	ccAllNotesOff       = 123
)

// Message is a transport-agnostic 3-byte channel voice message: status
// byte (type nibble + channel nibble) plus up to two data bytes.
type Message struct {
	Status byte
	Data1  byte
	Data2  byte
}

// Type returns the message's high nibble (0x80, 0x90, 0xB0, ...).
func (m Message) Type() byte { return m.Status & 0xF0 }

// Channel returns the message's low nibble (0-15).
func (m Message) Channel() uint8 { return m.Status & 0x0F }

// MessageSource abstracts a MIDI input port so the adapter and its tests
// never depend on a concrete transport. Listen installs handler for every
// incoming message and returns a function that stops delivery.
type MessageSource interface {
	Listen(handler func(Message)) (stop func(), err error)
}

// PanelOut abstracts a MIDI output port for LED feedback.
type PanelOut interface {
	Send(msg Message) error
}

// panelWriterAdapter turns a PanelOut into the PanelWriter DispatchPanel
// expects, encoding an LED color as a note-on velocity.
type panelWriterAdapter struct {
	out PanelOut
}

func (p panelWriterAdapter) SetColor(note uint8, color LEDColor) {
	_ = p.out.Send(Message{Status: statusNoteOn, Data1: note, Data2: byte(color)})
}

// NewPanelWriter adapts out into a DispatchPanel-compatible PanelWriter.
func NewPanelWriter(out PanelOut) PanelWriter {
	return panelWriterAdapter{out: out}
}

// Adapter routes incoming MIDI messages to the synth core: channel-1 note
// on/off strike and release voices, channel-0 note on/off and control
// change drive the panel adapters. See SPEC_FULL.md §4.10.
type Adapter struct {
	allocator *audio.VoiceAllocator
	dp        *DispatchPanel
	kp        *KnobPanel

	noteListener func(note uint8, active bool)
}

// NewAdapter wires an event router against the given voice allocator and
// panel adapters.
func NewAdapter(allocator *audio.VoiceAllocator, dp *DispatchPanel, kp *KnobPanel) *Adapter {
	return &Adapter{allocator: allocator, dp: dp, kp: kp}
}

// SetNoteListener installs a callback invoked whenever a channel-1 note
// on/off message strikes or releases a voice, with active=true for strike
// and active=false for release. It exists so a status display can mirror
// voice activity without reaching into the allocator directly.
func (a *Adapter) SetNoteListener(fn func(note uint8, active bool)) {
	a.noteListener = fn
}

func (a *Adapter) notifyNote(note uint8, active bool) {
	if a.noteListener != nil {
		a.noteListener(note, active)
	}
}

// HandleMessage routes a single incoming MIDI message. Anything that does
// not match one of the four cases in §4.10 is dropped silently.
func (a *Adapter) HandleMessage(msg Message) {
	switch msg.Type() {
	case statusNoteOn:
		note, velocity := msg.Data1, msg.Data2
		switch msg.Channel() {
		case 1:
			if velocity > 0 {
				a.allocator.Strike(note)
				a.notifyNote(note, true)
			} else {
				a.allocator.Release(note)
				a.notifyNote(note, false)
			}
		case 0:
			a.dp.ButtonPressed(note)
		}

	case statusNoteOff:
		note := msg.Data1
		switch msg.Channel() {
		case 1:
			a.allocator.Release(note)
			a.notifyNote(note, false)
		case 0:
			a.dp.ButtonReleased(note)
		}

	case statusControlChange:
		if msg.Channel() != 0 {
			return
		}
		control, value := msg.Data1, msg.Data2
		if control == ccAllNotesOff {
			return
		}
		if idx := ControlIndex(control); idx >= 0 {
			a.kp.UpdateKnobMIDIValue(idx, value)
		}
	}
}

// Listen installs the adapter's HandleMessage against src and returns the
// stop function src.Listen produces.
func (a *Adapter) Listen(src MessageSource) (stop func(), err error) {
	return src.Listen(a.HandleMessage)
}
