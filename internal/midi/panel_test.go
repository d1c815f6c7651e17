package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePanelWriter struct {
	colors map[uint8]LEDColor
}

func newFakePanelWriter() *fakePanelWriter {
	return &fakePanelWriter{colors: make(map[uint8]LEDColor)}
}

func (w *fakePanelWriter) SetColor(note uint8, color LEDColor) {
	w.colors[note] = color
}

func TestKnobPanelUnknownMIDIValueBlinksWhenSynced(t *testing.T) {
	w := newFakePanelWriter()
	dp := NewDispatchPanel(w)
	kp := NewKnobPanel(dp)

	kp.SetTargetValue(0, 10)
	kp.ButtonPressed(dispatchNotes[0])

	assert.Equal(t, ColorGreenBlink, w.colors[dispatchNotes[0]])
}

func TestKnobPanelSyncsWhenMIDIMatchesTarget(t *testing.T) {
	w := newFakePanelWriter()
	dp := NewDispatchPanel(w)
	kp := NewKnobPanel(dp)

	kp.SetTargetValue(0, 64)
	kp.UpdateKnobMIDIValue(0, 64)

	assert.Equal(t, ColorGreen, w.colors[dispatchNotes[0]])
}

func TestKnobPanelRedWhenMIDIAboveTarget(t *testing.T) {
	w := newFakePanelWriter()
	dp := NewDispatchPanel(w)
	kp := NewKnobPanel(dp)

	kp.SetTargetValue(0, 20)
	kp.UpdateKnobMIDIValue(0, 50)

	assert.Equal(t, ColorRed, w.colors[dispatchNotes[0]])
}

func TestKnobPanelYellowWhenMIDIBelowTarget(t *testing.T) {
	w := newFakePanelWriter()
	dp := NewDispatchPanel(w)
	kp := NewKnobPanel(dp)

	kp.SetTargetValue(0, 80)
	kp.UpdateKnobMIDIValue(0, 50)

	assert.Equal(t, ColorYellow, w.colors[dispatchNotes[0]])
}

func TestKnobPanelDriftUntilMIDICrossesTarget(t *testing.T) {
	w := newFakePanelWriter()
	dp := NewDispatchPanel(w)
	kp := NewKnobPanel(dp)

	kp.SetTargetValue(0, 30)
	// Not synced yet: the midi value never equalled the target, so the
	// target must not move even though a midi value now exists.
	kp.UpdateKnobMIDIValue(0, 10)

	assert.Equal(t, ColorYellow, w.colors[dispatchNotes[0]])
	assert.Equal(t, uint8(30), kp.targetValue[0])
}

func TestKnobPanelNotifiesListenersOnlyWhenSynced(t *testing.T) {
	w := newFakePanelWriter()
	dp := NewDispatchPanel(w)
	kp := NewKnobPanel(dp)

	kp.SetTargetValue(1, 9)

	var notified []uint8
	kp.AddKnobValueListener(knobValueListenerFunc(func(idx int, value uint8) {
		notified = append(notified, value)
	}))

	kp.UpdateKnobMIDIValue(1, 3) // not synced: must not notify yet
	kp.UpdateKnobMIDIValue(1, 9) // synced: must notify

	assert.Equal(t, []uint8{9}, notified)
}

func TestDispatchPanelIgnoresNotesAboveRange(t *testing.T) {
	w := newFakePanelWriter()
	dp := NewDispatchPanel(w)

	dp.SetColor(40, ColorRed)

	_, exists := w.colors[40]
	assert.False(t, exists)
}

func TestDispatchPanelFansOutToMultipleOutputs(t *testing.T) {
	w1, w2 := newFakePanelWriter(), newFakePanelWriter()
	dp := NewDispatchPanel(w1)
	dp.AddOutput(w2)

	dp.SetColor(21, ColorYellow)

	assert.Equal(t, ColorYellow, w1.colors[21])
	assert.Equal(t, ColorYellow, w2.colors[21])
}

type knobValueListenerFunc func(idx int, value uint8)

func (f knobValueListenerFunc) KnobValueChanged(idx int, value uint8) {
	f(idx, value)
}
