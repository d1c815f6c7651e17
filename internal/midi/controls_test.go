package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fmvoice/synthcore/internal/audio"
)

func TestHullCurveControlsPublishesDefaultShapeOnConstruction(t *testing.T) {
	dp := NewDispatchPanel(newFakePanelWriter())
	kp := NewKnobPanel(dp)

	var got audio.EnvelopeParameters
	var calls int
	NewHullCurveControls(kp, func(p audio.EnvelopeParameters) {
		got = p
		calls++
	})

	assert.GreaterOrEqual(t, calls, 1)
	assert.True(t, got.Hold)
	assert.Greater(t, got.AttackSeconds, 0.0)
}

func TestHullCurveControlsSustainKnobIsLinear(t *testing.T) {
	dp := NewDispatchPanel(newFakePanelWriter())
	kp := NewKnobPanel(dp)

	var got audio.EnvelopeParameters
	hc := NewHullCurveControls(kp, func(p audio.EnvelopeParameters) {
		got = p
	})

	hc.KnobValueChanged(6, 127)
	assert.InDelta(t, 1.0, got.SustainLevel, 0.01)
}

func TestModulationIndexControlTracksKnob1(t *testing.T) {
	dp := NewDispatchPanel(newFakePanelWriter())
	kp := NewKnobPanel(dp)

	var lastIdx int
	mc := NewModulationIndexControl(kp, func(idx int) { lastIdx = idx })

	mc.KnobValueChanged(1, 127)
	assert.Equal(t, 15, lastIdx)
	assert.Equal(t, 15, mc.ModulationIndex())
}

func TestModulationIndexControlAmplitudeSplitSumsToTwo(t *testing.T) {
	dp := NewDispatchPanel(newFakePanelWriter())
	kp := NewKnobPanel(dp)

	mc := NewModulationIndexControl(kp, nil)
	mc.KnobValueChanged(0, 100)

	sum := mc.Amp(0) + mc.Amp(1)
	assert.InDelta(t, 2.0, sum, 0.001)
}

func TestWaveControlsCyclesWaveformOnButtonPress(t *testing.T) {
	w := newFakePanelWriter()
	dp := NewDispatchPanel(w)

	wc := NewWaveControls(dp, nil, nil, nil)
	start := wc.Waveform(0)

	wc.ButtonPressed(waveNotes[0])

	assert.NotEqual(t, start, wc.Waveform(0))
}

func TestWaveControlsTogglesFMMode(t *testing.T) {
	dp := NewDispatchPanel(newFakePanelWriter())
	wc := NewWaveControls(dp, nil, nil, nil)

	assert.True(t, wc.FMMode())
	wc.ButtonPressed(fmNote)
	assert.False(t, wc.FMMode())
}

func TestWaveControlsModulationIndexButtonsClamp(t *testing.T) {
	dp := NewDispatchPanel(newFakePanelWriter())
	wc := NewWaveControls(dp, nil, nil, nil)

	for i := 0; i < 20; i++ {
		wc.ButtonPressed(modIdxNotes[1])
	}
	assert.Equal(t, 15, wc.ModulationIndex())

	for i := 0; i < 20; i++ {
		wc.ButtonPressed(modIdxNotes[0])
	}
	assert.Equal(t, 0, wc.ModulationIndex())
}
