// Package tui renders a read-only terminal status view of the running
// synth: active voices, panel LED state, and MIDI transport status. It is
// fed entirely by callbacks the core already exposes and never drives
// synthesis itself.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/fmvoice/synthcore/internal/midi"
)

// NoteEvent describes a single strike/release for the active-notes
// display.
type NoteEvent struct {
	Note    uint8
	Struck  bool
	Channel int
}

// LEDEvent describes a dispatch-panel LED color change.
type LEDEvent struct {
	Note  uint8
	Color midi.LEDColor
}

// noteEventMsg and ledEventMsg wrap the above for bubbletea's Update loop.
type noteEventMsg NoteEvent
type ledEventMsg LEDEvent
type transportStatusMsg string
type blinkTickMsg time.Time

// Model is the bubbletea model for the status monitor.
type Model struct {
	portName    string
	transport   string
	activeNotes map[uint8]int
	leds        map[uint8]midi.LEDColor
	blinkOn     bool
	width       int
	height      int

	program *tea.Program
}

// NewModel builds a monitor for the given virtual port name.
func NewModel(portName string) *Model {
	return &Model{
		portName:    portName,
		activeNotes: make(map[uint8]int),
		leds:        make(map[uint8]midi.LEDColor),
	}
}

// SetProgram stores the running bubbletea program so external callbacks
// (the MIDI adapter, the panel writer) can push events into the view.
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
}

// NotifyNote is safe to call from the MIDI listener goroutine; it pushes
// a note event into the bubbletea event loop.
func (m *Model) NotifyNote(ev NoteEvent) {
	if m.program != nil {
		m.program.Send(noteEventMsg(ev))
	}
}

// NotifyLED is safe to call from the panel writer; SetColor implements
// midi.PanelWriter so a *Model can be wired directly into a DispatchPanel
// for live LED feedback in the terminal.
func (m *Model) NotifyLED(note uint8, color midi.LEDColor) {
	if m.program != nil {
		m.program.Send(ledEventMsg{Note: note, Color: color})
	}
}

// SetColor implements midi.PanelWriter.
func (m *Model) SetColor(note uint8, color midi.LEDColor) {
	m.NotifyLED(note, color)
}

// NotifyTransport reports a change in transport status (port opened,
// reconnecting, error).
func (m *Model) NotifyTransport(status string) {
	if m.program != nil {
		m.program.Send(transportStatusMsg(status))
	}
}

func blinkTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return blinkTickMsg(t)
	})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return blinkTick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case noteEventMsg:
		if msg.Struck {
			m.activeNotes[msg.Note] = msg.Channel
		} else {
			delete(m.activeNotes, msg.Note)
		}

	case ledEventMsg:
		m.leds[msg.Note] = msg.Color

	case transportStatusMsg:
		m.transport = string(msg)

	case blinkTickMsg:
		m.blinkOn = !m.blinkOn
		return m, blinkTick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	noteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// ledHex resolves an LED color (optionally dimmed for the "off" phase of
// a blink) to a hex string via go-colorful, so blinking states read as a
// genuine fade rather than a hard on/off toggle.
func ledHex(c midi.LEDColor, blinkOn bool) string {
	base := func() colorful.Color {
		switch c {
		case midi.ColorGreen, midi.ColorGreenBlink:
			return colorful.Color{R: 0, G: 1, B: 0}
		case midi.ColorRed, midi.ColorRedBlink:
			return colorful.Color{R: 1, G: 0, B: 0}
		case midi.ColorYellow, midi.ColorYellowBlink:
			return colorful.Color{R: 1, G: 1, B: 0}
		default:
			return colorful.Color{R: 0.15, G: 0.15, B: 0.15}
		}
	}()

	blinking := c == midi.ColorGreenBlink || c == midi.ColorRedBlink || c == midi.ColorYellowBlink
	if blinking && !blinkOn {
		off := colorful.Color{R: 0.1, G: 0.1, B: 0.1}
		base = base.BlendRgb(off, 0.8)
	}
	return base.Hex()
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("FM Synth Monitor") + "\n\n")
	b.WriteString(subtitleStyle.Render("Virtual port: ") + m.portName + "\n")
	if m.transport != "" {
		b.WriteString(subtitleStyle.Render("Transport: ") + statusStyle.Render(m.transport) + "\n")
	}

	b.WriteString("\n" + subtitleStyle.Render("Active voices:") + "\n")
	if len(m.activeNotes) == 0 {
		b.WriteString("  (silent)\n")
	} else {
		var names []string
		for note, ch := range m.activeNotes {
			names = append(names, fmt.Sprintf("ch%d:%s", ch, noteName(note)))
		}
		b.WriteString("  " + noteStyle.Render(strings.Join(names, " ")) + "\n")
	}

	b.WriteString("\n" + subtitleStyle.Render("Panel LEDs:") + "\n  ")
	for note := uint8(0); note <= 39; note++ {
		color, ok := m.leds[note]
		if !ok {
			continue
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(ledHex(color, m.blinkOn)))
		b.WriteString(style.Render("●") + " ")
	}
	b.WriteString("\n")

	b.WriteString("\n" + helpStyle.Render("q / Ctrl+C: quit"))
	return b.String()
}

func noteName(note uint8) string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", names[note%12], octave)
}
