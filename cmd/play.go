package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ebitengine/oto/v3"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"golang.org/x/sync/errgroup"

	"github.com/fmvoice/synthcore/internal/audio"
	"github.com/fmvoice/synthcore/internal/config"
	"github.com/fmvoice/synthcore/internal/midi"
	"github.com/fmvoice/synthcore/internal/tui"
)

var (
	playDeviceName string
	playConfigPath string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open a virtual MIDI device and play it through the FM synth core",
	Long: `Play opens a virtual MIDI input/output pair that shows up in other music
software. Channel 1 note messages strike and release FM voices; channel 0
carries the knob/button control surface that shapes the envelope, waveform,
FM mode, and modulation index.
`,
	Run: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&playDeviceName, "name", "n", "Synthcore FM Synth", "Name for the virtual MIDI device")
	playCmd.Flags().StringVarP(&playConfigPath, "config", "c", "", "Path to a TOML configuration file")
	rootCmd.AddCommand(playCmd)
}

// rtmidiOut adapts a gomidi drivers.Out into midi.PanelOut.
type rtmidiOut struct {
	out drivers.Out
}

func (r rtmidiOut) Send(msg midi.Message) error {
	return r.out.Send([]byte{msg.Status, msg.Data1, msg.Data2})
}

// rtmidiSource adapts a gomidi drivers.In into midi.MessageSource, parsing
// raw bytes the same way the teacher's virtual device listener does.
type rtmidiSource struct {
	in drivers.In
}

func (r rtmidiSource) Listen(handler func(midi.Message)) (func(), error) {
	return r.in.Listen(func(data []byte, timestamp int32) {
		if len(data) < 1 {
			return
		}
		m := midi.Message{Status: data[0]}
		if len(data) >= 2 {
			m.Data1 = data[1]
		}
		if len(data) >= 3 {
			m.Data2 = data[2]
		}
		handler(m)
	}, drivers.ListenConfig{})
}

func runPlay(cmd *cobra.Command, args []string) {
	cfg := config.Default()
	if playConfigPath != "" {
		loaded, err := config.Load(playConfigPath)
		if err != nil {
			log.Fatalf("synthcore: %v", err)
		}
		cfg = loaded
	}

	allocator := audio.NewVoiceAllocator(cfg.VoiceCount, cfg.SampleRate, cfg.BlockSize)
	fanout := audio.NewControlFanout(allocator)
	if err := config.Apply(fanout, cfg); err != nil {
		log.Fatalf("synthcore: failed to apply configuration: %v", err)
	}

	monitor := tui.NewModel(playDeviceName)
	program := tea.NewProgram(monitor, tea.WithAltScreen())
	monitor.SetProgram(program)

	dp := midi.NewDispatchPanel(monitor)
	kp := midi.NewKnobPanel(dp)
	midi.NewHullCurveControls(kp, func(p audio.EnvelopeParameters) {
		_ = fanout.SetEnvelope(0, p)
		_ = fanout.SetEnvelope(1, p)
	})
	midi.NewWaveControls(dp,
		func(idx int, w audio.Waveform) { _ = fanout.SetWaveform(idx, w) },
		func(fmMode bool) { fanout.SetFMMode(fmMode) },
		func(modIdx int) { fanout.SetModulationIndex(modIdx) },
	)

	adapter := midi.NewAdapter(allocator, dp, kp)
	adapter.SetNoteListener(func(note uint8, active bool) {
		if !active {
			monitor.NotifyNote(tui.NoteEvent{Note: note, Struck: false})
			return
		}
		idx, _ := allocator.ActiveNote(note)
		monitor.NotifyNote(tui.NoteEvent{Note: note, Struck: true, Channel: idx})
	})

	sink := audio.NewMixingSink(channelsToSources(allocator.Channels()), cfg.BlockSize)
	reader := audio.NewReader(sink)

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		log.Fatalf("synthcore: failed to initialize audio: %v", err)
	}
	<-ready
	player := otoCtx.NewPlayer(reader)
	player.Play()
	defer player.Close()

	driver, err := rtmididrv.New()
	if err != nil {
		log.Fatalf("synthcore: failed to initialize MIDI driver: %v", err)
	}
	defer driver.Close()

	inPort, err := driver.OpenVirtualIn(playDeviceName)
	if err != nil {
		log.Fatalf("synthcore: failed to create virtual MIDI input: %v", err)
	}
	defer inPort.Close()

	outPort, err := driver.OpenVirtualOut(playDeviceName + " Out")
	if err != nil {
		log.Fatalf("synthcore: failed to create virtual MIDI output: %v", err)
	}
	defer outPort.Close()
	dp.AddOutput(midi.NewPanelWriter(rtmidiOut{out: outPort}))

	stopMIDI, err := adapter.Listen(rtmidiSource{in: inPort})
	if err != nil {
		log.Fatalf("synthcore: failed to listen on virtual MIDI input: %v", err)
	}
	defer stopMIDI()

	monitor.NotifyTransport(fmt.Sprintf("listening on %s", inPort.String()))

	if playConfigPath != "" {
		watcher := config.NewWatcher(playConfigPath, fanout)
		stopWatch, err := watcher.Start(func(err error) {
			monitor.NotifyTransport(fmt.Sprintf("config reload error: %v", err))
		})
		if err != nil {
			log.Printf("synthcore: configuration hot-reload disabled: %v", err)
		} else {
			defer stopWatch()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		select {
		case <-sig:
			program.Send(tea.Quit())
		case <-ctx.Done():
		}
		return nil
	})
	group.Go(func() error {
		defer cancel()
		_, err := program.Run()
		return err
	})

	if err := group.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "synthcore: %v\n", err)
		os.Exit(1)
	}
}

func channelsToSources(channels []*audio.FMChannel) []audio.WaveSource {
	out := make([]audio.WaveSource, len(channels))
	for i, ch := range channels {
		out[i] = ch
	}
	return out
}
