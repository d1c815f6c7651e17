package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "synthcore",
	Short: "A two-operator FM synthesizer driven by an AKAI-style MIDI controller",
	Long: `synthcore turns MIDI note and controller events from an AKAI APC-style
surface into a continuous stream of FM-synthesized audio.

It exposes a virtual MIDI input/output pair: note messages on channel 1
strike and release voices, while channel 0 carries the knob/button panel
that shapes the envelope, waveform, FM mode, and modulation index.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
