package audio

import (
	"fmt"
	"math"
)

// EnvelopePhase enumerates the ADSR+tunedown state machine's phases.
type EnvelopePhase int

const (
	PhaseInit EnvelopePhase = iota
	PhaseAttack
	PhaseDecay
	PhaseSustain
	PhaseRelease
	PhaseTunedown
	PhaseDone
)

func (p EnvelopePhase) String() string {
	switch p {
	case PhaseAttack:
		return "attack"
	case PhaseDecay:
		return "decay"
	case PhaseSustain:
		return "sustain"
	case PhaseRelease:
		return "release"
	case PhaseTunedown:
		return "tunedown"
	case PhaseDone:
		return "done"
	default:
		return "init"
	}
}

// EnvelopeParameters holds the immutable-per-strike ADSR shape. Mutation
// between strikes is allowed and takes effect at the next block boundary.
type EnvelopeParameters struct {
	AttackSeconds  float64
	DecaySeconds   float64
	ReleaseSeconds float64
	SustainLevel   float64
	Hold           bool
}

// Validate enforces the invariants from the error taxonomy: no negative
// times, sustain confined to [0,1].
func (p EnvelopeParameters) Validate() error {
	if p.AttackSeconds < 0 || p.DecaySeconds < 0 || p.ReleaseSeconds < 0 {
		return fmt.Errorf("%w: envelope times must be non-negative", ErrInvalidParameter)
	}
	if p.SustainLevel < 0 || p.SustainLevel > 1 {
		return fmt.Errorf("%w: sustain level must be in [0,1]", ErrInvalidParameter)
	}
	return nil
}

// EnvelopeState is owned by exactly one EnvelopeGenerator and mutated only
// during that generator's Pull.
type EnvelopeState struct {
	Phase    EnvelopePhase
	Idx      int
	Struck   bool
	Released bool
	LastAmp  float64
}

// restrikeSeconds is the duration of the click-avoidance ramp to zero
// applied whenever a voice is struck again before reaching DONE.
const restrikeSeconds = 0.007

// tunedownSeconds is the nominal duration of a forced tunedown ramp.
const tunedownSeconds = 0.007

// EnvelopeGenerator produces one amplitude block per Pull, advancing the
// ADSR+tunedown state machine and guaranteeing a click-free restrike.
type EnvelopeGenerator struct {
	sampleRate int
	blockSize  int

	params EnvelopeParameters

	cacheAttack  []float64
	cacheDecay   []float64
	cacheRelease []float64

	state EnvelopeState

	phaseCB func(from, to EnvelopePhase)
	done    doneSignal
}

// NewEnvelopeGenerator builds a generator at INIT, not yet struck.
// phaseCB, if non-nil, is invoked whenever the phase changes; doneCB, if
// non-nil, fires exactly once when the envelope reaches DONE.
func NewEnvelopeGenerator(id, sampleRate, blockSize int, phaseCB func(from, to EnvelopePhase), doneCB DoneFunc) *EnvelopeGenerator {
	return &EnvelopeGenerator{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		phaseCB:    phaseCB,
		done:       newDoneSignal(id, doneCB),
		state:      EnvelopeState{Phase: PhaseInit, Released: true},
	}
}

// Parameters returns the currently active envelope parameters.
func (g *EnvelopeGenerator) Parameters() EnvelopeParameters {
	return g.params
}

// SetParameters replaces the envelope shape. Live changes mid-note are
// allowed; cached segments are invalidated so the next block recomputes
// from the new shape. Fails synchronously and leaves state untouched if p
// is invalid.
func (g *EnvelopeGenerator) SetParameters(p EnvelopeParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	g.params = p
	g.cacheAttack = nil
	g.cacheDecay = nil
	g.cacheRelease = nil
	return nil
}

// State returns a copy of the current envelope state, for inspection/tests.
func (g *EnvelopeGenerator) State() EnvelopeState {
	return g.state
}

// Strike raises the strike flag; it takes effect at the start of the next
// Pull, via the restrike-safety ramp if the envelope is mid-flight.
func (g *EnvelopeGenerator) Strike() {
	g.state.Struck = true
}

// Release moves a held envelope toward RELEASE at the next block boundary.
func (g *EnvelopeGenerator) Release() {
	g.state.Released = true
}

// Tunedown forces an immediate short ramp to zero, used to silence a
// voice that is being stolen.
func (g *EnvelopeGenerator) Tunedown() {
	g.state.Phase = PhaseTunedown
}

// Stop resets the generator to INIT, discarding in-flight envelope state.
func (g *EnvelopeGenerator) Stop() {
	g.state = EnvelopeState{Phase: PhaseInit, Released: true}
}

// IsDone reports whether the envelope has reached DONE.
func (g *EnvelopeGenerator) IsDone() bool {
	return g.state.Phase == PhaseDone
}

// Pull advances the state machine by one block and returns its amplitude
// samples. See SPEC_FULL.md §4.3 for the exact per-block algorithm.
func (g *EnvelopeGenerator) Pull() []float64 {
	prevPhase := g.state.Phase

	fragment := g.generate(&g.state, g.blockSize)

	if g.state.Struck {
		if prevPhase != PhaseInit && prevPhase != PhaseDone {
			r := int(math.Ceil(float64(g.sampleRate) * restrikeSeconds))
			if r > g.blockSize {
				r = g.blockSize
			}
			start := 0.0
			if len(fragment) > 0 {
				start = fragment[0]
			}
			ramp := linspace(start, 0, r)
			fragment = append(append([]float64{}, ramp...), zeroBlock(g.blockSize-r)...)
		}

		g.state.Phase = PhaseAttack
		g.state.Idx = 0
		g.state.Released = false
		g.state.Struck = false
	}

	if prevPhase != g.state.Phase {
		if g.phaseCB != nil {
			g.phaseCB(prevPhase, g.state.Phase)
		}
		if g.state.Phase == PhaseDone {
			g.done.fire()
		}
	}

	if len(fragment) > 0 {
		g.state.LastAmp = fragment[len(fragment)-1]
	}

	return fragment
}

// generate advances state through the current segment(s), possibly
// crossing several phase boundaries within one block, and returns the
// amplitude samples. It never touches state.LastAmp directly — Pull
// records that, after restrike handling, per the spec's step ordering.
func (g *EnvelopeGenerator) generate(state *EnvelopeState, blockSize int) []float64 {
	nAttack := ceilSamples(g.sampleRate, g.params.AttackSeconds)
	nDecay := ceilSamples(g.sampleRate, g.params.DecaySeconds)
	nRelease := ceilSamples(g.sampleRate, g.params.ReleaseSeconds)

	wave := make([]float64, 0, blockSize)

	if state.Phase == PhaseAttack {
		wave, state.Idx = g.appendSegment(wave, &g.cacheAttack, nAttack, state.Idx, 0, 1, blockSize)
		if state.Idx == nAttack {
			state.Phase = PhaseDecay
			state.Idx = 0
		}
	}

	if state.Phase == PhaseDecay {
		wave, state.Idx = g.appendSegment(wave, &g.cacheDecay, nDecay, state.Idx, 1, g.params.SustainLevel, blockSize)
		if state.Idx == nDecay {
			if g.params.Hold {
				state.Phase = PhaseSustain
			} else {
				state.Phase = PhaseRelease
			}
			state.Idx = 0
		}
	}

	if state.Phase == PhaseSustain {
		remain := blockSize - len(wave)
		wave = append(wave, linspace(state.LastAmp, g.params.SustainLevel, remain)...)

		if state.Released {
			state.Phase = PhaseRelease
		}
	}

	if state.Phase == PhaseRelease {
		wave, state.Idx = g.appendSegment(wave, &g.cacheRelease, nRelease, state.Idx, g.params.SustainLevel, 0, blockSize)
		if state.Idx == nRelease {
			state.Phase = PhaseTunedown
			state.Idx = 0
		}
	}

	if state.Phase == PhaseTunedown {
		wave = g.appendTunedown(wave, state, blockSize)
	}

	if state.Phase == PhaseInit || state.Phase == PhaseDone {
		remain := blockSize - len(wave)
		wave = append(wave, zeroBlock(remain)...)
	}

	return wave
}

// appendSegment fills up to blockSize-len(wave) samples from a cached
// linear ramp of length num running from valStart to valEnd, resuming from
// idx. The cache is rebuilt lazily whenever its length no longer matches
// num (i.e. after SetParameters invalidated it).
func (g *EnvelopeGenerator) appendSegment(wave []float64, cache *[]float64, num, idx int, valStart, valEnd float64, blockSize int) ([]float64, int) {
	if len(*cache) != num {
		*cache = linspace(valStart, valEnd, num)
	}

	end := idx + (blockSize - len(wave))
	if end > num {
		end = num
	}
	if end > idx {
		wave = append(wave, (*cache)[idx:end]...)
	}
	return wave, end
}

// appendTunedown emits the slope-1/(7ms) ramp to zero from the envelope's
// last recorded amplitude, transitioning to DONE once it reaches zero.
func (g *EnvelopeGenerator) appendTunedown(wave []float64, state *EnvelopeState, blockSize int) []float64 {
	samplesPerMs := float64(g.sampleRate) / 1000
	lossPerSample := (1.0 / (tunedownSeconds * 1000)) / samplesPerMs

	amp := state.LastAmp
	var tdSamples int
	if lossPerSample > 0 {
		tdSamples = int(math.Ceil(amp / lossPerSample))
	}

	fragmentLen := blockSize - len(wave)
	if tdSamples > fragmentLen {
		tdSamples = fragmentLen
	}
	if tdSamples < 0 {
		tdSamples = 0
	}

	end := amp - lossPerSample*float64(tdSamples)
	if end < 0 {
		end = 0
	}

	wave = append(wave, linspace(amp, end, tdSamples)...)

	if end == 0 {
		state.Phase = PhaseDone
	}
	return wave
}

func ceilSamples(sampleRate int, seconds float64) int {
	return int(math.Ceil(float64(sampleRate) * seconds))
}

// linspace returns n evenly spaced samples from a to b inclusive (n>=2),
// mirroring numpy.linspace's default endpoint behaviour. n<=0 yields an
// empty slice; n==1 yields [a].
func linspace(a, b float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{a}
	}
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + step*float64(i)
	}
	return out
}
