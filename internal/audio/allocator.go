package audio

import (
	"math"
	"sync"
)

// scaleToneFrequencies holds the twelve-tone equal-temperament
// frequencies of the C4-B4 octave, indexed by note-mod-12.
//
// Source: https://upload.wikimedia.org/wikipedia/commons/a/ad/Piano_key_frequencies.png
var scaleToneFrequencies = [12]float64{
	261.626, // C4 (Middle C)
	277.183, // C#4 / Db4
	293.665, // D4
	311.127, // D#4 / Eb4
	329.628, // E4
	349.228, // F4
	369.994, // F#4 / Gb4
	391.995, // G4
	415.305, // G#4 / Ab4
	440.000, // A4
	466.164, // A#4, Bb4
	493.883, // B4
}

// noteToFrequency converts a MIDI note number to Hz using the C4 octave
// table scaled by 2^(octave-4), where octave is the MIDI octave number
// (note 60, middle C, is in octave 4).
func noteToFrequency(note uint8) float64 {
	step := int(note) % 12
	octave := int(note)/12 - 1
	coeff := math.Pow(2, float64(octave-4))
	return scaleToneFrequencies[step] * coeff
}

// VoiceAllocator maps MIDI notes onto a fixed pool of FMChannel voices,
// with LRU stealing and graceful tunedown of displaced voices. A single
// mutex guards order and noteToChannel; critical sections never touch
// voice internals besides the bookkeeping calls (strike/release/tunedown),
// which are themselves safe to call while holding this lock because they
// never block.
type VoiceAllocator struct {
	mu sync.Mutex

	channels []*FMChannel

	// order holds active channel indices, tail = most recently struck.
	order []int
	// noteToChannel maps a struck MIDI note to the channel index serving it.
	noteToChannel map[uint8]int
}

// NewVoiceAllocator builds a fixed pool of n voices at the given sample
// rate and block size.
func NewVoiceAllocator(n, sampleRate, blockSize int) *VoiceAllocator {
	a := &VoiceAllocator{
		channels:      make([]*FMChannel, n),
		noteToChannel: make(map[uint8]int),
	}
	for i := range a.channels {
		idx := i
		a.channels[i] = NewFMChannel(i, sampleRate, blockSize, func(int) { a.channelDone(idx) })
	}
	return a
}

// Channels returns the fixed voice pool, for wiring into a MixingSink or a
// ControlFanout. The slice itself must not be mutated by callers.
func (a *VoiceAllocator) Channels() []*FMChannel {
	return a.channels
}

// Strike assigns note to a channel: the channel already serving note if
// one exists (tuned down and re-struck deterministically, per SPEC_FULL.md
// §9 Open Question (iii)), otherwise an unused channel, otherwise the
// least-recently-struck active channel.
func (a *VoiceAllocator) Strike(note uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx, ok := a.noteToChannel[note]
	if !ok {
		idx = a.findChannelLocked()
	}
	// A re-struck note, or a stolen voice when every channel is in use, is
	// tuned down before it is struck again.
	if ok || len(a.order) == len(a.channels) {
		a.channels[idx].Tunedown()
	}
	a.freeLocked(idx)

	a.putToOrderLocked(idx)
	a.noteToChannel[note] = idx

	freq := noteToFrequency(note)
	a.channels[idx].SetFrequency(freq)
	a.channels[idx].Strike()
}

// Release moves note's envelope toward RELEASE without freeing its slot;
// the slot is only freed once the channel's done-callback fires.
func (a *VoiceAllocator) Release(note uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if idx, ok := a.noteToChannel[note]; ok {
		a.channels[idx].Release()
	}
}

// channelDone is the FMChannel done-callback: it frees the channel's slot
// once both its cells have reached DONE.
func (a *VoiceAllocator) channelDone(idx int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.freeLocked(idx)
}

// findChannelLocked picks an unused channel if one exists (lowest index),
// else the least-recently-struck channel in order.
func (a *VoiceAllocator) findChannelLocked() int {
	used := make(map[int]bool, len(a.order))
	for _, c := range a.order {
		used[c] = true
	}
	for i := range a.channels {
		if !used[i] {
			return i
		}
	}
	return a.order[0]
}

// freeLocked removes idx from order and from noteToChannel, preserving
// invariants I1-I4.
func (a *VoiceAllocator) freeLocked(idx int) {
	a.removeFromOrderLocked(idx)
	for note, c := range a.noteToChannel {
		if c == idx {
			delete(a.noteToChannel, note)
			break
		}
	}
}

func (a *VoiceAllocator) removeFromOrderLocked(idx int) {
	out := a.order[:0]
	for _, c := range a.order {
		if c != idx {
			out = append(out, c)
		}
	}
	a.order = out
}

func (a *VoiceAllocator) putToOrderLocked(idx int) {
	a.removeFromOrderLocked(idx)
	a.order = append(a.order, idx)
}

// Order returns a snapshot of the current LRU order (oldest first), for
// tests and diagnostics.
func (a *VoiceAllocator) Order() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int, len(a.order))
	copy(out, a.order)
	return out
}

// ActiveNote reports the channel index serving note, if any.
func (a *VoiceAllocator) ActiveNote(note uint8) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx, ok := a.noteToChannel[note]
	return idx, ok
}
