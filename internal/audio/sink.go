package audio

import (
	"fmt"
	"log"
)

// channelCount and bitDepth describe the PCM frame layout consumed by the
// oto player: mono, 16-bit signed little-endian, matching oto.FormatSignedInt16LE.
const (
	channelCount = 1
	bitDepth     = 2
)

// MixingSink sums the pulled blocks of a fixed set of voices and scales
// the result down by the voice count, so N simultaneous full-amplitude
// voices never clip. It performs no I/O itself; a Reader adapter pulls
// from it at whatever cadence the oto player asks for.
type MixingSink struct {
	voices    []WaveSource
	blockSize int

	// silenced marks voices permanently excluded from Pull after a single
	// block-length mismatch; see ErrBlockLength.
	silenced []bool
}

// NewMixingSink wraps voices (typically a VoiceAllocator's Channels())
// behind a single WaveSource.
func NewMixingSink(voices []WaveSource, blockSize int) *MixingSink {
	return &MixingSink{voices: voices, blockSize: blockSize, silenced: make([]bool, len(voices))}
}

// Pull implements WaveSource: it pulls every non-silenced voice (so
// envelope/oscillator state always advances at the same rate, whether or
// not a voice is audible) and returns their average. A voice whose block
// comes back the wrong length is logged and permanently silenced rather
// than allowed to desync the mix on every future call.
func (s *MixingSink) Pull() []float64 {
	out := make([]float64, s.blockSize)
	if len(s.voices) == 0 {
		return out
	}

	for i, v := range s.voices {
		if s.silenced[i] {
			continue
		}

		block := v.Pull()
		if len(block) != s.blockSize {
			log.Printf("audio: %v", blockLengthError(i, len(block), s.blockSize))
			s.silenced[i] = true
			continue
		}

		for j, sample := range block {
			out[j] += sample
		}
	}

	n := float64(len(s.voices))
	for i := range out {
		out[i] /= n
	}
	return out
}

// Reader adapts MixingSink to io.Reader, pulling one block at a time and
// serving it out across however many Read calls oto's buffer size demands.
type Reader struct {
	sink *MixingSink
	buf  []float64
	pos  int
}

// NewReader wraps sink for use as an oto.NewPlayer source.
func NewReader(sink *MixingSink) *Reader {
	return &Reader{sink: sink}
}

// Read implements io.Reader, emitting 16-bit signed little-endian mono PCM.
func (r *Reader) Read(dst []byte) (int, error) {
	n := 0
	for n+bitDepth <= len(dst) {
		if r.pos >= len(r.buf) {
			r.buf = r.sink.Pull()
			r.pos = 0
		}
		sample := r.buf[r.pos]
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		putInt16LE(dst[n:], int16(sample*32767))
		n += bitDepth
		r.pos++
	}
	return n, nil
}

func putInt16LE(dst []byte, v int16) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
}

// blockLengthError wraps ErrBlockLength with which voice misbehaved and by
// how much, so callers can both log a useful message and errors.Is it.
func blockLengthError(voiceIndex, got, want int) error {
	return fmt.Errorf("voice %d: got %d samples, want %d: %w", voiceIndex, got, want, ErrBlockLength)
}
