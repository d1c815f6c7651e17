package audio

import "errors"

// ErrInvalidParameter is returned when a caller supplies an out-of-range or
// otherwise nonsensical parameter (negative envelope time, sustain level
// outside [0,1]).
var ErrInvalidParameter = errors.New("audio: invalid parameter")

// ErrChannelIndex is returned when a cell/channel index is out of bounds.
var ErrChannelIndex = errors.New("audio: channel index out of bounds")

// ErrBlockLength is returned when a pulled block does not have the expected
// length. MixingSink stops pulling the source that produced it, without
// marking it done, so the mix keeps running.
var ErrBlockLength = errors.New("audio: block has unexpected length")
