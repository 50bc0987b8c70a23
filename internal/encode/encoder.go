// Package encode turns raw float PCM chunks into a continuous compressed
// byte stream suitable for progressive playback.
package encode

import (
	"errors"
	"fmt"

	"github.com/patterncast/patterncast/internal/audio"
)

// Compressor is a stateful PCM-to-frames codec. Write feeds interleaved s16le
// PCM; Drain returns whatever complete output frames are ready, which may be
// nothing since codecs buffer internally. Flush emits the buffered residue and
// must be called exactly once, after the last Write.
type Compressor interface {
	Write(pcm []byte) error
	Drain() ([]byte, error)
	Flush() ([]byte, error)
}

var ErrFlushed = errors.New("encoder already flushed")

// Encoder quantizes float chunks and streams them through a Compressor.
// One encoder serves one broadcast session; a restarted session needs a fresh
// encoder, since reusing compressor state would corrupt frame boundaries.
type Encoder struct {
	comp    Compressor
	flushed bool
}

// NewEncoder wraps a compressor.
func NewEncoder(c Compressor) *Encoder {
	return &Encoder{comp: c}
}

// Encode quantizes one stereo chunk, feeds it to the compressor and returns
// any complete frames the compressor has ready (possibly none).
func (e *Encoder) Encode(left, right []float64) ([]byte, error) {
	if e.flushed {
		return nil, ErrFlushed
	}
	pcm := audio.SamplesToBytes(audio.Interleave(left, right))
	if err := e.comp.Write(pcm); err != nil {
		return nil, fmt.Errorf("feed compressor: %w", err)
	}
	return e.comp.Drain()
}

// Flush forces out the compressor's buffered residual frames. Further calls
// to Encode or Flush fail.
func (e *Encoder) Flush() ([]byte, error) {
	if e.flushed {
		return nil, ErrFlushed
	}
	e.flushed = true
	return e.comp.Flush()
}
