package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

var ErrNotWav = errors.New("not a valid WAV file")

// DecodeWAV decodes a PCM WAV payload into stereo float buffers at the
// broadcast sample rate. Mono input is duplicated onto both channels; other
// sample rates are linearly resampled.
func DecodeWAV(r io.ReadSeeker) (left, right []float64, err error) {
	d := wav.NewDecoder(r)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("decode wav: %w", err)
	}
	if !d.WasPCMAccessed() || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, nil, ErrNotWav
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	left = make([]float64, frames)
	right = make([]float64, frames)
	for i := 0; i < frames; i++ {
		left[i] = float64(buf.Data[i*channels]) / scale
		if channels > 1 {
			right[i] = float64(buf.Data[i*channels+1]) / scale
		} else {
			right[i] = left[i]
		}
	}

	if rate := buf.Format.SampleRate; rate != SampleRate && rate > 0 {
		left = resampleLinear(left, rate, SampleRate)
		right = resampleLinear(right, rate, SampleRate)
	}
	return left, right, nil
}

// resampleLinear converts in from one sample rate to another with linear
// interpolation. Good enough for speech; music never passes through here.
func resampleLinear(in []float64, from, to int) []float64 {
	if len(in) == 0 || from == to {
		return in
	}
	outLen := int(float64(len(in)) * float64(to) / float64(from))
	if outLen == 0 {
		return nil
	}
	out := make([]float64, outLen)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
