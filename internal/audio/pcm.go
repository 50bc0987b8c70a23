package audio

import (
	"encoding/binary"
	"math"
)

// Quantize converts a float sample in [-1, 1] to int16.
// The clamp is symmetric at +/-32767: int16 can represent -32768 but using it
// would make full-scale negative audio one step louder than positive, so the
// extra negative step is never emitted.
func Quantize(s float64) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(s * 32767))
}

// Interleave quantizes separate left/right float buffers into interleaved
// int16 samples (L R L R ...). Both buffers must have the same length.
func Interleave(left, right []float64) []int16 {
	out := make([]int16, len(left)*Channels)
	for i := range left {
		out[i*2] = Quantize(left[i])
		out[i*2+1] = Quantize(right[i])
	}
	return out
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// Silence returns zeroed left/right buffers of n samples per channel.
func Silence(n int) (left, right []float64) {
	return make([]float64, n), make([]float64, n)
}
