package audio

import "testing"

func TestQuantizeClampIsSymmetric(t *testing.T) {
	tests := []struct {
		input float64
		want  int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767}, // symmetric: the extra negative step is never used
		{2.5, 32767},
		{-2.5, -32767},
		{0.5, 16384},
		{-0.5, -16384},
	}
	for _, tt := range tests {
		if got := Quantize(tt.input); got != tt.want {
			t.Errorf("Quantize(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestInterleave(t *testing.T) {
	left := []float64{1, 0, -1}
	right := []float64{-1, 0.5, 0}
	got := Interleave(left, right)

	want := []int16{32767, -32767, 0, 16384, -32767, 0}
	if len(got) != len(want) {
		t.Fatalf("Interleave length = %d, want %d", len(got), len(want))
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Interleave[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestSamplesToBytesRoundTrip(t *testing.T) {
	original := []int16{0, 1, -1, 32767, -32767, 12345, -6789, 256}
	buf := SamplesToBytes(original)
	if len(buf) != len(original)*2 {
		t.Fatalf("SamplesToBytes length = %d, want %d", len(buf), len(original)*2)
	}

	// 256 = 0x0100 -> little-endian [0x00, 0x01]
	idx := 7 * 2
	if buf[idx] != 0x00 || buf[idx+1] != 0x01 {
		t.Errorf("Sample 256 encoded as [%02x, %02x], want [00, 01]", buf[idx], buf[idx+1])
	}

	for i := range original {
		back := int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8)
		if back != original[i] {
			t.Errorf("Round-trip sample[%d]: got %d, want %d", i, back, original[i])
		}
	}
}

func TestSilence(t *testing.T) {
	left, right := Silence(480)
	if len(left) != 480 || len(right) != 480 {
		t.Fatalf("Silence lengths = %d/%d, want 480/480", len(left), len(right))
	}
	for i := range left {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("Silence sample[%d] = %v/%v, want 0/0", i, left[i], right[i])
		}
	}
}
