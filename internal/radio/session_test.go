package radio

import (
	"sync"
	"testing"

	"github.com/patterncast/patterncast/internal/pattern"
)

func mustCompile(t *testing.T, src string) *pattern.Pattern {
	t.Helper()
	p, err := pattern.Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", src, err)
	}
	return p
}

func TestNewSessionStartsStopped(t *testing.T) {
	s := NewSession(0.5, 0.05, 4)
	snap := s.Snapshot()
	if snap.State != Stopped {
		t.Errorf("Initial state = %v, want Stopped", snap.State)
	}
	if snap.Tempo != 0.5 {
		t.Errorf("Initial tempo = %v, want 0.5", snap.Tempo)
	}
	if snap.Pattern != nil {
		t.Error("Initial pattern is not nil")
	}
}

func TestSetTempoClamps(t *testing.T) {
	s := NewSession(0.5, 0.05, 4)

	tests := []struct {
		in   float64
		want float64
	}{
		{1.5, 1.5},
		{100, 4},
		{0.001, 0.05},
		{-3, 0.05},
	}
	for _, tt := range tests {
		if got := s.SetTempo(tt.in); got != tt.want {
			t.Errorf("SetTempo(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if snap := s.Snapshot(); snap.Tempo != tt.want {
			t.Errorf("Snapshot tempo after SetTempo(%v) = %v, want %v", tt.in, snap.Tempo, tt.want)
		}
	}
}

func TestNewSessionClampsInitialTempo(t *testing.T) {
	s := NewSession(99, 0.05, 4)
	if snap := s.Snapshot(); snap.Tempo != 4 {
		t.Errorf("Initial tempo = %v, want clamped 4", snap.Tempo)
	}
}

func TestSetPatternReplacesWholesale(t *testing.T) {
	s := NewSession(0.5, 0.05, 4)

	// Safe to call before any start.
	p1 := mustCompile(t, "bd sn")
	s.SetPattern(p1)
	if snap := s.Snapshot(); snap.Pattern != p1 {
		t.Error("Snapshot did not return installed pattern")
	}

	p2 := mustCompile(t, "hh hh hh hh")
	s.SetPattern(p2)
	if snap := s.Snapshot(); snap.Pattern != p2 {
		t.Error("Snapshot returned stale pattern after replacement")
	}

	s.ClearPattern()
	if snap := s.Snapshot(); snap.Pattern != nil {
		t.Error("Pattern not nil after ClearPattern")
	}
}

func TestSnapshotUnderConcurrentWrites(t *testing.T) {
	s := NewSession(0.5, 0.05, 4)
	p := mustCompile(t, "bd")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.SetPattern(p)
			s.SetTempo(float64(i%40)/10 + 0.1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			snap := s.Snapshot()
			if snap.Tempo < 0.05 || snap.Tempo > 4 {
				t.Errorf("Torn snapshot tempo %v outside bounds", snap.Tempo)
				return
			}
		}
	}()
	wg.Wait()
}
