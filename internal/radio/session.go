// Package radio drives the render-mix-encode-broadcast loop and owns the
// mutable session state behind it.
package radio

import (
	"sync"

	"github.com/patterncast/patterncast/internal/pattern"
)

// PlaybackState is the session's play/stop flag.
type PlaybackState int

const (
	Stopped PlaybackState = iota
	Playing
)

// Session holds the "what to play" state: current pattern handle, tempo and
// playback state. Writes from the control surface race with the scheduler's
// per-cycle reads; Snapshot gives the scheduler one coherent view, never a
// torn mid-cycle mix of old and new values.
type Session struct {
	mu       sync.RWMutex
	pattern  *pattern.Pattern
	tempo    float64
	tempoMin float64
	tempoMax float64
	state    PlaybackState
}

// Snapshot is one coherent read of the session.
type Snapshot struct {
	Pattern *pattern.Pattern
	Tempo   float64
	State   PlaybackState
}

// NewSession creates a stopped session at the given tempo, with tempo
// updates clamped to [tempoMin, tempoMax].
func NewSession(tempo, tempoMin, tempoMax float64) *Session {
	s := &Session{tempoMin: tempoMin, tempoMax: tempoMax}
	s.tempo = s.clamp(tempo)
	return s
}

func (s *Session) clamp(cps float64) float64 {
	if cps < s.tempoMin {
		return s.tempoMin
	}
	if cps > s.tempoMax {
		return s.tempoMax
	}
	return cps
}

// SetPattern installs a new pattern handle, replacing the previous one
// wholesale. Takes effect on the scheduler's next cycle.
func (s *Session) SetPattern(p *pattern.Pattern) {
	s.mu.Lock()
	s.pattern = p
	s.mu.Unlock()
}

// ClearPattern discards the current pattern handle.
func (s *Session) ClearPattern() {
	s.SetPattern(nil)
}

// SetTempo updates the tempo in cycles per second, clamped to the configured
// bounds, and returns the value actually installed.
func (s *Session) SetTempo(cps float64) float64 {
	s.mu.Lock()
	s.tempo = s.clamp(cps)
	cps = s.tempo
	s.mu.Unlock()
	return cps
}

// Snapshot returns the current state as one atomic read.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Pattern: s.pattern, Tempo: s.tempo, State: s.state}
}

// State returns the playback state.
func (s *Session) State() PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st PlaybackState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
