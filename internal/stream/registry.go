// Package stream fans broadcast audio out to connected listeners over HTTP
// chunked responses and WebRTC.
package stream

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Sink is one connected listener's byte consumer. A Write error means the
// listener is gone.
type Sink interface {
	io.Writer
}

// Registry tracks connected sinks and delivers identical byte buffers to all
// of them. Sinks come and go concurrently with Publish; a failing sink is
// dropped without disturbing the others or the publisher.
type Registry struct {
	mu    sync.RWMutex
	sinks map[Sink]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sinks: make(map[Sink]struct{})}
}

// Add registers a sink. The caller is responsible for removing it when the
// underlying connection closes.
func (r *Registry) Add(s Sink) {
	r.mu.Lock()
	r.sinks[s] = struct{}{}
	r.mu.Unlock()
}

// Remove unregisters a sink. Removing an unknown sink is a no-op.
func (r *Registry) Remove(s Sink) {
	r.mu.Lock()
	delete(r.sinks, s)
	r.mu.Unlock()
}

// Count returns the number of registered sinks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}

// Publish writes data to every registered sink. Iteration runs over a
// snapshot, so registration changes during a publish are safe. A sink whose
// write fails is removed immediately; the error never reaches the caller.
func (r *Registry) Publish(data []byte) {
	if len(data) == 0 {
		return
	}
	r.mu.RLock()
	snapshot := make([]Sink, 0, len(r.sinks))
	for s := range r.sinks {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	for _, s := range snapshot {
		if _, err := s.Write(data); err != nil {
			r.Remove(s)
			log.Debug("dropped listener", "err", err, "remaining", r.Count())
		}
	}
}
