package stream

import (
	"sync"

	"github.com/patterncast/patterncast/internal/audio"
)

// listenerFrames is the per-listener frame buffer. It must comfortably exceed
// the scheduler's lookahead (a few seconds of audio rendered ahead of wall
// clock), or in-time listeners would lose frames.
const listenerFrames = 512 // ~10s at 20ms/frame

// Broadcaster fans out fixed-size PCM frames to subscribed listeners. It is
// the pre-encoder tap used by the WebRTC path; slow listeners get frames
// dropped rather than blocking the render loop.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	carry     []int16 // partial frame held between publishes
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	C    chan []int16
	done chan struct{}
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[*Listener]struct{})}
}

// Subscribe registers a new listener.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan []int16, listenerFrames),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	close(l.done)
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Publish splits interleaved samples into complete 20ms frames and fans them
// out. A trailing partial frame is held back and completed by the next
// publish, so chunk sizes need not align to frame boundaries.
func (b *Broadcaster) Publish(samples []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.carry = append(b.carry, samples...)
	for len(b.carry) >= audio.FrameSamples {
		frame := make([]int16, audio.FrameSamples)
		copy(frame, b.carry[:audio.FrameSamples])
		b.carry = b.carry[audio.FrameSamples:]

		for l := range b.listeners {
			select {
			case l.C <- frame:
			default:
				// listener too slow, drop frame to keep broadcast moving
			}
		}
	}
}

// Reset discards the partial-frame carry. Called at stream stop so a later
// start begins on a clean frame boundary.
func (b *Broadcaster) Reset() {
	b.mu.Lock()
	b.carry = nil
	b.mu.Unlock()
}
