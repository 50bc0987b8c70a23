package audio

import "sync"

// announcement is one queued speech buffer with its consumption offset.
type announcement struct {
	left, right []float64
	offset      int
}

// Mixer overlays queued speech audio onto music buffers, ducking the music
// while speech plays. Queue entries are consumed strictly in submission order;
// a partially consumed entry stays at the head until drained.
//
// Enqueue may be called concurrently with Mix. Mix itself is called from a
// single render loop.
type Mixer struct {
	mu    sync.Mutex
	duck  float64 // music level while speech plays
	gain  float64 // speech level
	queue []*announcement
}

// NewMixer creates a mixer with the given duck factor and speech gain.
func NewMixer(duck, gain float64) *Mixer {
	return &Mixer{duck: duck, gain: gain}
}

// Enqueue appends a speech buffer to the announcement queue. The buffers are
// owned by the mixer after the call. Unequal lengths are truncated to the
// shorter channel.
func (m *Mixer) Enqueue(left, right []float64) {
	if len(right) < len(left) {
		left = left[:len(right)]
	} else if len(left) < len(right) {
		right = right[:len(left)]
	}
	if len(left) == 0 {
		return
	}
	m.mu.Lock()
	m.queue = append(m.queue, &announcement{left: left, right: right})
	m.mu.Unlock()
}

// Mix overlays queued speech onto the music buffers in place:
// out = music*duck + speech*gain for as long as speech remains. Samples past
// the end of all queued speech are left untouched. No clamping happens here;
// the encoder's quantization step clamps.
func (m *Mixer) Mix(left, right []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := 0
	for pos < len(left) && len(m.queue) > 0 {
		head := m.queue[0]
		n := len(head.left) - head.offset
		if remain := len(left) - pos; n > remain {
			n = remain
		}
		for i := 0; i < n; i++ {
			left[pos+i] = left[pos+i]*m.duck + head.left[head.offset+i]*m.gain
			right[pos+i] = right[pos+i]*m.duck + head.right[head.offset+i]*m.gain
		}
		head.offset += n
		pos += n
		if head.offset >= len(head.left) {
			m.queue = m.queue[1:]
		}
	}
}

// QueuedSamples returns the number of speech samples (per channel) still
// waiting to be mixed, including the unconsumed tail of the head entry.
func (m *Mixer) QueuedSamples() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, a := range m.queue {
		total += len(a.left) - a.offset
	}
	return total
}
