package stream

import (
	"testing"

	"github.com/patterncast/patterncast/internal/audio"
)

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
	if b.ListenerCount() != 0 {
		t.Errorf("Initial ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	l1 := b.Subscribe()
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 subscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}
	l2 := b.Subscribe()
	if b.ListenerCount() != 2 {
		t.Errorf("After 2 subscribes: ListenerCount = %d, want 2", b.ListenerCount())
	}

	b.Unsubscribe(l1)
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 unsubscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}
	select {
	case <-l1.Done():
	default:
		t.Error("Done channel not closed after unsubscribe")
	}
	b.Unsubscribe(l2)
}

func TestPublishSplitsIntoFrames(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()

	// 2.5 frames worth of samples: two frames out, half a frame carried.
	samples := make([]int16, audio.FrameSamples*5/2)
	for i := range samples {
		samples[i] = int16(i)
	}
	b.Publish(samples)

	for f := 0; f < 2; f++ {
		select {
		case frame := <-l.C:
			if len(frame) != audio.FrameSamples {
				t.Fatalf("Frame %d length = %d, want %d", f, len(frame), audio.FrameSamples)
			}
			if frame[0] != int16(f*audio.FrameSamples) {
				t.Errorf("Frame %d starts with %d, want %d", f, frame[0], f*audio.FrameSamples)
			}
		default:
			t.Fatalf("Frame %d not delivered", f)
		}
	}
	select {
	case <-l.C:
		t.Error("Partial frame delivered, should be carried")
	default:
	}

	// The carried half frame completes with the next publish.
	b.Publish(make([]int16, audio.FrameSamples/2))
	select {
	case frame := <-l.C:
		if frame[0] != int16(2*audio.FrameSamples) {
			t.Errorf("Carried frame starts with %d, want %d", frame[0], 2*audio.FrameSamples)
		}
	default:
		t.Error("Carried frame not completed by next publish")
	}

	b.Unsubscribe(l)
}

func TestPublishDropsWhenListenerFull(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe()
	defer b.Unsubscribe(slow)

	// Publish more frames than the listener buffer holds; must not block.
	frame := make([]int16, audio.FrameSamples)
	for i := 0; i < listenerFrames+50; i++ {
		b.Publish(frame)
	}

	got := 0
	for {
		select {
		case <-slow.C:
			got++
			continue
		default:
		}
		break
	}
	if got != listenerFrames {
		t.Errorf("Slow listener got %d frames, want buffer capacity %d", got, listenerFrames)
	}
}

func TestResetDiscardsCarry(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	defer b.Unsubscribe(l)

	b.Publish(make([]int16, audio.FrameSamples/2))
	b.Reset()
	b.Publish(make([]int16, audio.FrameSamples/2))

	select {
	case <-l.C:
		t.Error("Frame delivered from two half-publishes across a Reset")
	default:
	}
}
