package radio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/patterncast/patterncast/internal/audio"
	"github.com/patterncast/patterncast/internal/encode"
	"github.com/patterncast/patterncast/internal/pattern"
	"github.com/patterncast/patterncast/internal/stream"
)

// stopSilenceSeconds of encoded silence are appended at stop so in-flight
// client buffers end on quiet audio instead of a truncated frame.
const stopSilenceSeconds = 0.1

// SchedulerConfig holds render loop parameters.
type SchedulerConfig struct {
	ChunkSeconds     float64       // audio rendered per cycle
	LookaheadSeconds float64       // how far ahead of wall clock to stay
	MinCycleDelay    time.Duration // floor between cycles, avoids busy-looping
}

// Scheduler runs the broadcast loop: each cycle it renders the next window of
// pattern time, overlays queued speech, encodes, and publishes -- then sleeps
// just long enough to keep a few seconds of audio ahead of wall clock. One
// cycle fully completes before the next begins, so cycle position and emitted
// byte order always advance together.
type Scheduler struct {
	cfg      SchedulerConfig
	session  *Session
	mixer    *audio.Mixer
	renderer pattern.Renderer
	registry *stream.Registry
	frames   *stream.Broadcaster

	newCompressor func() (encode.Compressor, error)
	now           func() time.Time

	mu        sync.Mutex
	enc       *encode.Encoder
	cancel    context.CancelFunc
	cyclePos  float64       // pattern time rendered so far, in cycles
	sent      time.Duration // wall-clock duration of audio emitted this session
	startedAt time.Time
}

// NewScheduler wires the broadcast loop. newCompressor is invoked once per
// started session; each session gets a fresh encoder.
func NewScheduler(
	session *Session,
	mixer *audio.Mixer,
	renderer pattern.Renderer,
	registry *stream.Registry,
	frames *stream.Broadcaster,
	newCompressor func() (encode.Compressor, error),
	cfg SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		cfg:           cfg,
		session:       session,
		mixer:         mixer,
		renderer:      renderer,
		registry:      registry,
		frames:        frames,
		newCompressor: newCompressor,
		now:           time.Now,
	}
}

// Start begins broadcasting: constructs a fresh encoder, resets the pacing
// counters and arms the first cycle immediately. No-op if already playing.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.State() == Playing {
		return nil
	}

	if err := s.begin(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.loop(ctx)

	log.Info("broadcast started", "chunk_s", s.cfg.ChunkSeconds, "lookahead_s", s.cfg.LookaheadSeconds)
	return nil
}

// begin arms a fresh session: new encoder, zeroed pacing counters, state to
// Playing. Cycle position is deliberately left alone; only Stop resets it.
func (s *Scheduler) begin() error {
	comp, err := s.newCompressor()
	if err != nil {
		return fmt.Errorf("start compressor: %w", err)
	}
	s.enc = encode.NewEncoder(comp)
	s.sent = 0
	s.startedAt = s.now()
	s.session.setState(Playing)
	return nil
}

// Stop ends the broadcast: cancels the pending cycle, pushes a short silence
// tail plus the encoder's flush output so listener buffers terminate cleanly,
// and clears the pattern handle and cycle position. No-op if already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.State() != Playing {
		return
	}
	s.session.setState(Stopped)
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	left, right := audio.Silence(int(stopSilenceSeconds * audio.SampleRate))
	if data, err := s.enc.Encode(left, right); err != nil {
		log.Warn("stop silence encode", "err", err)
	} else {
		s.registry.Publish(data)
	}
	// Flush blocks until the compressor drains and exits; s.mu stays held
	// throughout, so a concurrent Start queues behind the shutdown.
	if tail, err := s.enc.Flush(); err != nil {
		log.Warn("encoder flush", "err", err)
	} else {
		s.registry.Publish(tail)
	}
	s.enc = nil

	s.frames.Reset()
	s.session.ClearPattern()
	s.cyclePos = 0
	log.Info("broadcast stopped")
}

// QueueSpeech enqueues already-decoded announcement PCM for ducked mixing.
func (s *Scheduler) QueueSpeech(left, right []float64) {
	s.mixer.Enqueue(left, right)
}

// Status describes the session for the status endpoint. It reads only the
// session and mixer locks, never the scheduler's cycle lock, so a slow render
// cannot block a status request.
type Status struct {
	Playing      bool
	Tempo        float64
	Pattern      string
	SpeechQueued float64 // seconds of announcement audio awaiting mixing
}

// Status returns the current session state.
func (s *Scheduler) Status() Status {
	snap := s.session.Snapshot()
	st := Status{
		Playing:      snap.State == Playing,
		Tempo:        snap.Tempo,
		SpeechQueued: float64(s.mixer.QueuedSamples()) / audio.SampleRate,
	}
	if snap.Pattern != nil {
		st.Pattern = snap.Pattern.Source()
	}
	return st
}

// loop re-arms the cycle timer until the session stops or ctx is cancelled.
func (s *Scheduler) loop(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		delay := s.runCycle()
		if delay < 0 {
			return
		}
		timer.Reset(delay)
	}
}

// runCycle performs one render-mix-encode-publish cycle and returns the delay
// before the next one, or a negative delay when the session has stopped.
// A panic anywhere in the cycle body is recovered and the default re-arm
// delay returned, so the loop never permanently stalls.
func (s *Scheduler) runCycle() (delay time.Duration) {
	delay = s.cfg.MinCycleDelay
	defer func() {
		if r := recover(); r != nil {
			log.Error("render cycle panic", "panic", r)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.session.Snapshot()
	if snap.State != Playing || s.enc == nil {
		return -1
	}

	chunkSamples := int(s.cfg.ChunkSeconds * audio.SampleRate)
	windowCycles := snap.Tempo * s.cfg.ChunkSeconds

	var left, right []float64
	if snap.Pattern != nil {
		l, r, err := s.renderer.Render(snap.Pattern, s.cyclePos, s.cyclePos+windowCycles, snap.Tempo)
		switch {
		case err != nil:
			log.Warn("render failed, substituting silence", "err", err)
			left, right = audio.Silence(chunkSamples)
		case len(l) != len(r):
			log.Warn("renderer returned unbalanced channels", "left", len(l), "right", len(r))
			left, right = audio.Silence(chunkSamples)
		default:
			left, right = l, r
		}
	} else {
		left, right = audio.Silence(chunkSamples)
	}
	s.cyclePos += windowCycles

	s.mixer.Mix(left, right)

	data, err := s.enc.Encode(left, right)
	if err != nil {
		log.Warn("encode failed, dropping chunk", "err", err)
	} else if s.session.State() == Playing {
		// Stop serializes on s.mu and so cannot interleave with a cycle in
		// flight; this re-check covers state flipped on the session directly.
		s.registry.Publish(data)
		s.frames.Publish(audio.Interleave(left, right))
	}

	s.sent += time.Duration(float64(len(left)) / audio.SampleRate * float64(time.Second))

	ahead := s.sent - s.now().Sub(s.startedAt)
	if target := time.Duration(s.cfg.LookaheadSeconds * float64(time.Second)); ahead > target {
		return ahead - target
	}
	return delay
}
