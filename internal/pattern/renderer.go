package pattern

import (
	"fmt"
	"math"

	"github.com/patterncast/patterncast/internal/audio"
)

// Renderer produces raw stereo samples for a window of pattern time.
// Implementations must be stateless per call: rendering the same window twice
// yields identical samples, and an error must leave no shared state behind.
type Renderer interface {
	Render(p *Pattern, begin, end, tempo float64) (left, right []float64, err error)
}

// maxVoiceSeconds bounds every voice envelope, so a renderer knows how far
// back before the window an onset can still be audible.
const maxVoiceSeconds = 0.4

// StepRenderer synthesizes patterns with simple phase-accumulator voices.
type StepRenderer struct{}

// NewStepRenderer returns the bundled synthesizer.
func NewStepRenderer() *StepRenderer { return &StepRenderer{} }

// Render synthesizes the window [begin, end) in cycle units at the given
// tempo (cycles per second). Events whose envelopes overlap the window are
// rendered from the correct envelope phase, so chunk boundaries are seamless.
func (r *StepRenderer) Render(p *Pattern, begin, end, tempo float64) ([]float64, []float64, error) {
	if p == nil || len(p.steps) == 0 {
		return nil, nil, fmt.Errorf("nil or empty pattern")
	}
	if tempo <= 0 || end < begin {
		return nil, nil, fmt.Errorf("bad window [%v, %v) at %v cps", begin, end, tempo)
	}

	n := int(math.Round((end - begin) / tempo * audio.SampleRate))
	left, right := audio.Silence(n)

	// Onsets up to maxVoiceSeconds before the window can still be sounding.
	tail := maxVoiceSeconds * tempo
	firstCycle := int(math.Floor(begin - tail))
	lastCycle := int(math.Ceil(end))

	stepLen := 1.0 / float64(len(p.steps))
	for k := firstCycle; k < lastCycle; k++ {
		for i, st := range p.steps {
			if st.rest {
				continue
			}
			onset := float64(k) + float64(i)*stepLen
			if onset >= end || onset+tail <= begin {
				continue
			}
			// Sample index of the onset relative to the window start;
			// negative for events already sounding when the window opens.
			at := int(math.Round((onset - begin) / tempo * audio.SampleRate))
			renderVoice(left, right, at, st)
		}
	}
	return left, right, nil
}

// renderVoice adds one event's envelope into the buffers starting at sample
// index `at` (possibly negative).
func renderVoice(left, right []float64, at int, st step) {
	dur := voiceDuration(st)
	total := int(dur * audio.SampleRate)
	from := 0
	if at < 0 {
		from = -at
	}
	for j := from; j < total && at+j < len(left); j++ {
		t := float64(j) / audio.SampleRate
		s := voiceSample(st, t, dur)
		left[at+j] += s
		right[at+j] += s
	}
}

func voiceDuration(st step) float64 {
	switch st.voice {
	case voiceKick:
		return 0.25
	case voiceSnare:
		return 0.18
	case voiceHat:
		return 0.06
	case voiceClap:
		return 0.12
	default:
		return 0.3
	}
}

// voiceSample evaluates one voice at time t seconds into its envelope.
// Everything here is a pure function of (step, t), which is what keeps
// Render stateless.
func voiceSample(st step, t, dur float64) float64 {
	env := math.Exp(-6 * t / dur)
	switch st.voice {
	case voiceKick:
		// Sine with an exponential pitch sweep 120 -> 45 Hz.
		f := 45 + 75*math.Exp(-t*30)
		return 0.9 * env * math.Sin(2*math.Pi*f*t)
	case voiceSnare:
		return env * (0.5*noise(t) + 0.3*math.Sin(2*math.Pi*180*t))
	case voiceHat:
		return 0.4 * env * noise(t+7.0)
	case voiceClap:
		return 0.6 * env * noise(t+13.0)
	case voiceNote:
		f := midiFreq(st.note)
		return 0.5 * env * math.Sin(2*math.Pi*f*t)
	}
	return 0
}

// noise is deterministic white-ish noise: a hash of the time argument rather
// than a PRNG stream, so repeated renders of a window are bit-identical.
func noise(t float64) float64 {
	x := math.Sin(t*127731.9898) * 43758.5453
	return 2*(x-math.Floor(x)) - 1
}

func midiFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
