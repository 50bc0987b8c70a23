// Package pattern holds the symbolic pattern boundary: compiled pattern
// handles and the renderer contract that turns a time window of pattern
// cycles into raw stereo samples.
package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

type voice int

const (
	voiceKick voice = iota
	voiceSnare
	voiceHat
	voiceClap
	voiceNote
)

type step struct {
	rest  bool
	voice voice
	note  int // MIDI note number, voiceNote only
}

// Pattern is a compiled pattern handle. Handles are immutable; a new
// submission compiles a new handle and the session swaps it in wholesale.
type Pattern struct {
	source string
	steps  []step
}

// Source returns the original pattern text, for status display.
func (p *Pattern) Source() string { return p.source }

// Steps returns the number of steps per cycle.
func (p *Pattern) Steps() int { return len(p.steps) }

// Compile parses pattern mini-notation into a handle. A pattern is a
// whitespace-separated list of steps spread evenly over one cycle:
// "~" is a rest, "bd"/"sn"/"hh"/"cp" are drum voices, and a number 0-127
// is a MIDI note.
func Compile(source string) (*Pattern, error) {
	fields := strings.Fields(source)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	steps := make([]step, 0, len(fields))
	for _, tok := range fields {
		switch strings.ToLower(tok) {
		case "~":
			steps = append(steps, step{rest: true})
		case "bd":
			steps = append(steps, step{voice: voiceKick})
		case "sn":
			steps = append(steps, step{voice: voiceSnare})
		case "hh":
			steps = append(steps, step{voice: voiceHat})
		case "cp":
			steps = append(steps, step{voice: voiceClap})
		default:
			n, err := strconv.Atoi(tok)
			if err != nil || n < 0 || n > 127 {
				return nil, fmt.Errorf("unknown step %q", tok)
			}
			steps = append(steps, step{voice: voiceNote, note: n})
		}
	}
	return &Pattern{source: source, steps: steps}, nil
}
