package lidar

import "time"

// PulseState is the scheduler's externally visible state.
type PulseState int

const (
	// PulseIdle means the trigger is released or the scanner is disabled.
	PulseIdle PulseState = iota
	// PulsePulsing means scanning against a nearby surface.
	PulsePulsing
)

func (s PulseState) String() string {
	switch s {
	case PulseIdle:
		return "idle"
	case PulsePulsing:
		return "pulsing"
	default:
		return "unknown"
	}
}

// PulseDecision is the outcome of one scheduler evaluation.
type PulseDecision int

const (
	// DecisionIdle: not scanning; beams must be hidden.
	DecisionIdle PulseDecision = iota
	// DecisionWait: scanning, but no surface in range or interval not elapsed.
	DecisionWait
	// DecisionFire: run one sampling pass and one fan pulse now.
	DecisionFire
)

func (d PulseDecision) String() string {
	switch d {
	case DecisionIdle:
		return "idle"
	case DecisionWait:
		return "wait"
	case DecisionFire:
		return "fire"
	default:
		return "unknown"
	}
}

// PulseScheduler is the fixed-interval, surface-gated pulse timer. It is
// polled once per frame; there is no retry or backoff.
type PulseScheduler struct {
	interval time.Duration
	next     time.Time // zero until the first pulse, so the first eligible frame fires
	state    PulseState
}

// NewPulseScheduler returns an idle scheduler.
func NewPulseScheduler(interval time.Duration) *PulseScheduler {
	return &PulseScheduler{interval: interval}
}

// State returns the state after the most recent Evaluate.
func (s *PulseScheduler) State() PulseState { return s.state }

// Evaluate decides what this frame does. nearSurface is only consulted
// while scanning.
func (s *PulseScheduler) Evaluate(now time.Time, scanning, nearSurface bool) PulseDecision {
	if !scanning {
		s.state = PulseIdle
		return DecisionIdle
	}
	if !nearSurface {
		s.state = PulseIdle
		return DecisionWait
	}
	s.state = PulsePulsing
	if now.Before(s.next) {
		return DecisionWait
	}
	s.next = now.Add(s.interval)
	return DecisionFire
}
