package acoustic

import (
	"sync"
	"time"
)

// Per-kind gating calibration. Fire alarms get a lower confidence bar and a
// shorter cooldown, a missed real alarm costs far more than a false
// positive. The other signatures favor suppression of repeats.
const (
	fireConfidenceThreshold    = 0.75
	defaultConfidenceThreshold = 0.70

	fireCooldown    = 3 * time.Second
	defaultCooldown = 8 * time.Second
)

// ConfidenceThreshold returns the minimum candidate confidence for the kind
// to be eligible for emission.
func ConfidenceThreshold(kind SignatureKind) float64 {
	if kind == Fire {
		return fireConfidenceThreshold
	}
	return defaultConfidenceThreshold
}

// Cooldown returns the minimum interval between two emitted events of the
// same kind.
func Cooldown(kind SignatureKind) time.Duration {
	if kind == Fire {
		return fireCooldown
	}
	return defaultCooldown
}

// GateDecision explains why a candidate was dropped.
type GateDecision int

const (
	GateAdmitted      GateDecision = iota
	GateLowConfidence // confidence at or below the kind's threshold
	GateCooling       // kind is still within its cooldown window
)

// String returns the decision label used in metrics and logs.
func (d GateDecision) String() string {
	switch d {
	case GateAdmitted:
		return "admitted"
	case GateLowConfidence:
		return "low_confidence"
	case GateCooling:
		return "cooling"
	default:
		return "unknown"
	}
}

// EventGate turns noisy continuous candidate streams into clean, rate
// limited discrete emissions. Each kind is either armed, meaning it may
// emit, or cooling after an emission until its cooldown elapses. Dropping a
// candidate is expected steady-state behavior, not an error.
//
// Gate state lives for one listening session, Reset is called whenever a
// session starts so no detection timing leaks between sessions.
type EventGate struct {
	mu          sync.Mutex
	lastEmitted map[SignatureKind]time.Time // populated only for kinds that have fired
	now         func() time.Time
}

// NewEventGate returns a gate with every kind armed.
func NewEventGate() *EventGate {
	return &EventGate{
		lastEmitted: make(map[SignatureKind]time.Time),
		now:         time.Now,
	}
}

// Check applies the confidence gate and the cooldown gate, in that order.
// On admission the kind enters cooling and the emission time is returned.
func (g *EventGate) Check(c Candidate) (time.Time, GateDecision) {
	if c.Confidence <= ConfidenceThreshold(c.Kind) {
		return time.Time{}, GateLowConfidence
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, fired := g.lastEmitted[c.Kind]; fired && now.Sub(last) <= Cooldown(c.Kind) {
		return time.Time{}, GateCooling
	}

	g.lastEmitted[c.Kind] = now
	return now, GateAdmitted
}

// Armed reports whether the kind may currently emit.
func (g *EventGate) Armed(kind SignatureKind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, fired := g.lastEmitted[kind]
	return !fired || g.now().Sub(last) > Cooldown(kind)
}

// Reset clears all cooldown state, re-arming every kind.
func (g *EventGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastEmitted = make(map[SignatureKind]time.Time)
}
