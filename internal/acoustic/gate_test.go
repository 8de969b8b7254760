package acoustic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGate returns a gate with a controllable clock.
func newTestGate(start time.Time) (*EventGate, *time.Time) {
	now := start
	gate := NewEventGate()
	gate.now = func() time.Time { return now }
	return gate, &now
}

func fireCandidate(confidence float64) Candidate {
	return Candidate{Kind: Fire, Confidence: confidence, FrequencyHz: 3100, Amplitude: 150}
}

func TestGateConfidenceThresholds(t *testing.T) {
	assert.InDelta(t, 0.75, ConfidenceThreshold(Fire), 1e-9)
	assert.InDelta(t, 0.70, ConfidenceThreshold(Doorbell), 1e-9)
	assert.InDelta(t, 0.70, ConfidenceThreshold(BabyCry), 1e-9)
}

func TestGateCooldowns(t *testing.T) {
	assert.Equal(t, 3*time.Second, Cooldown(Fire))
	assert.Equal(t, 8*time.Second, Cooldown(Doorbell))
	assert.Equal(t, 8*time.Second, Cooldown(BabyCry))
}

func TestGateRejectsLowConfidence(t *testing.T) {
	gate, _ := newTestGate(time.Now())

	_, decision := gate.Check(fireCandidate(0.74))
	assert.Equal(t, GateLowConfidence, decision)

	// Threshold is exclusive.
	_, decision = gate.Check(fireCandidate(0.75))
	assert.Equal(t, GateLowConfidence, decision)

	_, decision = gate.Check(fireCandidate(0.76))
	assert.Equal(t, GateAdmitted, decision)
}

func TestGateCooldownSuppressesRepeats(t *testing.T) {
	start := time.Now()
	gate, now := newTestGate(start)

	when, decision := gate.Check(fireCandidate(0.9))
	require.Equal(t, GateAdmitted, decision)
	assert.Equal(t, start, when)

	// 1000ms later, still cooling.
	*now = start.Add(1000 * time.Millisecond)
	_, decision = gate.Check(fireCandidate(0.9))
	assert.Equal(t, GateCooling, decision)

	// 3500ms after the first emission, armed again.
	*now = start.Add(3500 * time.Millisecond)
	when, decision = gate.Check(fireCandidate(0.9))
	assert.Equal(t, GateAdmitted, decision)
	assert.Equal(t, start.Add(3500*time.Millisecond), when)
}

func TestGateKindsAreIndependent(t *testing.T) {
	gate, _ := newTestGate(time.Now())

	_, decision := gate.Check(fireCandidate(0.9))
	require.Equal(t, GateAdmitted, decision)

	// Fire cooling does not affect the other kinds.
	_, decision = gate.Check(Candidate{Kind: Doorbell, Confidence: 0.9})
	assert.Equal(t, GateAdmitted, decision)
	_, decision = gate.Check(Candidate{Kind: BabyCry, Confidence: 0.9})
	assert.Equal(t, GateAdmitted, decision)
}

func TestGateArmedTracksCooldown(t *testing.T) {
	start := time.Now()
	gate, now := newTestGate(start)

	// Kinds that never fired are armed.
	for _, kind := range Kinds() {
		assert.True(t, gate.Armed(kind))
	}

	_, decision := gate.Check(fireCandidate(0.9))
	require.Equal(t, GateAdmitted, decision)
	assert.False(t, gate.Armed(Fire))

	*now = start.Add(3001 * time.Millisecond)
	assert.True(t, gate.Armed(Fire))
}

func TestGateResetRearmsImmediately(t *testing.T) {
	start := time.Now()
	gate, now := newTestGate(start)

	_, decision := gate.Check(fireCandidate(0.9))
	require.Equal(t, GateAdmitted, decision)

	// Session restart: the same strong signal fires again without waiting
	// out the previous cooldown.
	gate.Reset()
	*now = start.Add(100 * time.Millisecond)
	_, decision = gate.Check(fireCandidate(0.9))
	assert.Equal(t, GateAdmitted, decision)
}

func TestGateDecisionString(t *testing.T) {
	assert.Equal(t, "admitted", GateAdmitted.String())
	assert.Equal(t, "low_confidence", GateLowConfidence.String())
	assert.Equal(t, "cooling", GateCooling.String())
}
