// Package acoustic implements the sound signature detection engine: spectral
// analysis of incoming audio frames, per-signature classification heuristics,
// audio level smoothing and event gating.
package acoustic

import (
	"sync/atomic"
)

// SignatureKind identifies one of the acoustic signatures the engine can
// recognize. The set is closed, classifiers are registered per kind at
// engine construction and never at runtime.
type SignatureKind int

const (
	Fire SignatureKind = iota // fire alarm beep pattern
	Doorbell
	BabyCry

	numKinds
)

// Kinds returns all signature kinds in declaration order.
func Kinds() []SignatureKind {
	return []SignatureKind{Fire, Doorbell, BabyCry}
}

// String returns the kind name used in logs, metrics and published events.
func (k SignatureKind) String() string {
	switch k {
	case Fire:
		return "fire_alarm"
	case Doorbell:
		return "doorbell"
	case BabyCry:
		return "baby_cry"
	default:
		return "unknown"
	}
}

// EnabledMask tracks which signature kinds are enabled for classification.
// The consumer may toggle kinds at any time while a session is running, the
// engine reads the mask fresh on every cycle. Implemented as an atomic
// bitmask so the per-cycle read does not take a lock.
type EnabledMask struct {
	bits atomic.Uint32
}

// NewEnabledMask returns a mask with all signature kinds enabled.
func NewEnabledMask() *EnabledMask {
	m := &EnabledMask{}
	for _, k := range Kinds() {
		m.Set(k, true)
	}
	return m
}

// Set enables or disables classification for the given kind.
func (m *EnabledMask) Set(kind SignatureKind, enabled bool) {
	for {
		old := m.bits.Load()
		var next uint32
		if enabled {
			next = old | 1<<uint(kind)
		} else {
			next = old &^ (1 << uint(kind))
		}
		if m.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Enabled reports whether classification for the given kind is enabled.
func (m *EnabledMask) Enabled(kind SignatureKind) bool {
	return m.bits.Load()&(1<<uint(kind)) != 0
}
