package acoustic

import (
	"math"
)

const (
	levelGain      = 5.0  // fixed gain applied to frame RMS before clamping
	levelSmoothing = 0.25 // single-pole smoothing factor, fast attack and release
)

// LevelTracker computes a loudness scalar per frame and exponentially smooths
// it for stable level reporting. The smoothed level is pure telemetry for the
// consumer's visualizer, it is neither gated nor thresholded. State belongs
// to one session and is reset to zero when a session starts.
type LevelTracker struct {
	level float64
}

// Update computes the RMS of the frame samples, scales and clamps it to
// [0,1] and folds it into the smoothed level. Returns the new smoothed value.
func (t *LevelTracker) Update(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}

	var target float64
	if len(samples) > 0 {
		target = math.Sqrt(sum/float64(len(samples))) * levelGain
	}
	if target > 1 {
		target = 1
	}

	t.level += (target - t.level) * levelSmoothing
	return t.level
}

// Level returns the current smoothed level in [0,1].
func (t *LevelTracker) Level() float64 {
	return t.level
}

// Reset zeroes the smoothed level for a fresh session.
func (t *LevelTracker) Reset() {
	t.level = 0
}
