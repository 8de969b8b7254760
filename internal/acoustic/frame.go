package acoustic

import (
	"math"

	"github.com/tphakala/soundwatch-go/internal/errors"
)

// Frame is a fixed-length buffer of time-domain samples in the normalized
// range [-1, 1], together with the sample rate in force when it was captured.
// Frames are immutable once produced and owned by the engine for exactly one
// analysis cycle.
type Frame struct {
	Samples    []float64
	SampleRate int
}

// Validate checks that the frame has the expected length, a usable sample
// rate and only finite samples. A failed validation marks the frame as
// malformed, the engine skips the cycle but stays live for the next frame.
func (f *Frame) Validate(expectedLength int) error {
	if f == nil {
		return errors.Newf("nil frame").
			Component("acoustic").
			Category(errors.CategoryFrameMalformed).
			Build()
	}
	if len(f.Samples) != expectedLength {
		return errors.Newf("frame has %d samples, expected %d", len(f.Samples), expectedLength).
			Component("acoustic").
			Category(errors.CategoryFrameMalformed).
			Context("frame_length", len(f.Samples)).
			Build()
	}
	if f.SampleRate <= 0 {
		return errors.Newf("frame has invalid sample rate %d", f.SampleRate).
			Component("acoustic").
			Category(errors.CategoryFrameMalformed).
			Context("sample_rate", f.SampleRate).
			Build()
	}
	for i, s := range f.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return errors.Newf("frame contains non-finite sample at index %d", i).
				Component("acoustic").
				Category(errors.CategoryFrameMalformed).
				Context("sample_index", i).
				Build()
		}
	}
	return nil
}
