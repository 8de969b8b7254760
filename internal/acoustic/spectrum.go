package acoustic

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/tphakala/soundwatch-go/internal/errors"
)

// Spectrum is the frequency-magnitude view of a single frame. Magnitudes are
// byte scale (0-255), mapped from the configured decibel range so that
// classifier band thresholds calibrated once stay valid across cycles.
// A Spectrum is cycle-local, it is produced fresh for every frame and
// discarded after classification.
type Spectrum struct {
	Magnitudes []byte
	SampleRate int
}

// BinCount returns the number of frequency bins.
func (s *Spectrum) BinCount() int {
	return len(s.Magnitudes)
}

// BinToFreq converts a bin index to its center frequency in Hz.
func (s *Spectrum) BinToFreq(bin int) float64 {
	return float64(bin) * float64(s.SampleRate) / float64(2*s.BinCount())
}

// FreqToBin converts a frequency in Hz to the nearest bin index, clamped to
// the valid bin range.
func (s *Spectrum) FreqToBin(freq float64) int {
	bin := int(math.Round(freq * float64(2*s.BinCount()) / float64(s.SampleRate)))
	if bin < 0 {
		return 0
	}
	if bin >= s.BinCount() {
		return s.BinCount() - 1
	}
	return bin
}

// BandStats summarizes the magnitudes within one frequency band.
type BandStats struct {
	Peak    float64 // largest magnitude in the band
	Avg     float64 // mean magnitude across the band
	PeakHz  float64 // center frequency of the peak bin
	PeakBin int
}

// Band computes peak and average magnitude over the inclusive bin range
// covering [loHz, hiHz].
func (s *Spectrum) Band(loHz, hiHz float64) BandStats {
	lo := s.FreqToBin(loHz)
	hi := s.FreqToBin(hiHz)
	if hi < lo {
		lo, hi = hi, lo
	}

	var stats BandStats
	var sum float64
	for bin := lo; bin <= hi; bin++ {
		m := float64(s.Magnitudes[bin])
		sum += m
		if m > stats.Peak {
			stats.Peak = m
			stats.PeakBin = bin
		}
	}
	stats.Avg = sum / float64(hi-lo+1)
	stats.PeakHz = s.BinToFreq(stats.PeakBin)
	return stats
}

// AnalyzerConfig holds the fixed spectral analysis configuration. The
// defaults mirror the calibration the classifiers were tuned against, change
// them and the classifier thresholds need re-tuning too.
type AnalyzerConfig struct {
	FFTSize               int     // transform size, power of two
	SmoothingTimeConstant float64 // temporal smoothing of magnitudes across frames, [0,1)
	MinDecibels           float64 // magnitude mapped to byte value 0
	MaxDecibels           float64 // magnitude mapped to byte value 255
}

// DefaultAnalyzerConfig returns the calibrated analyzer configuration:
// a 16384-point transform (8192 bins), 0.8 smoothing and a -100..-30 dB
// display range.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		FFTSize:               16384,
		SmoothingTimeConstant: 0.8,
		MinDecibels:           -100,
		MaxDecibels:           -30,
	}
}

// SpectralAnalyzer transforms time-domain frames into byte-scale magnitude
// spectra. It keeps the previous cycle's smoothed magnitudes for temporal
// smoothing, so one analyzer belongs to exactly one session and is not safe
// for concurrent use.
type SpectralAnalyzer struct {
	cfg      AnalyzerConfig
	window   []float64 // precomputed Hann window
	smoothed []float64 // smoothed linear magnitudes carried across frames
}

// NewSpectralAnalyzer constructs an analyzer for the given configuration.
// Construction fails with an analysis-init error if the configuration cannot
// produce a valid transform, such a failure is fatal to the session.
func NewSpectralAnalyzer(cfg AnalyzerConfig) (*SpectralAnalyzer, error) {
	if cfg.FFTSize < 32 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, errors.Newf("fft size %d is not a power of two >= 32", cfg.FFTSize).
			Component("acoustic").
			Category(errors.CategoryAnalysisInit).
			Context("fft_size", cfg.FFTSize).
			Build()
	}
	if cfg.SmoothingTimeConstant < 0 || cfg.SmoothingTimeConstant >= 1 {
		return nil, errors.Newf("smoothing time constant %.2f out of range [0,1)", cfg.SmoothingTimeConstant).
			Component("acoustic").
			Category(errors.CategoryAnalysisInit).
			Build()
	}
	if cfg.MinDecibels >= cfg.MaxDecibels {
		return nil, errors.Newf("decibel range invalid: min %.1f >= max %.1f", cfg.MinDecibels, cfg.MaxDecibels).
			Component("acoustic").
			Category(errors.CategoryAnalysisInit).
			Build()
	}

	window := make([]float64, cfg.FFTSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(cfg.FFTSize-1)))
	}

	return &SpectralAnalyzer{
		cfg:      cfg,
		window:   window,
		smoothed: make([]float64, cfg.FFTSize/2),
	}, nil
}

// FFTSize returns the configured transform size, which is also the expected
// frame length.
func (a *SpectralAnalyzer) FFTSize() int {
	return a.cfg.FFTSize
}

// Reset clears the temporal smoothing state. Called on session start so no
// spectral state leaks between sessions.
func (a *SpectralAnalyzer) Reset() {
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}

// Analyze transforms one frame into its magnitude spectrum. The frame is
// validated first, a malformed frame produces a frame-malformed error and
// leaves the smoothing state untouched.
func (a *SpectralAnalyzer) Analyze(frame *Frame) (*Spectrum, error) {
	if err := frame.Validate(a.cfg.FFTSize); err != nil {
		return nil, err
	}

	windowed := make([]float64, a.cfg.FFTSize)
	for i, s := range frame.Samples {
		windowed[i] = s * a.window[i]
	}

	bins := fft.FFTReal(windowed)

	tau := a.cfg.SmoothingTimeConstant
	dbRange := a.cfg.MaxDecibels - a.cfg.MinDecibels
	out := make([]byte, a.cfg.FFTSize/2)

	for i := range out {
		// Normalized linear magnitude, smoothed against the previous frame.
		mag := cmplx.Abs(bins[i]) / float64(a.cfg.FFTSize)
		a.smoothed[i] = tau*a.smoothed[i] + (1-tau)*mag

		db := 20 * math.Log10(a.smoothed[i])
		scaled := 255 * (db - a.cfg.MinDecibels) / dbRange
		switch {
		case scaled < 0 || math.IsNaN(scaled):
			out[i] = 0
		case scaled > 255:
			out[i] = 255
		default:
			out[i] = byte(scaled)
		}
	}

	return &Spectrum{Magnitudes: out, SampleRate: frame.SampleRate}, nil
}
