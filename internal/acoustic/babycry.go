package acoustic

// Baby cry calibration. Infant cries carry a 250-600 Hz fundamental with a
// rich harmonic stack, any corroborating harmonic confirms the detection.
// The topmost harmonic band gets a relaxed threshold (0.8 multiplier), a
// tuning inherited from field calibration. TODO: recalibrate the relaxed
// high-harmonic threshold against a labelled cry corpus.
const (
	babyCryFundLoHz = 250.0
	babyCryFundHiHz = 600.0

	babyCryFundPeakMin = 80.0
	babyCryFundAvgMin  = 35.0
	babyCryHarmPeakMin = 45.0

	// relaxed threshold for the highest harmonic band only
	babyCryHighHarmRelax = 0.8

	babyCryMaxConfidence = 0.92
)

type babyCryHarmonic struct {
	loHz, hiHz float64
	relaxed    bool
}

var babyCryHarmonics = []babyCryHarmonic{
	{800, 1400, false},
	{1600, 2800, false},
	{3000, 4500, true},
}

// BabyCryClassifier detects the baby crying signature.
type BabyCryClassifier struct{}

// Kind implements Classifier.
func (c *BabyCryClassifier) Kind() SignatureKind { return BabyCry }

// Classify implements Classifier.
func (c *BabyCryClassifier) Classify(s *Spectrum) (Candidate, bool) {
	fund := s.Band(babyCryFundLoHz, babyCryFundHiHz)
	if fund.Peak <= babyCryFundPeakMin || fund.Avg <= babyCryFundAvgMin {
		return Candidate{}, false
	}

	var (
		harmonicConfirmed bool
		harmonicPeakSum   float64
		dominant          = fund
	)

	for _, h := range babyCryHarmonics {
		stats := s.Band(h.loHz, h.hiHz)
		harmonicPeakSum += stats.Peak

		threshold := babyCryHarmPeakMin
		if h.relaxed {
			threshold *= babyCryHighHarmRelax
		}
		if stats.Peak > threshold {
			harmonicConfirmed = true
			if stats.Peak > dominant.Peak {
				dominant = stats
			}
		}
	}

	if !harmonicConfirmed {
		return Candidate{}, false
	}

	confidence := 0.4*ratio(fund.Peak, 150) +
		0.4*ratio(harmonicPeakSum, 200) +
		0.2*ratio(fund.Avg, 70)

	return Candidate{
		Kind:        BabyCry,
		Confidence:  clampConfidence(confidence, babyCryMaxConfidence),
		FrequencyHz: dominant.PeakHz,
		Amplitude:   dominant.Peak,
	}, true
}
