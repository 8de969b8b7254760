package acoustic

// Doorbell calibration. Chimes spread their energy over a low strike tone,
// a mid body and an upper overtone, so the classifier scores three weighted
// ranges and requires at least two of them to ring at once.
const (
	doorbellRangePeakMin = 65.0
	doorbellRangeAvgMin  = 25.0

	doorbellMinActiveRanges = 2
	doorbellScoreMin        = 180.0
	doorbellScoreScale      = 350.0

	doorbellMaxConfidence = 0.95
)

type doorbellRange struct {
	loHz, hiHz float64
	weight     float64
}

var doorbellRanges = []doorbellRange{
	{350, 550, 0.3},
	{700, 1000, 0.4},
	{1200, 1600, 0.3},
}

// DoorbellClassifier detects the doorbell chime signature.
type DoorbellClassifier struct{}

// Kind implements Classifier.
func (c *DoorbellClassifier) Kind() SignatureKind { return Doorbell }

// Classify implements Classifier.
func (c *DoorbellClassifier) Classify(s *Spectrum) (Candidate, bool) {
	var (
		activeRanges  int
		weightedScore float64
		dominant      BandStats
	)

	for _, r := range doorbellRanges {
		stats := s.Band(r.loHz, r.hiHz)
		if stats.Peak <= doorbellRangePeakMin || stats.Avg <= doorbellRangeAvgMin {
			continue
		}
		activeRanges++
		weightedScore += (stats.Peak + stats.Avg) * r.weight
		if stats.Peak > dominant.Peak {
			dominant = stats
		}
	}

	if activeRanges < doorbellMinActiveRanges || weightedScore <= doorbellScoreMin {
		return Candidate{}, false
	}

	return Candidate{
		Kind:        Doorbell,
		Confidence:  clampConfidence(weightedScore/doorbellScoreScale, doorbellMaxConfidence),
		FrequencyHz: dominant.PeakHz,
		Amplitude:   dominant.Peak,
	}, true
}
