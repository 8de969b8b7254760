package acoustic

// Fire alarm calibration. Domestic smoke alarms beep at a nominal 3.1 kHz
// with a strong second harmonic near 6.2 kHz, the harmonic is required to
// corroborate the fundamental and reject broadband noise.
const (
	fireFundamentalLoHz = 2950.0
	fireFundamentalHiHz = 3250.0
	fireHarmonicLoHz    = 6085.0
	fireHarmonicHiHz    = 6315.0

	fireFundPeakMin = 120.0
	fireFundAvgMin  = 40.0
	fireHarmPeakMin = 60.0

	fireMaxConfidence = 0.98
)

// FireAlarmClassifier detects the fire alarm beep signature.
type FireAlarmClassifier struct{}

// Kind implements Classifier.
func (c *FireAlarmClassifier) Kind() SignatureKind { return Fire }

// Classify implements Classifier.
func (c *FireAlarmClassifier) Classify(s *Spectrum) (Candidate, bool) {
	fund := s.Band(fireFundamentalLoHz, fireFundamentalHiHz)
	harm := s.Band(fireHarmonicLoHz, fireHarmonicHiHz)

	if fund.Peak <= fireFundPeakMin || fund.Avg <= fireFundAvgMin || harm.Peak <= fireHarmPeakMin {
		return Candidate{}, false
	}

	confidence := 0.5*ratio(fund.Peak, 200) +
		0.3*ratio(harm.Peak, 120) +
		0.2*ratio(fund.Avg, 80)

	dominant := fund
	if harm.Peak > fund.Peak {
		dominant = harm
	}

	return Candidate{
		Kind:        Fire,
		Confidence:  clampConfidence(confidence, fireMaxConfidence),
		FrequencyHz: dominant.PeakHz,
		Amplitude:   dominant.Peak,
	}, true
}
