package acoustic

// Candidate is a provisional, per-cycle detection produced by a classifier
// before gating. It is not user-visible, the EventGate decides whether it
// becomes a DetectionEvent. At most one Candidate per kind exists per cycle.
type Candidate struct {
	Kind        SignatureKind
	Confidence  float64 // [0,1], clamped to the kind's ceiling
	FrequencyHz float64 // dominant frequency of the contributing band with the largest peak
	Amplitude   float64 // byte-scale peak magnitude of that band
}

// Classifier inspects a spectrum and emits at most one candidate detection
// for its signature kind. Implementations are pure, all per-kind calibration
// lives in fixed constants. The formulas and thresholds are empirically
// tuned calibration data, reproduce them exactly rather than "improving"
// them.
type Classifier interface {
	Kind() SignatureKind
	Classify(s *Spectrum) (Candidate, bool)
}

// Classifiers returns one classifier per signature kind, in kind order.
func Classifiers() []Classifier {
	return []Classifier{
		&FireAlarmClassifier{},
		&DoorbellClassifier{},
		&BabyCryClassifier{},
	}
}

func clampConfidence(confidence, ceiling float64) float64 {
	if confidence > ceiling {
		return ceiling
	}
	if confidence < 0 {
		return 0
	}
	return confidence
}

func ratio(value, reference float64) float64 {
	r := value / reference
	if r > 1 {
		return 1
	}
	return r
}
