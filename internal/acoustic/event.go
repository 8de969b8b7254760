package acoustic

import (
	"time"

	"github.com/google/uuid"
)

// DetectionEvent is the externally visible unit of output, one event is one
// discrete user-facing detection. Persistence and rendering of events is the
// consumer's responsibility.
type DetectionEvent struct {
	ID              string        `json:"id"`
	Kind            SignatureKind `json:"-"`
	KindName        string        `json:"kind"`
	Confidence      float64       `json:"confidence"`
	TimestampMillis int64         `json:"timestamp_millis"`
	FrequencyHz     float64       `json:"frequency_hz"`
	Amplitude       float64       `json:"amplitude"`
	Source          string        `json:"source"` // capture source name
}

// NewDetectionEvent builds an event from an admitted candidate.
func NewDetectionEvent(c Candidate, at time.Time, source string) *DetectionEvent {
	return &DetectionEvent{
		ID:              uuid.New().String(),
		Kind:            c.Kind,
		KindName:        c.Kind.String(),
		Confidence:      c.Confidence,
		TimestampMillis: at.UnixMilli(),
		FrequencyHz:     c.FrequencyHz,
		Amplitude:       c.Amplitude,
		Source:          source,
	}
}

// Time returns the event timestamp as a time.Time.
func (e *DetectionEvent) Time() time.Time {
	return time.UnixMilli(e.TimestampMillis)
}
