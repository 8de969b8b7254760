package events

import (
	"log/slog"

	"github.com/tphakala/soundwatch-go/internal/acoustic"
	"github.com/tphakala/soundwatch-go/internal/logging"
)

// LogConsumer writes every detection to the detections service log.
type LogConsumer struct {
	logger *slog.Logger
}

// NewLogConsumer returns a consumer logging to the given logger, or the
// default detections service logger when nil.
func NewLogConsumer(logger *slog.Logger) *LogConsumer {
	if logger == nil {
		logger = logging.ForService("detections")
	}
	return &LogConsumer{logger: logger}
}

// Name implements Consumer.
func (c *LogConsumer) Name() string { return "log" }

// ProcessDetection implements Consumer.
func (c *LogConsumer) ProcessDetection(event *acoustic.DetectionEvent) error {
	c.logger.Info("detection event",
		"id", event.ID,
		"kind", event.KindName,
		"confidence", event.Confidence,
		"frequency_hz", event.FrequencyHz,
		"amplitude", event.Amplitude,
		"timestamp_millis", event.TimestampMillis,
		"source", event.Source)
	return nil
}
