package analysis

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tphakala/soundwatch-go/internal/acoustic"
	"github.com/tphakala/soundwatch-go/internal/conf"
	"github.com/tphakala/soundwatch-go/internal/logging"
	"github.com/tphakala/soundwatch-go/internal/myaudio"
)

// countingSource wraps a frame source and counts delivered frames so event
// positions can be reported as offsets into the stream.
type countingSource struct {
	*myaudio.FileSource
	frames atomic.Int64
}

func (s *countingSource) ReadFrame(ctx context.Context) (*acoustic.Frame, error) {
	frame, err := s.FileSource.ReadFrame(ctx)
	if err == nil {
		s.frames.Add(1)
	}
	return frame, err
}

// fileReporter prints every detection with its offset into the input file.
type fileReporter struct {
	source      *countingSource
	frameLength int
	detections  atomic.Int64
}

func (r *fileReporter) Publish(event *acoustic.DetectionEvent) bool {
	r.detections.Add(1)
	offset := float64(r.source.frames.Load()-1) * float64(r.frameLength) / float64(r.source.SampleRate())
	fmt.Printf("%8.2fs  %-10s  confidence %.2f  %.0f Hz\n",
		offset, event.KindName, event.Confidence, event.FrequencyHz)
	return true
}

// FileAnalysis runs the detection engine over a WAV file and prints the
// detections with their positions in the stream.
func FileAnalysis(ctx context.Context, settings *conf.Settings) error {
	logger := logging.ForService("analysis")

	source, err := myaudio.NewFileSource(settings.Input.Path, conf.FFTSize)
	if err != nil {
		return err
	}
	counting := &countingSource{FileSource: source}
	reporter := &fileReporter{source: counting, frameLength: conf.FFTSize}

	engine, err := acoustic.NewEngine(acoustic.EngineConfig{
		Analyzer:  analyzerConfig(),
		Enabled:   EnabledMaskFromSettings(settings),
		Publisher: reporter,
	})
	if err != nil {
		return err
	}

	logger.Info("file analysis starting", "path", settings.Input.Path)
	if err := engine.Run(ctx, counting); err != nil {
		return err
	}

	if reporter.detections.Load() == 0 {
		fmt.Println("no detections")
	}
	return nil
}
