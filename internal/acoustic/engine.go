package acoustic

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/tphakala/soundwatch-go/internal/errors"
	"github.com/tphakala/soundwatch-go/internal/logging"
	"github.com/tphakala/soundwatch-go/internal/observability/metrics"
)

// FrameSource supplies successive fixed-size audio frames at a known sample
// rate and owns the capture resource lifecycle. Implementations live in the
// myaudio package, the engine only consumes frames.
type FrameSource interface {
	// Name identifies the source in events and logs.
	Name() string
	// ReadFrame blocks until the next frame is available. It returns
	// io.EOF when the source is exhausted and the context error when the
	// context is cancelled.
	ReadFrame(ctx context.Context) (*Frame, error)
	// Close releases the capture resource.
	Close() error
}

// Publisher receives emitted detection events. The events package provides
// the production implementation, tests use a local collector. Publish must
// not block the analysis loop.
type Publisher interface {
	Publish(event *DetectionEvent) bool
}

// LevelUpdate carries the smoothed audio level published after every cycle.
type LevelUpdate struct {
	Level  float64
	Source string
}

// EngineConfig assembles an engine.
type EngineConfig struct {
	Analyzer  AnalyzerConfig
	Enabled   *EnabledMask           // read fresh every cycle, may be toggled anytime
	Publisher Publisher              // optional
	LevelChan chan<- LevelUpdate     // optional, sends are non-blocking
	Metrics   *metrics.EngineMetrics // optional
	Logger    *slog.Logger           // optional, defaults to the engine service logger
}

// Engine drives one analysis cycle per incoming frame: spectral analysis,
// level tracking, classification of enabled kinds and event gating. All
// per-session state (gate timing, smoothed level, spectral smoothing) is
// owned exclusively by the engine and reset when a session starts, single
// threaded by construction: one Run loop mutates it and nothing else.
type Engine struct {
	analyzer    *SpectralAnalyzer
	tracker     LevelTracker
	gate        *EventGate
	classifiers []Classifier

	enabled   *EnabledMask
	publisher Publisher
	levelChan chan<- LevelUpdate
	metrics   *metrics.EngineMetrics
	logger    *slog.Logger

	running    atomic.Bool
	levelBits  atomic.Uint64 // float64 bits of the current smoothed level
	sourceName string
}

// NewEngine constructs an engine. Construction fails with an analysis-init
// error if the spectral transform cannot be built.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	analyzer, err := NewSpectralAnalyzer(cfg.Analyzer)
	if err != nil {
		return nil, err
	}

	enabled := cfg.Enabled
	if enabled == nil {
		enabled = NewEnabledMask()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.ForService("engine")
	}

	return &Engine{
		analyzer:    analyzer,
		gate:        NewEventGate(),
		classifiers: Classifiers(),
		enabled:     enabled,
		publisher:   cfg.Publisher,
		levelChan:   cfg.LevelChan,
		metrics:     cfg.Metrics,
		logger:      logger,
	}, nil
}

// FrameLength returns the number of samples the engine expects per frame.
func (e *Engine) FrameLength() int {
	return e.analyzer.FFTSize()
}

// Level returns the current smoothed audio level in [0,1].
func (e *Engine) Level() float64 {
	return math.Float64frombits(e.levelBits.Load())
}

// Run executes one listening session: it consumes frames from the source
// until the context is cancelled or the source is exhausted, running one
// analysis cycle per frame. Session state starts fresh on every call, no
// gate timing or level carries over from a previous session. The source is
// closed before Run returns, so no cycle outlives the session.
func (e *Engine) Run(ctx context.Context, src FrameSource) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.Newf("engine session already running").
			Component("acoustic").
			Category(errors.CategoryValidation).
			Build()
	}
	defer e.running.Store(false)
	defer src.Close() //nolint:errcheck

	e.resetSession(src.Name())
	e.logger.Info("listening session started", "source", e.sourceName)

	for {
		frame, err := src.ReadFrame(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				e.logger.Info("listening session stopped", "source", e.sourceName)
				return nil
			default:
				return err
			}
		}
		e.cycle(frame)
	}
}

func (e *Engine) resetSession(sourceName string) {
	e.sourceName = sourceName
	e.analyzer.Reset()
	e.tracker.Reset()
	e.gate.Reset()
	e.levelBits.Store(0)
}

// cycle runs one analysis pass over a single frame and returns the events
// emitted for it.
func (e *Engine) cycle(frame *Frame) []*DetectionEvent {
	start := time.Now()

	spectrum, err := e.analyzer.Analyze(frame)
	if err != nil {
		// Malformed frame: skip the cycle without touching the level,
		// the loop stays live for the next frame.
		e.metrics.RecordMalformedFrame()
		e.logger.Debug("skipping malformed frame", "error", err)
		return nil
	}

	level := e.tracker.Update(frame.Samples)
	e.levelBits.Store(math.Float64bits(level))
	e.metrics.RecordLevel(level)
	e.publishLevel(level)

	var emitted []*DetectionEvent
	for _, classifier := range e.classifiers {
		kind := classifier.Kind()
		if !e.enabled.Enabled(kind) {
			continue
		}

		candidate, ok := classifier.Classify(spectrum)
		if !ok {
			continue
		}

		when, decision := e.gate.Check(candidate)
		if decision != GateAdmitted {
			e.metrics.RecordSuppressed(kind.String(), decision.String())
			continue
		}

		event := NewDetectionEvent(candidate, when, e.sourceName)
		e.metrics.RecordDetection(kind.String())
		e.logger.Info("detection",
			"kind", event.KindName,
			"confidence", event.Confidence,
			"frequency_hz", event.FrequencyHz,
			"amplitude", event.Amplitude,
			"source", event.Source)

		if e.publisher != nil {
			e.publisher.Publish(event)
		}
		emitted = append(emitted, event)
	}

	e.metrics.RecordCycleDuration(time.Since(start).Seconds())
	return emitted
}

func (e *Engine) publishLevel(level float64) {
	if e.levelChan == nil {
		return
	}
	select {
	case e.levelChan <- LevelUpdate{Level: level, Source: e.sourceName}:
	default:
		// Consumer is not keeping up, the next cycle brings a fresher value.
	}
}
