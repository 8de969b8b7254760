// Package analysis wires the detection engine to its frame sources and
// consumers for the realtime and file analysis modes.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tphakala/soundwatch-go/internal/acoustic"
	"github.com/tphakala/soundwatch-go/internal/conf"
	"github.com/tphakala/soundwatch-go/internal/events"
	"github.com/tphakala/soundwatch-go/internal/logging"
	"github.com/tphakala/soundwatch-go/internal/mqtt"
	"github.com/tphakala/soundwatch-go/internal/myaudio"
	"github.com/tphakala/soundwatch-go/internal/observability"
)

// RealtimeAnalysis starts a live listening session on the configured capture
// device and runs until interrupted.
func RealtimeAnalysis(settings *conf.Settings) error {
	logger := logging.ForService("analysis")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	bus := events.NewBus(64)
	detectionLog, closeLog := detectionLogger(settings, logger)
	if closeLog != nil {
		defer closeLog() //nolint:errcheck
	}
	bus.Register(events.NewLogConsumer(detectionLog))

	if settings.Realtime.MQTT.Enabled {
		client := mqtt.NewClient(settings)
		if err := client.Connect(ctx); err != nil {
			return err
		}
		defer client.Disconnect()
		bus.Register(client)
	}

	bus.Start(ctx)
	defer bus.Shutdown()

	var wg sync.WaitGroup
	quitChan := make(chan struct{})
	if settings.Realtime.Telemetry.Enabled {
		endpoint, err := observability.NewEndpoint(settings, m)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quitChan)
	}

	engine, err := acoustic.NewEngine(acoustic.EngineConfig{
		Analyzer:  analyzerConfig(),
		Enabled:   EnabledMaskFromSettings(settings),
		Publisher: bus,
		Metrics:   m.Engine,
	})
	if err != nil {
		return err
	}

	source, err := myaudio.NewMalgoSource(settings, engine.FrameLength(), m.Capture)
	if err != nil {
		return err
	}

	fmt.Printf("Listening on %s, press Ctrl+C to stop\n", source.Name())
	logger.Info("realtime analysis starting", "source", source.Name())

	err = engine.Run(ctx, source)

	close(quitChan)
	wg.Wait()
	return err
}

// detectionLogger opens the rotated detection log file when file logging is
// enabled. A nil logger makes the log consumer fall back to the service
// logger, so a failed file setup degrades instead of aborting the session.
func detectionLogger(settings *conf.Settings, logger *slog.Logger) (*slog.Logger, func() error) {
	if !settings.Main.Log.Enabled {
		return nil, nil
	}

	fileLogger, closeFunc, err := logging.NewFileLogger(
		settings.Main.Log.Path,
		"detections",
		slog.LevelInfo,
		logging.FileLoggerConfig{
			MaxSizeMB:  settings.Main.Log.MaxSize,
			MaxBackups: settings.Main.Log.MaxBackups,
			MaxAgeDays: settings.Main.Log.MaxAge,
		},
	)
	if err != nil {
		logger.Warn("detection log file unavailable, logging to stdout", "path", settings.Main.Log.Path, "error", err)
		return nil, nil
	}
	return fileLogger, closeFunc
}

// EnabledMaskFromSettings builds the signature mask from the detection
// settings.
func EnabledMaskFromSettings(settings *conf.Settings) *acoustic.EnabledMask {
	mask := acoustic.NewEnabledMask()
	mask.Set(acoustic.Fire, settings.Realtime.Detection.FireAlarm)
	mask.Set(acoustic.Doorbell, settings.Realtime.Detection.Doorbell)
	mask.Set(acoustic.BabyCry, settings.Realtime.Detection.BabyCry)
	return mask
}

func analyzerConfig() acoustic.AnalyzerConfig {
	cfg := acoustic.DefaultAnalyzerConfig()
	cfg.FFTSize = conf.FFTSize
	return cfg
}
