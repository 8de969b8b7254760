package myaudio

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/smallnest/ringbuffer"

	"github.com/tphakala/soundwatch-go/internal/acoustic"
	"github.com/tphakala/soundwatch-go/internal/conf"
	"github.com/tphakala/soundwatch-go/internal/errors"
	"github.com/tphakala/soundwatch-go/internal/logging"
	"github.com/tphakala/soundwatch-go/internal/observability/metrics"
)

// captureSource holds information about a selected audio capture device.
type captureSource struct {
	Name    string
	ID      string
	Pointer unsafe.Pointer
}

// MalgoSource captures S16 mono audio from a system device and assembles it
// into fixed-size frames for the engine. The malgo data callback writes raw
// bytes into a ring buffer, ReadFrame drains complete frames from it. Frame
// assembly never blocks the device callback, on overrun the oldest pending
// audio is dropped and counted.
type MalgoSource struct {
	name       string
	sampleRate int
	frameBytes int

	ctx    *malgo.AllocatedContext
	device *malgo.Device

	rb      *ringbuffer.RingBuffer
	rbMu    sync.Mutex
	notify  chan struct{}
	closed  chan struct{}
	closeMu sync.Mutex

	metrics *metrics.CaptureMetrics
	logger  *slog.Logger
}

// NewMalgoSource opens the capture device selected by the settings and
// starts streaming into the frame buffer. Start failures are mapped to the
// capture error taxonomy: no matching device is capture-unavailable, an
// access failure is capture-permission and a backend or format failure is
// capture-unsupported.
func NewMalgoSource(settings *conf.Settings, frameLength int, captureMetrics *metrics.CaptureMetrics) (*MalgoSource, error) {
	logger := logging.ForService("capture")

	malgoCtx, err := malgo.InitContext(backendsForHost(), malgo.ContextConfig{}, func(message string) {
		if settings.Debug {
			logger.Debug("malgo", "message", strings.TrimSpace(message))
		}
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to initialize audio context: %w", err)).
			Component("myaudio").
			Category(errors.CategoryCaptureUnsupported).
			Build()
	}

	source, err := selectCaptureSource(malgoCtx, settings.Realtime.Audio.Source, logger)
	if err != nil {
		_ = malgoCtx.Uninit()
		return nil, err
	}

	frameBytes := frameLength * bytesPerSample
	s := &MalgoSource{
		name:       source.Name,
		sampleRate: conf.SampleRate,
		frameBytes: frameBytes,
		ctx:        malgoCtx,
		// Room for several frames of backlog before overrun drops audio.
		rb:      ringbuffer.New(frameBytes * 8),
		notify:  make(chan struct{}, 1),
		closed:  make(chan struct{}),
		metrics: captureMetrics,
		logger:  logger,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = conf.NumChannels
	deviceConfig.SampleRate = conf.SampleRate
	deviceConfig.Alsa.NoMMap = 1
	deviceConfig.Capture.DeviceID = source.Pointer

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: s.onReceiveFrames,
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		return nil, mapDeviceError(err)
	}
	s.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		return nil, mapDeviceError(err)
	}

	logger.Info("capture started", "device", s.name, "sample_rate", s.sampleRate)
	return s, nil
}

// Name implements acoustic.FrameSource.
func (s *MalgoSource) Name() string {
	return s.name
}

// ReadFrame implements acoustic.FrameSource. It blocks until a complete
// frame of samples has been captured, the context is cancelled or the
// source is closed.
func (s *MalgoSource) ReadFrame(ctx context.Context) (*acoustic.Frame, error) {
	for {
		s.rbMu.Lock()
		if s.rb.Length() >= s.frameBytes {
			data := make([]byte, s.frameBytes)
			_, err := s.rb.Read(data)
			s.rbMu.Unlock()
			if err != nil {
				return nil, errors.New(fmt.Errorf("frame buffer read failed: %w", err)).
					Component("myaudio").
					Category(errors.CategoryAudioSource).
					Build()
			}
			s.metrics.RecordFrame()
			return &acoustic.Frame{
				Samples:    samplesToFloat(data),
				SampleRate: s.sampleRate,
			}, nil
		}
		s.rbMu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.closed:
			return nil, io.EOF
		case <-s.notify:
		}
	}
}

// Close stops the device and releases the audio context. Safe to call more
// than once.
func (s *MalgoSource) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	select {
	case <-s.closed:
		return nil
	default:
	}
	close(s.closed)

	if s.device != nil {
		_ = s.device.Stop()
		s.device.Uninit()
	}
	if s.ctx != nil {
		if err := s.ctx.Uninit(); err != nil {
			return fmt.Errorf("failed to release audio context: %w", err)
		}
	}
	s.logger.Info("capture stopped", "device", s.name)
	return nil
}

// onReceiveFrames is the malgo data callback. It must return quickly, all
// heavy lifting happens on the engine side of the ring buffer.
func (s *MalgoSource) onReceiveFrames(_, pSamples []byte, _ uint32) {
	s.rbMu.Lock()
	if s.rb.Free() < len(pSamples) {
		// Overrun: drop the oldest audio to make room for the new.
		stale := make([]byte, len(pSamples)-s.rb.Free())
		_, _ = s.rb.Read(stale)
		s.metrics.RecordDroppedBytes(len(stale))
	}
	_, _ = s.rb.Write(pSamples)
	s.rbMu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// backendsForHost pins the malgo backend per platform, nil lets malgo pick.
func backendsForHost() []malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	default:
		return nil
	}
}

// selectCaptureSource picks the capture device matching the configured
// source string by decoded ID or name substring.
func selectCaptureSource(malgoCtx *malgo.AllocatedContext, audioSource string, logger *slog.Logger) (captureSource, error) {
	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return captureSource{}, errors.New(fmt.Errorf("failed to enumerate capture devices: %w", err)).
			Component("myaudio").
			Category(errors.CategoryCaptureUnsupported).
			Build()
	}
	if len(infos) == 0 {
		return captureSource{}, errors.Newf("no capture devices found").
			Component("myaudio").
			Category(errors.CategoryCaptureUnavailable).
			Build()
	}

	for _, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			logger.Debug("skipping device with undecodable ID", "device", info.Name())
			continue
		}
		if matchesDeviceSettings(decodedID, info, audioSource) {
			return captureSource{
				Name:    info.Name(),
				ID:      decodedID,
				Pointer: info.ID.Pointer(),
			}, nil
		}
	}

	return captureSource{}, errors.Newf("no capture device matches source setting %q", audioSource).
		Component("myaudio").
		Category(errors.CategoryCaptureUnavailable).
		Context("source", audioSource).
		Build()
}

// matchesDeviceSettings checks if the device matches the source specified by
// the user.
func matchesDeviceSettings(decodedID string, info malgo.DeviceInfo, audioSource string) bool {
	if runtime.GOOS == "windows" && audioSource == "sysdefault" {
		// On Windows there is no "sysdefault" device, use the default
		// device instead.
		return info.IsDefault == 1
	}
	return decodedID == audioSource || strings.Contains(info.Name(), audioSource)
}

// mapDeviceError classifies a device init/start failure into the capture
// error taxonomy.
func mapDeviceError(err error) error {
	msg := strings.ToLower(err.Error())
	category := errors.CategoryCaptureUnsupported
	switch {
	case strings.Contains(msg, "access denied") || strings.Contains(msg, "permission"):
		category = errors.CategoryCapturePermission
	case strings.Contains(msg, "no device") || strings.Contains(msg, "device not found") || strings.Contains(msg, "does not exist"):
		category = errors.CategoryCaptureUnavailable
	}
	return errors.New(fmt.Errorf("failed to open capture device: %w", err)).
		Component("myaudio").
		Category(category).
		Build()
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(decoded), "\x00"), nil
}
