package myaudio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/soundwatch-go/internal/acoustic"
	"github.com/tphakala/soundwatch-go/internal/errors"
)

// FileSource feeds the engine from a WAV file, one full frame per read,
// using the file's own sample rate. It exists for offline analysis and for
// exercising the engine without a microphone.
type FileSource struct {
	name        string
	file        *os.File
	decoder     *wav.Decoder
	frameLength int
	sampleRate  int
	divisor     float64

	buf     *audio.IntBuffer
	pending []float64
	done    bool
}

// NewFileSource opens a WAV file for frame-by-frame reading.
func NewFileSource(path string, frameLength int) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open audio file: %w", err)).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		_ = file.Close()
		return nil, errors.Newf("input is not a valid WAV audio file").
			Component("myaudio").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	divisor, err := audioDivisor(int(decoder.BitDepth))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if decoder.NumChans != 1 {
		_ = file.Close()
		return nil, errors.Newf("unsupported channel count %d, only mono input is supported", decoder.NumChans).
			Component("myaudio").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	return &FileSource{
		name:        filepath.Base(path),
		file:        file,
		decoder:     decoder,
		frameLength: frameLength,
		sampleRate:  int(decoder.SampleRate),
		divisor:     divisor,
		buf: &audio.IntBuffer{
			Data:   make([]int, frameLength*4),
			Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: 1},
		},
	}, nil
}

// Name implements acoustic.FrameSource.
func (s *FileSource) Name() string {
	return s.name
}

// SampleRate returns the file's sample rate.
func (s *FileSource) SampleRate() int {
	return s.sampleRate
}

// ReadFrame implements acoustic.FrameSource. It returns io.EOF once the
// file can no longer fill a complete frame, a trailing partial frame is
// discarded.
func (s *FileSource) ReadFrame(ctx context.Context) (*acoustic.Frame, error) {
	for len(s.pending) < s.frameLength {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.done {
			return nil, io.EOF
		}

		n, err := s.decoder.PCMBuffer(s.buf)
		if err != nil {
			return nil, errors.New(fmt.Errorf("failed to decode audio file: %w", err)).
				Component("myaudio").
				Category(errors.CategoryFileParsing).
				Build()
		}
		if n == 0 {
			s.done = true
			continue
		}
		for _, sample := range s.buf.Data[:n] {
			s.pending = append(s.pending, float64(sample)/s.divisor)
		}
	}

	samples := make([]float64, s.frameLength)
	copy(samples, s.pending[:s.frameLength])
	s.pending = s.pending[s.frameLength:]

	return &acoustic.Frame{Samples: samples, SampleRate: s.sampleRate}, nil
}

// Close implements acoustic.FrameSource.
func (s *FileSource) Close() error {
	return s.file.Close()
}

// audioDivisor returns the normalization divisor for a PCM bit depth.
func audioDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, errors.Newf("unsupported audio file bit depth: %d", bitDepth).
			Component("myaudio").
			Category(errors.CategoryFileParsing).
			Build()
	}
}
