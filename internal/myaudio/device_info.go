package myaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/soundwatch-go/internal/errors"
)

// AudioDeviceInfo holds information about an audio device.
type AudioDeviceInfo struct {
	Index int
	Name  string
	ID    string
}

// ListCaptureDevices returns the available audio capture devices.
func ListCaptureDevices() ([]AudioDeviceInfo, error) {
	malgoCtx, err := malgo.InitContext(backendsForHost(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to initialize audio context: %w", err)).
			Component("myaudio").
			Category(errors.CategoryCaptureUnsupported).
			Build()
	}
	defer malgoCtx.Uninit() //nolint:errcheck

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to enumerate capture devices: %w", err)).
			Component("myaudio").
			Category(errors.CategoryCaptureUnsupported).
			Build()
	}

	devices := make([]AudioDeviceInfo, 0, len(infos))
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		devices = append(devices, AudioDeviceInfo{
			Index: i,
			Name:  info.Name(),
			ID:    decodedID,
		})
	}

	return devices, nil
}
