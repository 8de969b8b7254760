// Package myaudio implements the frame sources feeding the detection
// engine: live microphone capture through malgo and offline WAV file
// reading. Both deliver fixed-size normalized frames, the engine never sees
// raw device data.
package myaudio

import (
	"encoding/binary"
)

// bytesPerSample is fixed by the S16 capture format.
const bytesPerSample = 2

// samplesToFloat converts little-endian signed 16-bit PCM bytes into
// normalized float64 samples in [-1, 1]. A trailing odd byte is ignored.
func samplesToFloat(data []byte) []float64 {
	count := len(data) / bytesPerSample
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		sample := int16(binary.LittleEndian.Uint16(data[i*bytesPerSample : i*bytesPerSample+bytesPerSample]))
		out[i] = float64(sample) / 32768.0
	}
	return out
}
