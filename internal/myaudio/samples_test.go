package myaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplesToFloat(t *testing.T) {
	data := []byte{
		0x00, 0x00, // 0
		0xFF, 0x7F, // 32767
		0x00, 0x80, // -32768
		0x00, 0x40, // 16384
	}

	samples := samplesToFloat(data)
	require.Len(t, samples, 4)
	assert.Zero(t, samples[0])
	assert.InDelta(t, 0.99997, samples[1], 1e-5)
	assert.Equal(t, -1.0, samples[2])
	assert.Equal(t, 0.5, samples[3])
}

func TestSamplesToFloatIgnoresTrailingByte(t *testing.T) {
	samples := samplesToFloat([]byte{0x00, 0x40, 0x7F})
	require.Len(t, samples, 1)
	assert.Equal(t, 0.5, samples[0])
}

func TestSamplesToFloatEmpty(t *testing.T) {
	assert.Empty(t, samplesToFloat(nil))
}

func TestHexToASCII(t *testing.T) {
	decoded, err := hexToASCII("73797364656661756c74000000")
	require.NoError(t, err)
	assert.Equal(t, "sysdefault", decoded)

	_, err = hexToASCII("zz")
	assert.Error(t, err)
}
