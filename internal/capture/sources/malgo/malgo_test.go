package malgo

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gen2brain/malgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToASCII(t *testing.T) {
	t.Parallel()

	decoded, err := hexToASCII("73797364656661756c74")
	require.NoError(t, err)
	assert.Equal(t, "sysdefault", decoded)

	_, err = hexToASCII("zz")
	assert.Error(t, err)
}

func TestMatchesDeviceSetting(t *testing.T) {
	t.Parallel()

	var info malgo.DeviceInfo
	assert.True(t, matchesDeviceSetting("hw:0,0", info, "hw:0,0"))
	assert.False(t, matchesDeviceSetting("hw:0,0", info, "hw:1,0"))

	info.IsDefault = 1
	assert.True(t, matchesDeviceSetting("whatever", info, "sysdefault"))
}

func TestBytesToFloatsRoundTrip(t *testing.T) {
	t.Parallel()

	values := []float32{0, 0.5, -0.5, 1.0, -1.0, 0.123456}
	raw := make([]byte, len(values)*bytesPerFloatSample)
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*bytesPerFloatSample:], math.Float32bits(v))
	}

	s := NewSource(Config{Source: "sysdefault", Channels: 1, SampleRate: 48000})
	samples := s.bytesToFloats(raw)
	require.Len(t, samples, len(values))
	for i, v := range values {
		assert.Equal(t, v, samples[i])
	}

	// Buffer is reused when capacity allows.
	again := s.bytesToFloats(raw[:bytesPerFloatSample])
	assert.Len(t, again, 1)
}
