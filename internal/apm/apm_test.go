package apm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decentraland/voicecapture-go/internal/errors"
)

func TestNewFrameView(t *testing.T) {
	t.Parallel()

	// 10 ms at 48 kHz stereo: 480 samples/channel, 2 channels, 2 bytes each
	data := make([]byte, 480*2*2)
	view, err := NewFrameView(data, 2, 48000, 480)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Channels)
	assert.Equal(t, 48000, view.SampleRate)
	assert.Equal(t, 480, view.SamplesPerChannel)
	assert.Len(t, view.Data, len(data))
}

func TestNewFrameViewRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		dataLen           int
		channels          int
		sampleRate        int
		samplesPerChannel int
	}{
		{"zero channels", 960, 0, 48000, 480},
		{"negative channels", 960, -1, 48000, 480},
		{"zero sample rate", 960, 1, 0, 480},
		{"not ten ms", 960 * 2, 1, 48000, 960},
		{"short ten ms", 441 * 2, 1, 48000, 441},
		{"data length mismatch", 479 * 2, 1, 48000, 480},
		{"sixteen k mismatch", 480 * 2, 1, 16000, 480},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			view, err := NewFrameView(make([]byte, tt.dataLen), tt.channels, tt.sampleRate, tt.samplesPerChannel)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Zero(t, view)
		})
	}
}

func TestNewFrameViewSixteenKilohertzMono(t *testing.T) {
	t.Parallel()

	// 10 ms at 16 kHz mono: 160 samples
	data := make([]byte, 160*2)
	view, err := NewFrameView(data, 1, 16000, 160)
	require.NoError(t, err)
	assert.Equal(t, 160, view.SamplesPerChannel)
}

func TestPassthrough(t *testing.T) {
	t.Parallel()

	p := Passthrough{}
	assert.Equal(t, "passthrough", p.ID())

	data := make([]byte, 160*2)
	view, err := NewFrameView(data, 1, 16000, 160)
	require.NoError(t, err)

	res := p.Process(view)
	assert.True(t, res.OK)
	assert.Empty(t, res.ErrorMessage)
}
