package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDescriptor(t *testing.T) {
	t.Parallel()

	f := FormatDescriptor{Channels: 2, SampleRate: 48000}
	assert.True(t, f.Valid())
	assert.Equal(t, 480, f.ApmFrameSamples())
	assert.Equal(t, 2*480*2, f.FrameBytes(480))
	assert.Equal(t, 2*9600*2, f.BufferBytes(200*time.Millisecond))
	assert.Equal(t, "2ch@48000Hz", f.String())

	assert.False(t, FormatDescriptor{}.Valid())
	assert.False(t, FormatDescriptor{Channels: 1}.Valid())
	assert.False(t, FormatDescriptor{SampleRate: 48000}.Valid())
}

func TestFrameDuration(t *testing.T) {
	t.Parallel()

	frame := Frame{Channels: 2, SampleRate: 48000, SamplesPerChannel: 480}
	assert.Equal(t, 10*time.Millisecond, frame.Duration())
	assert.Equal(t, time.Duration(0), Frame{}.Duration())
}
