// conf/consts.go hard coded constants
package conf

import "time"

const (
	// BitDepth is the bit depth of PCM produced by the capture pipeline.
	BitDepth = 16
	// BytesPerSample is derived from BitDepth.
	BytesPerSample = BitDepth / 8

	// DefaultSampleRate is the sample rate requested from capture devices.
	DefaultSampleRate = 48000
	// DefaultChannels is the channel count requested from capture devices.
	DefaultChannels = 1

	// ApmFrameDuration is the frame duration required by the acoustic
	// processing stage. Frames handed to the processor must be exactly
	// this long.
	ApmFrameDuration = 10 * time.Millisecond

	// DefaultBufferDuration is the accumulation chunk used in relaxed mode,
	// when no acoustic processing stage is attached.
	DefaultBufferDuration = 200 * time.Millisecond

	// SpoolDuration is how much audio the buffered transport can hold
	// before it starts dropping frames.
	SpoolDuration = 1 * time.Second
)
