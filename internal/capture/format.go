package capture

import (
	"fmt"
	"time"

	"github.com/decentraland/voicecapture-go/internal/conf"
)

// FormatDescriptor identifies the audio format currently flowing through the
// pipeline. Buffer and frame sizing is derived from it.
type FormatDescriptor struct {
	Channels   int
	SampleRate int
}

// Valid reports whether the descriptor can size buffers.
func (f FormatDescriptor) Valid() bool {
	return f.Channels > 0 && f.SampleRate > 0
}

// BufferBytes returns the ring buffer capacity for the given buffer duration.
func (f FormatDescriptor) BufferBytes(d time.Duration) int {
	samples := int(int64(f.SampleRate) * int64(d) / int64(time.Second))
	return f.Channels * samples * conf.BytesPerSample
}

// FrameBytes returns the byte size of one frame of samplesPerChannel samples.
func (f FormatDescriptor) FrameBytes(samplesPerChannel int) int {
	return f.Channels * samplesPerChannel * conf.BytesPerSample
}

func (f FormatDescriptor) String() string {
	return fmt.Sprintf("%dch@%dHz", f.Channels, f.SampleRate)
}

// ApmFrameSamples returns the per-channel sample count of one strict 10 ms
// frame at this sample rate.
func (f FormatDescriptor) ApmFrameSamples() int {
	return f.SampleRate / 100
}

// Frame describes a completed block of interleaved little-endian PCM16
// audio. A Frame handed to a TransportSink is a borrowed view: Data aliases
// the assembler's frame buffer and is valid only for the duration of the
// Push call. Sinks that need the audio past that call must copy it.
type Frame struct {
	Channels          int
	SampleRate        int
	SamplesPerChannel int
	Data              []byte
}

// Duration returns the play time of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(int64(f.SamplesPerChannel) * int64(time.Second) / int64(f.SampleRate))
}
