package capture

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturedFrame is a deep copy of a dispatched frame, taken because the
// assembler reuses its frame buffer between dispatches.
type capturedFrame struct {
	channels          int
	sampleRate        int
	samplesPerChannel int
	data              []byte
}

func collectFrames(dst *[]capturedFrame) func(Frame) {
	return func(f Frame) {
		*dst = append(*dst, capturedFrame{
			channels:          f.Channels,
			sampleRate:        f.SampleRate,
			samplesPerChannel: f.SamplesPerChannel,
			data:              append([]byte(nil), f.Data...),
		})
	}
}

// pcmRamp produces interleaved PCM16 with a per-sample counter so frame
// boundaries can be verified byte-exactly.
func pcmRamp(start, totalSamples int) []byte {
	buf := make([]byte, totalSamples*2)
	for i := 0; i < totalSamples; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(start+i)))
	}
	return buf
}

func TestAssemblerStrictTenMsFrames(t *testing.T) {
	t.Parallel()

	var frames []capturedFrame
	fa := NewFrameAssembler(true, 200*time.Millisecond, collectFrames(&frames), nil, nil, "test")

	// 48 kHz stereo, 960 samples per channel per callback (20 ms): exactly
	// two 480-sample frames per callback.
	const channels, rate, perChannel = 2, 48000, 960
	total := perChannel * channels

	require.NoError(t, fa.OnPCM(pcmRamp(0, total), channels, rate, perChannel))
	require.Len(t, frames, 2)

	for i, f := range frames {
		assert.Equal(t, channels, f.channels)
		assert.Equal(t, rate, f.sampleRate)
		assert.Equal(t, 480, f.samplesPerChannel)
		assert.Len(t, f.data, 480*channels*2)

		// Byte-exact continuity across the two frames.
		first := int16(binary.LittleEndian.Uint16(f.data))
		assert.Equal(t, int16(i*480*channels), first)
	}

	require.NoError(t, fa.OnPCM(pcmRamp(total, total), channels, rate, perChannel))
	assert.Len(t, frames, 4)
}

func TestAssemblerAccumulatesPartialFrames(t *testing.T) {
	t.Parallel()

	var frames []capturedFrame
	fa := NewFrameAssembler(true, 200*time.Millisecond, collectFrames(&frames), nil, nil, "test")

	// 240 samples per callback at 48 kHz mono: a frame completes every
	// second callback.
	require.NoError(t, fa.OnPCM(pcmRamp(0, 240), 1, 48000, 240))
	assert.Empty(t, frames)

	require.NoError(t, fa.OnPCM(pcmRamp(240, 240), 1, 48000, 240))
	require.Len(t, frames, 1)
	assert.Equal(t, 480, frames[0].samplesPerChannel)
}

func TestAssemblerRelaxedModeChunks(t *testing.T) {
	t.Parallel()

	var frames []capturedFrame
	fa := NewFrameAssembler(false, 200*time.Millisecond, collectFrames(&frames), nil, nil, "test")

	// Relaxed mode at 16 kHz mono: one frame spans 200 ms = 3200 samples.
	for i := 0; i < 4; i++ {
		require.NoError(t, fa.OnPCM(pcmRamp(0, 800), 1, 16000, 800))
	}
	require.Len(t, frames, 1)
	assert.Equal(t, 3200, frames[0].samplesPerChannel)
	assert.Equal(t, 16000, frames[0].sampleRate)
}

func TestAssemblerReconfiguresOnFormatChange(t *testing.T) {
	t.Parallel()

	var frames []capturedFrame
	fa := NewFrameAssembler(true, 200*time.Millisecond, collectFrames(&frames), nil, nil, "test")

	require.NoError(t, fa.OnPCM(pcmRamp(0, 960*2), 2, 48000, 960))
	require.Len(t, frames, 2)
	assert.Equal(t, FormatDescriptor{Channels: 2, SampleRate: 48000}, fa.Format())

	// Mid-stream switch to 16 kHz mono. Buffers are replaced before any byte
	// of the new format is written; no old-format frame appears afterwards.
	require.NoError(t, fa.OnPCM(pcmRamp(0, 160), 1, 16000, 160))
	require.Len(t, frames, 3)
	assert.Equal(t, FormatDescriptor{Channels: 1, SampleRate: 16000}, fa.Format())
	assert.Equal(t, 160, fa.FrameSamples())

	last := frames[2]
	assert.Equal(t, 1, last.channels)
	assert.Equal(t, 16000, last.sampleRate)
	assert.Equal(t, 160, last.samplesPerChannel)
}

func TestAssemblerReconfiguresOnCallbackLengthChange(t *testing.T) {
	t.Parallel()

	var frames []capturedFrame
	fa := NewFrameAssembler(true, 200*time.Millisecond, collectFrames(&frames), nil, nil, "test")

	require.NoError(t, fa.OnPCM(pcmRamp(0, 240), 1, 48000, 240))
	assert.Empty(t, frames)

	// A different callback length re-derives the sizing and drops the
	// partial 240 samples with the old buffer.
	require.NoError(t, fa.OnPCM(pcmRamp(0, 480), 1, 48000, 480))
	require.Len(t, frames, 1)
	first := int16(binary.LittleEndian.Uint16(frames[0].data))
	assert.Equal(t, int16(0), first)
}

func TestAssemblerRejectsInvalidFormat(t *testing.T) {
	t.Parallel()

	fa := NewFrameAssembler(true, 200*time.Millisecond, func(Frame) {}, nil, nil, "test")

	assert.Error(t, fa.OnPCM(pcmRamp(0, 480), 0, 48000, 480))
	assert.Error(t, fa.OnPCM(pcmRamp(0, 480), 1, 0, 480))
	assert.False(t, fa.Configured())
}

func TestAssemblerNeverDispatchesZeroDescriptors(t *testing.T) {
	t.Parallel()

	var frames []capturedFrame
	fa := NewFrameAssembler(true, 200*time.Millisecond, collectFrames(&frames), nil, nil, "test")

	require.NoError(t, fa.OnPCM(pcmRamp(0, 480), 1, 48000, 480))
	for _, f := range frames {
		assert.Positive(t, f.channels)
		assert.Positive(t, f.samplesPerChannel)
	}
}

func TestAssemblerDispose(t *testing.T) {
	t.Parallel()

	var frames []capturedFrame
	fa := NewFrameAssembler(true, 200*time.Millisecond, collectFrames(&frames), nil, nil, "test")

	require.NoError(t, fa.OnPCM(pcmRamp(0, 480), 1, 48000, 480))
	require.True(t, fa.Configured())

	fa.Dispose()
	fa.Dispose() // idempotent
	assert.False(t, fa.Configured())
	assert.Equal(t, FormatDescriptor{}, fa.Format())

	// Capture resumes cleanly after disposal.
	require.NoError(t, fa.OnPCM(pcmRamp(0, 480), 1, 48000, 480))
	assert.True(t, fa.Configured())
	assert.Len(t, frames, 2)
}

func TestAssemblerOverflowDropsNewest(t *testing.T) {
	t.Parallel()

	// Dispatch into a sink that never consumes is irrelevant here: the
	// assembler drains full frames synchronously, so overflow only occurs
	// when one callback exceeds the whole buffer.
	var frames []capturedFrame
	fa := NewFrameAssembler(false, 10*time.Millisecond, collectFrames(&frames), nil, nil, "test")

	// 10 ms at 16 kHz mono is 160 samples per frame, capacity 2 frames.
	// A 1000-sample callback can't fit: the excess must be rejected, not
	// overwrite buffered audio.
	require.NoError(t, fa.OnPCM(pcmRamp(0, 1000), 1, 16000, 160))
	require.NotEmpty(t, frames)
	first := int16(binary.LittleEndian.Uint16(frames[0].data))
	assert.Equal(t, int16(0), first)
}
