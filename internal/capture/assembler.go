package capture

import (
	"log/slog"
	"time"

	"github.com/decentraland/voicecapture-go/internal/conf"
	"github.com/decentraland/voicecapture-go/internal/errors"
	"github.com/decentraland/voicecapture-go/internal/observability/metrics"
)

// assemblerState is the tagged reconfiguration state.
type assemblerState int

const (
	stateUnconfigured assemblerState = iota
	stateConfigured
)

// FrameAssembler owns the ring buffer and the frame buffer, and decides when
// enough bytes are buffered to emit one frame. A callback reporting a
// channel count, sample rate or callback length that differs from the
// configured format disposes both buffers and allocates new ones sized for
// the new format before any byte is written.
//
// The assembler is not safe for concurrent use on its own; the pipeline
// serializes OnPCM and Dispose under one mutex.
type FrameAssembler struct {
	state           assemblerState
	format          FormatDescriptor
	callbackSamples int // per-channel samples per callback last seen

	strict         bool // exact 10 ms frames for acoustic processing
	bufferDuration time.Duration

	ring              *RingBuffer
	frame             []byte
	frameBytes        int
	samplesPerChannel int

	dispatch func(Frame)
	logger   *slog.Logger
	metrics  *metrics.CaptureMetrics
	sourceID string

	overflowWarnings int
}

// NewFrameAssembler creates an unconfigured assembler. In strict mode frames
// are exactly 10 ms; otherwise one frame spans bufferDuration. Buffers are
// allocated lazily on the first callback.
func NewFrameAssembler(strict bool, bufferDuration time.Duration, dispatch func(Frame), logger *slog.Logger, m *metrics.CaptureMetrics, sourceID string) *FrameAssembler {
	if bufferDuration <= 0 {
		bufferDuration = conf.DefaultBufferDuration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameAssembler{
		strict:         strict,
		bufferDuration: bufferDuration,
		dispatch:       dispatch,
		logger:         logger,
		metrics:        m,
		sourceID:       sourceID,
	}
}

// Configured reports whether buffers are currently allocated.
func (fa *FrameAssembler) Configured() bool {
	return fa.state == stateConfigured
}

// Format returns the currently configured format descriptor.
func (fa *FrameAssembler) Format() FormatDescriptor {
	return fa.format
}

// FrameSamples returns the per-channel sample count of one frame.
func (fa *FrameAssembler) FrameSamples() int {
	return fa.samplesPerChannel
}

// OnPCM ingests one callback's worth of converted PCM16 bytes.
// callbackSamples is the per-channel sample count of the callback. Completed
// frames are dispatched synchronously before OnPCM returns; partial frames
// stay buffered for the next callback.
func (fa *FrameAssembler) OnPCM(pcm []byte, channels, sampleRate, callbackSamples int) error {
	format := FormatDescriptor{Channels: channels, SampleRate: sampleRate}
	if !format.Valid() {
		return errors.Newf("invalid capture format: %d channels at %d Hz", channels, sampleRate).
			Component("capture").
			Category(errors.CategoryValidation).
			Build()
	}

	if fa.state == stateUnconfigured || fa.format != format || fa.callbackSamples != callbackSamples {
		if err := fa.reconfigure(format, callbackSamples); err != nil {
			return err
		}
	}

	n, err := fa.ring.Write(pcm)
	fa.metrics.RecordBytesCaptured(fa.sourceID, n)
	if err != nil {
		if !errors.Is(err, ErrBufferFull) {
			return err
		}
		// Reject-newest overflow: keep buffered audio intact, drop the excess.
		dropped := len(pcm) - n
		fa.metrics.RecordBytesDropped(fa.sourceID, dropped)
		fa.overflowWarnings++
		if fa.overflowWarnings%32 == 1 {
			fa.logger.Warn("ring buffer full, dropping newest audio",
				"source", fa.sourceID,
				"dropped_bytes", dropped,
				"capacity", fa.ring.Capacity())
		}
	}

	for fa.ring.AvailableRead() >= fa.frameBytes {
		read, err := fa.ring.Read(fa.frame[:fa.frameBytes])
		if err != nil {
			return err
		}
		if read < fa.frameBytes {
			// Underrun despite the ready test: never dispatch a partial frame.
			fa.metrics.RecordFrameDiscarded(fa.sourceID, "underrun")
			fa.logger.Warn("short read from ring buffer, discarding frame",
				"source", fa.sourceID, "read", read, "want", fa.frameBytes)
			break
		}

		fa.dispatch(Frame{
			Channels:          fa.format.Channels,
			SampleRate:        fa.format.SampleRate,
			SamplesPerChannel: fa.samplesPerChannel,
			Data:              fa.frame[:fa.frameBytes],
		})
	}

	fa.metrics.UpdateBufferUsed(fa.sourceID, fa.ring.AvailableRead())
	return nil
}

// reconfigure disposes the current buffers and allocates new ones sized for
// the reported format.
func (fa *FrameAssembler) reconfigure(format FormatDescriptor, callbackSamples int) error {
	previous := fa.format
	fa.disposeBuffers()

	samplesPerChannel := format.ApmFrameSamples()
	if !fa.strict {
		samplesPerChannel = int(int64(format.SampleRate) * int64(fa.bufferDuration) / int64(time.Second))
	}
	if samplesPerChannel <= 0 {
		return errors.Newf("frame size computes to zero samples at %d Hz", format.SampleRate).
			Component("capture").
			Category(errors.CategoryValidation).
			Build()
	}

	frameBytes := format.FrameBytes(samplesPerChannel)
	capacity := format.BufferBytes(fa.bufferDuration)
	if capacity < 2*frameBytes {
		capacity = 2 * frameBytes
	}
	// Accommodate callbacks longer than one frame.
	callbackBytes := format.FrameBytes(callbackSamples)
	if capacity < frameBytes+callbackBytes {
		capacity = frameBytes + callbackBytes
	}

	ring, err := NewRingBuffer(capacity)
	if err != nil {
		return err
	}

	fa.ring = ring
	fa.frame = make([]byte, frameBytes)
	fa.frameBytes = frameBytes
	fa.samplesPerChannel = samplesPerChannel
	fa.format = format
	fa.callbackSamples = callbackSamples
	fa.state = stateConfigured
	fa.overflowWarnings = 0

	fa.metrics.RecordReconfiguration(fa.sourceID)
	fa.logger.Info("capture format configured",
		"source", fa.sourceID,
		"channels", format.Channels,
		"sample_rate", format.SampleRate,
		"frame_samples", samplesPerChannel,
		"buffer_bytes", capacity,
		"previous_channels", previous.Channels,
		"previous_sample_rate", previous.SampleRate)

	return nil
}

// Dispose releases the ring and frame buffers. Idempotent; the assembler
// returns to the unconfigured state and reallocates on the next callback.
func (fa *FrameAssembler) Dispose() {
	fa.disposeBuffers()
	fa.state = stateUnconfigured
	fa.format = FormatDescriptor{}
	fa.callbackSamples = 0
}

func (fa *FrameAssembler) disposeBuffers() {
	if fa.ring != nil {
		fa.ring.Dispose()
		fa.ring = nil
	}
	fa.frame = nil
	fa.frameBytes = 0
	fa.samplesPerChannel = 0
}
