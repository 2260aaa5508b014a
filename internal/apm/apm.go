// Package apm defines the call contract of the acoustic processing stage
// (echo cancellation / noise suppression) and the validated frame view it
// consumes. The algorithm itself is an external collaborator; this package
// only guards its boundary.
package apm

import (
	"github.com/decentraland/voicecapture-go/internal/errors"
)

// FrameView is a validated, non-owning view over exactly 10 ms of
// interleaved little-endian PCM16 samples. The Data slice is borrowed from
// the caller and valid only for the duration of one Process call.
type FrameView struct {
	Channels          int
	SampleRate        int
	SamplesPerChannel int
	Data              []byte
}

// NewFrameView validates the descriptor and returns a view over data.
// Construction fails when the view is not exactly 10 ms
// (samplesPerChannel != sampleRate/100) or the data length does not match
// samplesPerChannel*channels samples. No view is produced on failure.
func NewFrameView(data []byte, channels, sampleRate, samplesPerChannel int) (FrameView, error) {
	if channels <= 0 {
		return FrameView{}, errors.ValidationError("zero channel count")
	}
	if sampleRate <= 0 {
		return FrameView{}, errors.ValidationError("zero sample rate")
	}
	if samplesPerChannel != sampleRate/100 {
		return FrameView{}, errors.Newf("frame is not 10 ms: %d samples per channel, want %d at %d Hz",
			samplesPerChannel, sampleRate/100, sampleRate).
			Category(errors.CategoryValidation).
			FormatContext(channels, sampleRate).
			Build()
	}
	if len(data) != samplesPerChannel*channels*2 {
		return FrameView{}, errors.Newf("data length mismatch: %d bytes, want %d",
			len(data), samplesPerChannel*channels*2).
			Category(errors.CategoryValidation).
			FormatContext(channels, sampleRate).
			Build()
	}
	return FrameView{
		Channels:          channels,
		SampleRate:        sampleRate,
		SamplesPerChannel: samplesPerChannel,
		Data:              data,
	}, nil
}

// Result reports the outcome of one Process call. A failed result is logged
// by the pipeline and never halts capture.
type Result struct {
	OK           bool
	ErrorMessage string
}

// Processor is the acoustic processing contract. Process may modify the
// samples behind the view in place but must not retain the view past the
// call.
type Processor interface {
	ID() string
	Process(view FrameView) Result
}

// Passthrough is a no-op Processor used when no acoustic processing backend
// is wired in. It keeps the strict 10 ms framing contract exercised without
// touching the samples.
type Passthrough struct{}

// ID returns the processor identifier.
func (Passthrough) ID() string { return "passthrough" }

// Process leaves the frame untouched.
func (Passthrough) Process(FrameView) Result { return Result{OK: true} }
