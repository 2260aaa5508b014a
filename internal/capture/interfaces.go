package capture

import (
	"context"
)

// AudioReadFunc is invoked by a CaptureSource on its real-time thread with
// one callback's worth of interleaved float samples, nominally in
// [-1.0, 1.0]. Implementations must return promptly; the samples slice is
// only valid for the duration of the call.
type AudioReadFunc func(samples []float32, channels, sampleRate int)

// CaptureSource is an external collaborator that delivers raw floating-point
// audio via a real-time callback. The pipeline borrows the source; it never
// owns the underlying device.
type CaptureSource interface {
	// ID returns a unique identifier for this source
	ID() string

	// Name returns a human-readable name for this source
	Name() string

	// Start begins capture and invokes onRead for every device callback
	// until Stop is called or ctx is cancelled.
	Start(ctx context.Context, onRead AudioReadFunc) error

	// Stop halts capture. Safe to call multiple times.
	Stop() error

	// IsActive returns true if the source is currently capturing
	IsActive() bool
}

// TransportSink accepts finished frames for onward delivery. Push is called
// synchronously from the capture thread; the frame is borrowed and must not
// be retained past the call. Push errors are logged by the pipeline and
// never halt capture.
type TransportSink interface {
	Push(frame Frame) error
}
