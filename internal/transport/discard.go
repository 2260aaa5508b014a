package transport

import (
	"sync/atomic"

	"github.com/decentraland/voicecapture-go/internal/capture"
)

// DiscardSink drops every frame. Useful for level metering runs and tests.
type DiscardSink struct {
	frames atomic.Uint64
	bytes  atomic.Uint64
}

// NewDiscardSink returns a sink that counts and discards frames.
func NewDiscardSink() *DiscardSink {
	return &DiscardSink{}
}

func (d *DiscardSink) Push(frame capture.Frame) error {
	d.frames.Add(1)
	d.bytes.Add(uint64(len(frame.Data)))
	return nil
}

// FramesDropped reports how many frames have been discarded.
func (d *DiscardSink) FramesDropped() uint64 {
	return d.frames.Load()
}

// BytesDropped reports how many payload bytes have been discarded.
func (d *DiscardSink) BytesDropped() uint64 {
	return d.bytes.Load()
}
