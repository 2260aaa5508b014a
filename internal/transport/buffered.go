package transport

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"

	"github.com/decentraland/voicecapture-go/internal/capture"
	"github.com/decentraland/voicecapture-go/internal/errors"
	"github.com/decentraland/voicecapture-go/internal/logging"
)

const (
	recordHeaderSize = 12 // channels, sample rate, samples per channel, uint32 each
	drainInterval    = 10 * time.Millisecond
)

// BufferedSink decouples the capture callback from a slow downstream sink.
// Push copies the frame into a ring buffer and returns immediately; a
// background goroutine drains the ring and forwards frames to the wrapped
// sink. When the ring is full the newest frame is dropped.
type BufferedSink struct {
	inner capture.TransportSink

	mu   sync.Mutex
	ring *ringbuffer.RingBuffer

	header  [recordHeaderSize]byte
	scratch []byte

	done    chan struct{}
	stopped sync.WaitGroup
	closeMu sync.Mutex
	closed  bool

	dropped uint64
	logger  interface {
		Warn(msg string, args ...any)
		Error(msg string, args ...any)
	}
}

// NewBufferedSink wraps inner with a spool of the given byte capacity and
// starts the drain goroutine.
func NewBufferedSink(inner capture.TransportSink, capacity int) (*BufferedSink, error) {
	if inner == nil {
		return nil, errors.Newf("buffered sink requires a downstream sink").
			Component("transport").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if capacity <= 0 {
		return nil, errors.Newf("invalid spool capacity: %d", capacity).
			Component("transport").
			Category(errors.CategoryConfiguration).
			Build()
	}

	bs := &BufferedSink{
		inner:  inner,
		ring:   ringbuffer.New(capacity),
		done:   make(chan struct{}),
		logger: logging.ForService("buffered-sink"),
	}
	bs.stopped.Add(1)
	go bs.drain()
	return bs, nil
}

// Push spools the frame. It never blocks on the downstream sink.
func (bs *BufferedSink) Push(frame capture.Frame) error {
	record := recordHeaderSize + len(frame.Data)

	bs.mu.Lock()
	defer bs.mu.Unlock()

	// Records are written atomically, a frame either fits whole or is
	// dropped whole.
	if bs.ring.Free() < record {
		bs.dropped++
		if bs.dropped == 1 || bs.dropped%100 == 0 {
			bs.logger.Warn("spool full, dropping frames",
				"dropped_total", bs.dropped,
				"free_bytes", bs.ring.Free())
		}
		return nil
	}

	binary.LittleEndian.PutUint32(bs.header[0:], uint32(frame.Channels))
	binary.LittleEndian.PutUint32(bs.header[4:], uint32(frame.SampleRate))
	binary.LittleEndian.PutUint32(bs.header[8:], uint32(frame.SamplesPerChannel))
	if _, err := bs.ring.Write(bs.header[:]); err != nil {
		return errors.New(err).
			Component("transport").
			Category(errors.CategoryBuffer).
			Build()
	}
	if _, err := bs.ring.Write(frame.Data); err != nil {
		return errors.New(err).
			Component("transport").
			Category(errors.CategoryBuffer).
			Build()
	}
	return nil
}

// Close stops the drain goroutine after flushing spooled frames.
func (bs *BufferedSink) Close() error {
	bs.closeMu.Lock()
	defer bs.closeMu.Unlock()
	if bs.closed {
		return nil
	}
	bs.closed = true
	close(bs.done)
	bs.stopped.Wait()
	return nil
}

// Dropped reports how many frames were rejected because the spool was full.
func (bs *BufferedSink) Dropped() uint64 {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.dropped
}

func (bs *BufferedSink) drain() {
	defer bs.stopped.Done()
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bs.done:
			bs.drainAvailable()
			return
		case <-ticker.C:
			bs.drainAvailable()
		}
	}
}

func (bs *BufferedSink) drainAvailable() {
	for {
		frame, ok := bs.nextFrame()
		if !ok {
			return
		}
		if err := bs.inner.Push(frame); err != nil {
			bs.logger.Error("downstream sink rejected frame", "error", err)
		}
	}
}

// nextFrame reads one spooled record. The returned frame data aliases the
// scratch buffer and is only valid until the next call.
func (bs *BufferedSink) nextFrame() (capture.Frame, bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ring.Length() < recordHeaderSize {
		return capture.Frame{}, false
	}

	var header [recordHeaderSize]byte
	if _, err := bs.ring.Read(header[:]); err != nil {
		return capture.Frame{}, false
	}
	channels := int(binary.LittleEndian.Uint32(header[0:]))
	sampleRate := int(binary.LittleEndian.Uint32(header[4:]))
	samplesPerChannel := int(binary.LittleEndian.Uint32(header[8:]))

	size := channels * samplesPerChannel * 2
	if cap(bs.scratch) < size {
		bs.scratch = make([]byte, size)
	}
	data := bs.scratch[:size]
	if _, err := bs.ring.Read(data); err != nil {
		return capture.Frame{}, false
	}

	return capture.Frame{
		Channels:          channels,
		SampleRate:        sampleRate,
		SamplesPerChannel: samplesPerChannel,
		Data:              data,
	}, true
}
