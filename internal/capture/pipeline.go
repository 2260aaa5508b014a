package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/decentraland/voicecapture-go/internal/apm"
	"github.com/decentraland/voicecapture-go/internal/conf"
	"github.com/decentraland/voicecapture-go/internal/errors"
	"github.com/decentraland/voicecapture-go/internal/logging"
	"github.com/decentraland/voicecapture-go/internal/observability/metrics"
)

// PipelineConfig carries the tunables of one capture pipeline.
type PipelineConfig struct {
	// Gain is a linear gain applied to converted samples. 1.0 is unity.
	Gain float64
	// BufferDuration sizes the ring buffer, and in relaxed mode also one
	// frame. Defaults to conf.DefaultBufferDuration.
	BufferDuration time.Duration
}

// Pipeline orchestrates one capture source: conversion, buffering, frame
// assembly, acoustic processing and dispatch. All per-callback work runs
// synchronously inside the source callback; Start and Stop may be called
// from any goroutine.
type Pipeline struct {
	id        string
	source    CaptureSource
	processor apm.Processor // optional, enables strict 10 ms framing
	sink      TransportSink

	mu        sync.Mutex // serializes assembler mutation against Stop
	assembler *FrameAssembler
	running   bool

	gain    float64
	logger  *slog.Logger
	metrics *metrics.CaptureMetrics
}

// NewPipeline creates a pipeline. processor may be nil: the pipeline then
// runs in relaxed mode, accumulating BufferDuration chunks without acoustic
// processing. metrics may be nil to run without telemetry.
func NewPipeline(source CaptureSource, processor apm.Processor, sink TransportSink, cfg PipelineConfig, m *metrics.CaptureMetrics) *Pipeline {
	if cfg.Gain == 0 {
		cfg.Gain = 1.0
	}
	if cfg.BufferDuration <= 0 {
		cfg.BufferDuration = conf.DefaultBufferDuration
	}

	p := &Pipeline{
		id:        uuid.NewString(),
		source:    source,
		processor: processor,
		sink:      sink,
		gain:      cfg.Gain,
		logger:    logging.ForService("capture"),
		metrics:   m,
	}

	sourceID := p.id
	if source != nil {
		sourceID = source.ID()
	}
	strict := processor != nil
	p.assembler = NewFrameAssembler(strict, cfg.BufferDuration, p.dispatchFrame, p.logger, m, sourceID)

	return p
}

// ID returns the pipeline identifier.
func (p *Pipeline) ID() string {
	return p.id
}

// Start begins capture. It is idempotent: a running pipeline is stopped
// first so Start always proceeds from a clean state. A missing source or
// sink is a fatal configuration error and the pipeline does not enter the
// running state.
func (p *Pipeline) Start(ctx context.Context) error {
	if err := p.Stop(); err != nil {
		return err
	}

	if p.source == nil {
		return errors.ConfigError(errors.NewStd("no capture source configured"))
	}
	if p.sink == nil {
		return errors.ConfigError(errors.NewStd("no transport sink configured"))
	}

	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	if err := p.source.Start(ctx, p.onAudioRead); err != nil {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryConfiguration).
			Context("source", p.source.ID()).
			Build()
	}

	p.logger.Info("capture started", "pipeline", p.id, "source", p.source.Name())
	return nil
}

// Stop detaches from the source, halts production and disposes the ring and
// frame buffers under the same lock used by in-flight writes: a concurrent
// callback either completes its write before disposal or is excluded
// entirely. Safe to call multiple times and from any goroutine.
func (p *Pipeline) Stop() error {
	if p.source != nil && p.source.IsActive() {
		if err := p.source.Stop(); err != nil {
			p.logger.Warn("source stop failed", "pipeline", p.id, "error", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running && !p.assembler.Configured() {
		return nil
	}
	p.running = false
	p.assembler.Dispose()
	p.logger.Info("capture stopped", "pipeline", p.id)
	return nil
}

// onAudioRead is the producer callback. Conversion, buffering, frame
// extraction, acoustic processing and dispatch all happen here,
// synchronously. A slow processor or sink inflates the callback duration;
// that is a known tradeoff of keeping the frame path free of cross-thread
// hand-offs.
func (p *Pipeline) onAudioRead(samples []float32, channels, sampleRate int) {
	if len(samples) == 0 || channels <= 0 {
		return
	}
	start := time.Now()

	bufPtr := getConversionBuffer(len(samples) * 2)
	pcm := (*bufPtr)[:len(samples)*2]
	ConvertF32ToS16(samples, pcm)
	ApplyGain(pcm, p.gain)

	p.mu.Lock()
	if p.running {
		if err := p.assembler.OnPCM(pcm, channels, sampleRate, len(samples)/channels); err != nil {
			p.logger.Error("callback processing failed", "pipeline", p.id, "error", err)
		}
	}
	p.mu.Unlock()

	returnConversionBuffer(bufPtr)
	p.metrics.RecordCallbackDuration(p.assembler.sourceID, time.Since(start).Seconds())
}

// dispatchFrame runs the acoustic processing stage and hands the frame to
// the transport sink. Called by the assembler with the pipeline lock held.
func (p *Pipeline) dispatchFrame(frame Frame) {
	if frame.Channels <= 0 || frame.SamplesPerChannel <= 0 {
		p.metrics.RecordFrameDiscarded(p.assembler.sourceID, "invalid_descriptor")
		return
	}

	level := MeasureLevel(frame.Data)
	p.metrics.UpdateAudioLevel(p.assembler.sourceID, level.Level, level.Clipping)

	if p.processor != nil {
		view, err := apm.NewFrameView(frame.Data, frame.Channels, frame.SampleRate, frame.SamplesPerChannel)
		if err != nil {
			// Local validation failure: skip the processing call, never hand
			// malformed data across the boundary. The frame still ships.
			p.logger.Warn("skipping acoustic processing", "pipeline", p.id, "error", err)
		} else if res := p.processor.Process(view); !res.OK {
			p.metrics.RecordApmFailure(p.assembler.sourceID)
			p.logger.Warn("acoustic processing failed",
				"pipeline", p.id,
				"processor", p.processor.ID(),
				"error", res.ErrorMessage)
		}
	}

	p.pushToSink(frame)
	p.metrics.RecordFrameDispatched(p.assembler.sourceID)
}

// pushToSink dispatches the borrowed frame. Failures, including panics, stay
// at this boundary; nothing propagates back into the capture callback.
func (p *Pipeline) pushToSink(frame Frame) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.RecordTransportError(p.assembler.sourceID)
			p.logger.Error("transport sink panicked", "pipeline", p.id, "panic", r)
		}
	}()

	// The borrow ends when Push returns; retaining frame.Data past the
	// call is the sink's contract violation, not something enforceable here.
	if err := p.sink.Push(frame); err != nil {
		p.metrics.RecordTransportError(p.assembler.sourceID)
		p.logger.Warn("transport push failed", "pipeline", p.id, "error", err)
	}
}
