// Package realtime assembles the capture pipeline from settings and runs
// it until a termination signal arrives.
package realtime

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/decentraland/voicecapture-go/internal/apm"
	"github.com/decentraland/voicecapture-go/internal/capture"
	malgosource "github.com/decentraland/voicecapture-go/internal/capture/sources/malgo"
	"github.com/decentraland/voicecapture-go/internal/conf"
	"github.com/decentraland/voicecapture-go/internal/errors"
	"github.com/decentraland/voicecapture-go/internal/logging"
	"github.com/decentraland/voicecapture-go/internal/observability"
	"github.com/decentraland/voicecapture-go/internal/transport"
)

// Run starts capture with the configured source, processor and sink and
// blocks until SIGINT or SIGTERM.
func Run(settings *conf.Settings) error {
	logger := logging.ForService("realtime")

	if settings.Log.Enabled {
		fileLogger, closeLog, err := logging.NewFileLogger(settings.Log.Path, "realtime", logLevel(settings), logging.FileLoggerOptions{
			MaxSizeMB:  settings.Log.MaxSizeMB,
			MaxBackups: settings.Log.MaxBackups,
			MaxAgeDays: settings.Log.MaxAgeDays,
		})
		if err != nil {
			logger.Warn("file logging disabled", "path", settings.Log.Path, "error", err)
		} else {
			logger = fileLogger
			defer func() {
				if err := closeLog(); err != nil {
					logging.Error("failed to close log file", "error", err)
				}
			}()
		}
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return errors.New(err).
			Component("realtime").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sink, closeSink, err := buildSink(settings)
	if err != nil {
		return err
	}
	defer closeSink()

	var processor apm.Processor
	if settings.Apm.Enabled {
		processor = apm.Passthrough{}
	}

	source := malgosource.NewSource(malgosource.Config{
		Source:     settings.Audio.Source,
		Channels:   settings.Audio.Channels,
		SampleRate: settings.Audio.SampleRate,
		Debug:      settings.Debug,
	})

	pipeline := capture.NewPipeline(source, processor, sink, capture.PipelineConfig{
		Gain:           settings.Audio.Gain,
		BufferDuration: settings.Audio.BufferDuration,
	}, metrics.Capture)

	quitChan := make(chan struct{})
	var wg sync.WaitGroup

	if settings.Telemetry.Enabled {
		endpoint, err := observability.NewEndpoint(settings, metrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quitChan)
	}

	if err := pipeline.Start(context.Background()); err != nil {
		close(quitChan)
		wg.Wait()
		return err
	}

	logger.Info("capture pipeline running",
		"source", source.Name(),
		"transport", settings.Transport.Type,
		"apm", settings.Apm.Enabled)

	monitorSignals(quitChan)
	<-quitChan

	logger.Info("shutting down capture pipeline")
	if err := pipeline.Stop(); err != nil {
		logger.Error("pipeline stop failed", "error", err)
	}
	wg.Wait()
	return nil
}

// buildSink constructs the configured transport sink. The returned close
// function flushes and releases sink resources; it is safe to call even
// when it is a no-op.
func buildSink(settings *conf.Settings) (capture.TransportSink, func(), error) {
	var (
		sink    capture.TransportSink
		closers []io.Closer
	)

	switch settings.Transport.Type {
	case "rtp":
		conn, err := net.Dial("udp", settings.Transport.RTP.Address)
		if err != nil {
			return nil, nil, errors.New(err).
				Component("realtime").
				Category(errors.CategoryConfiguration).
				Context("address", settings.Transport.RTP.Address).
				Build()
		}
		closers = append(closers, conn)
		sink = transport.NewRTPSink(conn, transport.RTPConfig{
			PayloadType: settings.Transport.RTP.PayloadType,
			SSRC:        settings.Transport.RTP.SSRC,
		})
	case "wav":
		wavSink, err := transport.NewWavSink(settings.Transport.Wav.Path, 0)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, wavSink)
		sink = wavSink
	case "discard":
		sink = transport.NewDiscardSink()
	default:
		return nil, nil, errors.Newf("unknown transport type: %q", settings.Transport.Type).
			Component("realtime").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.Transport.Buffered {
		format := capture.FormatDescriptor{
			Channels:   settings.Audio.Channels,
			SampleRate: settings.Audio.SampleRate,
		}
		// Spool roughly one second of audio plus record framing.
		spool := format.BufferBytes(conf.SpoolDuration)
		buffered, err := transport.NewBufferedSink(sink, spool+spool/10)
		if err != nil {
			return nil, nil, err
		}
		// Stop the drain before closing the wrapped sink.
		closers = append([]io.Closer{buffered}, closers...)
		sink = buffered
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logging.Error("failed to close transport", "error", err)
			}
		}
	}
	return sink, closeAll, nil
}

func logLevel(settings *conf.Settings) slog.Level {
	if settings.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// monitorSignals closes quitChan on SIGINT or SIGTERM.
func monitorSignals(quitChan chan struct{}) {
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logging.Info("received shutdown signal")
		close(quitChan)
	}()
}
