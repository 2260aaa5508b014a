package transport

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/decentraland/voicecapture-go/internal/capture"
	"github.com/decentraland/voicecapture-go/internal/conf"
	"github.com/decentraland/voicecapture-go/internal/errors"
	"github.com/decentraland/voicecapture-go/internal/logging"
)

// DefaultChunkDuration is how much audio a single exported file holds.
const DefaultChunkDuration = 30 * time.Second

// WavSink accumulates frames and exports them as WAV files in the
// configured directory. A new chunk starts when the current one reaches
// the chunk duration or when the capture format changes.
type WavSink struct {
	mu            sync.Mutex
	dir           string
	chunkDuration time.Duration
	format        capture.FormatDescriptor
	pcm           []byte
	chunkStart    time.Time
	chunkIndex    int
	logger        interface {
		Info(msg string, args ...any)
		Warn(msg string, args ...any)
	}
	now func() time.Time
}

// NewWavSink returns a sink exporting chunks under dir. A non-positive
// chunkDuration selects the default.
func NewWavSink(dir string, chunkDuration time.Duration) (*WavSink, error) {
	if dir == "" {
		return nil, errors.Newf("wav sink requires an export directory").
			Component("transport").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if chunkDuration <= 0 {
		chunkDuration = DefaultChunkDuration
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(err).
			Component("transport").
			Category(errors.CategoryFileIO).
			Context("directory", dir).
			Build()
	}
	return &WavSink{
		dir:           dir,
		chunkDuration: chunkDuration,
		logger:        logging.ForService("wav-sink"),
		now:           time.Now,
	}, nil
}

func (s *WavSink) Push(frame capture.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	format := capture.FormatDescriptor{Channels: frame.Channels, SampleRate: frame.SampleRate}
	if format != s.format {
		// Format changed mid-stream, everything buffered so far belongs
		// to the previous format.
		if err := s.flushLocked(); err != nil {
			return err
		}
		s.format = format
	}
	if len(s.pcm) == 0 {
		s.chunkStart = s.now()
	}

	s.pcm = append(s.pcm, frame.Data...)

	if s.bufferedDuration() >= s.chunkDuration {
		return s.flushLocked()
	}
	return nil
}

// Close exports any partially filled chunk.
func (s *WavSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *WavSink) bufferedDuration() time.Duration {
	bytesPerSecond := s.format.SampleRate * s.format.Channels * conf.BytesPerSample
	if bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(len(s.pcm)) * time.Second / time.Duration(bytesPerSecond)
}

func (s *WavSink) flushLocked() error {
	if len(s.pcm) == 0 {
		return nil
	}
	// The counter keeps names unique when two chunks start in the same
	// millisecond, e.g. a format-change flush followed by the next frame.
	s.chunkIndex++
	filePath := filepath.Join(s.dir, fmt.Sprintf("capture_%s_%04d.wav", s.chunkStart.Format("20060102T150405.000"), s.chunkIndex))
	err := writePCMToWav(filePath, s.pcm, s.format)
	s.pcm = s.pcm[:0]
	if err != nil {
		return err
	}
	s.logger.Info("exported audio chunk", "path", filePath, "format", s.format.String())
	return nil
}

// writePCMToWav saves little-endian 16-bit PCM data as a WAV file.
func writePCMToWav(filePath string, pcmData []byte, format capture.FormatDescriptor) error {
	outFile, err := os.Create(filePath)
	if err != nil {
		return errors.New(err).
			Component("transport").
			Category(errors.CategoryFileIO).
			Context("path", filePath).
			Build()
	}
	defer outFile.Close()

	enc := wav.NewEncoder(outFile, format.SampleRate, conf.BitDepth, format.Channels, 1)

	buf := &audio.IntBuffer{
		Data:   pcmBytesToInts(pcmData),
		Format: &audio.Format{SampleRate: format.SampleRate, NumChannels: format.Channels},
	}
	if err := enc.Write(buf); err != nil {
		return errors.New(err).
			Component("transport").
			Category(errors.CategoryFileIO).
			Context("path", filePath).
			Build()
	}
	return enc.Close()
}

// pcmBytesToInts converts pairs of little-endian bytes to integer samples.
func pcmBytesToInts(pcmData []byte) []int {
	samples := make([]int, 0, len(pcmData)/2)
	for i := 0; i+1 < len(pcmData); i += 2 {
		samples = append(samples, int(int16(binary.LittleEndian.Uint16(pcmData[i:]))))
	}
	return samples
}
