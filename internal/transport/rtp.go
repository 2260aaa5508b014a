package transport

import (
	"encoding/binary"
	"io"
	"math/rand"
	"sync"

	"github.com/pion/rtp"

	"github.com/decentraland/voicecapture-go/internal/capture"
	"github.com/decentraland/voicecapture-go/internal/errors"
)

// RTPConfig configures the RTP sink.
type RTPConfig struct {
	PayloadType uint8
	// SSRC identifies the stream. Zero picks a random value.
	SSRC uint32
}

// RTPSink packetizes PCM frames as L16 payloads and writes the resulting
// RTP packets to an io.Writer, typically a UDP connection. The timestamp
// clock runs at the capture sample rate.
type RTPSink struct {
	mu          sync.Mutex
	w           io.Writer
	payloadType uint8
	ssrc        uint32
	sequence    uint16
	timestamp   uint32
	payload     []byte
}

// NewRTPSink returns a sink writing packets to w.
func NewRTPSink(w io.Writer, cfg RTPConfig) *RTPSink {
	ssrc := cfg.SSRC
	if ssrc == 0 {
		ssrc = rand.Uint32()
	}
	return &RTPSink{
		w:           w,
		payloadType: cfg.PayloadType,
		ssrc:        ssrc,
		sequence:    uint16(rand.Uint32()),
	}
}

func (s *RTPSink) Push(frame capture.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// L16 payloads are network byte order, capture data is little-endian.
	if cap(s.payload) < len(frame.Data) {
		s.payload = make([]byte, len(frame.Data))
	}
	payload := s.payload[:len(frame.Data)]
	for i := 0; i+1 < len(frame.Data); i += 2 {
		binary.BigEndian.PutUint16(payload[i:], binary.LittleEndian.Uint16(frame.Data[i:]))
	}

	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    s.payloadType,
			SequenceNumber: s.sequence,
			Timestamp:      s.timestamp,
			SSRC:           s.ssrc,
		},
		Payload: payload,
	}

	raw, err := packet.Marshal()
	if err != nil {
		return errors.New(err).
			Component("transport").
			Category(errors.CategoryTransport).
			Context("operation", "marshal_rtp").
			Build()
	}
	if _, err := s.w.Write(raw); err != nil {
		return errors.New(err).
			Component("transport").
			Category(errors.CategoryTransport).
			Context("operation", "write_rtp").
			Build()
	}

	s.sequence++
	s.timestamp += uint32(frame.SamplesPerChannel)
	return nil
}
