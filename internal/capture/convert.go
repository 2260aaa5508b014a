package capture

import (
	"encoding/binary"
	"math"
	"sync"
)

// Buffer pool for reusing sample conversion buffers
var s16BufferPool = sync.Pool{
	New: func() any {
		buffer := make([]byte, 32768)
		return &buffer
	},
}

// getConversionBuffer returns a pooled buffer of at least size bytes.
func getConversionBuffer(size int) *[]byte {
	bufferPtr := s16BufferPool.Get().(*[]byte)
	if len(*bufferPtr) < size {
		buffer := make([]byte, size)
		*bufferPtr = buffer
	}
	return bufferPtr
}

// returnConversionBuffer returns a buffer to the pool.
func returnConversionBuffer(bufferPtr *[]byte) {
	if bufferPtr != nil {
		s16BufferPool.Put(bufferPtr)
	}
}

// SampleToS16 converts one float sample nominally in [-1.0, 1.0] to signed
// 16-bit PCM: scale by 32768, clamp to [-32768, 32767] and round half away
// from zero. Out-of-range and NaN inputs are clamped, never reported as
// errors, so capture cannot stall on malformed samples.
func SampleToS16(sample float32) int16 {
	scaled := float64(sample) * 32768.0
	if math.IsNaN(scaled) {
		return 0
	}
	// Clamp before the integer conversion: converting an out-of-range float
	// to an integer type is not defined by the language spec.
	if scaled >= 32767 {
		return 32767
	}
	if scaled <= -32768 {
		return -32768
	}
	if scaled >= 0 {
		scaled += 0.5
	} else {
		scaled -= 0.5
	}
	return int16(scaled)
}

// ConvertF32ToS16 converts interleaved float samples to little-endian PCM16
// bytes. dst must hold at least len(samples)*2 bytes; the number of bytes
// written is returned.
func ConvertF32ToS16(samples []float32, dst []byte) int {
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(SampleToS16(sample)))
	}
	return len(samples) * 2
}

// ApplyGain applies a linear gain to little-endian PCM16 samples in place,
// clamping to the int16 range.
func ApplyGain(buffer []byte, gain float64) {
	if gain == 1.0 {
		return
	}
	for i := 0; i+1 < len(buffer); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(buffer[i:]))

		amplified := float64(sample) * gain
		if amplified > 32767 {
			amplified = 32767
		} else if amplified < -32768 {
			amplified = -32768
		}

		binary.LittleEndian.PutUint16(buffer[i:], uint16(int16(amplified)))
	}
}
