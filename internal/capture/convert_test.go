package capture

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleToS16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float32
		want  int16
	}{
		{"silence", 0.0, 0},
		{"full scale positive clamps", 1.0, 32767},
		{"full scale negative", -1.0, -32768},
		{"half scale positive", 0.5, 16384},
		{"half scale negative", -0.5, -16384},
		{"beyond range positive", 2.0, 32767},
		{"beyond range negative", -2.0, -32768},
		{"positive infinity", float32(math.Inf(1)), 32767},
		{"negative infinity", float32(math.Inf(-1)), -32768},
		{"nan", float32(math.NaN()), 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SampleToS16(tt.input))
		})
	}
}

func TestSampleToS16RoundsHalfAwayFromZero(t *testing.T) {
	t.Parallel()

	// 0.5/32768 scales to exactly 0.5 and must round away from zero.
	assert.Equal(t, int16(1), SampleToS16(0.5/32768.0))
	assert.Equal(t, int16(-1), SampleToS16(-0.5/32768.0))

	// 1.5/32768 scales to 1.5: the tie always moves away from zero.
	assert.Equal(t, int16(2), SampleToS16(1.5/32768.0))
	assert.Equal(t, int16(-2), SampleToS16(-1.5/32768.0))

	// Just under the tie truncates toward zero.
	assert.Equal(t, int16(0), SampleToS16(0.49/32768.0))
	assert.Equal(t, int16(0), SampleToS16(-0.49/32768.0))
}

func TestSampleToS16RangeSweep(t *testing.T) {
	t.Parallel()

	for f := float32(-1.0); f <= 1.0; f += 1.0 / 512 {
		got := SampleToS16(f)
		assert.GreaterOrEqual(t, got, int16(-32768))
		assert.LessOrEqual(t, got, int16(32767))
	}
}

func TestConvertF32ToS16(t *testing.T) {
	t.Parallel()

	samples := []float32{0.0, 0.5, -0.5, 1.0}
	dst := make([]byte, len(samples)*2)

	n := ConvertF32ToS16(samples, dst)
	require.Equal(t, len(samples)*2, n)

	assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(dst[0:])))
	assert.Equal(t, int16(16384), int16(binary.LittleEndian.Uint16(dst[2:])))
	assert.Equal(t, int16(-16384), int16(binary.LittleEndian.Uint16(dst[4:])))
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(dst[6:])))
}

func TestApplyGain(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 6)
	for i, sample := range []int16{1000, -1000, 20000} {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample))
	}

	ApplyGain(buf, 2.0)

	assert.Equal(t, int16(2000), int16(binary.LittleEndian.Uint16(buf[0:])))
	assert.Equal(t, int16(-2000), int16(binary.LittleEndian.Uint16(buf[2:])))
	// 40000 clamps
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(buf[4:])))
}

func TestApplyGainUnityIsNoop(t *testing.T) {
	t.Parallel()

	buf := []byte{0x12, 0x34, 0x56, 0x78}
	want := append([]byte(nil), buf...)
	ApplyGain(buf, 1.0)
	assert.Equal(t, want, buf)
}
