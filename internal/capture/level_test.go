package capture

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sinePCM16(amplitude float64, n int) []byte {
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := amplitude * 32767.0 * math.Sin(2*math.Pi*float64(i)/float64(n))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
	}
	return data
}

func TestMeasureLevel(t *testing.T) {
	t.Parallel()

	t.Run("silence is zero", func(t *testing.T) {
		t.Parallel()
		level := MeasureLevel(make([]byte, 320))
		assert.Equal(t, 0, level.Level)
		assert.False(t, level.Clipping)
	})

	t.Run("empty input is zero", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, AudioLevel{}, MeasureLevel(nil))
	})

	t.Run("louder signal measures higher", func(t *testing.T) {
		t.Parallel()
		quiet := MeasureLevel(sinePCM16(0.01, 480))
		loud := MeasureLevel(sinePCM16(0.5, 480))
		assert.Greater(t, loud.Level, quiet.Level)
	})

	t.Run("full scale clips", func(t *testing.T) {
		t.Parallel()
		data := make([]byte, 320)
		for i := 0; i+1 < len(data); i += 2 {
			binary.LittleEndian.PutUint16(data[i:], uint16(int16(32767)))
		}
		level := MeasureLevel(data)
		assert.True(t, level.Clipping)
		assert.GreaterOrEqual(t, level.Level, 95)
	})
}
