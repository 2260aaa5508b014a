package capture

import (
	"encoding/binary"
	"math"
)

// AudioLevel reports the perceived loudness of a frame.
type AudioLevel struct {
	Level    int // 0-100
	Clipping bool
}

// MeasureLevel calculates the RMS of little-endian PCM16 samples and scales
// it to a 0-100 level with clipping detection.
func MeasureLevel(samples []byte) AudioLevel {
	if len(samples) < 2 {
		return AudioLevel{}
	}

	var sum float64
	sampleCount := len(samples) / 2
	isClipping := false

	for i := 0; i+1 < len(samples); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(samples[i : i+2]))
		sampleAbs := math.Abs(float64(sample))
		sum += sampleAbs * sampleAbs

		if sample == 32767 || sample == -32768 {
			isClipping = true
		}
	}

	rms := math.Sqrt(sum / float64(sampleCount))
	if rms == 0 {
		return AudioLevel{Level: 0, Clipping: isClipping}
	}

	// Convert RMS to decibels and scale -60..-10 dB to 0-100
	db := 20 * math.Log10(rms/32768.0)
	scaledLevel := (db + 60) * (100.0 / 50.0)

	if isClipping {
		scaledLevel = math.Max(scaledLevel, 95)
	}

	if scaledLevel < 0 {
		scaledLevel = 0
	} else if scaledLevel > 100 {
		scaledLevel = 100
	}

	return AudioLevel{
		Level:    int(scaledLevel),
		Clipping: isClipping,
	}
}
