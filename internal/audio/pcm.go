// Package audio implements the capture framing and playback scheduling
// around 16-bit little-endian mono PCM.
package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// EncodePCM16 clamps normalized samples to [-1, 1] and quantizes them
// to little-endian int16. This is the only lossy step in the pipeline;
// everything downstream moves the bytes verbatim.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// DecodePCM16 converts little-endian int16 PCM back to normalized
// floats. A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(v) / 32768.0
	}
	return out
}

// PCMDuration is the play time of a PCM16 buffer at the given rate.
func PCMDuration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
