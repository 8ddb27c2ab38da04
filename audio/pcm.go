package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mrsingh-rishi/teahouse/model"
)

// EncodePCM16 converts float samples in [-1, 1] to signed 16-bit little-endian PCM.
// Samples outside the range are clamped.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(ToInt16(s)))
	}
	return out
}

// DecodePCM16 converts 16-bit little-endian PCM back to float samples.
func DecodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("pcm16 payload has odd length %d", len(data))
	}
	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples, nil
}

// EncodeFrame packs a captured frame into the base64 payload sent upstream.
func EncodeFrame(samples []float32) model.AudioChunk {
	return model.AudioChunk(base64.StdEncoding.EncodeToString(EncodePCM16(samples)))
}

// DecodeChunk turns a base64 PCM16 payload into a playable buffer.
func DecodeChunk(chunk model.AudioChunk, sampleRate int) (Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(string(chunk))
	if err != nil {
		return Buffer{}, fmt.Errorf("decode base64 audio: %w", err)
	}
	samples, err := DecodePCM16(raw)
	if err != nil {
		return Buffer{}, err
	}
	return Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

// ToInt16 scales one float sample to int16, clamping out-of-range values.
func ToInt16(s float32) int16 {
	v := math.Round(float64(s) * 32768)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
