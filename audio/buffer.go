package audio

import "time"

// Buffer is a block of mono float samples at a known rate.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Length returns the playback length as a time.Duration.
func (b Buffer) Length() time.Duration {
	return time.Duration(b.Duration() * float64(time.Second))
}
