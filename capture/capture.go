// Package capture defines how the Tea House acquires microphone audio.
// Implementations live in the device package (local sound card) and the
// output package (audio streamed in from a browser).
package capture

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied means the user or platform refused microphone access.
	ErrPermissionDenied = errors.New("capture: microphone permission denied")
	// ErrUnsupported means no capture capability exists on this host or client.
	ErrUnsupported = errors.New("capture: audio recording not supported")
)

// Format requests a capture shape. Streams deliver frames of exactly
// FrameSize mono samples at SampleRate.
type Format struct {
	SampleRate int
	Channels   int
	FrameSize  int
}

// Device acquires a microphone stream.
type Device interface {
	Open(ctx context.Context, format Format) (Stream, error)
}

// Stream is an acquired microphone. Frames is closed once the stream stops.
// Stop releases the underlying tracks and is safe to call more than once.
type Stream interface {
	Frames() <-chan []float32
	Stop()
}
