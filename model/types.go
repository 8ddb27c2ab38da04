package model

// AudioChunk is a base64 encoded block of 16-bit little-endian PCM,
// the payload format used on both sides of the live session.
type AudioChunk string

// Frame is one fixed-size block of mono float samples in [-1, 1].
type Frame []float32

const (
	// InputSampleRate is the microphone rate the remote service expects.
	InputSampleRate = 16000
	// OutputSampleRate is the rate of audio returned by the remote service.
	OutputSampleRate = 24000
	// FrameSize is the number of samples captured per uplink message.
	FrameSize = 4096

	InputMIMEType = "audio/pcm;rate=16000"
)
