package output

import "github.com/mrsingh-rishi/teahouse/types"

// Messages exchanged with the browser on /ws/teahouse.

// ClientMessage is sent by the browser.
type ClientMessage struct {
	Type string `json:"type"` // "connect", "audio", "disconnect"
	// Capture reports microphone availability on connect:
	// "granted" (default), "denied" or "unsupported".
	Capture string `json:"capture,omitempty"`
	// Data is base64 PCM16 at 16 kHz for "audio" messages.
	Data string `json:"data,omitempty"`
}

type statusEvent struct {
	Type        string                 `json:"type"`
	Status      types.ConnectionStatus `json:"status"`
	Unavailable bool                   `json:"unavailable,omitempty"`
}

type transcriptEvent struct {
	Type  string                `json:"type"`
	Entry types.TranscriptEntry `json:"entry"`
}

type audioEvent struct {
	Type       string  `json:"type"`
	ID         int64   `json:"id"`
	Data       string  `json:"data"`
	StartAt    float64 `json:"startAt"`
	SampleRate int     `json:"sampleRate"`
}

type stopEvent struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}
