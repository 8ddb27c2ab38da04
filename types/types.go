package types

// Author identifies who spoke a transcript line.
type Author string

const (
	AuthorUser  Author = "user"
	AuthorModel Author = "model"
)

// TranscriptEntry is one line of the Tea House conversation log.
// While IsFinal is false the entry may still be rewritten by the
// next transcription update from the same author.
type TranscriptEntry struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Author  Author `json:"author"`
	IsFinal bool   `json:"isFinal"`
}

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

// Live reports whether the status represents an open or opening session.
func (s ConnectionStatus) Live() bool {
	return s == StatusConnecting || s == StatusConnected
}
