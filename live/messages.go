package live

// Client messages.

type clientMessage struct {
	Setup         *setup         `json:"setup,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
}

type setup struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generationConfig"`
	SystemInstruction        *content         `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}        `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}        `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

type realtimeInput struct {
	MediaChunks []Blob `json:"mediaChunks"`
}

// Blob is an inline media payload.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Server messages.

// ServerMessage is one decoded frame from the remote service. Exactly one of
// the top-level fields is normally set.
type ServerMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	GoAway        *GoAway        `json:"goAway,omitempty"`
}

type ServerContent struct {
	ModelTurn           *ModelTurn     `json:"modelTurn,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
}

type ModelTurn struct {
	Parts []ServerPart `json:"parts"`
}

type ServerPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Transcription is an incremental speech-to-text result. The service has
// used both "finished" and "isFinal" for the finality flag.
type Transcription struct {
	Text     string `json:"text"`
	Finished bool   `json:"finished,omitempty"`
	IsFinal  bool   `json:"isFinal,omitempty"`
}

// Final reports whether the transcription will not be revised further.
func (t Transcription) Final() bool {
	return t.Finished || t.IsFinal
}

type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// AudioData returns the first inline audio payload of the model turn, if any.
func (c *ServerContent) AudioData() (string, bool) {
	if c == nil || c.ModelTurn == nil {
		return "", false
	}
	for _, p := range c.ModelTurn.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return p.InlineData.Data, true
		}
	}
	return "", false
}
