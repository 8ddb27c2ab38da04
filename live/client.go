package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/teahouse/model"
)

const (
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultModel    = "gemini-2.5-flash-native-audio-preview-09-2025"

	DefaultSystemInstruction = "You are a friendly and knowledgeable host at a digital Iraqi tea house (Diwan). " +
		"Your goal is to foster positive and engaging conversations about civic life, community, and the future. " +
		"Keep your responses concise, warm, and encouraging. Your name is Naseem."

	eventBuffer = 64

	DefaultWriteTimeout = 10 * time.Second
	closeTimeout        = time.Second
)

// ErrClosed is returned when sending on a transport that has been closed.
var ErrClosed = errors.New("live: session closed")

// Config selects the remote model and credentials for one session.
type Config struct {
	APIKey            string
	Model             string
	SystemInstruction string
	Endpoint          string
}

// Transport is an open bidirectional session with the remote service.
// Events is closed after the final Error or Close event.
type Transport interface {
	Events() <-chan Event
	SendAudio(chunk model.AudioChunk) error
	Close() error
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, cfg Config) (Transport, error)
}

// GeminiDialer dials Gemini Live over a websocket. WriteTimeout bounds each
// outbound frame; zero means DefaultWriteTimeout.
type GeminiDialer struct {
	Dialer       *websocket.Dialer
	Logger       *slog.Logger
	WriteTimeout time.Duration
}

func NewGeminiDialer(logger *slog.Logger) *GeminiDialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiDialer{Dialer: websocket.DefaultDialer, Logger: logger}
}

// Dial connects, sends the session setup and starts reading server frames.
// The Open event is delivered once the service acknowledges the setup.
func (d *GeminiDialer) Dial(ctx context.Context, cfg Config) (Transport, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("live: api key is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "parse live endpoint")
	}
	q := u.Query()
	q.Set("key", cfg.APIKey)
	u.RawQuery = q.Encode()

	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial gemini live")
	}

	conn := newConn(ws, d.Logger, d.WriteTimeout)
	if err := conn.writeJSON(clientMessage{Setup: buildSetup(cfg)}); err != nil {
		_ = ws.Close()
		return nil, errors.Wrap(err, "send live setup")
	}

	go conn.readLoop()
	return conn, nil
}

func buildSetup(cfg Config) *setup {
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	if !strings.HasPrefix(modelName, "models/") {
		modelName = "models/" + modelName
	}
	instruction := cfg.SystemInstruction
	if instruction == "" {
		instruction = DefaultSystemInstruction
	}
	return &setup{
		Model:                    modelName,
		GenerationConfig:         generationConfig{ResponseModalities: []string{"AUDIO"}},
		SystemInstruction:        &content{Parts: []part{{Text: instruction}}},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
}

// Conn is a Transport backed by a websocket connection.
type Conn struct {
	ws           *websocket.Conn
	logger       *slog.Logger
	writeTimeout time.Duration

	events chan Event
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, logger *slog.Logger, writeTimeout time.Duration) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Conn{
		ws:           ws,
		logger:       logger,
		writeTimeout: writeTimeout,
		events:       make(chan Event, eventBuffer),
		done:         make(chan struct{}),
	}
}

func (c *Conn) Events() <-chan Event {
	return c.events
}

// SendAudio pushes one PCM frame as realtime input. There is no flow control;
// frames are written as fast as the caller produces them.
func (c *Conn) SendAudio(chunk model.AudioChunk) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	msg := clientMessage{RealtimeInput: &realtimeInput{
		MediaChunks: []Blob{{MimeType: model.InputMIMEType, Data: string(chunk)}},
	}}
	if err := c.writeJSON(msg); err != nil {
		return errors.Wrap(err, "send realtime input")
	}
	return nil
}

// Close sends a close frame and releases the socket. It is idempotent and
// does not wait for a send stuck on a peer that stopped reading: closing the
// socket fails that send.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		// WriteControl may run alongside a data write.
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
			time.Now().Add(closeTimeout))
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

func (c *Conn) readLoop() {
	defer close(c.events)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// Closed locally, nobody is waiting for a reason.
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.emit(Event{Type: EventClose, Reason: closeReason(err)})
			} else {
				c.emit(Event{Type: EventError, Err: errors.Wrap(err, "read live message")})
			}
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Dropping undecodable live message", slog.String("error", err.Error()))
			continue
		}

		switch {
		case msg.SetupComplete != nil:
			c.emit(Event{Type: EventOpen})
		case msg.ServerContent != nil:
			c.emit(Event{Type: EventMessage, Content: msg.ServerContent})
		case msg.GoAway != nil:
			c.logger.Info("Live service requested disconnect", slog.String("time_left", msg.GoAway.TimeLeft))
		}
	}
}

func (c *Conn) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func closeReason(err error) string {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Text
	}
	return ""
}
