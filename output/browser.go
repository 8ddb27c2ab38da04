package output

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mrsingh-rishi/teahouse/audio"
	"github.com/mrsingh-rishi/teahouse/capture"
	"github.com/mrsingh-rishi/teahouse/model"
	"github.com/mrsingh-rishi/teahouse/playback"
	"github.com/mrsingh-rishi/teahouse/types"
)

// JSONWriter is the write side of a websocket connection.
type JSONWriter interface {
	WriteJSON(v any) error
}

// Browser serialises every event going to one browser tab.
type Browser struct {
	mu     sync.Mutex
	ws     JSONWriter
	logger *slog.Logger
}

func NewBrowser(ws JSONWriter, logger *slog.Logger) (*Browser, error) {
	if ws == nil {
		return nil, fmt.Errorf("websocket connection is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{ws: ws, logger: logger}, nil
}

func (b *Browser) send(v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ws.WriteJSON(v); err != nil {
		b.logger.Debug("Browser write failed", slog.String("error", err.Error()))
	}
}

func (b *Browser) SendStatus(status types.ConnectionStatus, unavailable bool) {
	b.send(statusEvent{Type: "status", Status: status, Unavailable: unavailable})
}

func (b *Browser) SendTranscript(entry types.TranscriptEntry) {
	b.send(transcriptEvent{Type: "transcript", Entry: entry})
}

// micBuffer is how many frames a browser stream holds before it drops input,
// about 16 s at 16 kHz.
const micBuffer = 64

// BrowserMicrophone is a capture.Device fed by audio messages from the tab.
type BrowserMicrophone struct {
	mu         sync.Mutex
	capability string
	stream     *browserStream
}

func NewBrowserMicrophone() *BrowserMicrophone {
	return &BrowserMicrophone{capability: "granted"}
}

// SetCapability records what the tab reported about its microphone.
func (m *BrowserMicrophone) SetCapability(capability string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if capability == "" {
		capability = "granted"
	}
	m.capability = capability
}

func (m *BrowserMicrophone) Open(ctx context.Context, format capture.Format) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.capability {
	case "denied":
		return nil, capture.ErrPermissionDenied
	case "unsupported":
		return nil, capture.ErrUnsupported
	}
	if format.SampleRate != model.InputSampleRate {
		return nil, fmt.Errorf("%w: browser capture runs at %d Hz", capture.ErrUnsupported, model.InputSampleRate)
	}
	m.stream = &browserStream{
		framer: audio.NewFramer(format.FrameSize),
		frames: make(chan []float32, micBuffer),
	}
	return m.stream, nil
}

// Feed hands one base64 PCM16 payload from the tab to the open stream.
// Payloads arriving while no stream is open are discarded.
func (m *BrowserMicrophone) Feed(data string) error {
	m.mu.Lock()
	stream := m.stream
	m.mu.Unlock()
	if stream == nil {
		return nil
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("decode browser audio: %w", err)
	}
	samples, err := audio.DecodePCM16(raw)
	if err != nil {
		return err
	}
	stream.push(samples)
	return nil
}

// Dropped returns how many frames the current stream discarded because the
// uplink was not draining them.
func (m *BrowserMicrophone) Dropped() int {
	m.mu.Lock()
	stream := m.stream
	m.mu.Unlock()
	if stream == nil {
		return 0
	}
	return stream.droppedFrames()
}

type browserStream struct {
	mu       sync.Mutex
	framer   *audio.Framer
	frames   chan []float32
	stopOnce sync.Once
	stopped  bool
	dropped  int
}

func (s *browserStream) Frames() <-chan []float32 {
	return s.frames
}

// push frames samples without blocking the socket reader. Frames that do not
// fit in the buffer are dropped and counted.
func (s *browserStream) push(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	for _, f := range s.framer.Write(samples) {
		select {
		case s.frames <- f:
		default:
			s.dropped++
		}
	}
}

func (s *browserStream) droppedFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *browserStream) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		close(s.frames)
		s.mu.Unlock()
	})
}

// BrowserSpeaker is a playback.Output that forwards scheduled audio to the
// tab. Its clock reads zero until the first clip is played and runs from
// then on; the tab plays each clip at startAt seconds on a clock it starts
// with the first clip.
type BrowserSpeaker struct {
	browser    *Browser
	sampleRate int
	now        func() time.Time

	mu     sync.Mutex
	epoch  time.Time
	nextID int64
	timers map[int64]*time.Timer
	closed bool
}

func NewBrowserSpeaker(browser *Browser, sampleRate int) *BrowserSpeaker {
	return newBrowserSpeaker(browser, sampleRate, time.Now)
}

func newBrowserSpeaker(browser *Browser, sampleRate int, now func() time.Time) *BrowserSpeaker {
	return &BrowserSpeaker{
		browser:    browser,
		sampleRate: sampleRate,
		now:        now,
		timers:     make(map[int64]*time.Timer),
	}
}

func (s *BrowserSpeaker) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *BrowserSpeaker) elapsedLocked() float64 {
	if s.epoch.IsZero() {
		return 0
	}
	return s.now().Sub(s.epoch).Seconds()
}

func (s *BrowserSpeaker) Play(buf audio.Buffer, at float64, onEnded func()) (playback.Source, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, playback.ErrClosed
	}
	if s.epoch.IsZero() {
		s.epoch = s.now()
	}
	s.nextID++
	id := s.nextID
	wait := time.Duration((at + buf.Duration() - s.elapsedLocked()) * float64(time.Second))
	if wait < 0 {
		wait = 0
	}
	s.timers[id] = time.AfterFunc(wait, func() {
		s.mu.Lock()
		_, pending := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if pending && onEnded != nil {
			onEnded()
		}
	})
	s.mu.Unlock()

	s.browser.send(audioEvent{
		Type:       "audio",
		ID:         id,
		Data:       string(audio.EncodeFrame(buf.Samples)),
		StartAt:    at,
		SampleRate: buf.SampleRate,
	})
	return &browserSource{speaker: s, id: id}, nil
}

func (s *BrowserSpeaker) stop(id int64) {
	s.mu.Lock()
	t, ok := s.timers[id]
	delete(s.timers, id)
	closed := s.closed
	s.mu.Unlock()

	if ok {
		t.Stop()
	}
	if ok && !closed {
		s.browser.send(stopEvent{Type: "stop", ID: id})
	}
}

// Close cancels pending end notifications and tells the tab to drop its queue.
func (s *BrowserSpeaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timers := s.timers
	s.timers = make(map[int64]*time.Timer)
	s.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	s.browser.send(stopEvent{Type: "stop"})
	return nil
}

type browserSource struct {
	speaker *BrowserSpeaker
	id      int64
}

func (s *browserSource) Stop() {
	s.speaker.stop(s.id)
}
