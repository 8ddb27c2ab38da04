// Package teahouse runs one realtime voice conversation with the Tea House
// host. A Session owns its microphone stream, its remote transport, its
// playback output and the workers between them, and releases all of them
// together when the conversation ends.
package teahouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrsingh-rishi/teahouse/capture"
	"github.com/mrsingh-rishi/teahouse/live"
	"github.com/mrsingh-rishi/teahouse/metrics"
	"github.com/mrsingh-rishi/teahouse/model"
	"github.com/mrsingh-rishi/teahouse/playback"
	"github.com/mrsingh-rishi/teahouse/transcript"
	"github.com/mrsingh-rishi/teahouse/types"
	"github.com/mrsingh-rishi/teahouse/workers"
)

// ErrUnavailable is returned by Connect when no speech credentials are configured.
var ErrUnavailable = errors.New("teahouse: speech service is not configured")

// Config selects the remote model. An empty APIKey makes the session unavailable.
type Config struct {
	APIKey            string
	Model             string
	SystemInstruction string
	Endpoint          string
}

// Deps are the collaborators a session drives. OpenOutput is called once per
// connection attempt because a closed output cannot be reused.
type Deps struct {
	Dialer     live.Dialer
	Capture    capture.Device
	OpenOutput func() (playback.Output, error)
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// connection holds everything acquired by one Connect call.
type connection struct {
	cancel    context.CancelFunc
	stream    capture.Stream
	output    playback.Output
	transport live.Transport
	scheduler *playback.Scheduler
	uplink    *workers.UplinkWorker
	downlink  *workers.DownlinkWorker
	openedAt  time.Time
}

type Session struct {
	id      string
	cfg     Config
	deps    Deps
	logger  *slog.Logger
	metrics *metrics.Metrics
	log     *transcript.Log

	unavailable bool

	mu           sync.Mutex
	status       types.ConnectionStatus
	conn         *connection
	onStatus     func(types.ConnectionStatus)
	onTranscript func(types.TranscriptEntry)
}

func New(cfg Config, deps Deps) (*Session, error) {
	if deps.Dialer == nil {
		return nil, fmt.Errorf("live dialer is required")
	}
	if deps.Capture == nil {
		return nil, fmt.Errorf("capture device is required")
	}
	if deps.OpenOutput == nil {
		return nil, fmt.Errorf("playback output is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		deps:    deps,
		metrics: deps.Metrics,
		log:     transcript.NewLog(),
		status:  types.StatusDisconnected,
	}
	s.logger = logger.With(slog.String("session_id", s.id))

	if cfg.APIKey == "" {
		s.unavailable = true
		s.status = types.StatusError
		s.logger.Warn("Tea House unavailable, no speech API key configured")
	}
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// Unavailable reports whether the session was built without credentials.
func (s *Session) Unavailable() bool {
	return s.unavailable
}

func (s *Session) Status() types.ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Transcript returns a snapshot of the conversation so far.
func (s *Session) Transcript() []types.TranscriptEntry {
	return s.log.Entries()
}

// OnStatus registers a hook called after every status change.
func (s *Session) OnStatus(fn func(types.ConnectionStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = fn
}

// OnTranscript registers a hook called with every new or updated entry.
func (s *Session) OnTranscript(fn func(types.TranscriptEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTranscript = fn
}

// Connect acquires the microphone, opens the remote session and starts
// streaming once the remote side acknowledges. It returns nil without doing
// anything while a connection is in progress or established.
func (s *Session) Connect(ctx context.Context) error {
	if s.unavailable {
		return ErrUnavailable
	}

	s.mu.Lock()
	if s.status.Live() {
		s.mu.Unlock()
		return nil
	}
	attemptCtx, cancel := context.WithCancel(ctx)
	c := &connection{cancel: cancel}
	s.conn = c
	notify := s.setStatusLocked(types.StatusConnecting)
	s.mu.Unlock()
	notify()

	s.logger.Info("Connecting to Tea House")

	stream, err := s.deps.Capture.Open(attemptCtx, capture.Format{
		SampleRate: model.InputSampleRate,
		Channels:   1,
		FrameSize:  model.FrameSize,
	})
	if err != nil {
		return s.failConnect(c, "capture", fmt.Errorf("open microphone: %w", err))
	}
	if !s.attach(c, func() { c.stream = stream }) {
		stream.Stop()
		return context.Canceled
	}

	output, err := s.deps.OpenOutput()
	if err != nil {
		return s.failConnect(c, "output", fmt.Errorf("open playback output: %w", err))
	}
	if !s.attach(c, func() { c.output = output }) {
		_ = output.Close()
		return context.Canceled
	}

	transport, err := s.deps.Dialer.Dial(attemptCtx, live.Config{
		APIKey:            s.cfg.APIKey,
		Model:             s.cfg.Model,
		SystemInstruction: s.cfg.SystemInstruction,
		Endpoint:          s.cfg.Endpoint,
	})
	if err != nil {
		return s.failConnect(c, "dial", fmt.Errorf("open live session: %w", err))
	}

	scheduler := playback.NewScheduler(output)
	uplink, err := workers.NewUplinkWorker(stream.Frames(), transport, s.logger)
	if err != nil {
		_ = transport.Close()
		return s.failConnect(c, "uplink", err)
	}
	uplink.OnFrameSent = s.recordFrameSent

	downlink, err := workers.NewDownlinkWorker(transport.Events(), s.log, scheduler, s.handlers(c), s.logger)
	if err != nil {
		_ = transport.Close()
		return s.failConnect(c, "downlink", err)
	}

	if !s.attach(c, func() {
		c.transport = transport
		c.scheduler = scheduler
		c.uplink = uplink
		c.downlink = downlink
	}) {
		_ = transport.Close()
		return context.Canceled
	}

	downlink.Start()
	return nil
}

// attach runs fn under the lock if c is still the current connection.
func (s *Session) attach(c *connection, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != c {
		return false
	}
	fn()
	return true
}

func (s *Session) failConnect(c *connection, reason string, err error) error {
	s.logger.Error("Tea House connection failed", slog.String("stage", reason), slog.String("error", err.Error()))
	if s.metrics != nil {
		s.metrics.RecordSessionFailure(reason)
	}
	s.teardown(c, types.StatusError)
	return err
}

func (s *Session) handlers(c *connection) workers.DownlinkHandlers {
	return workers.DownlinkHandlers{
		OnOpen: func() { s.opened(c) },
		OnEntry: func(entry types.TranscriptEntry) {
			if s.metrics != nil {
				s.metrics.RecordTranscriptUpdate(string(entry.Author))
			}
			s.mu.Lock()
			fn := s.onTranscript
			s.mu.Unlock()
			if fn != nil {
				fn(entry)
			}
		},
		OnScheduled: func(_ playback.Scheduled, bytes int) {
			if s.metrics != nil {
				s.metrics.RecordChunkScheduled(bytes)
			}
		},
		OnError: func(err error) {
			s.logger.Error("Tea House session error", slog.String("error", err.Error()))
			if s.metrics != nil {
				s.metrics.RecordSessionFailure("transport")
			}
			s.teardown(c, types.StatusError)
		},
		OnClose: func(reason string) {
			s.logger.Info("Tea House session closed by remote", slog.String("reason", reason))
			s.teardown(c, types.StatusDisconnected)
		},
	}
}

func (s *Session) opened(c *connection) {
	s.mu.Lock()
	if s.conn != c || s.status != types.StatusConnecting {
		s.mu.Unlock()
		return
	}
	c.openedAt = time.Now()
	c.uplink.Start()
	notify := s.setStatusLocked(types.StatusConnected)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSessionStart()
	}
	s.logger.Info("Tea House connected")
	notify()
}

// Disconnect ends the conversation and releases every resource. It is safe
// to call at any time and more than once.
func (s *Session) Disconnect() {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()

	if c == nil {
		if s.unavailable {
			return
		}
		s.mu.Lock()
		notify := s.setStatusLocked(types.StatusDisconnected)
		s.mu.Unlock()
		notify()
		return
	}
	s.teardown(c, types.StatusDisconnected)
}

// teardown releases c in a fixed order: remote session, microphone, frame
// processor, output, scheduled sources. Only the first call for c has any
// effect. The status changes and its hook fires before the releases, which
// run without the lock so a stuck close never blocks Status or a new Connect.
func (s *Session) teardown(c *connection, final types.ConnectionStatus) {
	s.mu.Lock()
	if s.conn != c {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	c.cancel()
	if s.unavailable {
		final = types.StatusError
	}
	notify := s.setStatusLocked(final)
	s.mu.Unlock()
	notify()

	s.release(c)

	if s.metrics != nil && !c.openedAt.IsZero() {
		s.metrics.RecordSessionEnd(time.Since(c.openedAt))
	}
	s.logger.Info("Tea House session released", slog.String("status", string(final)))
}

// release closes everything c holds. c must already be detached from s.
func (s *Session) release(c *connection) {
	if c.transport != nil {
		if err := c.transport.Close(); err != nil {
			s.logger.Debug("Closing live transport", slog.String("error", err.Error()))
		}
	}
	if c.stream != nil {
		c.stream.Stop()
	}
	if c.uplink != nil {
		c.uplink.Stop()
	}
	switch {
	case c.scheduler != nil:
		if err := c.scheduler.Close(); err != nil {
			s.logger.Debug("Closing playback output", slog.String("error", err.Error()))
		}
	case c.output != nil:
		_ = c.output.Close()
	}
	if c.downlink != nil {
		c.downlink.Stop()
	}
}

// setStatusLocked updates the status and returns a function that fires the
// status hook. The caller must hold s.mu and call the result after unlocking.
func (s *Session) setStatusLocked(status types.ConnectionStatus) func() {
	changed := s.status != status
	s.status = status
	fn := s.onStatus
	return func() {
		if changed && fn != nil {
			fn(status)
		}
	}
}

func (s *Session) recordFrameSent(bytes int) {
	if s.metrics != nil {
		s.metrics.RecordFrameSent(bytes)
	}
}
