// Package call bridges one browser websocket to one Tea House session.
package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofiber/websocket/v2"

	"github.com/mrsingh-rishi/teahouse/live"
	"github.com/mrsingh-rishi/teahouse/metrics"
	"github.com/mrsingh-rishi/teahouse/model"
	"github.com/mrsingh-rishi/teahouse/output"
	"github.com/mrsingh-rishi/teahouse/playback"
	"github.com/mrsingh-rishi/teahouse/teahouse"
	"github.com/mrsingh-rishi/teahouse/types"
)

// Conn is the part of a websocket connection a Call uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Deps configure the session created for each call.
type Deps struct {
	Session teahouse.Config
	Dialer  live.Dialer
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Call owns a browser connection and the session it drives.
type Call struct {
	ws      Conn
	browser *output.Browser
	mic     *output.BrowserMicrophone
	session *teahouse.Session
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	connecting sync.WaitGroup
	cleanup    sync.Once
}

func NewCall(ws Conn, deps Deps) (*Call, error) {
	if ws == nil {
		return nil, errors.New("websocket connection is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	browser, err := output.NewBrowser(ws, logger)
	if err != nil {
		return nil, err
	}
	mic := output.NewBrowserMicrophone()

	session, err := teahouse.New(deps.Session, teahouse.Deps{
		Dialer:  deps.Dialer,
		Capture: mic,
		OpenOutput: func() (playback.Output, error) {
			return output.NewBrowserSpeaker(browser, model.OutputSampleRate), nil
		},
		Logger:  logger,
		Metrics: deps.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create tea house session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Call{
		ws:      ws,
		browser: browser,
		mic:     mic,
		session: session,
		logger:  logger.With(slog.String("session_id", session.ID())),
		ctx:     ctx,
		cancel:  cancel,
	}
	session.OnStatus(func(st types.ConnectionStatus) {
		browser.SendStatus(st, session.Unavailable())
	})
	session.OnTranscript(browser.SendTranscript)
	return c, nil
}

// Session returns the session driven by this call.
func (c *Call) Session() *teahouse.Session {
	return c.session
}

// Start reports the initial status and serves client messages until the
// socket closes. Resources are released before it returns.
func (c *Call) Start() {
	defer c.CleanupResources()

	c.browser.SendStatus(c.session.Status(), c.session.Unavailable())

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("Browser closed Tea House socket")
			} else {
				c.logger.Debug("Browser socket read failed", slog.String("error", err.Error()))
			}
			return
		}

		var ev output.ClientMessage
		if err := json.Unmarshal(msg, &ev); err != nil {
			c.logger.Warn("Dropping malformed browser message", slog.String("error", err.Error()))
			continue
		}
		c.handle(ev)
	}
}

func (c *Call) handle(ev output.ClientMessage) {
	switch ev.Type {
	case "connect":
		c.mic.SetCapability(ev.Capture)
		c.connecting.Add(1)
		go func() {
			defer c.connecting.Done()
			if err := c.session.Connect(c.ctx); err != nil {
				c.logger.Warn("Tea House connect failed", slog.String("error", err.Error()))
			}
		}()

	case "audio":
		if err := c.mic.Feed(ev.Data); err != nil {
			c.logger.Warn("Dropping browser audio", slog.String("error", err.Error()))
		}

	case "disconnect":
		c.session.Disconnect()

	default:
		c.logger.Debug("Unknown browser message", slog.String("type", ev.Type))
	}
}

// CleanupResources ends the session and closes the socket. It is idempotent.
func (c *Call) CleanupResources() {
	c.cleanup.Do(func() {
		c.cancel()
		c.connecting.Wait()
		c.session.Disconnect()
		if err := c.ws.Close(); err != nil {
			c.logger.Debug("Closing browser socket", slog.String("error", err.Error()))
		}
	})
}
