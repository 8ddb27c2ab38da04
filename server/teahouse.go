package server

import (
	"log/slog"

	"github.com/gofiber/websocket/v2"

	"github.com/mrsingh-rishi/teahouse/call"
	"github.com/mrsingh-rishi/teahouse/teahouse"
)

// serveTeaHouse runs one browser Tea House session until the socket closes.
func (s *Server) serveTeaHouse(ws *websocket.Conn) {
	th := s.cfg.TeaHouse
	c, err := call.NewCall(ws, call.Deps{
		Session: teahouse.Config{
			APIKey:            th.APIKey,
			Model:             th.Model,
			SystemInstruction: th.SystemInstruction,
			Endpoint:          th.Endpoint,
		},
		Dialer:  s.opts.Dialer,
		Metrics: s.metrics,
		Logger:  s.logger,
	})
	if err != nil {
		s.logger.Error("Failed to start Tea House call", slog.String("error", err.Error()))
		_ = ws.Close()
		return
	}
	s.logger.Info("Tea House socket opened", slog.String("session_id", c.Session().ID()))
	c.Start()
}
