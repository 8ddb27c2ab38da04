// Package server is the fiber application: the JSON API, the localized page
// shells and the browser Tea House websocket.
package server

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrsingh-rishi/teahouse/agents"
	"github.com/mrsingh-rishi/teahouse/candidates"
	"github.com/mrsingh-rishi/teahouse/config"
	"github.com/mrsingh-rishi/teahouse/live"
	"github.com/mrsingh-rishi/teahouse/llm"
	"github.com/mrsingh-rishi/teahouse/locale"
	"github.com/mrsingh-rishi/teahouse/metrics"
	"github.com/mrsingh-rishi/teahouse/social"
)

const appName = "diwan"

// Options carry everything the routes need.
type Options struct {
	Config     *config.Config
	Candidates *candidates.Client
	Generator  llm.Generator
	Feed       *social.Feed
	Referrals  *social.Referrals
	Agents     *agents.SystemManager
	Dialer     live.Dialer
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Logger     *slog.Logger
}

type Server struct {
	app  *fiber.App
	opts Options
	cfg  *config.Config

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Candidates == nil || opts.Feed == nil || opts.Referrals == nil || opts.Agents == nil {
		return nil, errors.New("candidates, feed, referrals and agents are required")
	}
	if opts.Generator == nil {
		return nil, errors.New("text generator is required")
	}
	if opts.Dialer == nil {
		return nil, errors.New("live dialer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		opts:    opts,
		cfg:     opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               appName,
		ReadTimeout:           s.cfg.Server.GetReadTimeout(),
		WriteTimeout:          s.cfg.Server.GetWriteTimeout(),
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.routes()
	return s, nil
}

// App exposes the fiber application, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	addr := s.cfg.Server.ListenAddress()
	s.logger.Info("HTTP server listening", slog.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(s.cfg.Server.GetShutdownTimeout())
}

func (s *Server) routes() {
	app := s.app
	app.Use(recover.New())
	app.Use(s.withMetrics)
	app.Use(locale.New(s.cfg.Metrics.Path))

	app.Get("/health", s.health)
	if s.cfg.Metrics.Enabled {
		app.Get(s.cfg.Metrics.Path, adaptor.HTTPHandler(
			promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}),
		))
	}

	api := app.Group("/api")
	api.Get("/candidates", s.listCandidates)
	api.Get("/candidates/search", s.searchCandidates)
	api.Get("/candidates/:id", s.getCandidate)
	api.Get("/stats", s.stats)
	api.Get("/governorates", s.governorates)
	api.Get("/provinces", s.provinces)
	api.Get("/parties", s.parties)

	api.Get("/feed", s.listPosts)
	api.Post("/feed", s.createPost)
	api.Post("/feed/generate", s.generatePost)
	api.Post("/feed/:id/like", s.toggleLike)

	api.Post("/badges/evaluate", s.evaluateBadges)
	api.Post("/referrals", s.createReferral)
	api.Post("/referrals/invite", s.invite)

	api.Get("/agents/status", s.agentsStatus)
	api.Post("/agents/campaigns/:id/run", s.runCampaign)
	api.Post("/agents/campaigns/:id/pause", s.pauseCampaign)
	api.Post("/agents/campaigns/:id/activate", s.activateCampaign)

	api.Get("/calendar", s.calendar)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/teahouse", websocket.New(s.serveTeaHouse))

	app.Get("/:lang", s.page)
	app.Get("/:lang/*", s.page)
}

// withMetrics records every request under its route pattern.
func (s *Server) withMetrics(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if s.metrics == nil {
		return err
	}

	status := c.Response().StatusCode()
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case err != nil:
		status = fiber.StatusInternalServerError
	}
	s.metrics.RecordHTTPRequest(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start))
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// upstream maps a candidate API failure onto a response.
func (s *Server) upstream(err error) error {
	if errors.Is(err, candidates.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}
	if s.metrics != nil {
		s.metrics.RecordUpstreamError("candidates")
	}
	s.logger.Warn("Candidate API request failed", slog.String("error", err.Error()))
	return fiber.NewError(fiber.StatusBadGateway, "candidate service unavailable")
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":            "ok",
		"teahouseAvailable": s.cfg.TeaHouse.APIKey != "",
	})
}

// page renders the shell of a localized page.
func (s *Server) page(c *fiber.Ctx) error {
	lang := c.Params("lang")
	if !locale.Supported(lang) {
		return fiber.ErrNotFound
	}
	path := "/" + c.Params("*")
	return c.JSON(fiber.Map{
		"locale":            lang,
		"dir":               locale.Dir(lang),
		"path":              path,
		"teahouseAvailable": s.cfg.TeaHouse.APIKey != "",
	})
}
