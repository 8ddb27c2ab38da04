package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrsingh-rishi/teahouse/agents"
	"github.com/mrsingh-rishi/teahouse/candidates"
	"github.com/mrsingh-rishi/teahouse/config"
	"github.com/mrsingh-rishi/teahouse/live"
	"github.com/mrsingh-rishi/teahouse/llm"
	"github.com/mrsingh-rishi/teahouse/logging"
	"github.com/mrsingh-rishi/teahouse/metrics"
	"github.com/mrsingh-rishi/teahouse/server"
	"github.com/mrsingh-rishi/teahouse/social"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "diwan"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load .env if present
	envErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("config_path", *configPath),
		slog.String("address", cfg.Server.ListenAddress()),
		slog.String("candidates_api", cfg.Candidates.BaseURL),
		slog.Bool("teahouse_enabled", cfg.TeaHouse.APIKey != ""),
		slog.Bool("llm_enabled", cfg.LLM.APIKey != ""),
		slog.Bool("sms_enabled", cfg.TwilioEnabled()),
	)

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)

	candidateClient := candidates.NewClient(
		candidates.WithBaseURL(cfg.Candidates.BaseURL),
		candidates.WithHTTPClient(&http.Client{Timeout: cfg.Candidates.GetTimeout()}),
		candidates.WithLogger(logger),
	)

	generator := llm.NewGeminiClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	}, logger)

	var messenger social.Messenger
	if cfg.TwilioEnabled() {
		tm, err := social.NewTwilioMessenger(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
		if err != nil {
			logger.Error("Failed to create Twilio messenger", slog.String("error", err.Error()))
			os.Exit(1)
		}
		messenger = tm
	}

	srv, err := server.New(server.Options{
		Config:     cfg,
		Candidates: candidateClient,
		Generator:  generator,
		Feed:       social.NewFeed(nil),
		Referrals:  social.NewReferrals(messenger),
		Agents:     agents.NewSystemManager(generator, cfg.Agents.GetGenerationInterval(), logger),
		Dialer:     live.NewGeminiDialer(logger),
		Metrics:    appMetrics,
		Gatherer:   prometheus.DefaultGatherer,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server stopped", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("Starting graceful shutdown...")
	if err := srv.Shutdown(); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}
	logger.Info("Service stopped")
}
