// Command teahouse talks to the Tea House host through the local microphone
// and speaker.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mrsingh-rishi/teahouse/config"
	"github.com/mrsingh-rishi/teahouse/device"
	"github.com/mrsingh-rishi/teahouse/live"
	"github.com/mrsingh-rishi/teahouse/logging"
	"github.com/mrsingh-rishi/teahouse/model"
	"github.com/mrsingh-rishi/teahouse/playback"
	"github.com/mrsingh-rishi/teahouse/teahouse"
	"github.com/mrsingh-rishi/teahouse/types"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	// Keep the terminal for the conversation.
	if cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	logger := logging.New(cfg.Logging)

	session, err := teahouse.New(teahouse.Config{
		APIKey:            cfg.TeaHouse.APIKey,
		Model:             cfg.TeaHouse.Model,
		SystemInstruction: cfg.TeaHouse.SystemInstruction,
		Endpoint:          cfg.TeaHouse.Endpoint,
	}, teahouse.Deps{
		Dialer:  live.NewGeminiDialer(logger),
		Capture: device.NewMicrophone(logger),
		OpenOutput: func() (playback.Output, error) {
			spk, err := device.NewSpeaker(model.OutputSampleRate, logger)
			if err != nil {
				return nil, err
			}
			return spk, nil
		},
		Logger: logger,
	})
	if err != nil {
		logger.Error("Failed to create Tea House session", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if session.Unavailable() {
		fmt.Fprintln(os.Stderr, "The Tea House is unavailable: set GEMINI_API_KEY to talk to the host.")
		os.Exit(1)
	}

	ended := make(chan types.ConnectionStatus, 1)
	session.OnStatus(func(st types.ConnectionStatus) {
		fmt.Fprintf(os.Stderr, "[%s]\n", st)
		if !st.Live() {
			select {
			case ended <- st:
			default:
			}
		}
	})
	session.OnTranscript(func(e types.TranscriptEntry) {
		if !e.IsFinal {
			return
		}
		who := "you"
		if e.Author == types.AuthorModel {
			who = "host"
		}
		fmt.Printf("%s: %s\n", who, e.Text)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not join the Tea House: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "Speak to the host. Press Ctrl-C to leave.")

	code := 0
	select {
	case <-ctx.Done():
	case st := <-ended:
		if st == types.StatusError {
			code = 1
		}
	}
	session.Disconnect()
	stop()
	os.Exit(code)
}
