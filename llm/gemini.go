//go:generate mockgen -destination=../mocks/generator.go -package=mocks github.com/mrsingh-rishi/teahouse/llm Generator

// Package llm generates short social posts with Gemini through its
// OpenAI-compatible endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.5-flash"

	// MaxPostRunes is the longest post returned to callers.
	MaxPostRunes = 280

	SocialPostPrompt = "Write a short, witty, and slightly humorous social media post about daily life, " +
		"politics, or tea in Iraq. Keep it under 280 characters. The tone should be optimistic " +
		"and engaging for a young Iraqi audience. Do not use hashtags."

	UnavailableMessage = "AI is currently unavailable. Please try again later."
	FailureMessage     = "Couldn't generate a post right now. Try again in a moment!"
)

// ErrUnavailable is returned when no API key is configured.
var ErrUnavailable = errors.New("llm: text generation is not configured")

// Generator produces a social post. On failure it returns a displayable
// fallback text together with the error.
type Generator interface {
	GenerateSocialPost(ctx context.Context) (string, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GeminiClient struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiClient builds a client. Without an API key the client is kept but
// every call returns UnavailableMessage.
func NewGeminiClient(cfg Config, logger *slog.Logger) *GeminiClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &GeminiClient{model: cfg.Model, logger: logger}
	if c.model == "" {
		c.model = DefaultModel
	}
	if cfg.APIKey == "" {
		logger.Warn("Gemini text API key is not set, AI features are disabled")
		return c
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if oc.BaseURL == "" {
		oc.BaseURL = strings.TrimRight(DefaultBaseURL, "/")
	}
	c.client = openai.NewClientWithConfig(oc)
	return c
}

// Available reports whether an API key was configured.
func (c *GeminiClient) Available() bool {
	return c.client != nil
}

func (c *GeminiClient) GenerateSocialPost(ctx context.Context) (string, error) {
	if c.client == nil {
		return UnavailableMessage, ErrUnavailable
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: SocialPostPrompt},
		},
	})
	if err != nil {
		c.logger.Error("Error generating social post", slog.String("error", err.Error()))
		return FailureMessage, fmt.Errorf("generate social post: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("Social post response had no choices")
		return FailureMessage, errors.New("generate social post: empty response")
	}

	post := strings.TrimSpace(resp.Choices[0].Message.Content)
	if post == "" {
		return FailureMessage, errors.New("generate social post: empty content")
	}
	return Truncate(post, MaxPostRunes), nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
