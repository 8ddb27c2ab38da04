package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete backend configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Candidates CandidatesConfig `yaml:"candidates"`
	TeaHouse   TeaHouseConfig   `yaml:"teahouse"`
	LLM        LLMConfig        `yaml:"llm"`
	Agents     AgentsConfig     `yaml:"agents"`
	Twilio     TwilioConfig     `yaml:"twilio"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Address         string `yaml:"address"`
	Port            int    `yaml:"port"`
	ReadTimeout     int    `yaml:"read_timeout"`     // seconds
	WriteTimeout    int    `yaml:"write_timeout"`    // seconds
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // seconds
}

// CandidatesConfig points at the external candidate API
type CandidatesConfig struct {
	BaseURL      string `yaml:"base_url"`
	Timeout      int    `yaml:"timeout"`       // seconds
	StatsTimeout int    `yaml:"stats_timeout"` // seconds
}

// TeaHouseConfig selects the live speech model. An empty APIKey disables the Tea House.
type TeaHouseConfig struct {
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	SystemInstruction string `yaml:"system_instruction"`
	Endpoint          string `yaml:"endpoint"`
}

// LLMConfig contains text generation configuration
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout int    `yaml:"timeout"` // seconds
}

// AgentsConfig contains content agent pacing
type AgentsConfig struct {
	GenerationInterval int `yaml:"generation_interval"` // seconds
}

// TwilioConfig contains SMS credentials for referral invitations
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig toggles the /metrics endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns a configuration that runs without a config file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			ShutdownTimeout: 10,
		},
		Candidates: CandidatesConfig{
			BaseURL:      "https://digitaldemocracy-iraq-production.up.railway.app",
			Timeout:      10,
			StatsTimeout: 5,
		},
		TeaHouse: TeaHouseConfig{
			Model: "gemini-2.5-flash-native-audio-preview-09-2025",
		},
		LLM: LLMConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:   "gemini-2.5-flash",
			Timeout: 30,
		},
		Agents: AgentsConfig{
			GenerationInterval: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads the configuration file over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	config.ApplyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	first := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}

	if v, ok := first("GEMINI_API_KEY", "NEXT_PUBLIC_API_KEY"); ok {
		c.TeaHouse.APIKey = v
	}
	if v, ok := first("GEMINI_TEXT_API_KEY", "NEXT_PUBLIC_GEMINI_API_KEY", "GEMINI_API_KEY"); ok {
		c.LLM.APIKey = v
	}
	if v, ok := first("TWILIO_ACCOUNT_SID"); ok {
		c.Twilio.AccountSID = v
	}
	if v, ok := first("TWILIO_AUTH_TOKEN"); ok {
		c.Twilio.AuthToken = v
	}
	if v, ok := first("TWILIO_FROM_NUMBER"); ok {
		c.Twilio.FromNumber = v
	}
	if v, ok := first("CANDIDATES_API_BASE_URL", "NEXT_PUBLIC_API_BASE_URL"); ok {
		c.Candidates.BaseURL = v
	}
}

// Validate performs validation of every section
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Candidates.Validate(); err != nil {
		return fmt.Errorf("candidates config: %w", err)
	}

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm config: %w", err)
	}

	if err := c.Agents.Validate(); err != nil {
		return fmt.Errorf("agents config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if s.ReadTimeout < 0 || s.WriteTimeout < 0 {
		return fmt.Errorf("read_timeout and write_timeout cannot be negative")
	}

	if s.ShutdownTimeout < 1 {
		return fmt.Errorf("shutdown_timeout must be at least 1 second, got %d", s.ShutdownTimeout)
	}

	return nil
}

// Validate validates candidate API configuration
func (c *CandidatesConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}

	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", c.Timeout)
	}

	if c.StatsTimeout < 1 || c.StatsTimeout > c.Timeout {
		return fmt.Errorf("stats_timeout must be between 1 and timeout (%d), got %d", c.Timeout, c.StatsTimeout)
	}

	return nil
}

// Validate validates text generation configuration. The API key is optional.
func (l *LLMConfig) Validate() error {
	if l.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	if l.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if l.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", l.Timeout)
	}

	return nil
}

// Validate validates agent pacing
func (a *AgentsConfig) Validate() error {
	if a.GenerationInterval < 0 {
		return fmt.Errorf("generation_interval cannot be negative, got %d", a.GenerationInterval)
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of: debug, info, warn, error, got %s", l.Level)
	}

	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be one of: json, text, got %s", l.Format)
	}

	if l.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}

	return nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("path must start with /, got %q", m.Path)
	}
	return nil
}

// TwilioEnabled reports whether referral SMS can be sent.
func (c *Config) TwilioEnabled() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.FromNumber != ""
}

// ListenAddress returns the host:port the HTTP server binds to
func (s *ServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// GetReadTimeout returns the server read timeout as time.Duration
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the server write timeout as time.Duration
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the graceful shutdown timeout as time.Duration
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetTimeout returns the candidate API client timeout as time.Duration
func (c *CandidatesConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetStatsTimeout returns the stats fetch timeout as time.Duration
func (c *CandidatesConfig) GetStatsTimeout() time.Duration {
	return time.Duration(c.StatsTimeout) * time.Second
}

// GetTimeout returns the text generation timeout as time.Duration
func (l *LLMConfig) GetTimeout() time.Duration {
	return time.Duration(l.Timeout) * time.Second
}

// GetGenerationInterval returns the pause between generated campaign pieces
func (a *AgentsConfig) GetGenerationInterval() time.Duration {
	return time.Duration(a.GenerationInterval) * time.Second
}
