package tts

import (
	"log/slog"
	"time"
)

// Defaults for a local GPT-SoVITS server.
const (
	DefaultEndpoint = "http://127.0.0.1:9880"
	DefaultLanguage = "zh"
	DefaultTimeout  = 30 * time.Second
)

// Config holds configuration for TTS providers.
type Config struct {
	// Endpoint is the synthesis server URL.
	Endpoint string

	// Language tags the text for the synthesizer.
	Language string

	// Timeout bounds one synthesis request.
	Timeout time.Duration

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithEndpoint sets the synthesis server URL.
func WithEndpoint(url string) Option {
	return func(c *Config) { c.Endpoint = url }
}

// WithLanguage sets the text language tag.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		Language: DefaultLanguage,
		Timeout:  DefaultTimeout,
		Logger:   slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
