package chat

import (
	"log/slog"
	"time"
)

// Defaults match the DeepSeek chat-completion service.
const (
	DefaultBaseURL = "https://api.deepseek.com/v1"
	DefaultModel   = "deepseek-chat"

	// DefaultTemperature and DefaultMaxTokens bound each reply.
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024

	// DefaultTimeout covers one full completion round trip.
	DefaultTimeout = 15 * time.Second

	// DefaultHistoryLimit is how many user and assistant entries a
	// session retains, i.e. five exchanged turns.
	DefaultHistoryLimit = 10
)

// Config holds client and session configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// BaseURL is the API endpoint root, without a trailing slash.
	BaseURL string

	// APIKey is the bearer token.
	APIKey string

	// Model is the completion model id.
	Model string

	// SystemPrompt is the standing persona instruction. The session
	// always sends it first and never evicts it.
	SystemPrompt string

	// Temperature controls response randomness.
	Temperature float64

	// MaxTokens limits the length of a single reply.
	MaxTokens int

	// Timeout bounds one completion request.
	Timeout time.Duration

	// HistoryLimit caps retained user and assistant entries.
	HistoryLimit int

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// Option is a functional option for configuring the client or session.
type Option func(*Config)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the completion model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithSystemPrompt sets the persona instruction.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) { c.SystemPrompt = prompt }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens sets the reply length limit.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithHistoryLimit caps the retained conversation entries.
func WithHistoryLimit(n int) Option {
	return func(c *Config) { c.HistoryLimit = n }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		Model:        DefaultModel,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
		Timeout:      DefaultTimeout,
		HistoryLimit: DefaultHistoryLimit,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
