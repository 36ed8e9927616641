package asr

import (
	"log/slog"
	"time"
)

// Default endpoints and protocol parameters.
const (
	DefaultTokenURL     = "https://aip.baidubce.com/oauth/2.0/token"
	DefaultRecognizeURL = "https://vop.baidu.com/server_api"
	DefaultIflyHost     = "ost-api.xfyun.cn"
	DefaultCUID         = "go_client_v1"

	// DefaultDevPID selects Baidu's Mandarin language model.
	DefaultDevPID = 80001

	// DefaultPollInterval and DefaultPollAttempts bound the iFlytek
	// polling loop to roughly a minute.
	DefaultPollInterval = 2 * time.Second
	DefaultPollAttempts = 30
)

// Config holds backend configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Credentials. Baidu uses APIKey/APISecret as the client-credential
	// pair; iFlytek additionally requires AppID.
	AppID     string
	APIKey    string
	APISecret string

	// Baidu endpoints and request parameters.
	TokenURL     string
	RecognizeURL string
	CUID         string
	DevPID       int

	// iFlytek host (requests are signed against this name).
	Host string

	// Uploader publishes clips for the iFlytek create-task call.
	Uploader Uploader

	// Polling behavior for asynchronous backends.
	PollInterval time.Duration
	PollAttempts int

	// Timeouts.
	Timeout      time.Duration // recognition requests
	TokenTimeout time.Duration // token endpoint

	// Observability.
	Logger *slog.Logger
}

// Option is a functional option for configuring backends.
type Option func(*Config)

// WithAppID sets the application id (iFlytek).
func WithAppID(id string) Option {
	return func(c *Config) { c.AppID = id }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithAPISecret sets the API secret (Baidu secret key or iFlytek secret).
func WithAPISecret(secret string) Option {
	return func(c *Config) { c.APISecret = secret }
}

// WithTokenURL overrides the Baidu token endpoint.
func WithTokenURL(url string) Option {
	return func(c *Config) { c.TokenURL = url }
}

// WithRecognizeURL overrides the Baidu recognition endpoint.
func WithRecognizeURL(url string) Option {
	return func(c *Config) { c.RecognizeURL = url }
}

// WithCUID sets the client identifier sent to Baidu.
func WithCUID(cuid string) Option {
	return func(c *Config) { c.CUID = cuid }
}

// WithHost sets the iFlytek API host.
func WithHost(host string) Option {
	return func(c *Config) { c.Host = host }
}

// WithUploader sets the audio upload collaborator.
func WithUploader(u Uploader) Option {
	return func(c *Config) { c.Uploader = u }
}

// WithPolling configures the iFlytek polling loop.
func WithPolling(interval time.Duration, attempts int) Option {
	return func(c *Config) {
		c.PollInterval = interval
		c.PollAttempts = attempts
	}
}

// WithTimeout sets the recognition request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithLogger sets the structured logger for the backend.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		TokenURL:     DefaultTokenURL,
		RecognizeURL: DefaultRecognizeURL,
		CUID:         DefaultCUID,
		DevPID:       DefaultDevPID,
		Host:         DefaultIflyHost,
		PollInterval: DefaultPollInterval,
		PollAttempts: DefaultPollAttempts,
		Timeout:      30 * time.Second,
		TokenTimeout: 10 * time.Second,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
