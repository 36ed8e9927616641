package pipeline

import (
	"log/slog"
	"time"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/asr"
)

// Defaults for the turn loop.
const (
	// DefaultRecordDuration is how long one utterance is captured.
	DefaultRecordDuration = 5 * time.Second

	// DefaultTargetRate is the capture sample rate handed to the
	// recognition backend.
	DefaultTargetRate = 16000
)

// Config holds orchestrator configuration.
type Config struct {
	// RecordDuration is the fixed capture window per turn.
	RecordDuration time.Duration

	// TargetRate is the sample rate clips are resampled to.
	TargetRate int

	// Gate validates clips before transcription. Nil leaves gating
	// to the backend alone.
	Gate *asr.Rules

	// TranscriptPath is an optional JSONL file appended with one
	// line per turn. Empty disables the log.
	TranscriptPath string

	// Observer receives state and turn events.
	Observer Observer

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// Option is a functional option for configuring the orchestrator.
type Option func(*Config)

// WithRecordDuration sets the capture window per turn.
func WithRecordDuration(d time.Duration) Option {
	return func(c *Config) { c.RecordDuration = d }
}

// WithTargetRate sets the capture sample rate.
func WithTargetRate(rate int) Option {
	return func(c *Config) { c.TargetRate = rate }
}

// WithGate validates clips in the loop before transcription.
func WithGate(rules asr.Rules) Option {
	return func(c *Config) { c.Gate = &rules }
}

// WithTranscriptPath enables the per-turn JSONL log.
func WithTranscriptPath(path string) Option {
	return func(c *Config) { c.TranscriptPath = path }
}

// WithObserver sets the event observer.
func WithObserver(obs Observer) Option {
	return func(c *Config) { c.Observer = obs }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		RecordDuration: DefaultRecordDuration,
		TargetRate:     DefaultTargetRate,
		Observer:       noopObserver{},
		Logger:         slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
