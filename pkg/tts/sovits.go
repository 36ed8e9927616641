package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xiaoyulabs/go-xiaoyu/internal/httpc"
)

const providerSoVITS = "sovits"

// SoVITS talks to a local GPT-SoVITS inference server. One POST per
// utterance; the response body is a complete WAV buffer.
type SoVITS struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewSoVITS creates a GPT-SoVITS provider.
func NewSoVITS(opts ...Option) *SoVITS {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &SoVITS{
		config: cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "tts.sovits"),
	}
}

// Synthesize converts text to a WAV buffer.
func (s *SoVITS) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	body, err := json.Marshal(map[string]string{
		"text":          text,
		"text_language": s.config.Language,
	})
	if err != nil {
		return nil, WrapError(providerSoVITS, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerSoVITS, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, WrapError(providerSoVITS, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Warn("synthesis rejected",
			"status", resp.StatusCode,
			"body", string(raw),
		)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(raw),
			Provider:   providerSoVITS,
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerSoVITS, fmt.Errorf("read audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerSoVITS, ErrEmptyAudio)
	}

	result := &AudioResult{
		Audio:     audio,
		CharCount: len([]rune(text)),
		LatencyMs: time.Since(start).Milliseconds(),
	}

	s.logger.Debug("synthesized",
		"chars", result.CharCount,
		"bytes", len(audio),
		"latency_ms", result.LatencyMs,
	)
	return result, nil
}

// Health checks that the server is reachable.
func (s *SoVITS) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.Endpoint, nil)
	if err != nil {
		return WrapError(providerSoVITS, err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return WrapError(providerSoVITS, fmt.Errorf("health check: %w", err))
	}
	resp.Body.Close()
	return nil
}

// Close releases resources.
func (s *SoVITS) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

// Endpoint returns the configured server URL.
func (s *SoVITS) Endpoint() string {
	return strings.TrimSuffix(s.config.Endpoint, "/")
}

// Verify SoVITS implements Provider at compile time.
var _ Provider = (*SoVITS)(nil)
