package chat

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

// errorBodyLimit is how much of a failed response body is kept.
const errorBodyLimit = 200

// Client is the HTTP completion transport. Works with any
// OpenAI-compatible API (DeepSeek, OpenAI, Ollama, vLLM).
//
// Requests go out on a proxy-free client; the completion endpoint is
// reached directly even when the environment routes other traffic
// through a proxy. A failed request is never retried.
type Client struct {
	baseURL string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new completion client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		config:  cfg,
		http:    httpc.NewDirectClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "chat.client"),
	}, nil
}

// Complete sends the message list and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()

	payload := map[string]any{
		"model":       c.config.Model,
		"messages":    messages,
		"temperature": c.config.Temperature,
		"max_tokens":  c.config.MaxTokens,
		"stream":      false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("chat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("chat: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", "error", err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseError(resp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(result.Choices) == 0 {
		return "", ErrMalformedResponse
	}

	c.logger.Debug("completion done",
		"total_tokens", result.Usage.TotalTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result.Choices[0].Message.Content, nil
}

// parseError reads a failed response into an APIError. The structured
// error.message is preferred; otherwise the leading raw body is kept.
func (c *Client) parseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
	} else {
		body := []rune(string(raw))
		if len(body) > errorBodyLimit {
			body = body[:errorBodyLimit]
		}
		apiErr.Body = string(body)
	}

	c.logger.Warn("completion rejected",
		"status", resp.StatusCode,
		"message", apiErr.Message,
	)
	return apiErr
}

var _ Completer = (*Client)(nil)
