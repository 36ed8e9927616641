package chat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Sentinel errors for common conditions.
var (
	// ErrMissingAPIKey is returned when no bearer token is configured.
	ErrMissingAPIKey = errors.New("chat: api key required")

	// ErrMalformedResponse is returned when the response body lacks
	// the expected choices structure.
	ErrMalformedResponse = errors.New("chat: malformed completion response")
)

// APIError represents a non-200 response from the completion service.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the parsed error.message field, when present.
	Message string

	// Body is the leading raw response body, kept for diagnostics
	// when no structured message could be parsed.
	Body string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chat: API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("chat: API error %d: %s", e.StatusCode, e.Body)
}

// User-facing fallback messages. The pipeline speaks these in place of
// a reply, so one bad exchange never kills the session.
const (
	FallbackTimeout   = "请求超时，请稍后重试。"
	FallbackMalformed = "API响应格式异常，解析失败。"

	fallbackNetworkPrefix    = "网络请求异常："
	fallbackUnexpectedPrefix = "发生未预料的异常："
)

// Fallback flattens an exchange error into the fixed message the
// assistant speaks in place of a reply. Returns "" for nil.
func Fallback(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg := fmt.Sprintf("请求失败（状态码 %d）", apiErr.StatusCode)
		switch {
		case apiErr.Message != "":
			msg += ": " + apiErr.Message
		case apiErr.Body != "":
			msg += " - 响应内容: " + apiErr.Body
		}
		return msg
	}

	if errors.Is(err, ErrMalformedResponse) {
		return FallbackMalformed
	}

	if isTimeout(err) {
		return FallbackTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fallbackNetworkPrefix + err.Error()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fallbackNetworkPrefix + err.Error()
	}

	return fallbackUnexpectedPrefix + err.Error()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
