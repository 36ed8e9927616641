package asr

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
)

// Sentinel errors for common conditions.
var (
	// ErrNoToken is returned when an access token cannot be obtained.
	ErrNoToken = errors.New("asr: access token unavailable")

	// ErrEmptyResult is returned when the service recognized nothing.
	ErrEmptyResult = errors.New("asr: no speech recognized")

	// ErrIncompleteResult is returned when a completed task carries no
	// result payload.
	ErrIncompleteResult = errors.New("asr: result field missing")

	// ErrNoTaskID is returned when task creation yields no task id.
	ErrNoTaskID = errors.New("asr: task creation returned no task id")

	// ErrTaskFailed is returned when the remote task reports failure.
	ErrTaskFailed = errors.New("asr: task failed")

	// ErrPollTimeout is returned when the polling budget is exhausted.
	ErrPollTimeout = errors.New("asr: polling budget exhausted")

	// ErrUploadFailed is returned when the audio upload collaborator fails.
	ErrUploadFailed = errors.New("asr: audio upload failed")
)

// Known Baidu business error codes.
const (
	codeBadRate    = "3311" // unsupported sample rate
	codeBadParams  = "3300" // malformed request parameters
	codeBadQuality = "3301" // audio quality too poor to recognize
)

// APIError represents a business-level rejection from a recognition API.
type APIError struct {
	// StatusCode is the HTTP status code, when relevant.
	StatusCode int

	// Code is the service's own error code (e.g. Baidu err_no).
	Code string

	// Message is the error message from the API.
	Message string

	// Provider identifies which backend returned the error.
	Provider string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("asr [%s]: API error %s: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("asr [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// ProviderError wraps an error with backend context.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("asr [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with backend context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// User-facing fallback messages. The pipeline speaks these instead of
// surfacing errors, so one bad turn never kills the session.
const (
	FallbackBadAudio     = "音频格式不符合要求喵~"
	FallbackNoToken      = "获取访问令牌失败，请检查API密钥喵~"
	FallbackNoContent    = "识别不到内容喵~"
	FallbackBadRate      = "采样率参数错误喵~ 请确保音频采样率为8000Hz或16000Hz"
	FallbackBadParams    = "输入参数不正确喵~ 请检查音频格式"
	FallbackBadQuality   = "音频质量问题喵~ 请检查音频文件是否损坏"
	FallbackNoFile       = "找不到音频文件喵~"
	FallbackNetwork      = "网络请求失败喵~"
	FallbackUpload       = "上传失败了...请检查网络和配置喵~"
	FallbackNoTask       = "创建任务失败啦，请检查API密钥喵~"
	FallbackIncomplete   = "识别结果不完整喵~"
	FallbackTaskFailed   = "识别失败喵~"
	FallbackPollTimeout  = "识别超时了喵~"
	FallbackUnknownError = "识别过程发生异常喵~"
)

// Fallback flattens a transcription error into the fixed message the
// assistant speaks in place of a transcript. Returns "" for nil.
func Fallback(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return FallbackBadAudio
	}

	switch {
	case errors.Is(err, ErrNoToken):
		return FallbackNoToken
	case errors.Is(err, ErrEmptyResult):
		return FallbackNoContent
	case errors.Is(err, ErrIncompleteResult):
		return FallbackIncomplete
	case errors.Is(err, ErrNoTaskID):
		return FallbackNoTask
	case errors.Is(err, ErrTaskFailed):
		return FallbackTaskFailed
	case errors.Is(err, ErrPollTimeout):
		return FallbackPollTimeout
	case errors.Is(err, ErrUploadFailed):
		return FallbackUpload
	case errors.Is(err, fs.ErrNotExist):
		return FallbackNoFile
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case codeBadRate:
			return FallbackBadRate
		case codeBadParams:
			return FallbackBadParams
		case codeBadQuality:
			return FallbackBadQuality
		default:
			return FallbackTaskFailed + " 错误信息: " + apiErr.Message
		}
	}

	if isNetworkErr(err) {
		return FallbackNetwork
	}

	return FallbackUnknownError
}

func isNetworkErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	// json decode failures on half-read bodies surface as plain errors
	return strings.Contains(err.Error(), "connection refused")
}
