package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/xiaoyulabs/go-xiaoyu/internal/httpc"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
)

const providerIfly = "ifly"

// iFlytek OST endpoints, relative to the configured host.
const (
	iflyCreatePath = "/v2/ost/pro_create"
	iflyQueryPath  = "/v2/ost/query"
)

// resultFields is the priority order for extracting text from a
// completed task's result payload.
var resultFields = []string{"ed", "onebest", "text", "result", "content"}

// Ifly implements Backend for the iFlytek OST API: upload the audio to
// a fetchable URL, create a transcription task, then poll it to a
// terminal state.
type Ifly struct {
	cfg    *Config
	http   *http.Client
	logger *slog.Logger

	// now is stubbed in tests for deterministic signatures.
	now func() time.Time
}

// NewIfly creates a new iFlytek backend.
// An Uploader is required; the OST protocol only accepts audio by URL.
func NewIfly(opts ...Option) (*Ifly, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.AppID == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, WrapError(providerIfly, ErrNoToken)
	}
	if cfg.Uploader == nil {
		return nil, WrapError(providerIfly, fmt.Errorf("uploader required"))
	}

	return &Ifly{
		cfg:    cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "asr.ifly"),
		now:    time.Now,
	}, nil
}

// Name returns "ifly".
func (f *Ifly) Name() string { return providerIfly }

// Transcribe gates the clip, uploads it, creates a task and polls for
// the result.
func (f *Ifly) Transcribe(ctx context.Context, clip *audioio.Clip) (string, error) {
	if err := IflyRules().Validate(clip); err != nil {
		f.logger.Warn("clip rejected", "error", err)
		return "", err
	}

	audioURL, err := f.cfg.Uploader.Upload(ctx, clip)
	if err != nil {
		f.logger.Warn("upload failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	taskID, err := f.createTask(ctx, audioURL)
	if err != nil {
		return "", err
	}
	if taskID == "" {
		return "", WrapError(providerIfly, ErrNoTaskID)
	}

	return f.pollResult(ctx, taskID)
}

// createTask registers a transcription task for the uploaded audio.
func (f *Ifly) createTask(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"common": map[string]any{"app_id": f.cfg.AppID},
		"business": map[string]any{
			"language": "zh_cn",
			"accent":   "mandarin",
			"domain":   "pro_ost_ed",
		},
		"data": map[string]any{
			"audio_src": "http",
			"audio_url": audioURL,
			"encoding":  "raw",
		},
	})
	if err != nil {
		return "", WrapError(providerIfly, err)
	}

	var result struct {
		Data struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
	}
	if err := f.post(ctx, iflyCreatePath, body, &result); err != nil {
		return "", err
	}
	return result.Data.TaskID, nil
}

// pollResult polls the task until it reaches a terminal state or the
// attempt budget runs out. Attempts are spaced cfg.PollInterval apart.
func (f *Ifly) pollResult(ctx context.Context, taskID string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"common":   map[string]any{"app_id": f.cfg.AppID},
		"business": map[string]any{"task_id": taskID},
	})
	if err != nil {
		return "", WrapError(providerIfly, err)
	}

	for attempt := 0; attempt < f.cfg.PollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(f.cfg.PollInterval):
			}
		}

		var result struct {
			Data struct {
				TaskStatus string `json:"task_status"`
				Result     any    `json:"result"`
			} `json:"data"`
		}
		if err := f.post(ctx, iflyQueryPath, body, &result); err != nil {
			return "", err
		}

		switch result.Data.TaskStatus {
		case "4": // completed
			return extractResult(result.Data.Result)
		case "5": // failed
			f.logger.Error("task failed", "task_id", taskID, "reason", result.Data.Result)
			return "", WrapError(providerIfly, ErrTaskFailed)
		default:
			f.logger.Debug("task pending",
				"task_id", taskID,
				"status", result.Data.TaskStatus,
				"attempt", attempt+1,
			)
		}
	}

	f.logger.Warn("task polling exhausted", "task_id", taskID, "attempts", f.cfg.PollAttempts)
	return "", WrapError(providerIfly, ErrPollTimeout)
}

// post sends one signed request and decodes the JSON response.
func (f *Ifly) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://"+f.cfg.Host+path, bytes.NewReader(body))
	if err != nil {
		return WrapError(providerIfly, err)
	}

	req.Header = signRequest(f.cfg.APIKey, f.cfg.APISecret, f.cfg.Host, path, body, f.now())
	req.Host = f.cfg.Host

	resp, err := f.http.Do(req)
	if err != nil {
		return WrapError(providerIfly, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(raw),
			Provider:   providerIfly,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return WrapError(providerIfly, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// extractResult pulls recognized text out of a completed task payload.
// Structured payloads are searched by field priority; string payloads
// are first tried as embedded JSON with the same priority, then
// returned as-is.
func extractResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", WrapError(providerIfly, ErrIncompleteResult)
	case map[string]any:
		if text := textByPriority(v); text != "" {
			return text, nil
		}
		return fmt.Sprintf("%v", v), nil
	case string:
		var embedded map[string]any
		if err := json.Unmarshal([]byte(v), &embedded); err == nil {
			if text := textByPriority(embedded); text != "" {
				return text, nil
			}
		}
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func textByPriority(m map[string]any) string {
	for _, field := range resultFields {
		if s, ok := m[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

var _ Backend = (*Ifly)(nil)
