package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/xiaoyulabs/go-xiaoyu/internal/httpc"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
)

// DefaultUploadURL is the iFlytek file hosting endpoint.
const DefaultUploadURL = "https://upload-ost-api.xfyun.cn/file/upload"

// XfyunUploader publishes clips to the iFlytek file hosting service and
// returns the fetchable URL the OST create-task call needs. The service
// shares the OST signing scheme.
type XfyunUploader struct {
	appID     string
	apiKey    string
	apiSecret string
	uploadURL string
	http      *http.Client
	logger    *slog.Logger
	now       func() time.Time
}

// NewXfyunUploader creates an uploader for the given credentials.
// An empty uploadURL selects the default endpoint.
func NewXfyunUploader(appID, apiKey, apiSecret, uploadURL string, logger *slog.Logger) *XfyunUploader {
	if uploadURL == "" {
		uploadURL = DefaultUploadURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &XfyunUploader{
		appID:     appID,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		uploadURL: uploadURL,
		http:      httpc.NewClient(60 * time.Second),
		logger:    logger.With("component", "asr.upload"),
		now:       time.Now,
	}
}

// Upload sends the clip as a WAV file and returns its public URL.
func (u *XfyunUploader) Upload(ctx context.Context, clip *audioio.Clip) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	requestID := uuid.NewString()
	_ = form.WriteField("app_id", u.appID)
	_ = form.WriteField("request_id", requestID)

	part, err := form.CreateFormFile("data", requestID+".wav")
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(clip.EncodeWAV()); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	endpoint, err := url.Parse(u.uploadURL)
	if err != nil {
		return "", fmt.Errorf("upload url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header = signRequest(u.apiKey, u.apiSecret, endpoint.Host, endpoint.Path, body.Bytes(), u.now())
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Host = endpoint.Host

	resp, err := u.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload status %d: %s", resp.StatusCode, raw)
	}

	var result struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if result.Data.URL == "" {
		return "", fmt.Errorf("upload response carried no url")
	}

	u.logger.Debug("clip uploaded",
		"request_id", requestID,
		"bytes", len(clip.Data),
	)
	return result.Data.URL, nil
}

var _ Uploader = (*XfyunUploader)(nil)
