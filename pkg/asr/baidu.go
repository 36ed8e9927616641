package asr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/xiaoyulabs/go-xiaoyu/internal/httpc"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
)

const providerBaidu = "baidu"

// tokenSafetyMargin is subtracted from the server-reported TTL so a
// token is never presented near its expiry. Baidu tokens live ~30 days;
// one day of margin costs nothing.
const tokenSafetyMargin = 86400 * time.Second

// defaultTokenTTL is assumed when the token response omits expires_in.
const defaultTokenTTL = 2592000

// Baidu implements Backend for the Baidu short-speech API.
// A single synchronous round trip per utterance, authenticated by a
// lazily refreshed bearer token owned by this instance.
type Baidu struct {
	cfg     *Config
	http    *http.Client
	tokHTTP *http.Client
	logger  *slog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewBaidu creates a new Baidu backend.
func NewBaidu(opts ...Option) (*Baidu, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, WrapError(providerBaidu, ErrNoToken)
	}

	return &Baidu{
		cfg:     cfg,
		http:    httpc.NewClient(cfg.Timeout),
		tokHTTP: httpc.NewClient(cfg.TokenTimeout),
		logger:  cfg.Logger.With("component", "asr.baidu"),
	}, nil
}

// Name returns "baidu".
func (b *Baidu) Name() string { return providerBaidu }

// Transcribe gates the clip, then performs one recognition round trip.
func (b *Baidu) Transcribe(ctx context.Context, clip *audioio.Clip) (string, error) {
	if err := BaiduRules().Validate(clip); err != nil {
		b.logger.Warn("clip rejected", "error", err)
		return "", err
	}

	token, err := b.accessToken(ctx)
	if err != nil {
		return "", err
	}

	tag := formatTag(clip.Format)
	audio := clip.EncodeWAV()
	if tag == "pcm" {
		audio = clip.Data // headerless for raw PCM uploads
	}

	payload := map[string]any{
		"format":  tag,
		"rate":    NormalizeRate(clip.FrameRate),
		"channel": 1,
		"speech":  base64.StdEncoding.EncodeToString(audio),
		"len":     len(audio),
		"cuid":    b.cfg.CUID,
		"token":   token,
		"dev_pid": b.cfg.DevPID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", WrapError(providerBaidu, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.RecognizeURL, bytes.NewReader(body))
	if err != nil {
		return "", WrapError(providerBaidu, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := b.http.Do(req)
	if err != nil {
		return "", WrapError(providerBaidu, err)
	}
	defer resp.Body.Close()

	var result struct {
		ErrNo  int      `json:"err_no"`
		ErrMsg string   `json:"err_msg"`
		Result []string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", WrapError(providerBaidu, fmt.Errorf("decode response: %w", err))
	}

	if result.ErrNo != 0 {
		b.logger.Warn("recognition rejected",
			"err_no", result.ErrNo,
			"err_msg", result.ErrMsg,
		)
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Code:       strconv.Itoa(result.ErrNo),
			Message:    result.ErrMsg,
			Provider:   providerBaidu,
		}
	}

	text := strings.Join(result.Result, "")
	if text == "" {
		return "", WrapError(providerBaidu, ErrEmptyResult)
	}

	b.logger.Debug("recognized",
		"chars", len(text),
		"clip_seconds", clip.Seconds(),
	)
	return text, nil
}

// TranscribeFile loads a WAV file and transcribes it. The recognition
// format tag is derived from the file extension.
func (b *Baidu) TranscribeFile(ctx context.Context, path string) (string, error) {
	clip, err := audioio.LoadWAV(path)
	if err != nil {
		return "", WrapError(providerBaidu, err)
	}
	clip.Format = strings.TrimPrefix(filepath.Ext(path), ".")
	return b.Transcribe(ctx, clip)
}

// accessToken returns the cached token while it is valid, fetching a
// new one from the token endpoint otherwise. A token is cached with
// expiry = now + expires_in − one day.
func (b *Baidu) accessToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.token.Valid() {
		return b.token.AccessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {b.cfg.APIKey},
		"client_secret": {b.cfg.APISecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", WrapError(providerBaidu, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.tokHTTP.Do(req)
	if err != nil {
		b.logger.Warn("token fetch failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", ErrNoToken, err)
	}
	if result.AccessToken == "" {
		return "", WrapError(providerBaidu, ErrNoToken)
	}

	ttl := result.ExpiresIn
	if ttl == 0 {
		ttl = defaultTokenTTL
	}

	b.token = &oauth2.Token{
		AccessToken: result.AccessToken,
		Expiry:      time.Now().Add(time.Duration(ttl)*time.Second - tokenSafetyMargin),
	}

	b.logger.Info("access token refreshed", "ttl_seconds", ttl)
	return b.token.AccessToken, nil
}

// formatTag maps a file extension to the recognition format parameter.
// Unknown extensions fall back to wav.
func formatTag(ext string) string {
	switch strings.ToLower(ext) {
	case "wav", "pcm", "amr", "m4a":
		return strings.ToLower(ext)
	default:
		return "wav"
	}
}

var _ Backend = (*Baidu)(nil)
