package asr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestBaidu(t *testing.T, tokenURL, asrURL string) *Baidu {
	t.Helper()
	b, err := NewBaidu(
		WithAPIKey("ak"),
		WithAPISecret("sk"),
		WithTokenURL(tokenURL),
		WithRecognizeURL(asrURL),
	)
	if err != nil {
		t.Fatalf("NewBaidu: %v", err)
	}
	return b
}

func tokenServer(t *testing.T, fetches *atomic.Int64, expiresIn int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"expires_in":   expiresIn,
		})
	}))
}

func TestBaiduTokenCaching(t *testing.T) {
	var fetches atomic.Int64
	ts := tokenServer(t, &fetches, 2592000)
	defer ts.Close()

	b := newTestBaidu(t, ts.URL, "http://unused.invalid")

	tok1, err := b.accessToken(context.Background())
	if err != nil {
		t.Fatalf("first accessToken: %v", err)
	}
	tok2, err := b.accessToken(context.Background())
	if err != nil {
		t.Fatalf("second accessToken: %v", err)
	}

	if tok1 != "tok-1" || tok2 != tok1 {
		t.Errorf("tokens = %q, %q; want identical cached token", tok1, tok2)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("token endpoint hit %d times, want 1", got)
	}

	// One day is shaved off the server TTL.
	wantExpiry := time.Now().Add((2592000 - 86400) * time.Second)
	if diff := b.token.Expiry.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiry off by %v", diff)
	}

	// Force the cached token past expiry; the next call refetches.
	b.token.Expiry = time.Now().Add(-time.Second)
	if _, err := b.accessToken(context.Background()); err != nil {
		t.Fatalf("refetch accessToken: %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("token endpoint hit %d times after expiry, want 2", got)
	}
}

func TestBaiduTokenMissing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "invalid_client"})
	}))
	defer ts.Close()

	b := newTestBaidu(t, ts.URL, "http://unused.invalid")

	_, err := b.Transcribe(context.Background(), testClip(16000, 2))
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("err = %v, want ErrNoToken", err)
	}
	if got := Fallback(err); got != FallbackNoToken {
		t.Errorf("Fallback = %q, want %q", got, FallbackNoToken)
	}
}

func TestBaiduTranscribe(t *testing.T) {
	var fetches atomic.Int64
	tokens := tokenServer(t, &fetches, 2592000)
	defer tokens.Close()

	t.Run("success joins candidates", func(t *testing.T) {
		var gotBody map[string]any
		asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("decode request: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"err_no": 0,
				"result": []string{"你好，", "小识"},
			})
		}))
		defer asr.Close()

		b := newTestBaidu(t, tokens.URL, asr.URL)
		text, err := b.Transcribe(context.Background(), testClip(16000, 2))
		if err != nil {
			t.Fatalf("Transcribe: %v", err)
		}
		if text != "你好，小识" {
			t.Errorf("text = %q", text)
		}

		if gotBody["format"] != "wav" {
			t.Errorf("format = %v, want wav", gotBody["format"])
		}
		if gotBody["rate"] != float64(16000) {
			t.Errorf("rate = %v, want 16000", gotBody["rate"])
		}
		if gotBody["channel"] != float64(1) {
			t.Errorf("channel = %v, want 1", gotBody["channel"])
		}
		if gotBody["token"] != "tok-1" {
			t.Errorf("token = %v", gotBody["token"])
		}
		if gotBody["dev_pid"] != float64(80001) {
			t.Errorf("dev_pid = %v, want 80001", gotBody["dev_pid"])
		}
		if gotBody["speech"] == "" || gotBody["len"] == float64(0) {
			t.Error("speech/len missing from request body")
		}
	})

	t.Run("empty result", func(t *testing.T) {
		asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"err_no": 0, "result": []string{}})
		}))
		defer asr.Close()

		b := newTestBaidu(t, tokens.URL, asr.URL)
		_, err := b.Transcribe(context.Background(), testClip(16000, 2))
		if !errors.Is(err, ErrEmptyResult) {
			t.Fatalf("err = %v, want ErrEmptyResult", err)
		}
		if got := Fallback(err); got != FallbackNoContent {
			t.Errorf("Fallback = %q, want %q", got, FallbackNoContent)
		}
	})

	t.Run("error code mapping", func(t *testing.T) {
		tests := []struct {
			errNo    int
			fallback string
		}{
			{3311, FallbackBadRate},
			{3300, FallbackBadParams},
			{3301, FallbackBadQuality},
		}
		for _, tt := range tests {
			asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"err_no": tt.errNo, "err_msg": "rejected"})
			}))
			b := newTestBaidu(t, tokens.URL, asr.URL)
			_, err := b.Transcribe(context.Background(), testClip(16000, 2))
			asr.Close()

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err_no %d: err = %T, want *APIError", tt.errNo, err)
			}
			if got := Fallback(err); got != tt.fallback {
				t.Errorf("err_no %d: Fallback = %q, want %q", tt.errNo, got, tt.fallback)
			}
		}
	})

	t.Run("unknown error carries server message", func(t *testing.T) {
		asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"err_no": 3302, "err_msg": "authentication failed"})
		}))
		defer asr.Close()

		b := newTestBaidu(t, tokens.URL, asr.URL)
		_, err := b.Transcribe(context.Background(), testClip(16000, 2))
		got := Fallback(err)
		want := FallbackTaskFailed + " 错误信息: authentication failed"
		if got != want {
			t.Errorf("Fallback = %q, want %q", got, want)
		}
	})

	t.Run("gate runs before any network call", func(t *testing.T) {
		var hits atomic.Int64
		asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer asr.Close()

		b := newTestBaidu(t, asr.URL, asr.URL)
		_, err := b.Transcribe(context.Background(), testClip(22050, 2))
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("err = %v, want validation error", err)
		}
		if hits.Load() != 0 {
			t.Errorf("server hit %d times for an invalid clip, want 0", hits.Load())
		}
	})

	t.Run("connection failure maps to network fallback", func(t *testing.T) {
		asr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		asr.Close() // refuse connections

		b := newTestBaidu(t, tokens.URL, asr.URL)
		_, err := b.Transcribe(context.Background(), testClip(16000, 2))
		if err == nil {
			t.Fatal("expected error from closed server")
		}
		if got := Fallback(err); got != FallbackNetwork {
			t.Errorf("Fallback = %q, want %q", got, FallbackNetwork)
		}
	})
}

func TestBaiduTranscribeFileMissing(t *testing.T) {
	var fetches atomic.Int64
	tokens := tokenServer(t, &fetches, 2592000)
	defer tokens.Close()

	b := newTestBaidu(t, tokens.URL, "http://unused.invalid")
	_, err := b.TranscribeFile(context.Background(), "/does/not/exist.wav")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if got := Fallback(err); got != FallbackNoFile {
		t.Errorf("Fallback = %q, want %q", got, FallbackNoFile)
	}
}
