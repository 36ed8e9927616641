package asr

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"testing"
	"time"
)

func TestSignRequestDeterministic(t *testing.T) {
	body := []byte(`{"common":{"app_id":"abc123"}}`)
	at := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)

	first := signRequest("key", "secret", "ost-api.xfyun.cn", "/v2/ost/query", body, at)
	second := signRequest("key", "secret", "ost-api.xfyun.cn", "/v2/ost/query", body, at)

	for _, h := range []string{"Date", "Digest", "Authorization"} {
		if first.Get(h) != second.Get(h) {
			t.Errorf("%s differs across invocations: %q vs %q", h, first.Get(h), second.Get(h))
		}
	}
}

func TestSignRequestLayout(t *testing.T) {
	body := []byte(`{"data":1}`)
	at := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)
	host := "ost-api.xfyun.cn"
	uri := "/v2/ost/pro_create"

	h := signRequest("my-key", "my-secret", host, uri, body, at)

	wantDate := "Fri, 15 Mar 2024 08:30:00 GMT"
	if got := h.Get("Date"); got != wantDate {
		t.Errorf("Date = %q, want %q", got, wantDate)
	}

	sum := sha256.Sum256(body)
	wantDigest := "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
	if got := h.Get("Digest"); got != wantDigest {
		t.Errorf("Digest = %q, want %q", got, wantDigest)
	}

	// Recompute the signature over the canonical string.
	signStr := fmt.Sprintf("host: %s\ndate: %s\nPOST %s HTTP/1.1\ndigest: %s",
		host, wantDate, uri, wantDigest)
	mac := hmac.New(sha256.New, []byte("my-secret"))
	mac.Write([]byte(signStr))
	wantSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	wantAuth := fmt.Sprintf(`api_key="my-key", algorithm="hmac-sha256", headers="host date request-line digest", signature="%s"`, wantSig)
	if got := h.Get("Authorization"); got != wantAuth {
		t.Errorf("Authorization = %q, want %q", got, wantAuth)
	}
}
