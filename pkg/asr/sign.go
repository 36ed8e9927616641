package asr

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

// httpDate formats an instant the way the iFlytek gateway expects:
// RFC 1123 with a literal GMT zone.
func httpDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// signRequest produces the authentication headers for one iFlytek OST
// request. The canonical string covers host, date, request line and the
// body digest; the gateway rejects any deviation, so the layout here is
// wire-exact and must not be reformatted.
func signRequest(apiKey, apiSecret, host, uri string, body []byte, now time.Time) http.Header {
	date := httpDate(now)

	sum := sha256.Sum256(body)
	digest := "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])

	signStr := fmt.Sprintf("host: %s\ndate: %s\nPOST %s HTTP/1.1\ndigest: %s",
		host, date, uri, digest)

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(signStr))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	auth := fmt.Sprintf(`api_key="%s", algorithm="hmac-sha256", headers="host date request-line digest", signature="%s"`,
		apiKey, signature)

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("Method", "POST")
	h.Set("Host", host)
	h.Set("Date", date)
	h.Set("Digest", digest)
	h.Set("Authorization", auth)
	return h
}
