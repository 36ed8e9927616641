// Package asr provides a unified interface for speech recognition backends.
//
// Two backends are supported: Baidu short speech (single synchronous
// round trip) and iFlytek OST (upload, create task, then poll). Both
// validate the captured clip against their own acceptance rules before
// any network call is issued, and both surface failures as typed errors
// that the pipeline flattens into fixed user-facing messages.
//
// Example usage:
//
//	backend, _ := asr.NewBaidu(
//	    asr.WithAPIKey(os.Getenv("BAIDU_API_KEY")),
//	    asr.WithAPISecret(os.Getenv("BAIDU_SECRET_KEY")),
//	)
//	text, err := backend.Transcribe(ctx, clip)
//	if err != nil {
//	    text = asr.Fallback(err)
//	}
package asr

import (
	"context"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
)

// Backend is a transcription provider.
// Implementations gate the clip before touching the network.
type Backend interface {
	// Transcribe turns a clip into text.
	// Failures are typed; use Fallback to turn them into display text.
	Transcribe(ctx context.Context, clip *audioio.Clip) (string, error)

	// Name returns the backend name ("baidu", "ifly", "mock").
	Name() string
}

// Uploader publishes a clip to a fetchable URL.
// The iFlytek OST protocol requires the audio to be reachable over HTTP;
// upload failures short-circuit transcription.
type Uploader interface {
	Upload(ctx context.Context, clip *audioio.Clip) (string, error)
}
