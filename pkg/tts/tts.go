// Package tts provides a unified interface for text-to-speech providers.
//
// The primary backend is a local GPT-SoVITS server, which returns a
// complete WAV buffer per request. All providers implement the
// Provider interface, so callers can switch backends or stack them in
// a fallback Chain without changing code.
//
// Example usage:
//
//	provider := tts.NewSoVITS(
//	    tts.WithEndpoint("http://127.0.0.1:9880"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "你好呀")
//	clip, _ := result.Clip()
package tts

import (
	"context"
	"time"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete
	// audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data, WAV-framed.
	Audio []byte

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the round-trip time in milliseconds.
	LatencyMs int64
}

// Clip decodes the audio buffer for playback.
func (r *AudioResult) Clip() (*audioio.Clip, error) {
	return audioio.DecodeWAV(r.Audio)
}

// Duration reports the playback length, zero if the buffer cannot be
// decoded.
func (r *AudioResult) Duration() time.Duration {
	clip, err := r.Clip()
	if err != nil {
		return 0
	}
	return clip.Duration()
}
