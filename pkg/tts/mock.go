package tts

import (
	"context"
	"sync"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
)

// Mock implements Provider for testing.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns a short silent WAV clip.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	mu    sync.Mutex
	texts []string
}

// NewMock creates a mock provider returning silence.
func NewMock() *Mock {
	return &Mock{}
}

// Synthesize records the text and calls SynthesizeFunc.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}

	clip := audioio.NewClip(make([]int16, 1600), 16000)
	return &AudioResult{
		Audio:     clip.EncodeWAV(),
		CharCount: len([]rune(text)),
	}, nil
}

// Health always succeeds.
func (m *Mock) Health(ctx context.Context) error { return nil }

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Texts returns every string Synthesize was called with.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.texts
}

var _ Provider = (*Mock)(nil)
