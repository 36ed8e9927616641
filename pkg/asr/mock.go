package asr

import (
	"context"
	"sync"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
)

// Mock implements Backend for testing.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, returns a fixed transcript.
	TranscribeFunc func(ctx context.Context, clip *audioio.Clip) (string, error)

	mu    sync.Mutex
	calls int
}

// NewMock creates a mock backend returning a fixed transcript.
func NewMock() *Mock {
	return &Mock{}
}

// Transcribe calls TranscribeFunc and counts the call.
func (m *Mock) Transcribe(ctx context.Context, clip *audioio.Clip) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, clip)
	}
	return "你好", nil
}

// Name returns "mock".
func (m *Mock) Name() string { return "mock" }

// Calls returns how many times Transcribe was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Backend = (*Mock)(nil)
