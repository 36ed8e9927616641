package chat

import (
	"context"
	"sync"
)

// Mock implements Completer for testing.
type Mock struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns a fixed reply.
	CompleteFunc func(ctx context.Context, messages []Message) (string, error)

	mu       sync.Mutex
	requests [][]Message
}

// NewMock creates a mock completer returning a fixed reply.
func NewMock() *Mock {
	return &Mock{}
}

// Complete records the request and calls CompleteFunc.
func (m *Mock) Complete(ctx context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	snapshot := make([]Message, len(messages))
	copy(snapshot, messages)
	m.requests = append(m.requests, snapshot)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	return "好的喵~", nil
}

// Requests returns every message list Complete was called with.
func (m *Mock) Requests() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

var _ Completer = (*Mock)(nil)
