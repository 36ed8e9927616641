package audioio

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
)

// MockSource is a mock audio source for testing.
// It synthesizes audio (silence, a sine tone, or a canned clip) on
// demand without pacing to real time, so captures complete instantly.
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool

	// synthesis state
	phase     float64
	frequency float64 // Hz, 0 = silence
	amplitude float64 // 0.0 to 1.0
	canned    []int16 // replayed instead of synthesis when set
	pos       int
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave configures the mock to generate a sine tone.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithCannedSamples configures the mock to replay fixed samples,
// looping when exhausted.
func WithCannedSamples(samples []int16) MockSourceOption {
	return func(m *MockSource) {
		m.canned = samples
	}
}

// NewMockSource creates a new mock audio source.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MockSource{
		cfg:       cfg,
		logger:    logger,
		amplitude: 0.5,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins generating audio.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return io.ErrClosedPipe
	}
	m.running = true
	return nil
}

// Stop halts audio generation.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Read returns the next synthesized chunk.
func (m *MockSource) Read(ctx context.Context) (AudioChunk, error) {
	if err := ctx.Err(); err != nil {
		return AudioChunk{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return AudioChunk{}, io.EOF
	}

	frames := m.cfg.BufferSize()
	samples := make([]int16, frames*m.cfg.Channels)

	switch {
	case m.canned != nil:
		for i := range samples {
			samples[i] = m.canned[m.pos]
			m.pos = (m.pos + 1) % len(m.canned)
		}
	case m.frequency > 0:
		for i := 0; i < frames; i++ {
			v := m.amplitude * math.Sin(2*math.Pi*m.frequency*m.phase/float64(m.cfg.SampleRate))
			s := int16(v * 32767)
			for ch := 0; ch < m.cfg.Channels; ch++ {
				samples[i*m.cfg.Channels+ch] = s
			}
			m.phase++
			if m.phase >= float64(m.cfg.SampleRate) {
				m.phase = 0
			}
		}
	}
	// default: silence

	return AudioChunk{
		Samples:    samples,
		SampleRate: m.cfg.SampleRate,
		Channels:   m.cfg.Channels,
	}, nil
}

// Config returns the source configuration.
func (m *MockSource) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSource) Name() string { return "mock" }

// Close releases the source.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.closed = true
	return nil
}

// MockSink is a mock audio sink for testing.
// It records everything written to it.
type MockSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool

	// Written holds all chunks written, in order.
	Written []AudioChunk

	// WriteErr, when set, is returned by Write to simulate device failure.
	WriteErr error
}

// NewMockSink creates a new mock audio sink.
func NewMockSink(cfg Config, logger *slog.Logger) *MockSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSink{cfg: cfg, logger: logger}
}

// Start begins accepting writes.
func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return io.ErrClosedPipe
	}
	m.running = true
	return nil
}

// Stop halts playback.
func (m *MockSink) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Write records the chunk.
func (m *MockSink) Write(ctx context.Context, chunk AudioChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return io.ErrClosedPipe
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Written = append(m.Written, chunk)
	return nil
}

// Flush is a no-op for the mock.
func (m *MockSink) Flush(ctx context.Context) error { return ctx.Err() }

// Config returns the sink configuration.
func (m *MockSink) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSink) Name() string { return "mock" }

// Close releases the sink.
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.closed = true
	return nil
}

// WrittenSamples concatenates all written chunks into one sample slice.
func (m *MockSink) WrittenSamples() []int16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int16
	for _, c := range m.Written {
		out = append(out, c.Samples...)
	}
	return out
}

var (
	_ Source = (*MockSource)(nil)
	_ Sink   = (*MockSink)(nil)
)
