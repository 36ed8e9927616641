package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
)

// ALSASource captures audio on Linux by running arecord and reading its
// raw PCM16 output. Keeping the device behind a child process avoids
// cgo while still using the real ALSA stack.
type ALSASource struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	cmd     *exec.Cmd
	stdout  io.ReadCloser
}

func newALSASource(cfg Config, logger *slog.Logger) (*ALSASource, error) {
	if _, err := exec.LookPath("arecord"); err != nil {
		return nil, fmt.Errorf("arecord not found: %w", err)
	}
	return &ALSASource{cfg: cfg, logger: logger}, nil
}

// Start spawns the arecord process.
func (s *ALSASource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	device := s.cfg.Device
	if device == "" {
		device = "default"
	}

	cmd := exec.CommandContext(ctx, "arecord",
		"-D", device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(s.cfg.SampleRate),
		"-c", strconv.Itoa(s.cfg.Channels),
		"-t", "raw",
		"-q",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("arecord stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start arecord: %w", err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.running = true

	s.logger.Info("alsa capture started",
		"device", device,
		"sample_rate", s.cfg.SampleRate,
		"channels", s.cfg.Channels,
	)
	return nil
}

// Stop terminates the arecord process.
func (s *ALSASource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *ALSASource) stopLocked() error {
	if !s.running {
		return nil
	}
	s.running = false
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	s.cmd = nil
	s.stdout = nil
	return nil
}

// Read reads one buffer worth of PCM16 frames from the device.
func (s *ALSASource) Read(ctx context.Context) (AudioChunk, error) {
	if err := ctx.Err(); err != nil {
		return AudioChunk{}, err
	}

	s.mu.Lock()
	stdout := s.stdout
	running := s.running
	s.mu.Unlock()

	if !running || stdout == nil {
		return AudioChunk{}, io.EOF
	}

	buf := make([]byte, s.cfg.BufferSize()*s.cfg.Channels*2)
	if _, err := io.ReadFull(stdout, buf); err != nil {
		return AudioChunk{}, err
	}

	var chunk AudioChunk
	chunk.FromBytes(buf, s.cfg.SampleRate, s.cfg.Channels)
	return chunk, nil
}

// Config returns the source configuration.
func (s *ALSASource) Config() Config { return s.cfg }

// Name returns "alsa".
func (s *ALSASource) Name() string { return "alsa" }

// Close releases the source.
func (s *ALSASource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.stopLocked()
	s.closed = true
	return nil
}

// ALSASink plays audio on Linux by piping raw PCM16 into aplay.
type ALSASink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	cmd     *exec.Cmd
	stdin   io.WriteCloser
}

func newALSASink(cfg Config, logger *slog.Logger) (*ALSASink, error) {
	if _, err := exec.LookPath("aplay"); err != nil {
		return nil, fmt.Errorf("aplay not found: %w", err)
	}
	return &ALSASink{cfg: cfg, logger: logger}, nil
}

// Start spawns the aplay process.
func (s *ALSASink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	device := s.cfg.Device
	if device == "" {
		device = "default"
	}

	cmd := exec.CommandContext(ctx, "aplay",
		"-D", device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(s.cfg.SampleRate),
		"-c", strconv.Itoa(s.cfg.Channels),
		"-t", "raw",
		"-q",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("aplay stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start aplay: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.running = true

	s.logger.Info("alsa playback started",
		"device", device,
		"sample_rate", s.cfg.SampleRate,
	)
	return nil
}

// Stop terminates the aplay process.
func (s *ALSASink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *ALSASink) stopLocked() error {
	if !s.running {
		return nil
	}
	s.running = false
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.cmd != nil {
		_ = s.cmd.Wait()
	}
	s.cmd = nil
	s.stdin = nil
	return nil
}

// Write sends a chunk to the device.
func (s *ALSASink) Write(ctx context.Context, chunk AudioChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	stdin := s.stdin
	running := s.running
	s.mu.Unlock()

	if !running || stdin == nil {
		return io.ErrClosedPipe
	}
	_, err := stdin.Write(chunk.Bytes())
	return err
}

// Flush closes the pipe and waits for aplay to drain.
// The sink must be restarted before the next playback.
func (s *ALSASink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Config returns the sink configuration.
func (s *ALSASink) Config() Config { return s.cfg }

// Name returns "alsa".
func (s *ALSASink) Name() string { return "alsa" }

// Close releases the sink.
func (s *ALSASink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.stopLocked()
	s.closed = true
	return nil
}

var (
	_ Source = (*ALSASource)(nil)
	_ Sink   = (*ALSASink)(nil)
)
