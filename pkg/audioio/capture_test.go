package audioio

import (
	"context"
	"testing"
	"time"
)

func testConfig(rate, channels int) Config {
	cfg := DefaultConfig()
	cfg.Backend = BackendMock
	cfg.SampleRate = rate
	cfg.Channels = channels
	return cfg
}

func TestCapture(t *testing.T) {
	t.Run("exact duration at target rate", func(t *testing.T) {
		src := NewMockSource(testConfig(16000, 1), nil)
		defer src.Close()

		clip, err := Capture(context.Background(), src, 2*time.Second, 16000)
		if err != nil {
			t.Fatalf("Capture: %v", err)
		}

		if clip.FrameRate != 16000 {
			t.Errorf("FrameRate = %d, want 16000", clip.FrameRate)
		}
		if clip.Channels != 1 {
			t.Errorf("Channels = %d, want 1", clip.Channels)
		}
		if clip.FrameCount() != 32000 {
			t.Errorf("FrameCount = %d, want 32000", clip.FrameCount())
		}
	})

	t.Run("resamples device rate to target", func(t *testing.T) {
		src := NewMockSource(testConfig(48000, 1), nil)
		defer src.Close()

		clip, err := Capture(context.Background(), src, time.Second, 16000)
		if err != nil {
			t.Fatalf("Capture: %v", err)
		}
		if clip.FrameCount() != 16000 {
			t.Errorf("FrameCount = %d, want 16000", clip.FrameCount())
		}
	})

	t.Run("downmixes stereo devices", func(t *testing.T) {
		src := NewMockSource(testConfig(16000, 2), nil, WithSineWave(440, 0.5))
		defer src.Close()

		clip, err := Capture(context.Background(), src, time.Second, 16000)
		if err != nil {
			t.Fatalf("Capture: %v", err)
		}
		if clip.Channels != 1 {
			t.Errorf("Channels = %d, want 1", clip.Channels)
		}
		if clip.FrameCount() != 16000 {
			t.Errorf("FrameCount = %d, want 16000", clip.FrameCount())
		}
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		src := NewMockSource(testConfig(16000, 1), nil)
		defer src.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Capture(ctx, src, time.Second, 16000); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

func TestPlay(t *testing.T) {
	t.Run("matching rates pass through", func(t *testing.T) {
		sink := NewMockSink(testConfig(16000, 1), nil)
		defer sink.Close()

		samples := make([]int16, 1600)
		for i := range samples {
			samples[i] = int16(i)
		}
		clip := NewClip(samples, 16000)

		if err := Play(context.Background(), sink, clip); err != nil {
			t.Fatalf("Play: %v", err)
		}

		got := sink.WrittenSamples()
		if len(got) != len(samples) {
			t.Fatalf("wrote %d samples, want %d", len(got), len(samples))
		}
		for i := range samples {
			if got[i] != samples[i] {
				t.Fatalf("sample %d = %d, want %d", i, got[i], samples[i])
			}
		}
	})

	t.Run("resamples clip rate to device rate", func(t *testing.T) {
		// Synthesis replies arrive at 32 kHz; a 16 kHz device must
		// still play them at real time, not half speed.
		sink := NewMockSink(testConfig(16000, 1), nil)
		defer sink.Close()

		clip := NewClip(make([]int16, 32000), 32000)

		if err := Play(context.Background(), sink, clip); err != nil {
			t.Fatalf("Play: %v", err)
		}

		got := sink.WrittenSamples()
		if len(got) != 16000 {
			t.Fatalf("wrote %d samples, want 16000", len(got))
		}
		for _, chunk := range sink.Written {
			if chunk.SampleRate != 16000 {
				t.Fatalf("chunk SampleRate = %d, want 16000", chunk.SampleRate)
			}
		}
	})
}
