package audioio

import (
	"context"
	"fmt"
	"time"
)

// Capture records from the source for the given duration and returns a
// mono PCM16 clip at targetRate. It blocks for the full capture window.
// Device audio at other rates or channel counts is downmixed and
// resampled to the target.
func Capture(ctx context.Context, src Source, duration time.Duration, targetRate int) (*Clip, error) {
	cfg := src.Config()

	if err := src.Start(ctx); err != nil {
		return nil, fmt.Errorf("start capture: %w", err)
	}
	defer src.Stop()

	wantFrames := int(float64(cfg.SampleRate) * duration.Seconds())
	samples := make([]int16, 0, wantFrames*cfg.Channels)

	for len(samples)/cfg.Channels < wantFrames {
		chunk, err := src.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read capture: %w", err)
		}
		samples = append(samples, chunk.Samples...)
	}
	samples = samples[:wantFrames*cfg.Channels]

	if cfg.Channels == 2 {
		samples = StereoToMono(samples)
	}
	samples = Resample(samples, cfg.SampleRate, targetRate)

	return NewClip(samples, targetRate), nil
}

// Play writes the clip to the sink in buffer-sized chunks and blocks
// until everything has been handed to the device and flushed. Clips at
// a different rate or channel count are converted to the sink's format
// first; the device always receives audio it can play at its own rate.
func Play(ctx context.Context, sink Sink, clip *Clip) error {
	cfg := sink.Config()

	if err := sink.Start(ctx); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}

	samples := clip.Samples()
	if clip.Channels == 2 && cfg.Channels == 1 {
		samples = StereoToMono(samples)
	}
	if clip.FrameRate != cfg.SampleRate {
		samples = Resample(samples, clip.FrameRate, cfg.SampleRate)
	}

	step := cfg.BufferSize() * cfg.Channels
	if step <= 0 {
		step = len(samples)
	}

	for off := 0; off < len(samples); off += step {
		end := off + step
		if end > len(samples) {
			end = len(samples)
		}
		chunk := AudioChunk{
			Samples:    samples[off:end],
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
		}
		if err := sink.Write(ctx, chunk); err != nil {
			return fmt.Errorf("write playback: %w", err)
		}
	}

	if err := sink.Flush(ctx); err != nil {
		return fmt.Errorf("flush playback: %w", err)
	}
	return nil
}
