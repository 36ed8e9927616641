package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/asr"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/chat"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/tts"
)

// Orchestrator runs the turn loop. One turn completes fully before the
// next begins; there is no overlap between stages.
type Orchestrator struct {
	source  audioio.Source
	sink    audioio.Sink
	backend asr.Backend
	session *chat.Session
	synth   tts.Provider

	cfg        *Config
	transcript *TranscriptLog
	observer   Observer
	logger     *slog.Logger
}

// New creates an orchestrator over the given collaborators.
func New(source audioio.Source, sink audioio.Sink, backend asr.Backend, session *chat.Session, synth tts.Provider, opts ...Option) (*Orchestrator, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	o := &Orchestrator{
		source:   source,
		sink:     sink,
		backend:  backend,
		session:  session,
		synth:    synth,
		cfg:      cfg,
		observer: cfg.Observer,
		logger:   cfg.Logger.With("component", "pipeline"),
	}

	if cfg.TranscriptPath != "" {
		log, err := OpenTranscriptLog(cfg.TranscriptPath)
		if err != nil {
			return nil, err
		}
		o.transcript = log
	}

	return o, nil
}

// Run loops turns until the context is cancelled. A device failure
// during capture or playback ends the loop with its error; every other
// failure is spoken as a fallback message and the loop continues.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.source.Start(ctx); err != nil {
		return fmt.Errorf("start capture device: %w", err)
	}
	defer o.source.Stop()

	if err := o.sink.Start(ctx); err != nil {
		return fmt.Errorf("start playback device: %w", err)
	}
	defer o.sink.Stop()

	o.logger.Info("turn loop started",
		"backend", o.backend.Name(),
		"record_seconds", o.cfg.RecordDuration.Seconds(),
	)

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("turn loop stopped")
			return ctx.Err()
		default:
		}

		if err := o.runTurn(ctx); err != nil {
			if ctx.Err() != nil {
				o.logger.Info("turn loop stopped")
				return ctx.Err()
			}
			return err
		}
	}
}

// runTurn executes one full capture-to-playback cycle.
func (o *Orchestrator) runTurn(ctx context.Context) error {
	turnID := uuid.NewString()
	logger := o.logger.With("turn_id", turnID)

	o.observer.PipelineState(turnID, StateIdle)

	o.observer.PipelineState(turnID, StateCapturing)
	clip, err := audioio.Capture(ctx, o.source, o.cfg.RecordDuration, o.cfg.TargetRate)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	userText := o.transcribe(ctx, turnID, clip, logger)

	o.observer.PipelineState(turnID, StateConversing)
	reply, err := o.session.Exchange(ctx, userText)
	if err != nil {
		reply = chat.Fallback(err)
		logger.Warn("exchange degraded to fallback", "error", err, "spoken", reply)
	}

	turn := Turn{ID: turnID, Timestamp: time.Now(), User: userText, AI: reply}
	o.record(turn, logger)

	o.observer.PipelineState(turnID, StateSynthesizing)
	result, err := o.synth.Synthesize(ctx, reply)
	if err != nil {
		// No audio to play; the turn is complete without playback.
		logger.Warn("synthesis failed, skipping playback", "error", err)
		return nil
	}

	voice, err := result.Clip()
	if err != nil {
		logger.Warn("synthesized audio undecodable, skipping playback", "error", err)
		return nil
	}

	o.observer.PipelineState(turnID, StatePlaying)
	if err := audioio.Play(ctx, o.sink, voice); err != nil {
		return fmt.Errorf("playback: %w", err)
	}

	logger.Debug("turn complete",
		"user_chars", len(userText),
		"reply_chars", len(reply),
	)
	return nil
}

// transcribe gates and recognizes the clip, flattening every failure
// to the message spoken in place of the transcript.
func (o *Orchestrator) transcribe(ctx context.Context, turnID string, clip *audioio.Clip, logger *slog.Logger) string {
	o.observer.PipelineState(turnID, StateValidating)
	if o.cfg.Gate != nil {
		if err := o.cfg.Gate.Validate(clip); err != nil {
			logger.Warn("clip failed validation", "error", err)
			return asr.Fallback(err)
		}
	}

	o.observer.PipelineState(turnID, StateTranscribing)
	text, err := o.backend.Transcribe(ctx, clip)
	if err != nil {
		fallback := asr.Fallback(err)
		logger.Warn("transcription degraded to fallback", "error", err, "spoken", fallback)
		return fallback
	}
	return text
}

// record persists and publishes a completed turn.
func (o *Orchestrator) record(turn Turn, logger *slog.Logger) {
	if o.transcript != nil {
		if err := o.transcript.Append(turn); err != nil {
			logger.Warn("transcript append failed", "error", err)
		}
	}
	o.observer.TurnCompleted(turn)
}

// Close releases the transcript log.
func (o *Orchestrator) Close() error {
	if o.transcript != nil {
		return o.transcript.Close()
	}
	return nil
}
