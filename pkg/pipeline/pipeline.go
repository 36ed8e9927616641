// Package pipeline drives the turn loop of the voice assistant:
// record an utterance, transcribe it, exchange it with the chat
// service, synthesize the reply and play it back, forever.
//
// Fault isolation is the core contract. Transcription and conversation
// failures are flattened to fixed spoken fallback messages and the
// loop carries on with those strings as content; only audio device
// failures abort Run, since they mean the environment itself is
// broken.
//
// Example usage:
//
//	orch, err := pipeline.New(src, sink, backend, session, synth,
//	    pipeline.WithRecordDuration(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = orch.Run(ctx) // blocks until ctx is cancelled
package pipeline

import "time"

// State identifies where in a turn the orchestrator is.
type State string

const (
	StateIdle         State = "idle"
	StateCapturing    State = "capturing"
	StateValidating   State = "validating"
	StateTranscribing State = "transcribing"
	StateConversing   State = "conversing"
	StateSynthesizing State = "synthesizing"
	StatePlaying      State = "playing"
)

// Turn is one completed exchange.
type Turn struct {
	// ID correlates log lines and observer events for one turn.
	ID string `json:"turn_id"`

	// Timestamp is when the turn completed.
	Timestamp time.Time `json:"timestamp"`

	// User is the transcribed utterance, or the fallback message
	// spoken in its place.
	User string `json:"user"`

	// AI is the assistant's reply, or its fallback message.
	AI string `json:"ai"`
}

// Observer receives turn-loop events. Implementations must return
// quickly; the loop blocks on them.
type Observer interface {
	// PipelineState is called on every state transition.
	PipelineState(turnID string, state State)

	// TurnCompleted is called once per finished turn.
	TurnCompleted(turn Turn)
}

// noopObserver is used when no observer is configured.
type noopObserver struct{}

func (noopObserver) PipelineState(string, State) {}
func (noopObserver) TurnCompleted(Turn)          {}
