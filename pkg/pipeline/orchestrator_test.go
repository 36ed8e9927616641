package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/asr"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/audioio"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/chat"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/tts"
)

// cancelAfter cancels the loop once limit turns have completed.
type cancelAfter struct {
	cancel context.CancelFunc
	limit  int

	mu     sync.Mutex
	turns  []Turn
	states []State
}

func (o *cancelAfter) PipelineState(turnID string, s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
}

func (o *cancelAfter) TurnCompleted(t Turn) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turns = append(o.turns, t)
	if len(o.turns) >= o.limit {
		o.cancel()
	}
}

func (o *cancelAfter) Turns() []Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.turns
}

func (o *cancelAfter) States() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states
}

type fixture struct {
	source  *audioio.MockSource
	sink    *audioio.MockSink
	backend *asr.Mock
	chatter *chat.Mock
	synth   *tts.Mock
	obs     *cancelAfter
}

func newFixture(t *testing.T, limit int) (*fixture, context.Context) {
	t.Helper()

	cfg := audioio.DefaultConfig()
	cfg.Backend = audioio.BackendMock

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &fixture{
		source:  audioio.NewMockSource(cfg, nil),
		sink:    audioio.NewMockSink(cfg, nil),
		backend: asr.NewMock(),
		chatter: chat.NewMock(),
		synth:   tts.NewMock(),
		obs:     &cancelAfter{cancel: cancel, limit: limit},
	}, ctx
}

func (f *fixture) run(t *testing.T, ctx context.Context, opts ...Option) error {
	t.Helper()

	session := chat.NewSession(f.chatter, chat.WithSystemPrompt("persona"))
	opts = append([]Option{
		WithRecordDuration(100 * time.Millisecond),
		WithObserver(f.obs),
	}, opts...)

	orch, err := New(f.source, f.sink, f.backend, session, f.synth, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer orch.Close()

	return orch.Run(ctx)
}

func TestOrchestratorTurnLoop(t *testing.T) {
	f, ctx := newFixture(t, 2)

	err := f.run(t, ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}

	turns := f.obs.Turns()
	if len(turns) != 2 {
		t.Fatalf("completed %d turns, want 2", len(turns))
	}
	for _, turn := range turns {
		if turn.ID == "" {
			t.Error("turn has no id")
		}
		if turn.User != "你好" {
			t.Errorf("turn user = %q", turn.User)
		}
		if turn.AI != "好的喵~" {
			t.Errorf("turn ai = %q", turn.AI)
		}
	}
	if turns[0].ID == turns[1].ID {
		t.Error("turn ids not unique")
	}

	// The first turn played fully before cancellation hit.
	if len(f.sink.WrittenSamples()) == 0 {
		t.Error("nothing reached the playback device")
	}

	// Every state appears, in order, within the first turn.
	want := []State{StateIdle, StateCapturing, StateValidating, StateTranscribing, StateConversing, StateSynthesizing, StatePlaying}
	states := f.obs.States()
	if len(states) < len(want) {
		t.Fatalf("observed %d states, want at least %d", len(states), len(want))
	}
	for i, s := range want {
		if states[i] != s {
			t.Errorf("state[%d] = %s, want %s", i, states[i], s)
		}
	}
}

func TestOrchestratorTranscriptionFallbackFeedsChat(t *testing.T) {
	f, ctx := newFixture(t, 1)
	f.backend.TranscribeFunc = func(ctx context.Context, clip *audioio.Clip) (string, error) {
		return "", asr.ErrEmptyResult
	}

	if err := f.run(t, ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}

	reqs := f.chatter.Requests()
	if len(reqs) != 1 {
		t.Fatalf("chat requests = %d, want 1", len(reqs))
	}
	last := reqs[0][len(reqs[0])-1]
	if last.Content != asr.FallbackNoContent {
		t.Errorf("chat received %q, want the transcription fallback", last.Content)
	}
}

func TestOrchestratorChatFallbackIsSpoken(t *testing.T) {
	f, ctx := newFixture(t, 1)
	f.chatter.CompleteFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return "", &chat.APIError{StatusCode: 500, Message: "boom"}
	}

	if err := f.run(t, ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}

	spoken := f.synth.Texts()
	if len(spoken) != 1 {
		t.Fatalf("synthesized %d texts, want 1", len(spoken))
	}
	want := "请求失败（状态码 500）: boom"
	if spoken[0] != want {
		t.Errorf("spoke %q, want %q", spoken[0], want)
	}

	turns := f.obs.Turns()
	if turns[0].AI != want {
		t.Errorf("recorded ai = %q, want the fallback", turns[0].AI)
	}
}

func TestOrchestratorSynthesisFailureSkipsPlayback(t *testing.T) {
	f, ctx := newFixture(t, 2)
	f.synth.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
		return nil, errors.New("server down")
	}

	if err := f.run(t, ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}

	// The loop survived the failure and completed a second turn.
	if got := len(f.obs.Turns()); got != 2 {
		t.Errorf("completed %d turns, want 2", got)
	}
	if len(f.sink.Written) != 0 {
		t.Error("playback received audio despite synthesis failure")
	}
}

func TestOrchestratorPlaybackErrorAborts(t *testing.T) {
	f, ctx := newFixture(t, 100)
	f.sink.WriteErr = errors.New("device gone")

	err := f.run(t, ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want a playback error", err)
	}
}

func TestOrchestratorGate(t *testing.T) {
	f, ctx := newFixture(t, 1)

	// The mock captures at 16 kHz; an 8 kHz-only gate rejects it.
	rules := asr.Rules{Channels: 1, SampleWidth: 2, AllowedRates: []int{8000}, MinDuration: 0.3}

	if err := f.run(t, ctx, WithGate(rules)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}

	if f.backend.Calls() != 0 {
		t.Error("backend reached despite gate rejection")
	}
	reqs := f.chatter.Requests()
	last := reqs[0][len(reqs[0])-1]
	if last.Content != asr.FallbackBadAudio {
		t.Errorf("chat received %q, want the gate fallback", last.Content)
	}
}

func TestTranscriptLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.jsonl")

	f, ctx := newFixture(t, 2)
	if err := f.run(t, ctx, WithTranscriptPath(path)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open transcript: %v", err)
	}
	defer file.Close()

	var lines int
	r := bufio.NewReader(file)
	for {
		line, err := r.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read transcript: %v", err)
		}
		lines++

		var turn Turn
		if err := json.Unmarshal(line, &turn); err != nil {
			t.Fatalf("line %d not valid JSON: %v", lines, err)
		}
		if turn.ID == "" || turn.User == "" || turn.AI == "" || turn.Timestamp.IsZero() {
			t.Errorf("line %d incomplete: %+v", lines, turn)
		}
	}
	if lines != 2 {
		t.Errorf("transcript has %d lines, want 2", lines)
	}
}
