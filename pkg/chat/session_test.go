package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestSessionExchange(t *testing.T) {
	mock := NewMock()
	mock.CompleteFunc = func(ctx context.Context, messages []Message) (string, error) {
		return "我在呢", nil
	}
	s := NewSession(mock, WithSystemPrompt("你是小雨。"))

	reply, err := s.Exchange(context.Background(), "在吗？")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if reply != "我在呢" {
		t.Errorf("reply = %q", reply)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	got := reqs[0]
	if len(got) != 2 {
		t.Fatalf("outgoing messages = %d, want 2", len(got))
	}
	if got[0].Role != RoleSystem || got[0].Content != "你是小雨。" {
		t.Errorf("first message = %+v, want the system prompt", got[0])
	}
	if got[1].Role != RoleUser || got[1].Content != "在吗？" {
		t.Errorf("second message = %+v, want the user utterance", got[1])
	}

	hist := s.History()
	if len(hist) != 2 {
		t.Fatalf("history = %d entries, want 2", len(hist))
	}
	if hist[0].Role != RoleUser || hist[1].Role != RoleAssistant {
		t.Errorf("history roles = %s, %s", hist[0].Role, hist[1].Role)
	}
}

func TestSessionTrimming(t *testing.T) {
	mock := NewMock()
	mock.CompleteFunc = func(ctx context.Context, messages []Message) (string, error) {
		return "回复" + messages[len(messages)-1].Content, nil
	}
	s := NewSession(mock, WithSystemPrompt("persona"))

	// Six exchange pairs overflow the ten-entry cap by two.
	for i := 0; i < 6; i++ {
		if _, err := s.Exchange(context.Background(), fmt.Sprintf("问题%d", i)); err != nil {
			t.Fatalf("Exchange %d: %v", i, err)
		}
	}

	hist := s.History()
	if len(hist) != DefaultHistoryLimit {
		t.Fatalf("history = %d entries, want %d", len(hist), DefaultHistoryLimit)
	}
	if hist[0].Content == "问题0" {
		t.Error("oldest turn survived trimming")
	}
	if hist[0].Role != RoleUser || hist[0].Content != "问题1" {
		t.Errorf("oldest retained entry = %+v, want 问题1", hist[0])
	}
	if last := hist[len(hist)-1]; last.Content != "回复问题5" {
		t.Errorf("newest entry = %q, want the latest reply", last.Content)
	}

	// Trimming never touches the system prompt.
	if s.SystemPrompt() != "persona" {
		t.Errorf("system prompt = %q", s.SystemPrompt())
	}
	reqs := mock.Requests()
	last := reqs[len(reqs)-1]
	if last[0].Role != RoleSystem {
		t.Error("outgoing list does not start with the system entry")
	}
}

func TestSessionKeepsUserEntryOnFailure(t *testing.T) {
	mock := NewMock()
	mock.CompleteFunc = func(ctx context.Context, messages []Message) (string, error) {
		return "", errors.New("boom")
	}
	s := NewSession(mock)

	if _, err := s.Exchange(context.Background(), "在吗？"); err == nil {
		t.Fatal("expected error")
	}

	hist := s.History()
	if len(hist) != 1 || hist[0].Role != RoleUser {
		t.Fatalf("history after failure = %+v, want the lone user entry", hist)
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession(NewMock(), WithSystemPrompt("persona"))
	if _, err := s.Exchange(context.Background(), "在吗？"); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	s.Reset()
	if len(s.History()) != 0 {
		t.Error("history survived Reset")
	}
	if s.SystemPrompt() != "persona" {
		t.Error("system prompt lost on Reset")
	}
}

func TestEstimateTokens(t *testing.T) {
	msgs := []Message{
		NewSystemMessage("你是小雨。"),
		NewUserMessage("在吗？"),
	}
	if got := EstimateTokens(msgs); got <= 0 {
		t.Errorf("EstimateTokens = %d, want positive", got)
	}
	if EstimateTokens(nil) != 0 {
		t.Error("EstimateTokens(nil) != 0")
	}
}
