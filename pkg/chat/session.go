package chat

import (
	"context"
	"log/slog"
)

// Session owns the rolling dialogue state for one voice session.
//
// The system prompt is held apart from the exchanged history, so
// trimming can never evict it. Each successful exchange appends the
// user and assistant entries; once the history exceeds the limit it is
// cut to the most recent entries, dropping the oldest turns first.
//
// A session is driven by a single turn loop and is not safe for
// concurrent use.
type Session struct {
	completer Completer
	system    string
	limit     int
	logger    *slog.Logger

	history []Message
}

// NewSession creates a session on top of a completer.
func NewSession(completer Completer, opts ...Option) *Session {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Session{
		completer: completer,
		system:    cfg.SystemPrompt,
		limit:     cfg.HistoryLimit,
		logger:    cfg.Logger.With("component", "chat.session"),
	}
}

// Exchange sends one user utterance and returns the assistant's reply.
//
// The user entry is recorded before the request goes out, so a failed
// exchange still leaves the utterance in the history. The assistant
// entry is recorded only on success. Callers flatten errors with
// Fallback and speak the result.
func (s *Session) Exchange(ctx context.Context, userText string) (string, error) {
	s.history = append(s.history, NewUserMessage(userText))

	messages := make([]Message, 0, len(s.history)+1)
	messages = append(messages, NewSystemMessage(s.system))
	messages = append(messages, s.history...)

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return "", err
	}

	s.history = append(s.history, NewAssistantMessage(reply))
	s.trim()

	s.logger.Debug("exchange done",
		"history_len", len(s.history),
		"reply_chars", len(reply),
	)
	return reply, nil
}

// History returns a copy of the exchanged entries, system prompt
// excluded.
func (s *Session) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// SystemPrompt returns the standing persona instruction.
func (s *Session) SystemPrompt() string { return s.system }

// Reset discards the exchanged history. The system prompt stays.
func (s *Session) Reset() {
	s.history = nil
}

// trim keeps the most recent limit entries.
func (s *Session) trim() {
	if s.limit <= 0 || len(s.history) <= s.limit {
		return
	}
	dropped := len(s.history) - s.limit
	s.history = append(s.history[:0:0], s.history[dropped:]...)
	s.logger.Debug("history trimmed", "dropped", dropped)
}

// EstimateTokens approximates the token cost of a message list. One
// token per four serialized characters is close enough for budgeting.
func EstimateTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Role) + len(m.Content) + len(`{"role":"","content":""},`)
	}
	return total / 4
}
