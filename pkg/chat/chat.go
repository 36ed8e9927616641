// Package chat talks to an OpenAI-compatible chat-completion service
// and keeps the rolling dialogue state for a voice session.
//
// Client is the HTTP transport: one message list in, one assistant
// reply out, no retries. Session sits on top of a Completer and owns
// the history: it pins the system prompt, appends each exchange, and
// trims old turns so the context stays bounded.
//
// Example usage:
//
//	client, err := chat.NewClient(
//	    chat.WithAPIKey(os.Getenv("DEEPSEEK_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	session := chat.NewSession(client, chat.WithSystemPrompt("你是小雨。"))
//
//	reply, err := session.Exchange(ctx, "今天天气怎么样？")
//	if err != nil {
//	    reply = chat.Fallback(err)
//	}
package chat

import "context"

// Completer produces one assistant reply for a full message list.
// Implementations must not mutate the slice.
type Completer interface {
	// Complete sends the messages and returns the assistant's reply.
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Role identifies a message sender.
type Role string

const (
	// RoleSystem is for the standing persona instruction.
	RoleSystem Role = "system"

	// RoleUser is for user utterances.
	RoleUser Role = "user"

	// RoleAssistant is for model replies.
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
