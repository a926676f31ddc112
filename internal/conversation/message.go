// Package conversation holds the per-user message log and its trimming
// policy.
package conversation

import (
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// Message is one persisted chat turn. The id gives the message a stable
// identity so trimming can reason about removal.
type Message struct {
	ID      string          `json:"id"`
	Role    schema.RoleType `json:"role"`
	Content string          `json:"content"`
}

func NewMessage(role schema.RoleType, content string) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
	}
}

func NewUserMessage(content string) Message {
	return NewMessage(schema.User, content)
}

func NewAssistantMessage(content string) Message {
	return NewMessage(schema.Assistant, content)
}

// ToSchema converts the log into eino messages for a model call.
func ToSchema(messages []Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case schema.Assistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		case schema.System:
			out = append(out, schema.SystemMessage(m.Content))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}
