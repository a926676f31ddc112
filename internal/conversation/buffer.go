package conversation

import "github.com/cloudwego/eino/schema"

// Buffer is the ordered message log for one graph invocation. Appending is
// the only way to grow it; Trim is the only way to shrink it.
type Buffer struct {
	messages []Message
}

func NewBuffer(messages []Message) *Buffer {
	buf := &Buffer{messages: make([]Message, len(messages))}
	copy(buf.messages, messages)
	return buf
}

func (b *Buffer) Append(m Message) {
	b.messages = append(b.messages, m)
}

func (b *Buffer) Len() int {
	return len(b.messages)
}

// Messages returns a copy of the log.
func (b *Buffer) Messages() []Message {
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// LastUserContent returns the content of the most recent user message.
func (b *Buffer) LastUserContent() string {
	for i := len(b.messages) - 1; i >= 0; i-- {
		if b.messages[i].Role == schema.User {
			return b.messages[i].Content
		}
	}
	return ""
}

// Trim removes the oldest limit/2 messages when the log exceeds limit and
// returns the number removed. The policy is purely length-based; the most
// recent message is never removed because limit/2 < len when len > limit.
func (b *Buffer) Trim(limit int) int {
	if limit <= 0 || len(b.messages) <= limit {
		return 0
	}
	drop := limit / 2
	b.messages = b.messages[drop:]
	return drop
}
