// Package llm defines the chat-completion capability consumed by the agent.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Completer is a single-shot chat completion. The eino chat models
// (e.g. eino-ext openai.ChatModel) satisfy it directly.
type Completer interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Complete issues one completion with a bounded timeout and returns the
// text content. A timeout of zero disables the bound.
func Complete(ctx context.Context, m Completer, timeout time.Duration, messages []*schema.Message) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := m.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return out.Content, nil
}
