package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fill(n int) *Buffer {
	b := NewBuffer(nil)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			b.Append(NewUserMessage(fmt.Sprintf("question %d", i)))
		} else {
			b.Append(NewAssistantMessage(fmt.Sprintf("answer %d", i)))
		}
	}
	return b
}

func TestBuffer_TrimPolicy(t *testing.T) {
	tests := []struct {
		name        string
		length      int
		limit       int
		wantRemoved int
		wantLen     int
	}{
		{"under limit is a no-op", 5, 12, 0, 5},
		{"at limit is a no-op", 12, 12, 0, 12},
		{"over limit drops half the limit", 13, 12, 6, 7},
		{"far over limit still drops half the limit", 30, 12, 6, 24},
		{"odd limit floors", 8, 7, 3, 5},
		{"zero limit is a no-op", 4, 0, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := fill(tt.length)
			var newest Message
			if b.Len() > 0 {
				newest = b.Messages()[b.Len()-1]
			}

			removed := b.Trim(tt.limit)

			assert.Equal(t, tt.wantRemoved, removed)
			assert.Equal(t, tt.wantLen, b.Len())
			if b.Len() > 0 {
				assert.Equal(t, newest.ID, b.Messages()[b.Len()-1].ID,
					"trimming must never remove the newest message")
			}
		})
	}
}

func TestBuffer_TrimRemovesOldestPrefix(t *testing.T) {
	b := fill(14)
	before := b.Messages()

	b.Trim(12)

	after := b.Messages()
	assert.Equal(t, before[6:], after, "trim removes a prefix, keeping order")
}

func TestBuffer_MessagesReturnsCopy(t *testing.T) {
	b := fill(3)
	got := b.Messages()
	got[0].Content = "mutated"

	assert.NotEqual(t, "mutated", b.Messages()[0].Content)
}

func TestBuffer_LastUserContent(t *testing.T) {
	b := NewBuffer(nil)
	assert.Equal(t, "", b.LastUserContent())

	b.Append(NewUserMessage("first"))
	b.Append(NewAssistantMessage("reply"))
	b.Append(NewUserMessage("second"))
	b.Append(NewAssistantMessage("another reply"))

	assert.Equal(t, "second", b.LastUserContent())
}
