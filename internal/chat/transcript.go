package chat

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/okian/paddock/internal/domain/model"
)

// FallbackReply is shown instead of any relay error.
const FallbackReply = "Sorry, I am having trouble connecting. Please try again later."

// Transcript is the append-only message list of one chat session.
type Transcript struct {
	mu       sync.Mutex
	messages []model.ChatMessage
}

// NewTranscript starts an empty session.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Send appends text as a user message, then the reply from r. When r fails
// the fixed FallbackReply is appended instead of the error text. Blank text
// is ignored and reported with ok=false.
func (t *Transcript) Send(ctx context.Context, r Relayer, text string) (reply model.ChatMessage, ok bool) {
	if strings.TrimSpace(text) == "" {
		return model.ChatMessage{}, false
	}
	t.append(model.ChatMessage{Role: model.RoleUser, Content: text})

	content, err := r.Relay(ctx, text)
	if err != nil {
		content = FallbackReply
	}
	reply = model.ChatMessage{Role: model.RoleBot, Content: content}
	t.append(reply)
	return reply, true
}

// Messages returns a copy of the transcript in order.
func (t *Transcript) Messages() []model.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.messages)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *Transcript) append(m model.ChatMessage) {
	t.mu.Lock()
	t.messages = append(t.messages, m)
	t.mu.Unlock()
}
