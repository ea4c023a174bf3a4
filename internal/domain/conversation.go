package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two conversation roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is a single message in a conversation
type Turn struct {
	Role      Role   `json:"role" validate:"oneof=user assistant"`
	Text      string `json:"text" validate:"max=2000"`
	Timestamp string `json:"timestamp,omitempty"`
}

// NewTurn creates a turn stamped with t
func NewTurn(role Role, text string, t time.Time) Turn {
	return Turn{
		Role:      role,
		Text:      text,
		Timestamp: t.UTC().Format(time.RFC3339),
	}
}

// Conversation is the stored transcript of a chat session
type Conversation struct {
	SessionID    uuid.UUID      `json:"session_id"`
	Messages     []Turn         `json:"messages"`
	LastMessage  string         `json:"last_message"`
	MessageCount int            `json:"message_count"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewConversation starts a conversation seeded with prior turns.
// The history slice is copied.
func NewConversation(sessionID uuid.UUID, history []Turn, now time.Time) *Conversation {
	messages := make([]Turn, len(history))
	copy(messages, history)

	c := &Conversation{
		SessionID: sessionID,
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.sync()
	return c
}

// AppendExchange adds a user/assistant pair and trims the transcript to
// the newest window turns. A window <= 0 keeps everything.
func (c *Conversation) AppendExchange(user, assistant Turn, window int, now time.Time) {
	c.Messages = append(c.Messages, user, assistant)
	c.Truncate(window)
	c.UpdatedAt = now
}

// Truncate drops the oldest turns so at most max remain
func (c *Conversation) Truncate(max int) {
	if max > 0 && len(c.Messages) > max {
		kept := make([]Turn, max)
		copy(kept, c.Messages[len(c.Messages)-max:])
		c.Messages = kept
	}
	c.sync()
}

func (c *Conversation) sync() {
	c.MessageCount = len(c.Messages)
	if n := len(c.Messages); n > 0 {
		c.LastMessage = c.Messages[n-1].Text
	} else {
		c.LastMessage = ""
	}
}

// ConversationRepository persists conversations keyed by session ID
type ConversationRepository interface {
	// Upsert inserts the conversation or replaces the stored transcript,
	// keeping the original creation time.
	Upsert(ctx context.Context, conversation *Conversation) error
}
