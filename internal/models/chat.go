// Package models defines the shared domain types for master chat.
package models

import "time"

// Chat turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is a single message in a chat session. Turns are immutable once
// created; insertion order is significant because the transcript is replayed
// to the model on every follow-up call.
type ChatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// NewTurn creates a chat turn stamped with the current time.
func NewTurn(role, content string) ChatTurn {
	return ChatTurn{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
