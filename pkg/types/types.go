// Package types defines the chat domain model and the JSON payloads served
// by the HTTP API. Kept dependency-light so both internal packages and
// external clients can import it.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message. The set is closed: exactly
// two roles exist, and anything else is rejected at the API boundary.
type Role string

const (
	// RoleUser marks a message typed by the person chatting.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the model.
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single chat turn. Messages are immutable once created; a
// reply never mutates the history it was generated from.
type Message struct {
	// Unique message identifier (UUID).
	// example: 4f6c2d8e-0f6b-4a5e-9d2f-7c1b3a9e8d01
	ID string `json:"id" example:"4f6c2d8e-0f6b-4a5e-9d2f-7c1b3a9e8d01"`
	// Author role: "user" or "assistant".
	// example: user
	Role Role `json:"role" example:"user"`
	// Message text.
	// example: Why is the sky blue?
	Content string `json:"content" example:"Why is the sky blue?"`
	// Creation time in unix milliseconds.
	// example: 1700000000000
	Timestamp int64 `json:"timestamp_ms" example:"1700000000000"`
}

// NewMessage builds a Message with a fresh ID and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}
