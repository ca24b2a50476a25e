// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "AI.BH"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a session's transcript. Messages are
// immutable once appended to a session.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`

	// ImageRef holds a data-URL-encoded image payload for image-bearing
	// user messages. Empty for plain text messages.
	ImageRef string `json:"image_ref,omitempty"`
}

// NewMessage creates a message with a generated ID and the current time.
func NewMessage(role Role, text string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) *Message {
	return NewMessage(RoleUser, text)
}

// NewUserImageMessage creates a user message carrying an attached image.
// Text may be empty when only the image is sent.
func NewUserImageMessage(text, imageRef string) *Message {
	msg := NewMessage(RoleUser, text)
	msg.ImageRef = imageRef
	return msg
}

// NewAssistantMessage creates an assistant message timestamped now.
func NewAssistantMessage(text string) *Message {
	return NewMessage(RoleAssistant, text)
}

// NewAssistantMessageAt creates an assistant message with a
// server-provided timestamp. Zero timestamps fall back to the local
// clock.
func NewAssistantMessageAt(text string, at time.Time) *Message {
	msg := NewMessage(RoleAssistant, text)
	if !at.IsZero() {
		msg.CreatedAt = at
	}
	return msg
}

// HasImage reports whether the message carries an image payload.
func (m *Message) HasImage() bool {
	return m.ImageRef != ""
}

// Preview returns a truncated single-line preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty reports whether the message carries neither text nor image.
func (m *Message) IsEmpty() bool {
	return m.Text == "" && m.ImageRef == ""
}

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	return "msg_" + uuid.NewString()
}
