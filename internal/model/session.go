// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is one logical conversation: an opaque identifier over an
// ordered, append-only message sequence. Exactly one session is active
// in the controller at a time; sessions are volatile and discarded on
// switch.
type Session struct {
	ID        string     `json:"id"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewSession creates a session with a generated ID.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        GenerateSessionID(),
		Messages:  make([]*Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GenerateSessionID produces an identifier unique within the process
// lifetime: the current time in milliseconds plus a random suffix. No
// global uniqueness guarantee is needed; the server only uses it to key
// conversation state.
func GenerateSessionID() string {
	suffix := make([]byte, 5)
	rand.Read(suffix)
	return "session_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + hex.EncodeToString(suffix)
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the transcript. UpdatedAt is
// monotonically non-decreasing across appends.
func (s *Session) AddMessage(msg *Message) {
	s.Messages = append(s.Messages, msg)
	if now := time.Now(); now.After(s.UpdatedAt) {
		s.UpdatedAt = now
	}
}

// AddUserMessage creates and appends a user message.
func (s *Session) AddUserMessage(text string) *Message {
	msg := NewUserMessage(text)
	s.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends an assistant message.
func (s *Session) AddAssistantMessage(text string) *Message {
	msg := NewAssistantMessage(text)
	s.AddMessage(msg)
	return msg
}

// LastMessage returns the most recent message, or nil when empty.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// FirstUserMessage returns the earliest user-authored message, or nil.
// History titles derive from it.
func (s *Session) FirstUserMessage() *Message {
	for _, msg := range s.Messages {
		if msg.Role == RoleUser {
			return msg
		}
	}
	return nil
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	return len(s.Messages)
}
