// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the active conversation and its send lifecycle.
//
// The controller holds the only mutable chat state in the client: the
// active session's transcript and the pending flag gating sends. All
// collaborators - chat client, speech adapter, history index - are
// passed in at construction; nothing is read from ambient globals.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Mr-himansu2403/AI.BH/internal/aibh"
	"github.com/Mr-himansu2403/AI.BH/internal/history"
	"github.com/Mr-himansu2403/AI.BH/internal/model"
)

// Fixed transcript messages.
const (
	// WelcomeMessage seeds the very first session.
	WelcomeMessage = "Hello! I'm AI.BH, your intelligent assistant. I'm here to help you learn, build projects, and solve problems clearly and efficiently. How can I assist you today?"

	// NewChatMessage seeds sessions started from the New Chat action.
	NewChatMessage = "New conversation started! How can I help you today?"

	// ResumeMessage seeds a session selected from the sidebar. Prior
	// transcript content is volatile and is not reloaded.
	ResumeMessage = "Chat history loaded. How can I continue helping you?"

	// ApologyMessage is appended when a send fails. The user resubmits
	// manually; nothing retries on its own.
	ApologyMessage = "I apologize, but I'm experiencing technical difficulties. Please try again in a moment."
)

// User-visible notification texts.
const (
	// SendFailedNotice accompanies the apology message as a toast.
	SendFailedNotice = "Failed to send message. Please try again."

	// ImageTooLargeNotice rejects oversized attachments.
	ImageTooLargeNotice = "Image size should be less than 5MB"
)

// Speech timing. Synthesis is decoupled from the append so audio does
// not overlap the UI transition.
const (
	// DefaultWelcomeSpeakDelay delays speaking the welcome message.
	DefaultWelcomeSpeakDelay = time.Second

	// DefaultReplySpeakDelay delays speaking an assistant reply.
	DefaultReplySpeakDelay = 500 * time.Millisecond
)

// Errors returned by Send. All are terminal no-ops: the transcript is
// unchanged when any of them is returned.
var (
	// ErrEmptyMessage rejects a send with no text and no image.
	// Silently ignored by callers - no notification.
	ErrEmptyMessage = errors.New("empty message")

	// ErrSendPending rejects a second send while one is in flight.
	ErrSendPending = errors.New("send already in flight")

	// ErrImageTooLarge rejects image payloads over the 5 MiB cap
	// before any network activity.
	ErrImageTooLarge = errors.New("image payload too large")
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// ChatClient is the remote API surface the controller needs.
type ChatClient interface {
	SendText(ctx context.Context, message, sessionID string) (*aibh.Reply, error)
	SendImage(ctx context.Context, message, imageDataURL, sessionID string) (*aibh.Reply, error)
}

// Speaker is the synthesis half of the speech adapter.
type Speaker interface {
	CanSpeak() bool
	Speak(text string) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Options tune controller behavior.
type Options struct {
	// SpeakReplies speaks assistant replies when synthesis is available.
	SpeakReplies bool

	// WelcomeSpeakDelay and ReplySpeakDelay override the fixed speech
	// delays. Zero means the default; tests shorten them.
	WelcomeSpeakDelay time.Duration
	ReplySpeakDelay   time.Duration
}

// Controller orchestrates sending a user message and integrating the
// assistant's reply. Send lifecycle per operation:
// Idle -> Sending -> {Success, Failure} -> Idle. The pending flag is
// the mutual-exclusion gate: while true, further sends are rejected,
// not queued.
type Controller struct {
	client  ChatClient
	speaker Speaker
	index   *history.Index
	opts    Options

	mu      sync.Mutex
	active  *model.Session
	pending bool
	started bool

	onChange func()
	onNotice func(text string)
}

// NewController wires a controller. index may be shared with the
// sidebar; speaker may be nil when synthesis is unavailable.
func NewController(client ChatClient, speaker Speaker, index *history.Index, opts Options) *Controller {
	if opts.WelcomeSpeakDelay == 0 {
		opts.WelcomeSpeakDelay = DefaultWelcomeSpeakDelay
	}
	if opts.ReplySpeakDelay == 0 {
		opts.ReplySpeakDelay = DefaultReplySpeakDelay
	}
	return &Controller{
		client:  client,
		speaker: speaker,
		index:   index,
		opts:    opts,
	}
}

// SetOnChange registers a callback fired after every transcript or
// pending-state change. The UI re-renders from it.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// SetOnNotice registers a callback for user-visible notifications
// (toasts).
func (c *Controller) SetOnNotice(fn func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onNotice = fn
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// StartNew replaces the active session with a fresh one. The first
// session of the process is seeded with the welcome message, which is
// also spoken after a short delay when synthesis is available; later
// ones get the new-chat placeholder. Any in-flight send against the
// old session becomes stale and its reply will be discarded.
func (c *Controller) StartNew() string {
	sess := model.NewSession()

	c.mu.Lock()
	first := !c.started
	c.started = true
	if first {
		sess.AddAssistantMessage(WelcomeMessage)
	} else {
		sess.AddAssistantMessage(NewChatMessage)
	}
	c.active = sess
	c.pending = false
	c.mu.Unlock()

	if first {
		c.scheduleSpeak(WelcomeMessage, c.opts.WelcomeSpeakDelay)
	}
	c.notifyChange()
	return sess.ID
}

// SelectSession switches to a previously started session. The visible
// transcript is reset to a placeholder: full message sequences are not
// retained anywhere client-side, only the sidebar summary survives.
func (c *Controller) SelectSession(id string) {
	sess := &model.Session{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	sess.AddAssistantMessage(ResumeMessage)

	c.mu.Lock()
	c.started = true
	c.active = sess
	c.pending = false
	c.mu.Unlock()

	c.notifyChange()
}

// SessionID returns the active session's identifier.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.ID
}

// Messages returns a snapshot of the active transcript.
func (c *Controller) Messages() []*model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return append([]*model.Message(nil), c.active.Messages...)
}

// Pending reports whether a send is in flight. The input surface must
// block sends while true.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// =============================================================================
// SEND LIFECYCLE
// =============================================================================

// Send posts a user message and integrates the reply. It blocks for
// the duration of the network call; callers run it off the UI thread.
//
// Validation failures return the sentinel errors above with the
// transcript untouched. Transport failures are absorbed: the apology
// message is appended, a notification fires, and Send returns nil.
// Within one call the User append always precedes the Assistant
// append; a reply arriving after the active session changed is
// discarded.
func (c *Controller) Send(ctx context.Context, text, imageDataURL string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && imageDataURL == "" {
		return ErrEmptyMessage
	}
	if len(imageDataURL) > aibh.MaxImagePayload {
		c.notify(ImageTooLargeNotice)
		return ErrImageTooLarge
	}

	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		c.StartNew()
		c.mu.Lock()
	}
	if c.pending {
		c.mu.Unlock()
		return ErrSendPending
	}
	c.pending = true

	if imageDataURL != "" {
		c.active.AddMessage(model.NewUserImageMessage(trimmed, imageDataURL))
	} else {
		c.active.AddUserMessage(trimmed)
	}
	// The session ID captured here tags the request; the reply is
	// dropped if the user switches sessions before it lands.
	sessionID := c.active.ID
	c.mu.Unlock()
	c.notifyChange()

	var reply *aibh.Reply
	var err error
	if imageDataURL != "" {
		reply, err = c.client.SendImage(ctx, trimmed, imageDataURL, sessionID)
	} else {
		reply, err = c.client.SendText(ctx, trimmed, sessionID)
	}

	c.mu.Lock()
	if c.active == nil || c.active.ID != sessionID {
		// Stale: the session switch already reset pending.
		c.mu.Unlock()
		return nil
	}

	if err != nil {
		c.active.AddAssistantMessage(ApologyMessage)
		c.pending = false
		c.mu.Unlock()
		c.notify(SendFailedNotice)
		c.notifyChange()
		return nil
	}

	c.active.AddMessage(model.NewAssistantMessageAt(reply.Text, reply.Timestamp))
	c.pending = false
	c.mu.Unlock()

	if c.index != nil {
		c.index.Upsert(sessionID, trimmed, reply.Text)
	}
	c.notifyChange()
	c.scheduleSpeak(reply.Text, c.opts.ReplySpeakDelay)
	return nil
}

// =============================================================================
// INTERNAL
// =============================================================================

func (c *Controller) scheduleSpeak(text string, delay time.Duration) {
	if !c.opts.SpeakReplies || c.speaker == nil || !c.speaker.CanSpeak() {
		return
	}
	time.AfterFunc(delay, func() {
		_ = c.speaker.Speak(text)
	})
}

func (c *Controller) notifyChange() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Controller) notify(text string) {
	c.mu.Lock()
	fn := c.onNotice
	c.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}
