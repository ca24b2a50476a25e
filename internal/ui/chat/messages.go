// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
package chat

import "time"

// =============================================================================
// SEND LIFECYCLE MESSAGES
// =============================================================================

// SendDoneMsg signals that a send operation finished (success or
// absorbed failure). The transcript is re-read from the controller.
type SendDoneMsg struct {
	Err error // validation sentinel, nil otherwise
}

// =============================================================================
// HEALTH MESSAGES
// =============================================================================

// HealthMsg carries the result of a liveness probe.
type HealthMsg struct {
	Online bool
}

// HealthTickMsg schedules the next periodic probe.
type HealthTickMsg struct {
	Time time.Time
}

// =============================================================================
// VOICE MESSAGES
// =============================================================================

// VoiceResultMsg carries the outcome of a recognition session.
// Exactly one of Transcript/Err is set.
type VoiceResultMsg struct {
	Transcript string
	Err        error
}

// =============================================================================
// IMAGE ATTACHMENT MESSAGES
// =============================================================================

// ImageAttachedMsg carries a loaded, size-checked image payload.
type ImageAttachedMsg struct {
	DataURL string
	Name    string
}

// ImageAttachErrorMsg reports a failed attachment.
type ImageAttachErrorMsg struct {
	Reason string
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// HistoryClearedMsg reports the outcome of clearing server-side
// history for the active session.
type HistoryClearedMsg struct {
	Err error
}

// LoggedOutMsg asks the parent to end the session and return to the
// landing screen.
type LoggedOutMsg struct{}
