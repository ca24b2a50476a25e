// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package aibh

import (
	"errors"
	"fmt"
)

// Error variables for common client failures.
var (
	// ErrNotConfigured indicates the base URL is not set.
	ErrNotConfigured = errors.New("AI.BH endpoint not configured")

	// ErrUnavailable indicates the endpoint could not be reached.
	ErrUnavailable = errors.New("AI.BH service unavailable")

	// ErrRateLimited indicates the client-side limiter rejected the call.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a structured error body returned by the service.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("AI.BH error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("AI.BH error (HTTP %d): %s", e.Status, e.Message)
}

// TransportError wraps any failure to complete a chat request: network
// errors, non-success statuses, and unparseable replies. Callers decide
// the user-visible fallback; this type only carries the cause.
type TransportError struct {
	Op  string // "chat", "chat/image", "history", "health"
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("aibh %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is (or wraps) a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
