// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package aibh is the HTTP client for the remote AI.BH assistant API.
//
// The service exposes chat under /aibh: text and image-bearing messages
// go to /aibh/chat and /aibh/chat/image, server-side history is read
// and cleared via /aibh/chat/history, and /aibh/health reports
// liveness. Failures surface as *TransportError; the caller owns every
// user-visible fallback. The client never retries - a failed send
// requires explicit user re-action.
package aibh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the AI.BH API.
const (
	// DefaultBaseURL is the development endpoint root.
	DefaultBaseURL = "http://localhost:8080/api"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	// MaxImagePayload caps data-URL image payloads. Enforced by the
	// send path before a request is built; mirrored here so both ends
	// agree on the number.
	MaxImagePayload = 5 * 1024 * 1024
)

// Message type discriminators on the wire.
const (
	messageTypeText  = "TEXT"
	messageTypeImage = "IMAGE"
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client for all AI.BH requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// chatRequest is the JSON body for both chat endpoints.
type chatRequest struct {
	Message     string `json:"message"`
	ImageURL    string `json:"imageUrl,omitempty"`
	SessionID   string `json:"sessionId"`
	MessageType string `json:"messageType"`
}

// chatResponse is the JSON reply from both chat endpoints.
type chatResponse struct {
	Response  string          `json:"response"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// Reply is a parsed assistant reply.
type Reply struct {
	Text      string
	Timestamp time.Time
}

// HistoryMessage is one server-side history row.
type HistoryMessage struct {
	Message     string          `json:"message"`
	Response    string          `json:"response"`
	MessageType string          `json:"messageType"`
	Timestamp   json.RawMessage `json:"timestamp"`
}

// HealthStatus is the /aibh/health payload.
type HealthStatus struct {
	Status string `json:"status"`
}

// apiErrorResponse is the service's structured error body.
type apiErrorResponse struct {
	Error APIError `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the AI.BH service. Settings may be swapped at
// runtime (config hot-reload), so reads and writes go through mu.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	maxBody    int64
	limiter    *rate.Limiter
}

// NewClient creates a client for the given base URL. An empty URL
// yields a client whose calls fail with ErrNotConfigured.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: sharedHTTPClient,
		timeout:    DefaultTimeout,
		maxBody:    MaxResponseSize,
	}
}

// WithAPIKey sets a bearer token sent with every request.
func (c *Client) WithAPIKey(key string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = strings.TrimSpace(key)
	return c
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
	return c
}

// WithMaxResponseSize caps how much of a response body is read.
func (c *Client) WithMaxResponseSize(n int64) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > 0 {
		c.maxBody = n
	}
	return c
}

// WithRateLimit throttles outbound requests to rps per second. Health
// polling shares the same budget as sends. Zero disables throttling.
func (c *Client) WithRateLimit(rps float64) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	} else {
		c.limiter = nil
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient = hc
	return c
}

// Reconfigure swaps endpoint settings on a live client. In-flight
// requests finish with the settings they started with.
func (c *Client) Reconfigure(baseURL, apiKey string, timeout time.Duration, rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	c.apiKey = strings.TrimSpace(apiKey)
	if timeout > 0 {
		c.timeout = timeout
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	} else {
		c.limiter = nil
	}
}

// IsConfigured reports whether a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.BaseURL() != ""
}

// BaseURL returns the configured endpoint root.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// SendText posts a text message for the given session and returns the
// assistant's reply.
func (c *Client) SendText(ctx context.Context, message, sessionID string) (*Reply, error) {
	body := chatRequest{
		Message:     message,
		SessionID:   sessionID,
		MessageType: messageTypeText,
	}
	return c.sendChat(ctx, "chat", "/aibh/chat", body)
}

// SendImage posts an image-bearing message. imageDataURL is a data-URL
// encoded payload; callers must enforce MaxImagePayload before calling.
func (c *Client) SendImage(ctx context.Context, message, imageDataURL, sessionID string) (*Reply, error) {
	body := chatRequest{
		Message:     message,
		ImageURL:    imageDataURL,
		SessionID:   sessionID,
		MessageType: messageTypeImage,
	}
	return c.sendChat(ctx, "chat/image", "/aibh/chat/image", body)
}

func (c *Client) sendChat(ctx context.Context, op, path string, body chatRequest) (*Reply, error) {
	base := c.BaseURL()
	if base == "" {
		return nil, ErrNotConfigured
	}
	if err := c.wait(ctx); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	data, err := c.doRequest(ctx, op, http.MethodPost, base+path, payload)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to decode reply: %w", err)}
	}
	return &Reply{
		Text:      parsed.Response,
		Timestamp: parseTimestamp(parsed.Timestamp),
	}, nil
}

// History fetches the server-side transcript for a session. Exposed
// for completeness; the client UI keeps its own volatile transcript.
func (c *Client) History(ctx context.Context, sessionID string) ([]HistoryMessage, error) {
	base := c.BaseURL()
	if base == "" {
		return nil, ErrNotConfigured
	}
	if err := c.wait(ctx); err != nil {
		return nil, &TransportError{Op: "history", Err: err}
	}

	u := base + "/aibh/chat/history?sessionId=" + url.QueryEscape(sessionID)
	data, err := c.doRequest(ctx, "history", http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var history []HistoryMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, &TransportError{Op: "history", Err: fmt.Errorf("failed to decode history: %w", err)}
	}
	return history, nil
}

// ClearHistory deletes the server-side transcript for a session.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	base := c.BaseURL()
	if base == "" {
		return ErrNotConfigured
	}
	if err := c.wait(ctx); err != nil {
		return &TransportError{Op: "history", Err: err}
	}

	u := base + "/aibh/chat/history?sessionId=" + url.QueryEscape(sessionID)
	_, err := c.doRequest(ctx, "history", http.MethodDelete, u, nil)
	return err
}

// Health checks service liveness.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	base := c.BaseURL()
	if base == "" {
		return nil, ErrNotConfigured
	}
	if err := c.wait(ctx); err != nil {
		return nil, &TransportError{Op: "health", Err: err}
	}

	data, err := c.doRequest(ctx, "health", http.MethodGet, base+"/aibh/health", nil)
	if err != nil {
		return nil, err
	}

	var status HealthStatus
	if err := json.Unmarshal(data, &status); err != nil {
		// A live endpoint with a non-JSON body still counts as up.
		return &HealthStatus{Status: "UP"}, nil
	}
	return &status, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) wait(ctx context.Context) error {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

func (c *Client) doRequest(ctx context.Context, op, method, url string, body []byte) ([]byte, error) {
	c.mu.RLock()
	timeout := c.timeout
	maxBody := c.maxBody
	apiKey := c.apiKey
	httpClient := c.httpClient
	c.mu.RUnlock()

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	setHeaders(req, apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	// SECURITY: Cap reads so a misbehaving endpoint cannot exhaust memory.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: op, Err: c.handleErrorResponse(resp.StatusCode, data)}
	}
	return data, nil
}

func setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "aibh-client/1.0")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		parsed.Error.Status = statusCode
		return &parsed.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &APIError{Status: statusCode, Message: msg}
}

// parseTimestamp accepts the timestamp shapes the service emits: an
// RFC3339 string or epoch milliseconds. Anything else falls back to
// the local clock so a reply is never dropped over a bad timestamp.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Now()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
		return time.Now()
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms)
	}
	return time.Now()
}
