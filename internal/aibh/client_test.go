// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package aibh

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestClient_SendText(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/aibh/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"Hi there","timestamp":"2025-06-01T12:00:00Z"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	reply, err := client.SendText(context.Background(), "Hello", "session_1")
	require.NoError(t, err)

	assert.Equal(t, "Hello", got.Message)
	assert.Equal(t, "session_1", got.SessionID)
	assert.Equal(t, "TEXT", got.MessageType)
	assert.Empty(t, got.ImageURL)

	assert.Equal(t, "Hi there", reply.Text)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), reply.Timestamp.UTC())
}

func TestClient_SendImage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/aibh/chat/image", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"response":"Nice picture","timestamp":1748779200000}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	reply, err := client.SendImage(context.Background(), "what is this", "data:image/png;base64,AAAA", "session_2")
	require.NoError(t, err)

	assert.Equal(t, "IMAGE", got.MessageType)
	assert.Equal(t, "data:image/png;base64,AAAA", got.ImageURL)
	assert.Equal(t, "Nice picture", reply.Text)
	assert.Equal(t, time.UnixMilli(1748779200000).Unix(), reply.Timestamp.Unix())
}

func TestClient_SendText_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"MODEL_DOWN","message":"assistant offline"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.SendText(context.Background(), "Hello", "s")
	require.Error(t, err)

	assert.True(t, IsTransportError(err))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "MODEL_DOWN", apiErr.Code)
}

func TestClient_SendText_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(srv.URL)
	_, err := client.SendText(context.Background(), "Hello", "s")
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_SendText_NoRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.SendText(context.Background(), "Hello", "s")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "a failed send must not be retried")
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.SendText(context.Background(), "Hello", "s")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = client.Health(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestClient_History(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/aibh/chat/history", r.URL.Path)
		assert.Equal(t, "session_9", r.URL.Query().Get("sessionId"))
		w.Write([]byte(`[{"message":"hi","response":"hello","messageType":"TEXT"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	history, err := client.History(context.Background(), "session_9")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Message)
	assert.Equal(t, "hello", history[0].Response)
}

func TestClient_ClearHistory(t *testing.T) {
	var method, sessionID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		sessionID = r.URL.Query().Get("sessionId")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	require.NoError(t, client.ClearHistory(context.Background(), "session_9"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "session_9", sessionID)
}

// =============================================================================
// HEALTH TESTS
// =============================================================================

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/aibh/health", r.URL.Path)
		w.Write([]byte(`{"status":"UP"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UP", status.Status)
}

func TestClient_Health_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Health(context.Background())
	assert.True(t, IsTransportError(err))
}

// =============================================================================
// PLUMBING TESTS
// =============================================================================

func TestClient_Reconfigure(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"status":"UP"}`))
	}))
	defer srv.Close()

	client := NewClient("http://stale:1").WithAPIKey("old-key")
	client.Reconfigure(srv.URL+"/", "new-key", 2*time.Second, 0)

	assert.Equal(t, srv.URL, client.BaseURL(), "trailing slash trimmed")
	_, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer new-key", auth)
}

func TestClient_APIKeyHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL).WithAPIKey("key123")
	_, err := client.SendText(context.Background(), "x", "s")
	require.NoError(t, err)
	assert.Equal(t, "Bearer key123", auth)
}

func TestClient_ResponseSizeCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		for i := 0; i < 1024; i++ {
			w.Write(make([]byte, 1024))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL).WithMaxResponseSize(512)
	_, err := client.SendText(context.Background(), "x", "s")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.LessOrEqual(t, len(apiErr.Message), 200)
}

func TestClient_RateLimitPreservesOrder(t *testing.T) {
	var order []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		order = append(order, req.Message)
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL).WithRateLimit(100)
	for _, msg := range []string{"a", "b", "c"} {
		_, err := client.SendText(context.Background(), msg, "s")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestParseTimestamp(t *testing.T) {
	now := time.Now()

	ts := parseTimestamp(json.RawMessage(`"2025-06-01T12:00:00Z"`))
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), ts.UTC())

	ts = parseTimestamp(json.RawMessage(`1748779200000`))
	assert.Equal(t, time.UnixMilli(1748779200000).Unix(), ts.Unix())

	// Garbage falls back to the local clock rather than dropping the reply.
	ts = parseTimestamp(json.RawMessage(`"not a time"`))
	assert.WithinDuration(t, now, ts, 5*time.Second)

	ts = parseTimestamp(nil)
	assert.WithinDuration(t, now, ts, 5*time.Second)
}
