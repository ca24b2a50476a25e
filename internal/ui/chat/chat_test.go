// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-himansu2403/AI.BH/internal/aibh"
	"github.com/Mr-himansu2403/AI.BH/internal/history"
	"github.com/Mr-himansu2403/AI.BH/internal/model"
	"github.com/Mr-himansu2403/AI.BH/internal/session"
	"github.com/Mr-himansu2403/AI.BH/internal/speech"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/styles"
)

type stubClient struct {
	texts []string
}

func (c *stubClient) SendText(ctx context.Context, message, sessionID string) (*aibh.Reply, error) {
	c.texts = append(c.texts, message)
	return &aibh.Reply{Text: "ok"}, nil
}

func (c *stubClient) SendImage(ctx context.Context, message, imageDataURL, sessionID string) (*aibh.Reply, error) {
	return &aibh.Reply{Text: "ok"}, nil
}

func newTestModel(t *testing.T) (*Model, *stubClient) {
	t.Helper()
	client := &stubClient{}
	ctrl := session.NewController(client, nil, history.NewIndex(), session.Options{})
	theme := styles.NewTheme("dark")
	m := New(theme, ctrl, nil, speech.NewAdapter(nil, nil, nil), history.NewIndex(), nil, true)
	m.SetSize(100, 30)
	return m, client
}

func TestTranscriptEmpty(t *testing.T) {
	m, _ := newTestModel(t)
	m.ctrl.StartNew()
	assert.True(t, m.transcriptEmpty(), "greeting-only transcript counts as empty")

	require.NoError(t, m.ctrl.Send(context.Background(), "hello", ""))
	assert.False(t, m.transcriptEmpty())
}

func TestAppendTranscriptText(t *testing.T) {
	m, _ := newTestModel(t)

	m.appendTranscriptText("first")
	assert.Equal(t, "first", m.input.Value())

	m.appendTranscriptText("second")
	assert.Equal(t, "first second", m.input.Value())
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	m, client := newTestModel(t)
	m.input.SetValue("   ")

	_, cmd := m.submit()
	assert.Nil(t, cmd)
	assert.Empty(t, client.texts)
}

func TestSubmitClearsDraftAndAttachment(t *testing.T) {
	m, _ := newTestModel(t)
	m.input.SetValue("what is this?")
	m.pendingImage = "data:image/png;base64,aGk="
	m.pendingImageName = "shot.png"

	_, cmd := m.submit()
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())
	assert.Empty(t, m.pendingImage)
	assert.Empty(t, m.pendingImageName)
}

func TestIsAbsorbedSendError(t *testing.T) {
	assert.True(t, isAbsorbedSendError(session.ErrEmptyMessage))
	assert.True(t, isAbsorbedSendError(session.ErrSendPending))
	assert.True(t, isAbsorbedSendError(session.ErrImageTooLarge))
	assert.False(t, isAbsorbedSendError(context.Canceled))
}

func TestImageMIME(t *testing.T) {
	assert.Equal(t, "image/jpeg", imageMIME("photo.JPG"))
	assert.Equal(t, "image/gif", imageMIME("anim.gif"))
	assert.Equal(t, "image/webp", imageMIME("pic.webp"))
	assert.Equal(t, "image/png", imageMIME("capture.png"))
	assert.Equal(t, "image/png", imageMIME("noext"))
}

func TestHealthCmdReportsOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/aibh/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	m, _ := newTestModel(t)
	m.client = aibh.NewClient(srv.URL)

	msg, ok := m.healthCmd()().(HealthMsg)
	require.True(t, ok)
	assert.True(t, msg.Online)
}

func TestHealthCmdReportsOffline(t *testing.T) {
	m, _ := newTestModel(t)
	m.client = aibh.NewClient("http://127.0.0.1:0")

	msg, ok := m.healthCmd()().(HealthMsg)
	require.True(t, ok)
	assert.False(t, msg.Online)
}

func TestLogoutKeyEmitsLoggedOut(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, cmd)
	_, ok := cmd().(LoggedOutMsg)
	assert.True(t, ok)
}

func TestRenderMessageShowsImageMarker(t *testing.T) {
	m, _ := newTestModel(t)
	msg := model.NewUserImageMessage("look", "data:image/png;base64,aGk=")
	out := m.renderMessage(msg)
	assert.Contains(t, out, "[image attached]")
	assert.Contains(t, out, "You")
}
