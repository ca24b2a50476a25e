// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-himansu2403/AI.BH/internal/aibh"
	"github.com/Mr-himansu2403/AI.BH/internal/auth"
	"github.com/Mr-himansu2403/AI.BH/internal/history"
	"github.com/Mr-himansu2403/AI.BH/internal/model"
	"github.com/Mr-himansu2403/AI.BH/internal/render"
	"github.com/Mr-himansu2403/AI.BH/internal/session"
	"github.com/Mr-himansu2403/AI.BH/internal/speech"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/components"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/styles"
	"github.com/Mr-himansu2403/AI.BH/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// healthInterval is how often the backend liveness probe runs.
	healthInterval = 30 * time.Second

	// healthTimeout bounds a single probe.
	healthTimeout = 5 * time.Second

	// inputHeight is the textarea height in rows.
	inputHeight = 3
)

// focusArea identifies which pane receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
	focusAttach
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat screen: transcript viewport, input, sidebar,
// toasts, and the voice controls.
type Model struct {
	theme *styles.Theme

	ctrl   *session.Controller
	client *aibh.Client
	voice  *speech.Adapter
	index  *history.Index
	user   *auth.User

	viewport viewport.Model
	input    textarea.Model
	attach   textarea.Model
	spin     spinner.Model
	sidebar  *components.Sidebar
	toasts   *components.ToastManager
	md       *render.Markdown

	width  int
	height int

	focus     focusArea
	online    bool
	probed    bool
	listening bool

	// pendingImage holds an attached image until the next send.
	pendingImage     string
	pendingImageName string

	showSuggestions bool
	quitting        bool
}

// New builds the chat screen.
func New(theme *styles.Theme, ctrl *session.Controller, client *aibh.Client, voice *speech.Adapter, index *history.Index, user *auth.User, showSuggestions bool) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.ShowLineNumbers = false
	ta.Focus()

	at := textarea.New()
	at.Placeholder = "Path to image file..."
	at.Prompt = "> "
	at.SetHeight(1)
	at.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	vp := viewport.New(80, 20)

	m := &Model{
		theme:           theme,
		ctrl:            ctrl,
		client:          client,
		voice:           voice,
		index:           index,
		user:            user,
		viewport:        vp,
		input:           ta,
		attach:          at,
		spin:            sp,
		sidebar:         components.NewSidebar(theme, components.SidebarWidth),
		toasts:          components.NewToastManager(),
		md:              render.NewMarkdown(74),
		showSuggestions: showSuggestions,
	}

	// Controller notices (send failures, oversized images) surface
	// as toasts on the next tick.
	ctrl.SetOnNotice(func(notice string) {
		m.toasts.AddError(notice)
	})

	return m
}

// Init starts the ticking machinery and the first health probe.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		components.ToastTickCmd(),
		m.healthCmd(),
		textarea.Blink,
	)
}

// SetSize propagates terminal dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	contentWidth := width
	if !m.theme.CompactLayout() {
		contentWidth = width - components.SidebarWidth
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = height - inputHeight - 5
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.SetWidth(contentWidth - 4)
	m.attach.SetWidth(contentWidth - 4)
	m.md.SetWidth(contentWidth - 6)
	m.refreshTranscript()
}

// SetShowSuggestions toggles the fresh-chat suggestion chips.
func (m *Model) SetShowSuggestions(show bool) {
	m.showSuggestions = show
	m.refreshTranscript()
}

// =============================================================================
// COMMANDS
// =============================================================================

// sendCmd runs one send on the controller. Failures are absorbed into
// the transcript by the controller; only validation sentinels surface.
func (m *Model) sendCmd(text, imageDataURL string) tea.Cmd {
	return func() tea.Msg {
		err := m.ctrl.Send(context.Background(), text, imageDataURL)
		return SendDoneMsg{Err: err}
	}
}

func (m *Model) healthCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		_, err := m.client.Health(ctx)
		return HealthMsg{Online: err == nil}
	}
}

func healthTickCmd() tea.Cmd {
	return tea.Tick(healthInterval, func(t time.Time) tea.Msg {
		return HealthTickMsg{Time: t}
	})
}

// voiceCmd starts a recognition session and waits for its single
// outcome. Stopping the session delivers neither result nor error, so
// the command also unblocks on the adapter going idle.
func (m *Model) voiceCmd() tea.Cmd {
	results := make(chan VoiceResultMsg, 1)
	err := m.voice.StartListening(
		func(transcript string) { results <- VoiceResultMsg{Transcript: transcript} },
		func(err error) { results <- VoiceResultMsg{Err: err} },
	)
	if err != nil {
		return func() tea.Msg { return VoiceResultMsg{Err: err} }
	}
	return func() tea.Msg {
		for {
			select {
			case msg := <-results:
				return msg
			case <-time.After(250 * time.Millisecond):
				if !m.voice.IsListening() {
					return VoiceResultMsg{}
				}
			}
		}
	}
}

// attachCmd loads an image file and packages it as a data URL.
// SECURITY: the size cap is enforced on the raw file before encoding,
// so oversized files never reach the network layer.
func attachCmd(path string) tea.Cmd {
	return func() tea.Msg {
		path = strings.TrimSpace(path)
		if path == "" {
			return ImageAttachErrorMsg{Reason: "No file selected"}
		}
		info, err := os.Stat(path)
		if err != nil {
			return ImageAttachErrorMsg{Reason: fmt.Sprintf("Cannot read %s", filepath.Base(path))}
		}
		if info.Size() > aibh.MaxImagePayload {
			return ImageAttachErrorMsg{Reason: session.ImageTooLargeNotice}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return ImageAttachErrorMsg{Reason: fmt.Sprintf("Cannot read %s", filepath.Base(path))}
		}
		return ImageAttachedMsg{
			DataURL: "data:" + imageMIME(path) + ";base64," + base64.StdEncoding.EncodeToString(data),
			Name:    filepath.Base(path),
		}
	}
}

func imageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// clearHistoryCmd deletes the active session's server-side history.
func (m *Model) clearHistoryCmd() tea.Cmd {
	sessionID := m.ctrl.SessionID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		return HistoryClearedMsg{Err: m.client.ClearHistory(ctx, sessionID)}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// transcriptEmpty reports whether only seeded greetings are showing.
func (m *Model) transcriptEmpty() bool {
	for _, msg := range m.ctrl.Messages() {
		if msg.Role == model.RoleUser {
			return false
		}
	}
	return true
}

func (m *Model) appendTranscriptText(text string) {
	current := m.input.Value()
	if util.IsBlank(current) {
		m.input.SetValue(text)
	} else {
		m.input.SetValue(current + " " + text)
	}
	m.input.CursorEnd()
}
