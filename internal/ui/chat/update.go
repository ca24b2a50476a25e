// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mr-himansu2403/AI.BH/internal/session"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/components"
	"github.com/Mr-himansu2403/AI.BH/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update processes one message.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		// PERFORMANCE: the spinner tick doubles as the transcript
		// refresh heartbeat while a send is in flight.
		if m.ctrl.Pending() {
			m.refreshTranscript()
		}
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case SendDoneMsg:
		if msg.Err != nil && !isAbsorbedSendError(msg.Err) {
			m.toasts.AddError(msg.Err.Error())
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case HealthMsg:
		m.online = msg.Online
		m.probed = true
		return m, healthTickCmd()

	case HealthTickMsg:
		return m, m.healthCmd()

	case VoiceResultMsg:
		m.listening = false
		if msg.Err != nil {
			m.toasts.AddError("Voice input failed. Please try again.")
		} else if msg.Transcript != "" {
			m.appendTranscriptText(msg.Transcript)
			m.toasts.AddSuccess("Voice input captured!")
		}
		return m, nil

	case ImageAttachedMsg:
		m.pendingImage = msg.DataURL
		m.pendingImageName = msg.Name
		m.focus = focusInput
		m.attach.Reset()
		m.attach.Blur()
		m.input.Focus()
		m.toasts.AddStatus("Attached " + msg.Name)
		return m, nil

	case ImageAttachErrorMsg:
		m.toasts.AddError(msg.Reason)
		return m, nil

	case HistoryClearedMsg:
		if msg.Err != nil {
			m.toasts.AddError("Failed to clear history")
		} else {
			m.toasts.AddSuccess("History cleared")
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusInput:
		m.input, cmd = m.input.Update(msg)
	case focusAttach:
		m.attach, cmd = m.attach.Update(msg)
	}
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// isAbsorbedSendError reports sentinels the controller already turned
// into transcript or toast output.
func isAbsorbedSendError(err error) bool {
	return errors.Is(err, session.ErrEmptyMessage) ||
		errors.Is(err, session.ErrSendPending) ||
		errors.Is(err, session.ErrImageTooLarge)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		m.voice.StopListening()
		m.voice.StopSpeaking()
		return m, tea.Quit

	case "ctrl+n":
		m.ctrl.StartNew()
		m.pendingImage = ""
		m.pendingImageName = ""
		m.input.Reset()
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case "ctrl+v":
		return m.toggleVoice()

	case "ctrl+o":
		if m.focus == focusAttach {
			m.focus = focusInput
			m.attach.Blur()
			m.input.Focus()
			return m, nil
		}
		m.focus = focusAttach
		m.input.Blur()
		m.attach.Focus()
		return m, nil

	case "ctrl+x":
		m.pendingImage = ""
		m.pendingImageName = ""
		return m, nil

	case "ctrl+d":
		return m, m.clearHistoryCmd()

	case "ctrl+l":
		m.voice.StopListening()
		m.voice.StopSpeaking()
		return m, func() tea.Msg { return LoggedOutMsg{} }

	case "ctrl+h":
		if m.focus == focusSidebar {
			m.focus = focusInput
			m.sidebar.Cursor = -1
			m.input.Focus()
		} else {
			m.focus = focusSidebar
			m.sidebar.Cursor = 0
			m.input.Blur()
		}
		return m, nil

	case "esc":
		if m.focus != focusInput {
			m.focus = focusInput
			m.sidebar.Cursor = -1
			m.attach.Blur()
			m.input.Focus()
		}
		return m, nil

	case "enter":
		switch m.focus {
		case focusInput:
			return m.submit()
		case focusAttach:
			path := m.attach.Value()
			return m, attachCmd(path)
		case focusSidebar:
			return m.selectHistoryEntry()
		}

	case "up", "down":
		if m.focus == focusSidebar {
			m.moveSidebarCursor(msg.String() == "down")
			return m, nil
		}

	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil

	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil

	case "1", "2", "3", "4":
		// USABILITY: suggestion chips fill the input on a fresh chat.
		if m.focus == focusInput && util.IsBlank(m.input.Value()) && m.transcriptEmpty() && m.showSuggestions {
			n, _ := strconv.Atoi(msg.String())
			if n >= 1 && n <= len(components.Suggestions) {
				m.input.SetValue(components.Suggestions[n-1])
				m.input.CursorEnd()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusInput:
		m.input, cmd = m.input.Update(msg)
	case focusAttach:
		m.attach, cmd = m.attach.Update(msg)
	}
	return m, cmd
}

// submit sends the drafted message. The pending gate lives in the
// controller; a duplicate submit while sending is simply ignored.
func (m *Model) submit() (*Model, tea.Cmd) {
	text := m.input.Value()
	if util.IsBlank(text) && m.pendingImage == "" {
		return m, nil
	}
	if m.ctrl.Pending() {
		return m, nil
	}
	image := m.pendingImage
	m.pendingImage = ""
	m.pendingImageName = ""
	m.input.Reset()
	return m, tea.Batch(m.sendCmd(text, image), m.spin.Tick)
}

func (m *Model) toggleVoice() (*Model, tea.Cmd) {
	if !m.voice.IsSupported() {
		m.toasts.AddWarning("Speech recognition is not supported on this system")
		return m, nil
	}
	if m.listening {
		m.listening = false
		m.voice.StopListening()
		return m, nil
	}
	m.listening = true
	return m, m.voiceCmd()
}

func (m *Model) selectHistoryEntry() (*Model, tea.Cmd) {
	entries := m.index.List()
	if m.sidebar.Cursor < 0 || m.sidebar.Cursor >= len(entries) {
		return m, nil
	}
	m.ctrl.SelectSession(entries[m.sidebar.Cursor].SessionID)
	m.focus = focusInput
	m.sidebar.Cursor = -1
	m.input.Focus()
	m.refreshTranscript()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *Model) moveSidebarCursor(down bool) {
	n := m.index.Len()
	if n == 0 {
		return
	}
	if down {
		m.sidebar.Cursor++
		if m.sidebar.Cursor >= n {
			m.sidebar.Cursor = n - 1
		}
	} else {
		m.sidebar.Cursor--
		if m.sidebar.Cursor < 0 {
			m.sidebar.Cursor = 0
		}
	}
}
