// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-himansu2403/AI.BH/internal/model"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m *Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderHints(),
	)

	if !m.theme.CompactLayout() {
		side := m.sidebar.Render(m.index.List(), m.ctrl.SessionID())
		content = lipgloss.JoinHorizontal(lipgloss.Top, side, content)
	}

	if m.toasts.HasToasts() {
		overlay := components.RenderToastStack(m.theme, m.toasts.Active(), m.width, m.height)
		if overlay != "" {
			content = lipgloss.JoinVertical(lipgloss.Left, content, overlay)
		}
	}
	return content
}

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("AI.BH")
	var badge string
	switch {
	case !m.probed:
		badge = m.theme.HeaderStatus.Render("CHECKING")
	case m.online:
		badge = m.theme.OnlineBadge.Render("ONLINE")
	default:
		badge = m.theme.OfflineBadge.Render("OFFLINE")
	}
	who := ""
	if m.user != nil {
		who = m.theme.HeaderStatus.Render(m.user.Name)
	}
	left := title + "  " + badge
	gap := m.contentWidth() - lipgloss.Width(left) - lipgloss.Width(who) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.contentWidth()).Render(left + strings.Repeat(" ", gap) + who)
}

func (m *Model) renderInput() string {
	if m.focus == focusAttach {
		label := m.theme.FormLabel.Render("Attach image")
		return m.theme.InputContainer.Width(m.contentWidth() - 2).Render(label + "\n" + m.attach.View())
	}

	var extras []string
	if m.ctrl.Pending() {
		extras = append(extras, m.spin.View()+" Sending...")
	}
	if m.listening {
		extras = append(extras, m.theme.ListeningBadge.Render("● LISTENING"))
	}
	if m.pendingImageName != "" {
		extras = append(extras, m.theme.Chip.Render("📎 "+m.pendingImageName))
	}

	body := m.input.View()
	if len(extras) > 0 {
		body += "\n" + strings.Join(extras, "  ")
	}
	return m.theme.InputContainer.Width(m.contentWidth() - 2).Render(body)
}

func (m *Model) renderHints() string {
	hints := "enter send · ctrl+n new · ctrl+v voice · ctrl+o image · ctrl+h history · ctrl+l logout · ctrl+c quit"
	return m.theme.Hint.Render(hints)
}

func (m *Model) contentWidth() int {
	if m.theme.CompactLayout() {
		return m.width
	}
	return m.width - components.SidebarWidth
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript re-renders the viewport from the controller's
// message snapshot.
func (m *Model) refreshTranscript() {
	msgs := m.ctrl.Messages()

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
	}

	if m.showSuggestions && m.transcriptEmpty() {
		b.WriteString("\n")
		b.WriteString(components.RenderSuggestions(m.theme, m.contentWidth()))
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(b.String())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessage(msg *model.Message) string {
	name := msg.Role.DisplayName()
	stamp := m.theme.Timestamp.Render(name + " · " + msg.CreatedAt.Format("15:04"))

	body := msg.Text
	style := m.theme.UserBubble
	if msg.Role == model.RoleAssistant {
		// Assistant replies render through glamour; user text stays
		// verbatim.
		body = strings.TrimRight(m.md.Render(msg.Text), "\n")
		style = m.theme.AssistantBubble
	}
	if msg.ImageRef != "" {
		label := "[image attached]"
		if body != "" {
			body += "\n" + label
		} else {
			body = label
		}
	}

	bubble := style.MaxWidth(m.contentWidth() - 2).Render(body)
	if msg.Role == model.RoleUser {
		return lipgloss.JoinVertical(lipgloss.Right, stamp, bubble)
	}
	return lipgloss.JoinVertical(lipgloss.Left, stamp, bubble)
}
