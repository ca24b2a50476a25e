// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/Mr-himansu2403/AI.BH/internal/history"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/styles"
	"github.com/Mr-himansu2403/AI.BH/internal/util"
)

// SidebarWidth is the fixed column width of the history pane.
const SidebarWidth = 30

// Sidebar renders the chat history list.
type Sidebar struct {
	theme *styles.Theme
	width int

	// Cursor is the highlighted row; -1 when the sidebar is unfocused.
	Cursor int
}

// NewSidebar creates a sidebar.
func NewSidebar(theme *styles.Theme, width int) *Sidebar {
	return &Sidebar{theme: theme, width: width, Cursor: -1}
}

// SetWidth resizes the sidebar.
func (s *Sidebar) SetWidth(width int) {
	s.width = width
}

// Render draws the history entries; activeID marks the session whose
// transcript is on screen.
func (s *Sidebar) Render(entries []history.Entry, activeID string) string {
	var b strings.Builder
	b.WriteString(s.theme.SidebarTitle.Render("Chat History"))
	b.WriteString("\n\n")

	if len(entries) == 0 {
		b.WriteString(s.theme.SidebarPreview.Render("No conversations yet"))
		return s.theme.Sidebar.Width(s.width).Render(b.String())
	}

	inner := s.width - 4
	if inner < 10 {
		inner = 10
	}
	for i, e := range entries {
		title := util.TruncateWidth(e.Title, inner)
		if title == "" {
			title = "Untitled"
		}
		style := s.theme.SidebarEntry
		if i == s.Cursor || (s.Cursor < 0 && e.SessionID == activeID) {
			style = s.theme.SidebarEntrySelected
		}
		b.WriteString(style.Render(title))
		b.WriteString("\n")
		b.WriteString(s.theme.SidebarPreview.Render(util.TruncateWidth(e.LastMessage, inner)))
		b.WriteString("\n\n")
	}
	return s.theme.Sidebar.Width(s.width).Render(strings.TrimRight(b.String(), "\n"))
}
