// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant replies into terminal output.
//
// The chat viewport renders replies as markdown via glamour; the plain
// REPL keeps line-oriented output but still highlights fenced code
// blocks with chroma.
package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// Markdown renders assistant markdown for the chat viewport.
type Markdown struct {
	mu       sync.Mutex
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer wrapping at width columns.
func NewMarkdown(width int) *Markdown {
	m := &Markdown{}
	m.SetWidth(width)
	return m
}

// SetWidth rebuilds the renderer for a new wrap width. Viewport
// resizes call this.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.width = width
	if err != nil {
		// Keep whatever renderer we had; Render falls back to the raw
		// text when there is none.
		return
	}
	m.renderer = r
}

// Render renders markdown content. Returns the original content when
// rendering fails so a reply is never lost to a styling problem.
func (m *Markdown) Render(content string) string {
	m.mu.Lock()
	r := m.renderer
	m.mu.Unlock()

	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}
