// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-himansu2403/AI.BH/internal/ui/styles"
)

// Suggestions are the empty-state prompt chips shown before the user
// has sent anything.
var Suggestions = []string{
	"Explain a complex topic",
	"Help with coding",
	"Analyze an image",
	"Creative writing",
}

// RenderSuggestions draws the suggestion chips with a keyboard hint.
// Pressing the numbered key inserts the suggestion into the input.
func RenderSuggestions(theme *styles.Theme, width int) string {
	chips := make([]string, 0, len(Suggestions))
	for i, s := range Suggestions {
		label := theme.Hint.Render("["+digit(i+1)+"] ") + s
		chips = append(chips, theme.Chip.Render(label))
	}

	// Two per row when narrow, one row when wide.
	if width >= 90 {
		return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
	}
	var rows []string
	for i := 0; i < len(chips); i += 2 {
		end := i + 2
		if end > len(chips) {
			end = len(chips)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, chips[i:end]...))
	}
	return strings.Join(rows, "\n")
}

func digit(n int) string {
	return string(rune('0' + n))
}
