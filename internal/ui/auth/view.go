// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const tagline = "Your intelligent assistant for learning, building, and solving."

// View renders the current auth screen centered in the terminal.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case ScreenLanding:
		body = m.viewLanding()
	case ScreenLogin:
		body = m.viewForm("Welcome back", "Login")
	case ScreenSignup:
		body = m.viewForm("Create your account", "Sign Up")
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m *Model) viewLanding() string {
	var b strings.Builder
	b.WriteString(m.theme.Banner.Render("AI.BH"))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Hint.Render(tagline))
	b.WriteString("\n\n")

	login := m.theme.FormButton.Render("  Login  ")
	signup := m.theme.FormButton.Render(" Sign Up ")
	if m.landingChoice == 0 {
		login = m.theme.FormButton.Reverse(true).Render("  Login  ")
	} else {
		signup = m.theme.FormButton.Reverse(true).Render(" Sign Up ")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, login, "   ", signup))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Hint.Render("enter select · l login · s sign up · q quit"))
	return b.String()
}

func (m *Model) viewForm(title, submitLabel string) string {
	var b strings.Builder
	b.WriteString(m.theme.Banner.Render("AI.BH"))
	b.WriteString("\n\n")
	b.WriteString(m.theme.FormLabel.Render(title))
	b.WriteString("\n\n")

	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.FormError.Render(m.errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.FormButton.Render(" " + submitLabel + " "))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Hint.Render("enter submit · tab next field · esc back"))
	return b.String()
}
