// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides the landing, login, and signup screens.
package auth

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	accounts "github.com/Mr-himansu2403/AI.BH/internal/auth"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/styles"
)

// =============================================================================
// SCREENS
// =============================================================================

// Screen identifies which auth view is showing.
type Screen int

const (
	ScreenLanding Screen = iota
	ScreenLogin
	ScreenSignup
)

// AuthenticatedMsg is emitted when a login or signup succeeds. The
// parent swaps to the chat screen.
type AuthenticatedMsg struct {
	User *accounts.User
}

// =============================================================================
// MODEL
// =============================================================================

// Model drives the pre-chat flow: landing page with Login / Sign Up,
// then the chosen credential form. Authentication is synchronous
// against the local store, so no async command is needed.
type Model struct {
	theme   *styles.Theme
	service *accounts.Service

	screen Screen
	inputs []textinput.Model
	focus  int
	errMsg string

	width  int
	height int

	// landingChoice: 0 = Login, 1 = Sign Up.
	landingChoice int
}

// New builds the auth flow starting at the landing screen.
func New(theme *styles.Theme, service *accounts.Service) *Model {
	return &Model{theme: theme, service: service}
}

// Init satisfies tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize propagates terminal dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// =============================================================================
// FORM SETUP
// =============================================================================

func newField(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.Width = 36
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

func (m *Model) enterLogin() {
	m.screen = ScreenLogin
	m.errMsg = ""
	m.inputs = []textinput.Model{
		newField("Email", false),
		newField("Password", true),
	}
	m.focus = 0
	m.inputs[0].Focus()
}

func (m *Model) enterSignup() {
	m.screen = ScreenSignup
	m.errMsg = ""
	m.inputs = []textinput.Model{
		newField("Full name", false),
		newField("Email", false),
		newField("Password", true),
	}
	m.focus = 0
	m.inputs[0].Focus()
}

func (m *Model) enterLanding() {
	m.screen = ScreenLanding
	m.errMsg = ""
	m.inputs = nil
	m.focus = 0
}

// =============================================================================
// UPDATE
// =============================================================================

// Update processes one message.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch m.screen {
		case ScreenLanding:
			return m.updateLanding(msg)
		default:
			return m.updateForm(msg)
		}
	}
	return m, m.updateInputs(msg)
}

func (m *Model) updateLanding(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "left", "up", "shift+tab":
		m.landingChoice = 0
	case "right", "down", "tab":
		m.landingChoice = 1
	case "l":
		m.enterLogin()
	case "s":
		m.enterSignup()
	case "enter":
		if m.landingChoice == 0 {
			m.enterLogin()
		} else {
			m.enterSignup()
		}
	}
	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.enterLanding()
		return m, nil

	case "tab", "down":
		m.setFocus(m.focus + 1)
		return m, nil

	case "shift+tab", "up":
		m.setFocus(m.focus - 1)
		return m, nil

	case "enter":
		// Enter advances through fields; on the last field it submits.
		if m.focus < len(m.inputs)-1 {
			m.setFocus(m.focus + 1)
			return m, nil
		}
		return m.submit()
	}
	return m, m.updateInputs(msg)
}

func (m *Model) setFocus(i int) {
	n := len(m.inputs)
	if n == 0 {
		return
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	m.focus = i
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

// submit runs the credential check. Failures render inline under the
// form; success hands the user to the parent.
func (m *Model) submit() (*Model, tea.Cmd) {
	var result accounts.Result
	switch m.screen {
	case ScreenLogin:
		result = m.service.Login(m.inputs[0].Value(), m.inputs[1].Value())
	case ScreenSignup:
		result = m.service.Signup(m.inputs[0].Value(), m.inputs[1].Value(), m.inputs[2].Value())
	default:
		return m, nil
	}

	if !result.Success {
		m.errMsg = result.Err
		return m, nil
	}
	user := result.User
	return m, func() tea.Msg { return AuthenticatedMsg{User: user} }
}
