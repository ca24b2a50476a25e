// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accounts "github.com/Mr-himansu2403/AI.BH/internal/auth"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/styles"
)

func newTestFlow(t *testing.T) *Model {
	t.Helper()
	store, err := accounts.NewStore(t.TempDir())
	require.NoError(t, err)
	return New(styles.NewTheme("dark"), accounts.NewService(store))
}

func TestLandingNavigation(t *testing.T) {
	m := newTestFlow(t)
	assert.Equal(t, ScreenLanding, m.screen)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	assert.Equal(t, ScreenLogin, m.screen)
	assert.Len(t, m.inputs, 2)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ScreenLanding, m.screen)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	assert.Equal(t, ScreenSignup, m.screen)
	assert.Len(t, m.inputs, 3)
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	m := newTestFlow(t)
	m.enterLogin()

	m, cmd := m.submit()
	assert.Nil(t, cmd)
	assert.Equal(t, "Invalid credentials", m.errMsg)
}

func TestLoginSuccessEmitsAuthenticated(t *testing.T) {
	m := newTestFlow(t)
	m.enterLogin()
	m.inputs[0].SetValue("dana@example.com")
	m.inputs[1].SetValue("hunter2")

	m, cmd := m.submit()
	require.NotNil(t, cmd)
	msg, ok := cmd().(AuthenticatedMsg)
	require.True(t, ok)
	assert.Equal(t, "dana@example.com", msg.User.Email)
	assert.Empty(t, m.errMsg)
}

func TestSignupRequiresAllFields(t *testing.T) {
	m := newTestFlow(t)
	m.enterSignup()
	m.inputs[0].SetValue("Dana")
	m.inputs[1].SetValue("dana@example.com")

	m, cmd := m.submit()
	assert.Nil(t, cmd)
	assert.Equal(t, "All fields are required", m.errMsg)
}

func TestEnterAdvancesThenSubmits(t *testing.T) {
	m := newTestFlow(t)
	m.enterLogin()
	assert.Equal(t, 0, m.focus)

	m, _ = m.updateForm(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, m.focus)

	m.inputs[0].SetValue("dana@example.com")
	m.inputs[1].SetValue("hunter2")
	_, cmd := m.updateForm(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
}

func TestErrorClearedOnScreenChange(t *testing.T) {
	m := newTestFlow(t)
	m.enterLogin()
	m, _ = m.submit()
	require.NotEmpty(t, m.errMsg)

	m.enterLanding()
	m.enterLogin()
	assert.Empty(t, m.errMsg)
}
