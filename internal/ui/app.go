// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui assembles the full-screen terminal application.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mr-himansu2403/AI.BH/internal/aibh"
	accounts "github.com/Mr-himansu2403/AI.BH/internal/auth"
	"github.com/Mr-himansu2403/AI.BH/internal/config"
	"github.com/Mr-himansu2403/AI.BH/internal/history"
	"github.com/Mr-himansu2403/AI.BH/internal/session"
	"github.com/Mr-himansu2403/AI.BH/internal/speech"
	authview "github.com/Mr-himansu2403/AI.BH/internal/ui/auth"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/chat"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/styles"
)

// ConfigReloadedMsg carries a config freshly loaded by the file
// watcher. The watcher pushes it into the program with tea.Program.Send.
type ConfigReloadedMsg struct {
	Cfg *config.Config
}

// stage identifies which top-level screen owns the terminal.
type stage int

const (
	stageAuth stage = iota
	stageChat
)

// Deps carries the wired collaborators the app needs.
type Deps struct {
	Theme   *styles.Theme
	Auth    *accounts.Service
	Client  *aibh.Client
	Voice   *speech.Adapter
	Index   *history.Index
	Ctrl    *session.Controller
	ShowSug bool
}

// App is the root model: auth flow first, chat after sign-in. An
// existing persisted session skips the auth screens entirely.
type App struct {
	deps Deps

	stage stage
	auth  *authview.Model
	chat  *chat.Model

	width  int
	height int
}

// NewApp builds the root model.
func NewApp(deps Deps) *App {
	app := &App{
		deps: deps,
		auth: authview.New(deps.Theme, deps.Auth),
	}
	if sess, ok := deps.Auth.Current(); ok {
		app.enterChat(sess.User)
	}
	return app
}

// Init satisfies tea.Model.
func (a *App) Init() tea.Cmd {
	if a.stage == stageChat {
		return a.chat.Init()
	}
	return a.auth.Init()
}

// Update routes messages to the active screen.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.auth.SetSize(msg.Width, msg.Height)
		if a.chat != nil {
			a.chat.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case authview.AuthenticatedMsg:
		a.enterChat(msg.User)
		if a.width > 0 {
			a.chat.SetSize(a.width, a.height)
		}
		return a, a.chat.Init()

	case ConfigReloadedMsg:
		a.applyConfig(msg.Cfg)
		return a, nil

	case chat.LoggedOutMsg:
		a.logout()
		return a, a.auth.Init()
	}

	var cmd tea.Cmd
	switch a.stage {
	case stageAuth:
		a.auth, cmd = a.auth.Update(msg)
	case stageChat:
		a.chat, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

// View renders the active screen.
func (a *App) View() string {
	if a.stage == stageChat {
		return a.chat.View()
	}
	return a.auth.View()
}

// enterChat swaps to the chat screen and opens the first
// conversation, which seeds and (when synthesis is available) speaks
// the welcome greeting.
func (a *App) enterChat(user *accounts.User) {
	a.chat = chat.New(a.deps.Theme, a.deps.Ctrl, a.deps.Client, a.deps.Voice, a.deps.Index, user, a.deps.ShowSug)
	a.stage = stageChat
	a.deps.Ctrl.StartNew()
}

// logout clears the persisted session and returns to the landing
// screen with a fresh auth flow.
func (a *App) logout() {
	_ = a.deps.Auth.Logout()
	a.deps.Voice.StopListening()
	a.deps.Voice.StopSpeaking()
	a.chat = nil
	a.auth = authview.New(a.deps.Theme, a.deps.Auth)
	a.auth.SetSize(a.width, a.height)
	a.stage = stageAuth
}

// applyConfig pushes a hot-reloaded config into the live pieces: the
// shared theme, the API client, and the chat screen's chrome.
func (a *App) applyConfig(cfg *config.Config) {
	a.deps.Theme.ApplyMode(cfg.UI.Theme)
	a.deps.Client.Reconfigure(cfg.API.BaseURL, cfg.API.APIKey, cfg.Timeout(), cfg.API.RequestsPerSecond)
	if a.chat != nil {
		a.chat.SetShowSuggestions(cfg.UI.ShowSuggestions)
	}
}
