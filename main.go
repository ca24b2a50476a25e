// AI.BH - a terminal client for the AI.BH chat assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/Mr-himansu2403/AI.BH/internal/aibh"
	"github.com/Mr-himansu2403/AI.BH/internal/auth"
	"github.com/Mr-himansu2403/AI.BH/internal/cli"
	"github.com/Mr-himansu2403/AI.BH/internal/config"
	"github.com/Mr-himansu2403/AI.BH/internal/history"
	"github.com/Mr-himansu2403/AI.BH/internal/session"
	"github.com/Mr-himansu2403/AI.BH/internal/speech"
	"github.com/Mr-himansu2403/AI.BH/internal/ui"
	"github.com/Mr-himansu2403/AI.BH/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		plain    = flag.Bool("plain", false, "run the line-oriented REPL instead of the full TUI")
		noSpeech = flag.Bool("no-speech", false, "disable voice input and output")
		apiURL   = flag.String("api-url", "", "override the backend base URL")
		theme    = flag.String("theme", "", "force color mode: dark or light")
		version  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("AI.BH %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *noSpeech {
		cfg.Speech.Enabled = false
	}
	if *theme != "" {
		cfg.UI.Theme = *theme
	}
	config.SetGlobal(cfg)

	setupLogging(cfg)

	client := aibh.NewClient(cfg.API.BaseURL).
		WithAPIKey(cfg.API.APIKey).
		WithTimeout(cfg.Timeout()).
		WithMaxResponseSize(cfg.API.MaxResponseBytes).
		WithRateLimit(cfg.API.RequestsPerSecond)

	voice := buildVoice(cfg)
	index := history.NewIndex()
	ctrl := session.NewController(client, voice, index, session.Options{
		SpeakReplies: cfg.Speech.Enabled && cfg.Speech.SpeakReplies,
	})

	if *plain || cfg.UI.Plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		runPlain(ctrl, client, voice, index)
		return
	}
	runTUI(cfg, ctrl, client, voice, index)
}

// watchConfig starts the fsnotify reload loop, delivering each
// successfully reloaded config to apply. Watch failures are non-fatal;
// the process just runs on the startup config.
func watchConfig(apply func(*config.Config)) *config.Watcher {
	watcher, err := config.NewWatcher(500*time.Millisecond, apply)
	if err != nil {
		return nil
	}
	if err := watcher.Watch(); err != nil {
		watcher.Close()
		return nil
	}
	return watcher
}

// =============================================================================
// MODES
// =============================================================================

func runTUI(cfg *config.Config, ctrl *session.Controller, client *aibh.Client, voice *speech.Adapter, index *history.Index) {
	dir, err := config.ConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := auth.NewStore(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening credential store: %v\n", err)
		os.Exit(1)
	}

	app := ui.NewApp(ui.Deps{
		Theme:   styles.NewTheme(cfg.UI.Theme),
		Auth:    auth.NewService(store),
		Client:  client,
		Voice:   voice,
		Index:   index,
		Ctrl:    ctrl,
		ShowSug: cfg.UI.ShowSuggestions,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())

	// Config edits land in the running program as messages.
	if watcher := watchConfig(func(reloaded *config.Config) {
		p.Send(ui.ConfigReloadedMsg{Cfg: reloaded})
	}); watcher != nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPlain(ctrl *session.Controller, client *aibh.Client, voice *speech.Adapter, index *history.Index) {
	var service *auth.Service
	if dir, err := config.ConfigDir(); err == nil {
		if store, err := auth.NewStore(dir); err == nil {
			service = auth.NewService(store)
		}
	}

	// No message loop here, so a reload re-points the client directly.
	if watcher := watchConfig(func(reloaded *config.Config) {
		client.Reconfigure(reloaded.API.BaseURL, reloaded.API.APIKey, reloaded.Timeout(), reloaded.API.RequestsPerSecond)
	}); watcher != nil {
		defer watcher.Close()
	}

	color := term.IsTerminal(int(os.Stdout.Fd()))
	r := cli.New(ctrl, client, voice, index, service, os.Stdout, color)
	if err := r.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// WIRING
// =============================================================================

// buildVoice probes the host for speech engines. Either half may be
// missing; the adapter reports what it can do.
func buildVoice(cfg *config.Config) *speech.Adapter {
	if !cfg.Speech.Enabled {
		return speech.NewAdapter(nil, nil, nil)
	}
	var synth speech.Synthesizer
	if s := speech.DetectSynthesizer(cfg.Speech.SynthesisCommand); s != nil {
		synth = s
	}
	var recog speech.Recognizer
	if r := speech.DetectRecognizer(cfg.Speech.RecognitionCommand); r != nil {
		recog = r
	}
	return speech.NewAdapter(synth, recog, cfg.Speech.VoiceMarkers)
}

// setupLogging sends the standard logger to the configured file so
// stray log output cannot corrupt the TUI.
func setupLogging(cfg *config.Config) {
	if cfg.Log.File == "" {
		log.SetOutput(os.Stderr)
		return
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file: %v\n", err)
		return
	}
	log.SetOutput(f)
}
