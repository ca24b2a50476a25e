// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the plain-terminal REPL used when the full
// TUI is unavailable or disabled with --plain.
package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/Mr-himansu2403/AI.BH/internal/aibh"
	accounts "github.com/Mr-himansu2403/AI.BH/internal/auth"
	"github.com/Mr-himansu2403/AI.BH/internal/history"
	"github.com/Mr-himansu2403/AI.BH/internal/model"
	"github.com/Mr-himansu2403/AI.BH/internal/render"
	"github.com/Mr-himansu2403/AI.BH/internal/session"
	"github.com/Mr-himansu2403/AI.BH/internal/speech"
)

// =============================================================================
// REPL
// =============================================================================

// commands lists the REPL's slash commands for completion.
var commands = []string{
	"/new", "/history", "/open", "/clear", "/image", "/voice", "/stop",
	"/health", "/logout", "/help", "/quit",
}

// REPL is the line-oriented chat loop.
type REPL struct {
	ctrl   *session.Controller
	client *aibh.Client
	voice  *speech.Adapter
	index  *history.Index
	auth   *accounts.Service
	out    io.Writer
	color  bool

	mu       sync.Mutex
	rendered int // messages already printed for the active session
}

// New creates a REPL. auth may be nil when no credential store is
// available; color controls code-fence highlighting.
func New(ctrl *session.Controller, client *aibh.Client, voice *speech.Adapter, index *history.Index, auth *accounts.Service, out io.Writer, color bool) *REPL {
	return &REPL{
		ctrl:   ctrl,
		client: client,
		voice:  voice,
		index:  index,
		auth:   auth,
		out:    out,
		color:  color,
	}
}

// Run drives the loop until /quit or EOF.
func (r *REPL) Run() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		if !strings.HasPrefix(prefix, "/") {
			return nil
		}
		var out []string
		for _, c := range commands {
			if strings.HasPrefix(c, prefix) {
				out = append(out, c)
			}
		}
		return out
	})

	r.ctrl.SetOnNotice(func(notice string) {
		fmt.Fprintln(r.out, "! "+notice)
	})

	r.ctrl.StartNew()
	r.flushTranscript()

	for {
		input, err := line.Prompt("you> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := r.dispatch(input); quit {
				fmt.Fprintln(r.out, "Goodbye!")
				return nil
			}
			continue
		}

		r.send(input, "")
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func (r *REPL) dispatch(input string) (quit bool) {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		r.printHelp()

	case "/new":
		r.ctrl.StartNew()
		r.resetRendered()
		r.flushTranscript()

	case "/history":
		entries := r.index.List()
		if len(entries) == 0 {
			fmt.Fprintln(r.out, "No conversations yet")
			break
		}
		for i, e := range entries {
			fmt.Fprintf(r.out, "%2d. %s\n", i+1, e.Title)
		}

	case "/open":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: /open <number>")
			break
		}
		r.openEntry(args[0])

	case "/clear":
		ctx, cancel := context.WithTimeout(context.Background(), aibh.DefaultTimeout)
		defer cancel()
		if err := r.client.ClearHistory(ctx, r.ctrl.SessionID()); err != nil {
			fmt.Fprintln(r.out, "! Failed to clear history")
		} else {
			fmt.Fprintln(r.out, "History cleared")
		}

	case "/image":
		if len(args) == 0 {
			fmt.Fprintln(r.out, "usage: /image <path> [message]")
			break
		}
		r.sendImage(args[0], strings.Join(args[1:], " "))

	case "/voice":
		r.captureVoice()

	case "/stop":
		r.voice.StopListening()
		r.voice.StopSpeaking()

	case "/health":
		ctx, cancel := context.WithTimeout(context.Background(), aibh.DefaultTimeout)
		defer cancel()
		if _, err := r.client.Health(ctx); err == nil {
			fmt.Fprintln(r.out, "Backend: online")
		} else {
			fmt.Fprintln(r.out, "Backend: offline")
		}

	case "/logout":
		switch {
		case r.auth == nil:
			fmt.Fprintln(r.out, "No credential store available")
		case r.auth.Logout() != nil:
			fmt.Fprintln(r.out, "! Failed to log out")
		default:
			fmt.Fprintln(r.out, "Logged out")
		}

	default:
		fmt.Fprintf(r.out, "unknown command %s (try /help)\n", cmd)
	}
	return false
}

func (r *REPL) printHelp() {
	help := []string{
		"/new              start a new conversation",
		"/history          list past conversations",
		"/open <n>         resume conversation n from /history",
		"/clear            clear server-side history for this session",
		"/image <path> [m] send an image, optionally with a message",
		"/voice            capture one voice utterance into a message",
		"/stop             stop listening and speaking",
		"/health           check backend availability",
		"/logout           clear the stored session",
		"/quit             exit",
	}
	for _, h := range help {
		fmt.Fprintln(r.out, h)
	}
}

func (r *REPL) openEntry(arg string) {
	entries := r.index.List()
	n := 0
	for _, ch := range arg {
		if ch < '0' || ch > '9' {
			fmt.Fprintln(r.out, "usage: /open <number>")
			return
		}
		n = n*10 + int(ch-'0')
	}
	if n < 1 || n > len(entries) {
		fmt.Fprintf(r.out, "no conversation %d\n", n)
		return
	}
	r.ctrl.SelectSession(entries[n-1].SessionID)
	r.resetRendered()
	r.flushTranscript()
}

// =============================================================================
// SENDING
// =============================================================================

func (r *REPL) send(text, imageDataURL string) {
	r.flushTranscript() // anything seeded since last print
	err := r.ctrl.Send(context.Background(), text, imageDataURL)
	if err != nil && err != session.ErrEmptyMessage && err != session.ErrSendPending && err != session.ErrImageTooLarge {
		fmt.Fprintf(r.out, "! %v\n", err)
	}
	r.flushTranscript()
}

func (r *REPL) sendImage(path, message string) {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(r.out, "! Cannot read %s\n", filepath.Base(path))
		return
	}
	if info.Size() > aibh.MaxImagePayload {
		fmt.Fprintln(r.out, "! "+session.ImageTooLargeNotice)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(r.out, "! Cannot read %s\n", filepath.Base(path))
		return
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	r.send(message, dataURL)
}

// =============================================================================
// VOICE
// =============================================================================

// captureVoice records one utterance and sends it as a message.
func (r *REPL) captureVoice() {
	if !r.voice.IsSupported() {
		fmt.Fprintln(r.out, "! Speech recognition is not supported on this system")
		return
	}

	done := make(chan string, 1)
	fail := make(chan error, 1)
	err := r.voice.StartListening(
		func(transcript string) { done <- transcript },
		func(err error) { fail <- err },
	)
	if err != nil {
		fmt.Fprintln(r.out, "! Voice input failed. Please try again.")
		return
	}

	fmt.Fprintln(r.out, "Listening... (speak now)")
	select {
	case transcript := <-done:
		if strings.TrimSpace(transcript) == "" {
			fmt.Fprintln(r.out, "! Voice input failed. Please try again.")
			return
		}
		fmt.Fprintln(r.out, "Voice input captured!")
		r.send(transcript, "")
	case <-fail:
		fmt.Fprintln(r.out, "! Voice input failed. Please try again.")
	}
}

// =============================================================================
// TRANSCRIPT OUTPUT
// =============================================================================

func (r *REPL) resetRendered() {
	r.mu.Lock()
	r.rendered = 0
	r.mu.Unlock()
}

// flushTranscript prints messages appended since the last flush.
func (r *REPL) flushTranscript() {
	msgs := r.ctrl.Messages()

	r.mu.Lock()
	start := r.rendered
	if start > len(msgs) {
		start = 0
	}
	r.rendered = len(msgs)
	r.mu.Unlock()

	for _, msg := range msgs[start:] {
		r.printMessage(msg)
	}
}

func (r *REPL) printMessage(msg *model.Message) {
	label := msg.Role.DisplayName()
	body := msg.Text
	if msg.Role == model.RoleAssistant {
		body = render.Plain(body, r.color)
	}
	if msg.HasImage() {
		if body != "" {
			body += "\n[image attached]"
		} else {
			body = "[image attached]"
		}
	}
	fmt.Fprintf(r.out, "%s: %s\n", label, strings.TrimRight(body, "\n"))
}
