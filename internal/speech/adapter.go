// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech presents a uniform capability surface over platform
// speech services, which may be absent entirely.
//
// Synthesis wraps whatever text-to-speech command the host provides
// (say, espeak-ng, spd-say); recognition wraps an operator-configured
// transcriber command. Both are optional: every caller must treat the
// whole feature as best-effort and check IsSupported before use.
package speech

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Errors returned by the adapter.
var (
	// ErrUnsupported indicates the required platform primitive is absent.
	ErrUnsupported = errors.New("speech capability unavailable")

	// ErrAlreadyListening indicates a recognition session is in progress.
	ErrAlreadyListening = errors.New("already listening")
)

// =============================================================================
// ENGINE INTERFACES
// =============================================================================

// Voice identifies one synthesis voice offered by the platform engine.
type Voice struct {
	Name string
	Lang string
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	// Speak blocks until the utterance finishes or ctx is cancelled.
	Speak(ctx context.Context, voice, text string) error

	// Voices lists available voices. May be empty.
	Voices() []Voice
}

// Recognizer captures one utterance from the microphone.
type Recognizer interface {
	// Listen blocks until a transcript is produced, an error occurs, or
	// ctx is cancelled.
	Listen(ctx context.Context) (string, error)
}

// =============================================================================
// ADAPTER
// =============================================================================

// listenState tracks the recognition lifecycle.
type listenState int

const (
	stateIdle listenState = iota
	stateListening
)

// Adapter is the capability surface. Safe for concurrent use; all
// transitions are serialized under one mutex.
type Adapter struct {
	synth Synthesizer
	recog Recognizer

	// voiceMarkers drive the voice selection heuristic.
	voiceMarkers []string

	mu    sync.Mutex
	state listenState

	// listenGen invalidates callbacks from superseded sessions: result,
	// error and stop race, the first wins, late arrivals are dropped.
	listenGen    int
	listenCancel context.CancelFunc

	speakGen    int
	speakCancel context.CancelFunc
}

// NewAdapter builds an adapter over the given engines. Either may be
// nil when the platform lacks the capability.
func NewAdapter(synth Synthesizer, recog Recognizer, voiceMarkers []string) *Adapter {
	return &Adapter{
		synth:        synth,
		recog:        recog,
		voiceMarkers: voiceMarkers,
	}
}

// IsSupported reports whether voice features can be offered: true only
// when both recognition and synthesis are present.
func (a *Adapter) IsSupported() bool {
	return a.synth != nil && a.recog != nil
}

// CanSpeak reports whether synthesis alone is available. Spoken
// replies only need this half.
func (a *Adapter) CanSpeak() bool {
	return a.synth != nil
}

// =============================================================================
// RECOGNITION
// =============================================================================

// StartListening begins a single-utterance recognition session.
// Exactly one of onTranscript/onError fires per accepted invocation,
// after which the adapter is idle again. Rejected invocations
// (unsupported, already listening) fire neither callback and leave
// state unchanged.
func (a *Adapter) StartListening(onTranscript func(string), onError func(error)) error {
	if !a.IsSupported() {
		return ErrUnsupported
	}

	a.mu.Lock()
	if a.state == stateListening {
		a.mu.Unlock()
		return ErrAlreadyListening
	}
	a.state = stateListening
	a.listenGen++
	gen := a.listenGen

	ctx, cancel := context.WithCancel(context.Background())
	a.listenCancel = cancel
	a.mu.Unlock()

	go func() {
		transcript, err := a.recog.Listen(ctx)

		a.mu.Lock()
		if a.listenGen != gen || a.state != stateListening {
			// A stop or a newer session won the race; drop this result.
			a.mu.Unlock()
			return
		}
		a.state = stateIdle
		a.listenCancel = nil
		a.mu.Unlock()

		if err != nil {
			if onError != nil && !errors.Is(err, context.Canceled) {
				onError(err)
			}
			return
		}
		if onTranscript != nil {
			// UNICODE: Transcriber output varies by engine; normalize so
			// downstream comparisons see one canonical form.
			onTranscript(strings.TrimSpace(norm.NFC.String(transcript)))
		}
	}()

	return nil
}

// StopListening cancels an in-progress recognition session. Idempotent;
// stopping while idle is a no-op. The cancelled session's callbacks
// never fire.
func (a *Adapter) StopListening() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateListening {
		return
	}
	a.state = stateIdle
	a.listenGen++
	if a.listenCancel != nil {
		a.listenCancel()
		a.listenCancel = nil
	}
}

// IsListening reports whether a recognition session is in progress.
func (a *Adapter) IsListening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateListening
}

// =============================================================================
// SYNTHESIS
// =============================================================================

// Speak utters text aloud, cancelling any currently-playing utterance
// first so at most one is audible at a time. Returns ErrUnsupported
// when no synthesizer is present. Playback is asynchronous.
func (a *Adapter) Speak(text string) error {
	if a.synth == nil {
		return ErrUnsupported
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	a.mu.Lock()
	if a.speakCancel != nil {
		a.speakCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.speakGen++
	gen := a.speakGen
	a.speakCancel = cancel
	a.mu.Unlock()

	voice := ChooseVoice(a.synth.Voices(), a.voiceMarkers)

	go func() {
		// Errors are swallowed: a failed utterance has no user-visible
		// fallback beyond silence.
		_ = a.synth.Speak(ctx, voice, text)
		cancel()

		a.mu.Lock()
		if a.speakGen == gen {
			a.speakCancel = nil
		}
		a.mu.Unlock()
	}()

	return nil
}

// StopSpeaking cancels the current utterance. Idempotent.
func (a *Adapter) StopSpeaking() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.speakCancel != nil {
		a.speakCancel()
		a.speakCancel = nil
	}
}
