// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FAKE ENGINES
// =============================================================================

type fakeSynth struct {
	mu      sync.Mutex
	spoken  []string
	voices  []Voice
	block   chan struct{} // when non-nil, Speak blocks until closed or ctx done
	cancels int
}

func (f *fakeSynth) Speak(ctx context.Context, voice, text string) error {
	if f.block != nil {
		select {
		case <-ctx.Done():
			f.mu.Lock()
			f.cancels++
			f.mu.Unlock()
			return ctx.Err()
		case <-f.block:
		}
	}
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	return nil
}

func (f *fakeSynth) Voices() []Voice { return f.voices }

func (f *fakeSynth) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

type fakeRecog struct {
	transcript string
	err        error
	delay      time.Duration
}

func (f *fakeRecog) Listen(ctx context.Context) (string, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.transcript, f.err
}

// =============================================================================
// CAPABILITY TESTS
// =============================================================================

func TestAdapter_IsSupported(t *testing.T) {
	both := NewAdapter(&fakeSynth{}, &fakeRecog{}, nil)
	assert.True(t, both.IsSupported())

	synthOnly := NewAdapter(&fakeSynth{}, nil, nil)
	assert.False(t, synthOnly.IsSupported())
	assert.True(t, synthOnly.CanSpeak())

	neither := NewAdapter(nil, nil, nil)
	assert.False(t, neither.IsSupported())
	assert.False(t, neither.CanSpeak())
}

func TestAdapter_StartListening_Unsupported(t *testing.T) {
	a := NewAdapter(&fakeSynth{}, nil, nil)

	fired := false
	err := a.StartListening(func(string) { fired = true }, func(error) { fired = true })

	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, a.IsListening(), "state must be unchanged")
	assert.False(t, fired, "no callback may fire for a rejected invocation")
}

// =============================================================================
// RECOGNITION LIFECYCLE TESTS
// =============================================================================

func TestAdapter_StartListening_Transcript(t *testing.T) {
	a := NewAdapter(&fakeSynth{}, &fakeRecog{transcript: "  hello world \n"}, nil)

	got := make(chan string, 1)
	require.NoError(t, a.StartListening(func(s string) { got <- s }, func(err error) {
		t.Errorf("onError fired: %v", err)
	}))

	select {
	case s := <-got:
		assert.Equal(t, "hello world", s, "transcript is trimmed and normalized")
	case <-time.After(time.Second):
		t.Fatal("transcript callback never fired")
	}

	// Implicit return to idle allows a second session.
	assert.Eventually(t, func() bool { return !a.IsListening() }, time.Second, 5*time.Millisecond)
}

func TestAdapter_StartListening_Error(t *testing.T) {
	wantErr := errors.New("mic broken")
	a := NewAdapter(&fakeSynth{}, &fakeRecog{err: wantErr}, nil)

	got := make(chan error, 1)
	require.NoError(t, a.StartListening(func(s string) {
		t.Errorf("onTranscript fired: %q", s)
	}, func(err error) { got <- err }))

	select {
	case err := <-got:
		assert.ErrorIs(t, err, wantErr)
	case <-time.After(time.Second):
		t.Fatal("error callback never fired")
	}
}

func TestAdapter_StartListening_WhileListening(t *testing.T) {
	a := NewAdapter(&fakeSynth{}, &fakeRecog{delay: 200 * time.Millisecond, transcript: "x"}, nil)

	require.NoError(t, a.StartListening(func(string) {}, nil))
	err := a.StartListening(func(string) {}, nil)
	assert.ErrorIs(t, err, ErrAlreadyListening)
}

func TestAdapter_StopListening_DropsLateResult(t *testing.T) {
	a := NewAdapter(&fakeSynth{}, &fakeRecog{delay: 50 * time.Millisecond, transcript: "late"}, nil)

	var fired sync.Map
	require.NoError(t, a.StartListening(
		func(s string) { fired.Store("transcript", s) },
		func(err error) { fired.Store("error", err) },
	))
	a.StopListening()
	assert.False(t, a.IsListening())

	time.Sleep(150 * time.Millisecond)
	_, gotT := fired.Load("transcript")
	_, gotE := fired.Load("error")
	assert.False(t, gotT, "stop wins; the late transcript is ignored")
	assert.False(t, gotE, "cancellation must not surface as an error")
}

func TestAdapter_StopListening_Idempotent(t *testing.T) {
	a := NewAdapter(&fakeSynth{}, &fakeRecog{}, nil)
	a.StopListening()
	a.StopListening()
	assert.False(t, a.IsListening())
}

// =============================================================================
// SYNTHESIS TESTS
// =============================================================================

func TestAdapter_Speak(t *testing.T) {
	synth := &fakeSynth{}
	a := NewAdapter(synth, &fakeRecog{}, nil)

	require.NoError(t, a.Speak("hello"))
	assert.Eventually(t, func() bool {
		return len(synth.spokenTexts()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestAdapter_Speak_Unsupported(t *testing.T) {
	a := NewAdapter(nil, &fakeRecog{}, nil)
	assert.ErrorIs(t, a.Speak("hello"), ErrUnsupported)
}

func TestAdapter_Speak_BlankIsNoop(t *testing.T) {
	synth := &fakeSynth{}
	a := NewAdapter(synth, nil, nil)
	require.NoError(t, a.Speak("   "))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, synth.spokenTexts())
}

func TestAdapter_Speak_CancelsPrevious(t *testing.T) {
	synth := &fakeSynth{block: make(chan struct{})}
	a := NewAdapter(synth, nil, nil)

	require.NoError(t, a.Speak("first"))
	require.NoError(t, a.Speak("second"))

	// The first utterance must have been cancelled.
	assert.Eventually(t, func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return synth.cancels >= 1
	}, time.Second, 5*time.Millisecond)

	close(synth.block)
	assert.Eventually(t, func() bool {
		texts := synth.spokenTexts()
		return len(texts) == 1 && texts[0] == "second"
	}, time.Second, 5*time.Millisecond)
}

func TestAdapter_StopSpeaking_Idempotent(t *testing.T) {
	synth := &fakeSynth{block: make(chan struct{})}
	a := NewAdapter(synth, nil, nil)

	require.NoError(t, a.Speak("long speech"))
	a.StopSpeaking()
	a.StopSpeaking()

	assert.Eventually(t, func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return synth.cancels >= 1
	}, time.Second, 5*time.Millisecond)
}

// =============================================================================
// VOICE SELECTION TESTS
// =============================================================================

func TestChooseVoice(t *testing.T) {
	voices := []Voice{
		{Name: "Anna", Lang: "de_DE"},
		{Name: "Google UK English", Lang: "en-GB"},
		{Name: "Samantha", Lang: "en_US"},
	}

	// Marker order is the preference order.
	assert.Equal(t, "Google UK English", ChooseVoice(voices, []string{"Google", "en"}))
	assert.Equal(t, "Google UK English", ChooseVoice(voices, []string{"Microsoft", "google"}))
	assert.Equal(t, "Anna", ChooseVoice(voices, []string{"de"}))

	// No match falls back to the platform default.
	assert.Equal(t, "", ChooseVoice(voices, []string{"fr"}))
	assert.Equal(t, "", ChooseVoice(nil, []string{"en"}))
}

func TestChooseVoice_AnyVoiceWhenAvailable(t *testing.T) {
	// Environment-dependent inventories: only assert that some voice is
	// selected when a marker matches, not which one.
	voices := []Voice{{Name: "Voice1", Lang: "en_US"}, {Name: "Voice2", Lang: "en_GB"}}
	got := ChooseVoice(voices, []string{"en"})
	assert.NotEmpty(t, got)
}

// =============================================================================
// ENGINE PARSING TESTS
// =============================================================================

func TestParseSayVoices(t *testing.T) {
	out := "Alex                en_US    # Most people recognize me by my voice.\n" +
		"Anna                de_DE    # Hallo! Mein Name ist Anna.\n" +
		"\n"
	voices := parseSayVoices(out)
	require.Len(t, voices, 2)
	assert.Equal(t, Voice{Name: "Alex", Lang: "en_US"}, voices[0])
	assert.Equal(t, Voice{Name: "Anna", Lang: "de_DE"}, voices[1])
}

func TestParseEspeakVoices(t *testing.T) {
	out := "Pty Language Age/Gender VoiceName          File          Other Languages\n" +
		" 5  af             M  afrikaans            other/af      \n" +
		" 2  en-gb          M  english              en            (en 2)\n"
	voices := parseEspeakVoices(out)
	require.Len(t, voices, 2)
	assert.Equal(t, Voice{Name: "afrikaans", Lang: "af"}, voices[0])
	assert.Equal(t, Voice{Name: "english", Lang: "en-gb"}, voices[1])
}

func TestDetectRecognizer_Empty(t *testing.T) {
	assert.Nil(t, DetectRecognizer(""))
	assert.Nil(t, DetectRecognizer("   "))
	assert.Nil(t, DetectRecognizer("definitely-not-a-real-command-12345"))
}
