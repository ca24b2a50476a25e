// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// =============================================================================
// SYNTHESIS ENGINE DISCOVERY
// =============================================================================

// synthesisCommands are probed in order; the first present on PATH
// wins. An explicit config override bypasses the probe.
var synthesisCommands = []string{"say", "espeak-ng", "espeak", "spd-say"}

// CommandSynthesizer shells out to a platform text-to-speech command.
type CommandSynthesizer struct {
	command string

	voicesOnce sync.Once
	voices     []Voice
}

// DetectSynthesizer probes the platform for a text-to-speech command.
// override, when non-empty, names the command to use instead. Returns
// nil when nothing is available.
func DetectSynthesizer(override string) *CommandSynthesizer {
	if override != "" {
		if _, err := exec.LookPath(override); err == nil {
			return &CommandSynthesizer{command: override}
		}
		return nil
	}
	for _, cmd := range synthesisCommands {
		if _, err := exec.LookPath(cmd); err == nil {
			return &CommandSynthesizer{command: cmd}
		}
	}
	return nil
}

// Command returns the underlying command name.
func (s *CommandSynthesizer) Command() string {
	return s.command
}

// Speak blocks until the utterance finishes or ctx is cancelled.
func (s *CommandSynthesizer) Speak(ctx context.Context, voice, text string) error {
	args := s.speakArgs(voice, text)
	cmd := exec.CommandContext(ctx, s.command, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", s.command, err)
	}
	return nil
}

func (s *CommandSynthesizer) speakArgs(voice, text string) []string {
	switch s.command {
	case "say":
		if voice != "" {
			return []string{"-v", voice, text}
		}
		return []string{text}
	case "espeak", "espeak-ng":
		if voice != "" {
			return []string{"-v", voice, text}
		}
		return []string{text}
	case "spd-say":
		// -w waits for the utterance to finish, matching the blocking
		// contract the other engines have.
		return []string{"-w", text}
	default:
		return []string{text}
	}
}

// Voices lists the engine's voices. The list is probed once and
// cached; engines without a listing interface report none.
func (s *CommandSynthesizer) Voices() []Voice {
	s.voicesOnce.Do(func() {
		switch s.command {
		case "say":
			s.voices = parseSayVoices(s.runForOutput("-v", "?"))
		case "espeak", "espeak-ng":
			s.voices = parseEspeakVoices(s.runForOutput("--voices"))
		}
	})
	return s.voices
}

func (s *CommandSynthesizer) runForOutput(args ...string) string {
	var out bytes.Buffer
	cmd := exec.Command(s.command, args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	return out.String()
}

// parseSayVoices parses `say -v ?` output: "Alex  en_US  # comment".
func parseSayVoices(out string) []Voice {
	var voices []Voice
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		voices = append(voices, Voice{Name: fields[0], Lang: fields[1]})
	}
	return voices
}

// parseEspeakVoices parses `espeak --voices` table output. The first
// line is a header; language sits in column 2, voice name in column 4.
func parseEspeakVoices(out string) []Voice {
	lines := strings.Split(out, "\n")
	var voices []Voice
	for i, line := range lines {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{Name: fields[3], Lang: fields[1]})
	}
	return voices
}

// =============================================================================
// RECOGNITION ENGINE
// =============================================================================

// CommandRecognizer runs an operator-configured transcriber command
// that captures one utterance from the microphone and prints the
// transcript to stdout.
type CommandRecognizer struct {
	command string
	args    []string
}

// DetectRecognizer builds a recognizer from the configured command
// line. There is no portable default microphone transcriber to probe
// for, so an empty command means recognition is unsupported.
func DetectRecognizer(commandLine string) *CommandRecognizer {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil
	}
	return &CommandRecognizer{command: fields[0], args: fields[1:]}
}

// Listen blocks until the transcriber exits or ctx is cancelled.
func (r *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%s failed: %w", r.command, err)
	}
	return out.String(), nil
}
