// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown_RenderNeverLosesContent(t *testing.T) {
	m := NewMarkdown(80)
	out := m.Render("# Title\n\nSome **bold** text.")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
}

func TestMarkdown_SetWidthClampsTiny(t *testing.T) {
	m := NewMarkdown(5)
	out := m.Render("hello world")
	assert.Contains(t, out, "hello")
}

func TestPlain_NoColorPassthrough(t *testing.T) {
	in := "text\n```go\nfunc main() {}\n```\nmore"
	assert.Equal(t, in, Plain(in, false))
}

func TestPlain_NoFencesPassthrough(t *testing.T) {
	in := "just a sentence"
	assert.Equal(t, in, Plain(in, true))
}

func TestPlain_HighlightsFencedBlock(t *testing.T) {
	in := "before\n```go\nfunc main() {}\n```\nafter"
	out := Plain(in, true)
	assert.Contains(t, out, "before")
	assert.Contains(t, out, "after")
	assert.Contains(t, out, "main")
	assert.NotContains(t, out, "```", "fence markers are consumed")
}

func TestPlain_UnterminatedFenceKept(t *testing.T) {
	in := "text\n```go\nfunc main() {}"
	out := Plain(in, true)
	assert.Contains(t, out, "```go")
	assert.Contains(t, out, "func main() {}")
}

func TestHighlightCode_FallsBackOnUnknown(t *testing.T) {
	code := "some opaque text"
	out := HighlightCode(code, "definitely-not-a-language")
	assert.Contains(t, stripANSI(out), "some opaque text")
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
