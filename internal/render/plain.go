// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// Plain renders a reply for line-oriented output: text passes through
// untouched, fenced code blocks get ANSI syntax highlighting. color
// false (piped output) disables highlighting entirely.
func Plain(content string, color bool) string {
	if !color || !strings.Contains(content, "```") {
		return content
	}

	lines := strings.Split(content, "\n")
	var out []string
	var code []string
	var language string
	inBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			if inBlock {
				out = append(out, HighlightCode(strings.Join(code, "\n"), language))
				code = nil
				inBlock = false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inBlock = true
			}
			continue
		}
		if inBlock {
			code = append(code, line)
		} else {
			out = append(out, line)
		}
	}
	// An unterminated fence is emitted as-is.
	if inBlock {
		out = append(out, "```"+language)
		out = append(out, code...)
	}
	return strings.Join(out, "\n")
}

// HighlightCode applies ANSI syntax highlighting via chroma. Falls
// back to the raw code when the language cannot be tokenized.
func HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
