// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history maintains the in-memory sidebar index of sessions.
//
// The index holds summary rows only - title and last message per
// session - never full transcripts. It lives for the process lifetime
// and is deliberately not persisted.
package history

import (
	"sync"
	"time"

	"github.com/Mr-himansu2403/AI.BH/internal/util"
)

// TitleMaxRunes is the rune budget for a derived title before the
// truncation marker is appended.
const TitleMaxRunes = 30

// Entry is one sidebar row. SessionID is unique across the index.
type Entry struct {
	SessionID   string
	Title       string
	LastMessage string
	UpdatedAt   time.Time
}

// Index maps session identifiers to summary entries. Safe for
// concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // session IDs in insertion order of first appearance
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]*Entry),
	}
}

// Upsert records activity for a session. An existing entry keeps its
// title and position; only LastMessage and UpdatedAt change. A new
// entry derives its title from the user's text, truncated to
// TitleMaxRunes with an ellipsis marker when longer.
func (idx *Index) Upsert(sessionID, userText, assistantText string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if entry, ok := idx.entries[sessionID]; ok {
		entry.LastMessage = assistantText
		entry.UpdatedAt = time.Now()
		return
	}

	idx.entries[sessionID] = &Entry{
		SessionID:   sessionID,
		Title:       util.Ellipsize(userText, TitleMaxRunes),
		LastMessage: assistantText,
		UpdatedAt:   time.Now(),
	}
	idx.order = append(idx.order, sessionID)
}

// Get returns a copy of the entry for a session, if present.
func (idx *Index) Get(sessionID string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entry, ok := idx.entries[sessionID]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// List returns entries in insertion order of first appearance. Updates
// do not re-sort; the sidebar keeps a stable ordering through a
// conversation's lifetime.
func (idx *Index) List() []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]Entry, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, *idx.entries[id])
	}
	return out
}

// Delete removes a session's entry. Removing an absent session is a
// no-op.
func (idx *Index) Delete(sessionID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.entries[sessionID]; !ok {
		return
	}
	delete(idx.entries, sessionID)
	for i, id := range idx.order {
		if id == sessionID {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
