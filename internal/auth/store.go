// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Mr-himansu2403/AI.BH/internal/util"
)

// credentialsFile is the only durable state this client keeps: the
// session token and user, plus locally registered accounts.
const credentialsFile = "credentials.json"

// Session is the persisted token/user pair that survives restarts.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Account is a locally registered identity. Only the bcrypt hash of
// the password is kept.
type Account struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}

// storeFile is the on-disk layout of the credential store.
type storeFile struct {
	Session  *Session  `json:"session,omitempty"`
	Accounts []Account `json:"accounts,omitempty"`
}

// Store reads and writes the credential file. Safe for concurrent use.
type Store struct {
	path string

	mu   sync.Mutex
	data storeFile
}

// NewStore opens (or initializes) the credential store at dir.
func NewStore(dir string) (*Store, error) {
	s := &Store{path: filepath.Join(dir, credentialsFile)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	if err := json.Unmarshal(data, &s.data); err != nil {
		// A corrupt file is discarded rather than blocking sign-in.
		s.data = storeFile{}
	}
	return nil
}

// SECURITY: The file carries a session token; owner-only on every write.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return util.AtomicWriteFile(s.path, data, 0600)
}

// Session returns the persisted session, if one exists.
func (s *Store) Session() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Session == nil || s.data.Session.Token == "" {
		return nil, false
	}
	sess := *s.data.Session
	return &sess, true
}

// SaveSession persists the token/user pair.
func (s *Store) SaveSession(token string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Session = &Session{Token: token, User: user}
	return s.flushLocked()
}

// ClearSession removes the persisted session. Idempotent.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Session == nil {
		return nil
	}
	s.data.Session = nil
	return s.flushLocked()
}

// Account looks up a registered account by email (case-insensitive).
func (s *Store) Account(email string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.data.Accounts {
		if strings.EqualFold(a.Email, email) {
			return a, true
		}
	}
	return Account{}, false
}

// SaveAccount registers or replaces an account.
func (s *Store) SaveAccount(account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.data.Accounts {
		if strings.EqualFold(a.Email, account.Email) {
			s.data.Accounts[i] = account
			return s.flushLocked()
		}
	}
	s.data.Accounts = append(s.data.Accounts, account)
	return s.flushLocked()
}
