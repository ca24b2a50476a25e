// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements the client-side mock authentication flow.
//
// There is no auth server: signup records a local account, login
// verifies against it, and the "JWT" is a mock token. Failures are
// structured results for inline rendering, never returned as Go errors
// - only I/O problems with the credential store are errors.
package auth

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Failure messages rendered inline by the auth screens.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgFieldsRequired     = "All fields are required"
)

// User is the signed-in identity.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Result is the outcome of a login or signup attempt. Err is a
// display string, present only when Success is false.
type Result struct {
	Success bool
	Token   string
	User    *User
	Err     string
}

// Service performs mock authentication against the local credential
// store.
type Service struct {
	store *Store
}

// NewService creates an auth service over the given store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Login validates credentials and establishes a session. Any non-empty
// email/password pair is accepted unless a local account exists for the
// email, in which case the password must verify against its hash.
func (s *Service) Login(email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Result{Err: msgInvalidCredentials}
	}

	if account, ok := s.store.Account(email); ok {
		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
			return Result{Err: msgInvalidCredentials}
		}
	}

	user := &User{
		ID:    strconv.FormatInt(time.Now().UnixMilli(), 10),
		Name:  nameFromEmail(email),
		Email: email,
	}
	token := newToken()
	if err := s.store.SaveSession(token, user); err != nil {
		return Result{Err: "Failed to save session: " + err.Error()}
	}
	return Result{Success: true, Token: token, User: user}
}

// Signup registers a local account and establishes a session. All
// fields are required.
func (s *Service) Signup(name, email, password string) Result {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return Result{Err: msgFieldsRequired}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Result{Err: "Failed to register: " + err.Error()}
	}
	if err := s.store.SaveAccount(Account{Email: email, Name: name, PasswordHash: string(hash)}); err != nil {
		return Result{Err: "Failed to register: " + err.Error()}
	}

	user := &User{
		ID:    strconv.FormatInt(time.Now().UnixMilli(), 10),
		Name:  name,
		Email: email,
	}
	token := newToken()
	if err := s.store.SaveSession(token, user); err != nil {
		return Result{Err: "Failed to save session: " + err.Error()}
	}
	return Result{Success: true, Token: token, User: user}
}

// Logout clears the stored session. Idempotent.
func (s *Service) Logout() error {
	return s.store.ClearSession()
}

// Current returns the stored session, if any.
func (s *Service) Current() (*Session, bool) {
	return s.store.Session()
}

// newToken mints a mock bearer token.
func newToken() string {
	return "mock-jwt-token-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// nameFromEmail derives a display name from the local part of an
// email address.
func nameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
