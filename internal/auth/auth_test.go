// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	return NewService(store), dir
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Login("jordan@example.com", "hunter2")
	require.True(t, res.Success)
	assert.Empty(t, res.Err)
	assert.True(t, strings.HasPrefix(res.Token, "mock-jwt-token-"))
	require.NotNil(t, res.User)
	assert.Equal(t, "jordan", res.User.Name, "name derives from the email local part")
	assert.Equal(t, "jordan@example.com", res.User.Email)
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _ := newTestService(t)

	for _, tc := range []struct{ email, password string }{
		{"", ""},
		{"x@y.com", ""},
		{"", "pw"},
		{"   ", "pw"},
	} {
		res := svc.Login(tc.email, tc.password)
		assert.False(t, res.Success)
		assert.Equal(t, "Invalid credentials", res.Err)
		assert.Empty(t, res.Token)
	}
}

func TestLogin_VerifiesRegisteredPassword(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Signup("Sam", "sam@example.com", "correct-horse")
	require.True(t, res.Success)

	bad := svc.Login("sam@example.com", "wrong")
	assert.False(t, bad.Success)
	assert.Equal(t, "Invalid credentials", bad.Err)

	good := svc.Login("sam@example.com", "correct-horse")
	assert.True(t, good.Success)
}

// =============================================================================
// SIGNUP TESTS
// =============================================================================

func TestSignup_Success(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Signup("Riley", "riley@example.com", "pw123")
	require.True(t, res.Success)
	assert.Equal(t, "Riley", res.User.Name)
	assert.True(t, strings.HasPrefix(res.Token, "mock-jwt-token-"))
}

func TestSignup_MissingFields(t *testing.T) {
	svc, _ := newTestService(t)

	for _, tc := range []struct{ name, email, password string }{
		{"", "a@b.c", "pw"},
		{"n", "", "pw"},
		{"n", "a@b.c", ""},
	} {
		res := svc.Signup(tc.name, tc.email, tc.password)
		assert.False(t, res.Success)
		assert.Equal(t, "All fields are required", res.Err)
	}
}

func TestSignup_PasswordNotStoredInPlaintext(t *testing.T) {
	svc, dir := newTestService(t)

	require.True(t, svc.Signup("Sam", "sam@example.com", "sekrit-password").Success)

	raw, err := os.ReadFile(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sekrit-password")
}

// =============================================================================
// SESSION PERSISTENCE TESTS
// =============================================================================

func TestSessionRoundTrip(t *testing.T) {
	svc, dir := newTestService(t)

	res := svc.Login("casey@example.com", "pw")
	require.True(t, res.Success)

	// A fresh store over the same directory sees the session.
	store2, err := NewStore(dir)
	require.NoError(t, err)
	sess, ok := store2.Session()
	require.True(t, ok)
	assert.Equal(t, res.Token, sess.Token)
	assert.Equal(t, "casey", sess.User.Name)
}

func TestLogout_ClearsSession(t *testing.T) {
	svc, dir := newTestService(t)

	require.True(t, svc.Login("casey@example.com", "pw").Success)
	require.NoError(t, svc.Logout())

	_, ok := svc.Current()
	assert.False(t, ok)

	store2, err := NewStore(dir)
	require.NoError(t, err)
	_, ok = store2.Session()
	assert.False(t, ok, "logout must clear the persisted session")

	// Logout is idempotent.
	require.NoError(t, svc.Logout())
}

func TestStore_FilePermissions(t *testing.T) {
	svc, dir := newTestService(t)
	require.True(t, svc.Login("a@b.c", "pw").Success)

	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_CorruptFileDiscarded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.json"), []byte("{not json"), 0600))

	store, err := NewStore(dir)
	require.NoError(t, err, "a corrupt file must not block sign-in")
	_, ok := store.Session()
	assert.False(t, ok)
}
