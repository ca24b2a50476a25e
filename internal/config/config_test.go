// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AIBH_CONFIG_DIR", dir)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)
	return dir
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSeconds)
	assert.True(t, cfg.Speech.Enabled)
	assert.True(t, cfg.Speech.SpeakReplies)
	assert.Equal(t, "auto", cfg.UI.Theme)
	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// LOAD
// =============================================================================

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	useTempConfigDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().API.BaseURL, cfg.API.BaseURL)
}

func TestLoad_TOML(t *testing.T) {
	dir := useTempConfigDir(t)
	content := "[api]\nbase_url = \"https://chat.example.com/api\"\ntimeout_seconds = 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.TimeoutSeconds)
	// Unset fields keep defaults.
	assert.Equal(t, Default().API.MaxResponseBytes, cfg.API.MaxResponseBytes)
	assert.NotEmpty(t, cfg.Speech.VoiceMarkers)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := useTempConfigDir(t)
	content := `{"api":{"base_url":"http://json.example/api","timeout_seconds":7}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://json.example/api", cfg.API.BaseURL)
}

func TestLoad_TOMLWinsOverJSON(t *testing.T) {
	dir := useTempConfigDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[api]\nbase_url = \"http://toml.example/api\"\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"api":{"base_url":"http://json.example/api"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://toml.example/api", cfg.API.BaseURL)
}

func TestLoad_FixesLoosePermissions(t *testing.T) {
	dir := useTempConfigDir(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\n"), 0644))

	_, err := Load()
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	useTempConfigDir(t)
	t.Setenv("AIBH_API_URL", "http://env.example/api")
	t.Setenv("AIBH_API_KEY", "secret")
	t.Setenv("AIBH_SPEECH_DISABLED", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env.example/api", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.APIKey)
	assert.False(t, cfg.Speech.Enabled)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, true},
		{"non-http url", func(c *Config) { c.API.BaseURL = "ftp://x" }, true},
		{"zero timeout", func(c *Config) { c.API.TimeoutSeconds = 0 }, true},
		{"negative rate", func(c *Config) { c.API.RequestsPerSecond = -1 }, true},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, true},
		{"light theme", func(c *Config) { c.UI.Theme = "light" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =============================================================================
// SAVE / ROUND TRIP
// =============================================================================

func TestSaveRoundTrip(t *testing.T) {
	dir := useTempConfigDir(t)

	cfg := Default()
	cfg.API.BaseURL = "https://saved.example/api"
	cfg.UI.Theme = "dark"
	require.NoError(t, Save(cfg))

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example/api", loaded.API.BaseURL)
	assert.Equal(t, "dark", loaded.UI.Theme)
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

func TestGlobal(t *testing.T) {
	useTempConfigDir(t)

	cfg := Global()
	require.NotNil(t, cfg)
	assert.Same(t, cfg, Global())

	replacement := Default()
	replacement.UI.Theme = "light"
	SetGlobal(replacement)
	assert.Same(t, replacement, Global())
}
