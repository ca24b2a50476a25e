// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages AI.BH client configuration.
//
// Configuration lives in ~/.aibh/config.toml (JSON fallback at
// ~/.aibh/config.json). Load order: TOML, then JSON, then built-in
// defaults; environment overrides are applied last.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Mr-himansu2403/AI.BH/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the root configuration.
type Config struct {
	API    APIConfig    `toml:"api" json:"api"`
	Speech SpeechConfig `toml:"speech" json:"speech"`
	UI     UIConfig     `toml:"ui" json:"ui"`
	Log    LogConfig    `toml:"log" json:"log"`
}

// APIConfig configures the remote chat endpoint.
type APIConfig struct {
	// BaseURL is the API root; the /aibh routes hang off it.
	BaseURL string `toml:"base_url" json:"base_url"`

	// APIKey is sent as a bearer token when non-empty.
	APIKey string `toml:"api_key" json:"api_key"`

	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `toml:"timeout_seconds" json:"timeout_seconds"`

	// MaxResponseBytes caps how much of a reply body is read.
	MaxResponseBytes int64 `toml:"max_response_bytes" json:"max_response_bytes"`

	// RequestsPerSecond throttles outbound calls (health polling
	// included). Zero disables throttling.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// SpeechConfig configures voice input/output.
type SpeechConfig struct {
	// Enabled gates all speech features.
	Enabled bool `toml:"enabled" json:"enabled"`

	// SpeakReplies speaks assistant replies aloud when synthesis is
	// available.
	SpeakReplies bool `toml:"speak_replies" json:"speak_replies"`

	// VoiceMarkers are matched against voice names/locales when picking
	// a synthesis voice. Best-effort; the platform default is the
	// fallback.
	VoiceMarkers []string `toml:"voice_markers" json:"voice_markers"`

	// SynthesisCommand overrides the auto-detected text-to-speech
	// command (e.g. "espeak-ng").
	SynthesisCommand string `toml:"synthesis_command" json:"synthesis_command"`

	// RecognitionCommand is a command that captures one utterance from
	// the microphone and prints the transcript to stdout. Recognition
	// is unsupported when empty and nothing is auto-detected.
	RecognitionCommand string `toml:"recognition_command" json:"recognition_command"`
}

// UIConfig configures presentation.
type UIConfig struct {
	// Theme is "auto", "dark", or "light".
	Theme string `toml:"theme" json:"theme"`

	// Plain starts the line-oriented REPL instead of the full TUI.
	Plain bool `toml:"plain" json:"plain"`

	// ShowSuggestions toggles the empty-state suggestion chips.
	ShowSuggestions bool `toml:"show_suggestions" json:"show_suggestions"`
}

// LogConfig configures the debug log.
type LogConfig struct {
	// File receives debug logging when non-empty. A TUI owns stdout, so
	// logs go to a file or nowhere.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "http://localhost:8080/api",
			TimeoutSeconds:    30,
			MaxResponseBytes:  10 * 1024 * 1024,
			RequestsPerSecond: 5,
		},
		Speech: SpeechConfig{
			Enabled:      true,
			SpeakReplies: true,
			VoiceMarkers: []string{"Google", "Microsoft", "en"},
		},
		UI: UIConfig{
			Theme:           "auto",
			ShowSuggestions: true,
		},
	}
}

// Timeout returns the API request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the configuration directory, ~/.aibh by default.
// AIBH_CONFIG_DIR overrides it (tests rely on this).
func ConfigDir() (string, error) {
	if dir := os.Getenv("AIBH_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".aibh"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON fallback config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// SECURITY: Config may hold an API key; keep it owner-only readable.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0077 != 0 {
		return os.Chmod(path, 0600)
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads configuration from disk: TOML first, then JSON, then
// defaults. Environment overrides and validation are applied in every
// path.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finishLoad(cfg)
		}
	}

	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadJSON(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finishLoad(cfg)
		}
	}

	return finishLoad(cfg)
}

func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

func loadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// Save writes the configuration to the TOML path atomically with
// owner-only permissions.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(buf.String()), 0600)
}

// =============================================================================
// VALIDATION / DEFAULTS / ENV
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return ValidationError{Field: "api.base_url", Message: "must not be empty"}
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return ValidationError{Field: "api.base_url", Message: "must be an http(s) URL"}
	}
	if c.API.TimeoutSeconds <= 0 {
		return ValidationError{Field: "api.timeout_seconds", Message: "must be positive"}
	}
	if c.API.RequestsPerSecond < 0 {
		return ValidationError{Field: "api.requests_per_second", Message: "must not be negative"}
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		return ValidationError{Field: "ui.theme", Message: "must be auto, dark, or light"}
	}
	return nil
}

// SetDefaults fills zero values that a partial config file left unset.
func (c *Config) SetDefaults() {
	def := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = def.API.TimeoutSeconds
	}
	if c.API.MaxResponseBytes == 0 {
		c.API.MaxResponseBytes = def.API.MaxResponseBytes
	}
	if len(c.Speech.VoiceMarkers) == 0 {
		c.Speech.VoiceMarkers = def.Speech.VoiceMarkers
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// ApplyEnvOverrides applies AIBH_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if url := os.Getenv("AIBH_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if key := os.Getenv("AIBH_API_KEY"); key != "" {
		c.API.APIKey = key
	}
	if v := os.Getenv("AIBH_SPEECH_DISABLED"); v != "" {
		c.Speech.Enabled = !(v == "1" || strings.EqualFold(v, "true"))
	}
	if v := os.Getenv("AIBH_PLAIN"); v != "" {
		c.UI.Plain = v == "1" || strings.EqualFold(v, "true")
	}
	if theme := os.Getenv("AIBH_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if file := os.Getenv("AIBH_LOG_FILE"); file != "" {
		c.Log.File = file
	}
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
