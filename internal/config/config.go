// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for peakabot.
//
// Configuration is read from a TOML file, then overridden by a .env file in
// the working directory and by process environment variables.
//
// Configuration file location:
//   - $PEAKABOT_HOME/config.toml when PEAKABOT_HOME is set
//   - ~/.peakabot/config.toml otherwise
//   - Built-in defaults when no file exists
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/peakabot-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete peakabot configuration.
type Config struct {
	// Remote Peaka partner API
	API APIConfig `toml:"api" json:"api"`

	// Durable credential slot
	Credentials CredentialsConfig `toml:"credentials" json:"credentials"`

	// Log sink
	Logging LoggingConfig `toml:"logging" json:"logging"`

	// Terminal UI
	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig contains remote API settings.
type APIConfig struct {
	// BaseURL is the scheme and host of the partner API, without /api/v1.
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds every request. A stalled chat request would
	// otherwise leave the composer locked forever.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerSecond paces outgoing requests (token bucket, burst of the same size).
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	// MaxResponseBytes caps response bodies.
	MaxResponseBytes int64 `toml:"max_response_bytes" json:"max_response_bytes"`
}

// CredentialsConfig contains credential slot settings.
type CredentialsConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `toml:"backend" json:"backend"`
	// Path is the slot file or database. Empty = inside the config directory.
	Path string `toml:"path" json:"path"`
	// AutoValidateLength triggers validation while typing once the key
	// reaches this many characters. 0 disables it.
	AutoValidateLength int `toml:"auto_validate_length" json:"auto_validate_length"`

	// EnvKey is PEAKABOT_API_KEY, used only when the slot is empty. Never saved.
	EnvKey string `toml:"-" json:"-"`
}

// LoggingConfig contains log sink settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" json:"level"`
	// Path is where the TUI writes its log. Empty = inside the config directory.
	Path string `toml:"path" json:"path"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is auto, dark, light or notty. Controls markdown rendering style.
	Theme string `toml:"theme" json:"theme"`
	// WordWrap is the markdown wrap width. 0 = follow the window.
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// SidebarWidth is the thread list width in cells.
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultBaseURL is the Peaka partner API host.
	DefaultBaseURL = "https://partner.peaka.studio"

	// DefaultAutoValidateLength matches the length of issued Peaka keys.
	DefaultAutoValidateLength = 39

	// BackendFile stores the key in a single 0600 file.
	BackendFile = "file"
	// BackendSQLite stores the key in a one-row SQLite table.
	BackendSQLite = "sqlite"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           DefaultBaseURL,
			TimeoutSecs:       60,
			RequestsPerSecond: 5,
			MaxResponseBytes:  10 * 1024 * 1024, // 10MB
		},
		Credentials: CredentialsConfig{
			Backend:            BackendFile,
			AutoValidateLength: DefaultAutoValidateLength,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:        "auto",
			WordWrap:     0,
			SidebarWidth: 30,
		},
	}
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the peakabot configuration directory.
func ConfigDir() (string, error) {
	if home := os.Getenv("PEAKABOT_HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".peakabot"), nil
}

// DefaultPath returns the path of the TOML config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CredentialsPath returns the configured slot path, or the backend default.
func (c *Config) CredentialsPath() (string, error) {
	if c.Credentials.Path != "" {
		return c.Credentials.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Credentials.Backend == BackendSQLite {
		return filepath.Join(dir, "peakabot.db"), nil
	}
	return filepath.Join(dir, "api_key"), nil
}

// LogPath returns the configured log path, or the default.
func (c *Config) LogPath() (string, error) {
	if c.Logging.Path != "" {
		return c.Logging.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "peakabot.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file at path (DefaultPath when empty), applies
// .env and environment overrides, fills defaults and validates.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg. Keys absent from the file keep
// the values cfg already had.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment win. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg as TOML to path (DefaultPath when empty).
// RELIABILITY: Atomic write, 0600 permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	var buf bytes.Buffer
	buf.WriteString("# peakabot configuration file\n")
	buf.WriteString("# Generated by peakabot - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: fmt.Sprintf("invalid URL: %v", err)})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: "scheme must be http or https"})
	} else if u.Host == "" {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: "missing host"})
	}

	if c.API.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "must be positive"})
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "api.requests_per_second", Message: "cannot be negative"})
	}
	if c.API.MaxResponseBytes <= 0 {
		errs = append(errs, ValidationError{Field: "api.max_response_bytes", Message: "must be positive"})
	}

	switch c.Credentials.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, ValidationError{
			Field:   "credentials.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite", c.Credentials.Backend),
		})
	}
	if c.Credentials.AutoValidateLength < 0 {
		errs = append(errs, ValidationError{Field: "credentials.auto_validate_length", Message: "cannot be negative"})
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	switch c.UI.Theme {
	case "auto", "dark", "light", "notty":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light, notty", c.UI.Theme),
		})
	}
	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "cannot be negative"})
	}
	if c.UI.SidebarWidth < 12 || c.UI.SidebarWidth > 80 {
		errs = append(errs, ValidationError{Field: "ui.sidebar_width", Message: "must be between 12 and 80"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	c.API.BaseURL = strings.TrimSuffix(c.API.BaseURL, "/")
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = d.API.TimeoutSecs
	}
	if c.API.MaxResponseBytes == 0 {
		c.API.MaxResponseBytes = d.API.MaxResponseBytes
	}
	if c.Credentials.Backend == "" {
		c.Credentials.Backend = d.Credentials.Backend
	}
	c.Credentials.Backend = strings.ToLower(c.Credentials.Backend)
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = d.UI.SidebarWidth
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PEAKABOT_BASE_URL: overrides api.base_url
//   - PEAKABOT_TIMEOUT: overrides api.timeout_secs (seconds)
//   - PEAKABOT_API_KEY: initial key when the credential slot is empty
//   - PEAKABOT_KEY_BACKEND: overrides credentials.backend
//   - PEAKABOT_KEY_PATH: overrides credentials.path
//   - PEAKABOT_LOG_LEVEL: overrides logging.level
//   - PEAKABOT_LOG_PATH: overrides logging.path
//   - PEAKABOT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PEAKABOT_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PEAKABOT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("PEAKABOT_API_KEY"); v != "" {
		c.Credentials.EnvKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("PEAKABOT_KEY_BACKEND"); v != "" {
		c.Credentials.Backend = v
	}
	if v := os.Getenv("PEAKABOT_KEY_PATH"); v != "" {
		c.Credentials.Path = v
	}
	if v := os.Getenv("PEAKABOT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PEAKABOT_LOG_PATH"); v != "" {
		c.Logging.Path = v
	}
	if v := os.Getenv("PEAKABOT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// String renders the config as TOML, for `peakabot config show`.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config encode error: %v>", err)
	}
	return buf.String()
}
