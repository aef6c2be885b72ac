// Package config handles configuration, personas, and credentials for msgcoach.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/diogo/msgcoach/internal/models"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// ServerConfig configures the web UI served by `msgcoach serve`
type ServerConfig struct {
	Addr                  string `json:"addr"`
	MaxBodyBytes          int64  `json:"max_body_bytes"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// Config represents the user configuration
type Config struct {
	DefaultModel string `json:"default_model"`
	DefaultTone  string `json:"default_tone"`
	// PrivacyMode masks emails, phone numbers and handles before text is sent.
	PrivacyMode  bool   `json:"privacy_mode"`
	SystemPrompt string `json:"system_prompt,omitempty"` // overrides the default persona
	// Verbose enables debug logging.
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"` // TUI color theme
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
	Server          ServerConfig   `json:"server"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// MinRequestTimeoutSeconds is the smallest non-zero server request timeout
// that fits a full rewrite chain: three 60s attempts plus 0.8s and 1.6s of
// backoff. Zero disables the timeout.
const MinRequestTimeoutSeconds = 183

// DefaultServerConfig returns the default web UI configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:                  "127.0.0.1:8080",
		MaxBodyBytes:          64 * 1024,
		RequestTimeoutSeconds: 190,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DefaultModel:    models.DefaultModel.Name,
		DefaultTone:     string(models.DefaultTone),
		PrivacyMode:     true,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
		Server:          DefaultServerConfig(),
	}
}

const (
	configDirName  = ".msgcoach"
	configFileName = "config.json"
)

// GetConfigDir returns ~/.msgcoach
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// EnsureConfigDir creates the config dir as owner-only, since personas can
// hold private prompts.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadConfig returns the saved configuration over the defaults. Keys missing
// from the file keep their default; an unreadable file yields the defaults
// together with the error.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := readJSONFile(configFileName, &cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

func SaveConfig(cfg Config) error {
	return writeJSONFile(configFileName, cfg)
}

// Validate checks the fields that feed a rewrite request
func (c Config) Validate() error {
	if _, err := models.ModelFromName(c.DefaultModel); err != nil {
		return err
	}
	if _, err := models.ParseTone(c.DefaultTone); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative")
	}
	if err := checkRequestTimeout(c.Server.RequestTimeoutSeconds); err != nil {
		return err
	}
	return nil
}

// setters maps the keys accepted by `config set` to their field updates
var setters = map[string]func(*Config, string) error{
	"default_model": func(c *Config, v string) error {
		m, err := models.ModelFromName(v)
		if err != nil {
			return err
		}
		c.DefaultModel = m.Name
		return nil
	},
	"default_tone": func(c *Config, v string) error {
		t, err := models.ParseTone(v)
		if err != nil {
			return err
		}
		c.DefaultTone = string(t)
		return nil
	},
	"privacy_mode":      boolSetter(func(c *Config) *bool { return &c.PrivacyMode }),
	"verbose":           boolSetter(func(c *Config) *bool { return &c.Verbose }),
	"copy_to_clipboard": boolSetter(func(c *Config) *bool { return &c.CopyToClipboard }),
	"system_prompt": func(c *Config, v string) error {
		c.SystemPrompt = v
		return nil
	},
	"tui_theme": func(c *Config, v string) error {
		c.TUITheme = v
		return nil
	},
	"markdown.style": func(c *Config, v string) error {
		c.Markdown.Style = v
		return nil
	},
	"server.addr": func(c *Config, v string) error {
		c.Server.Addr = v
		return nil
	},
	"server.max_body_bytes": func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid byte count %q", v)
		}
		c.Server.MaxBodyBytes = n
		return nil
	},
	"server.request_timeout_seconds": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid timeout %q", v)
		}
		if err := checkRequestTimeout(n); err != nil {
			return err
		}
		c.Server.RequestTimeoutSeconds = n
		return nil
	},
}

func checkRequestTimeout(n int) error {
	if n < 0 || (n > 0 && n < MinRequestTimeoutSeconds) {
		return fmt.Errorf("server.request_timeout_seconds must be 0 (no limit) or at least %d so every retry attempt fits, got %d",
			MinRequestTimeoutSeconds, n)
	}
	return nil
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*field(c) = b
		return nil
	}
}

// Set updates the field named by key from its string form
func (c *Config) Set(key, value string) error {
	set, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("unknown config key %q (available: %s)", key, strings.Join(Keys(), ", "))
	}
	return set(c, strings.TrimSpace(value))
}

// Keys returns the keys accepted by Set, sorted
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AvailableModels returns a list of available model names
func AvailableModels() []string {
	return models.ModelNames()
}
