// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package config handles application configuration: locating, bootstrapping
// and parsing the config file, and validating the settings the selected run
// mode needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level application configuration.
type Config struct {
	// CacheDir is the directory holding the working clone of the log
	// repository (optional, defaults to the user cache directory).
	CacheDir string `yaml:"cache_dir,omitempty"`

	// RepoURL is the remote URL of the log repository (required).
	RepoURL string `yaml:"repo_url"`

	// DokuwikiURL is an optional HTTP endpoint requested after a successful
	// push to make the wiki pick up the new export.
	DokuwikiURL string `yaml:"dokuwiki_url,omitempty"`

	// SMTPServer is the host:port of the SMTP relay used for email replies
	// (optional, defaults to localhost:25).
	SMTPServer string `yaml:"smtp_server,omitempty"`

	// BotEmail is the identity used as the From address in email replies.
	// Required only when running in email-ingestion mode.
	BotEmail string `yaml:"bot_email,omitempty"`
}

// DefaultTemplate is the commented starting point presented through the
// editor on first run.
const DefaultTemplate = `# klog configuration
#
# repo_url is the only required setting.

repo_url: ""

# cache_dir: ~/.cache/klog
# dokuwiki_url: ""
# smtp_server: "localhost:25"
# bot_email: ""
`

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "klog", "config.yaml"), nil
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Write persists content as the config file at path, creating the parent
// directory if needed.
func Write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0640); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Load reads and validates the config file at path. needsEmail marks the
// email-ingestion mode, which additionally requires bot_email.
func Load(path string, needsEmail bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.RepoURL == "" {
		return Config{}, fmt.Errorf("config %s: repo_url is required", path)
	}
	if needsEmail && cfg.BotEmail == "" {
		return Config{}, fmt.Errorf("config %s: bot_email is required for email ingestion", path)
	}

	if cfg.CacheDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to get user cache directory: %w", err)
		}
		cfg.CacheDir = filepath.Join(cacheDir, "klog")
	} else {
		cfg.CacheDir, err = ResolvePath(cfg.CacheDir)
		if err != nil {
			return Config{}, err
		}
	}
	if cfg.SMTPServer == "" {
		cfg.SMTPServer = "localhost:25"
	}

	return cfg, nil
}

// ResolvePath expands a leading "~/" to the user's home directory.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path, fmt.Errorf("could not get user home directory to resolve path '%s': %w", path, err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}
