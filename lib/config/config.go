// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the publisher.
//
// Settings come from three layers, later layers winning: built-in
// defaults, an optional YAML file passed via --config, and
// environment variables. Secrets (the signing key, its passphrase,
// and the Portal credentials) are read from the environment only —
// never from the file — and land in locked memory buffers.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mavenport/mavenport/lib/secret"
)

// Environment variable names for settings.
const (
	EnvSearchDir         = "SEARCH_DIR"
	EnvCompanionSuffixes = "COMPANION_SUFFIXES"
	EnvTargetAction      = "TARGET_ACTION"
	EnvInitialPause      = "INITIAL_PAUSE"
	EnvLoopPause         = "LOOP_PAUSE"
	EnvLogLevel          = "LOG_LEVEL"
	EnvPortalURL         = "PORTAL_URL"
)

// Environment variable names for secrets. These are consumed into
// locked buffers and then removed from the process environment.
const (
	EnvSigningKey       = "SIGNING_KEY"
	EnvSigningKeySecret = "SIGNING_KEY_SECRET"
	EnvPortalUsername   = "PORTAL_USERNAME"
	EnvPortalToken      = "PORTAL_TOKEN"
)

// Config holds all non-secret settings.
type Config struct {
	// SearchDir is the directory scanned for POM files.
	SearchDir string `yaml:"search_dir"`

	// CompanionSuffixes selects the artifact files uploaded next to
	// each POM, comma-separated (e.g. ".jar,-sources.jar").
	CompanionSuffixes string `yaml:"companion_suffixes"`

	// TargetAction is what happens once all deployments settle:
	// drop, keep, or promote_or_keep.
	TargetAction string `yaml:"target_action"`

	// InitialPause is the per-bundle unit of the first wait after
	// upload. Accepts Go durations or bare seconds.
	InitialPause time.Duration `yaml:"initial_pause"`

	// LoopPause is the per-transitioning-deployment unit of each
	// subsequent wait.
	LoopPause time.Duration `yaml:"loop_pause"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// PortalURL overrides the Publisher API endpoint. Empty means
	// the production endpoint.
	PortalURL string `yaml:"portal_url"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		SearchDir:         ".",
		CompanionSuffixes: "",
		TargetAction:      "keep",
		InitialPause:      15 * time.Second,
		LoopPause:         15 * time.Second,
		LogLevel:          "info",
	}
}

// Load builds the configuration from defaults, the optional file,
// and the environment. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvironment(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvironment overrides settings from environment variables.
func (c *Config) applyEnvironment() error {
	if value := os.Getenv(EnvSearchDir); value != "" {
		c.SearchDir = value
	}
	if value, ok := os.LookupEnv(EnvCompanionSuffixes); ok {
		c.CompanionSuffixes = value
	}
	if value := os.Getenv(EnvTargetAction); value != "" {
		c.TargetAction = value
	}
	if value := os.Getenv(EnvInitialPause); value != "" {
		pause, err := ParsePause(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvInitialPause, err)
		}
		c.InitialPause = pause
	}
	if value := os.Getenv(EnvLoopPause); value != "" {
		pause, err := ParsePause(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvLoopPause, err)
		}
		c.LoopPause = pause
	}
	if value := os.Getenv(EnvLogLevel); value != "" {
		c.LogLevel = value
	}
	if value := os.Getenv(EnvPortalURL); value != "" {
		c.PortalURL = value
	}
	return nil
}

// Suffixes splits the companion suffix list, dropping empty entries.
func (c *Config) Suffixes() []string {
	var suffixes []string
	for _, s := range strings.Split(c.CompanionSuffixes, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			suffixes = append(suffixes, s)
		}
	}
	return suffixes
}

// Validate checks the settings for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.SearchDir == "" {
		errs = append(errs, fmt.Errorf("search_dir is required"))
	} else if info, err := os.Stat(c.SearchDir); err != nil || !info.IsDir() {
		errs = append(errs, fmt.Errorf("search_dir %q is not a directory", c.SearchDir))
	}
	switch strings.ToLower(c.TargetAction) {
	case "drop", "keep", "promote_or_keep":
	default:
		errs = append(errs, fmt.Errorf("target_action must be drop, keep, or promote_or_keep, got %q", c.TargetAction))
	}
	if c.InitialPause <= 0 {
		errs = append(errs, fmt.Errorf("initial_pause must be positive"))
	}
	if c.LoopPause <= 0 {
		errs = append(errs, fmt.Errorf("loop_pause must be positive"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ParsePause parses a pause value. Bare integers are seconds;
// anything else must be a Go duration string.
func ParsePause(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid pause %q: %w", value, err)
	}
	return d, nil
}

// Secrets holds the credential material, in locked memory.
type Secrets struct {
	// SigningKey is the ASCII-armored GPG private key.
	SigningKey *secret.Buffer

	// SigningKeySecret is the key's passphrase. May be nil when the
	// key has no passphrase set.
	SigningKeySecret *secret.Buffer

	// PortalUsername is the Portal token username.
	PortalUsername string

	// PortalToken is the Portal access token.
	PortalToken *secret.Buffer
}

// LoadSecrets consumes the secret environment variables into locked
// buffers and removes them from the process environment so child
// processes never see them.
func LoadSecrets() (*Secrets, error) {
	signingKey, err := consumeEnv(EnvSigningKey)
	if err != nil {
		return nil, err
	}
	signingKeySecret, err := consumeEnv(EnvSigningKeySecret)
	if err != nil {
		(&Secrets{SigningKey: signingKey}).Close()
		return nil, err
	}

	username := os.Getenv(EnvPortalUsername)
	os.Unsetenv(EnvPortalUsername)

	token, err := consumeEnv(EnvPortalToken)
	if err != nil {
		(&Secrets{SigningKey: signingKey, SigningKeySecret: signingKeySecret}).Close()
		return nil, err
	}

	secrets := &Secrets{
		SigningKey:       signingKey,
		SigningKeySecret: signingKeySecret,
		PortalUsername:   username,
		PortalToken:      token,
	}
	if err := secrets.Validate(); err != nil {
		secrets.Close()
		return nil, err
	}
	return secrets, nil
}

// consumeEnv moves one environment variable into a locked buffer.
// Unset or empty variables yield a nil buffer.
func consumeEnv(name string) (*secret.Buffer, error) {
	value := os.Getenv(name)
	os.Unsetenv(name)
	if value == "" {
		return nil, nil
	}
	buffer, err := secret.FromString(value)
	if err != nil {
		return nil, fmt.Errorf("config: securing %s: %w", name, err)
	}
	return buffer, nil
}

// Validate checks that the required secrets are present.
func (s *Secrets) Validate() error {
	var errs []error
	if s.SigningKey == nil {
		errs = append(errs, fmt.Errorf("%s is required", EnvSigningKey))
	}
	if s.PortalUsername == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPortalUsername))
	}
	if s.PortalToken == nil {
		errs = append(errs, fmt.Errorf("%s is required", EnvPortalToken))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Close zeroes and releases all secret buffers.
func (s *Secrets) Close() {
	if s.SigningKey != nil {
		s.SigningKey.Close()
	}
	if s.SigningKeySecret != nil {
		s.SigningKeySecret.Close()
	}
	if s.PortalToken != nil {
		s.PortalToken.Close()
	}
}

// String renders a redacted form.
func (s *Secrets) String() string {
	return "Secrets[signing_key=***, signing_key_secret=***, portal_username=***, portal_token=***]"
}
