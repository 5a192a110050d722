// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

// mavenport publishes Maven artifact bundles to the Central Portal.
//
// It scans a directory for POM files, assembles a coordinate-addressed
// bundle jar per POM (artifacts, checksums, and detached GPG
// signatures), uploads the bundles to the Portal Publisher API, polls
// the deployments until they settle, and carries out the configured
// terminal action: drop, keep, or promote to Maven Central.
//
// Settings come from an optional YAML file, environment variables, and
// flags. Secrets (signing key, passphrase, Portal credentials) come
// from the environment only and are scrubbed from the process
// environment after capture.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/mavenport/mavenport/lib/bundle"
	"github.com/mavenport/mavenport/lib/config"
	"github.com/mavenport/mavenport/lib/gpg"
	"github.com/mavenport/mavenport/lib/portal"
	"github.com/mavenport/mavenport/lib/secret"
	"github.com/mavenport/mavenport/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath        string
		searchDir         string
		companionSuffixes string
		targetAction      string
		initialPause      string
		loopPause         string
		logLevel          string
		portalURL         string
	)

	flagSet := pflag.NewFlagSet("mavenport", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file")
	flagSet.StringVar(&searchDir, "search-dir", "", "directory scanned for POM files")
	flagSet.StringVar(&companionSuffixes, "companion-suffixes", "", "comma-separated artifact suffixes uploaded next to each POM")
	flagSet.StringVar(&targetAction, "target-action", "", "action once deployments settle: drop, keep, or promote_or_keep")
	flagSet.StringVar(&initialPause, "initial-pause", "", "per-bundle unit of the first wait (duration or bare seconds)")
	flagSet.StringVar(&loopPause, "loop-pause", "", "per-deployment unit of subsequent waits (duration or bare seconds)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.StringVar(&portalURL, "portal-url", "", "Publisher API endpoint override")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("mavenport")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintf(os.Stderr, "Usage: mavenport [flags]\n\n%s", flagSet.FlagUsages())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, searchDir, companionSuffixes, targetAction, initialPause, loopPause, logLevel, portalURL, flagSet); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}
	defer secrets.Close()

	if secrets.SigningKeySecret == nil {
		passphrase, err := promptPassphrase()
		if err != nil {
			return err
		}
		secrets.SigningKeySecret = passphrase
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	action, err := portal.ParseTargetAction(cfg.TargetAction)
	if err != nil {
		return err
	}

	signer, err := gpg.NewSigner(gpg.Certificate{
		Key:        secrets.SigningKey,
		Passphrase: secrets.SigningKeySecret,
	}, gpg.WithLogger(logger))
	if err != nil {
		return err
	}
	defer signer.Close()

	fingerprint, err := signer.LoadCertificate(ctx)
	if err != nil {
		return err
	}
	logger.Info("signing certificate loaded", "fingerprint", fingerprint)

	collector := bundle.NewCollector(signer, logger)
	bundles, err := collector.Collect(ctx, cfg.SearchDir, cfg.Suffixes())
	if err != nil {
		return err
	}
	if len(bundles) == 0 {
		return fmt.Errorf("no POM files found under %s", cfg.SearchDir)
	}
	logger.Info("bundles assembled", "count", len(bundles))

	client, err := portal.NewClient(portal.ClientConfig{
		BaseURL: cfg.PortalURL,
		Credentials: portal.Credentials{
			User:  secrets.PortalUsername,
			Token: secrets.PortalToken,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	publisher, err := portal.NewPublisher(portal.PublisherConfig{
		Portal:           client,
		Action:           action,
		InitialPauseUnit: cfg.InitialPause,
		LoopPauseUnit:    cfg.LoopPause,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	result, err := publisher.Run(ctx, bundles)
	if err != nil {
		return err
	}

	fmt.Printf("Deployments %s:\n", result.Executed)
	for _, state := range result.Final {
		fmt.Printf("  %s\n", state.Summary())
	}

	if !result.AllValid {
		failed := 0
		for _, state := range result.Final {
			if state.State() != portal.StateValidated && state.State() != portal.StatePublished {
				failed++
			}
		}
		return fmt.Errorf("%d of %d deployments did not validate", failed, len(result.Final))
	}
	return nil
}

// applyFlags overrides config values with explicitly set flags. Flags
// are the last layer, above the file and the environment.
func applyFlags(cfg *config.Config, searchDir, companionSuffixes, targetAction, initialPause, loopPause, logLevel, portalURL string, flagSet *pflag.FlagSet) error {
	if flagSet.Changed("search-dir") {
		cfg.SearchDir = searchDir
	}
	if flagSet.Changed("companion-suffixes") {
		cfg.CompanionSuffixes = companionSuffixes
	}
	if flagSet.Changed("target-action") {
		cfg.TargetAction = targetAction
	}
	if flagSet.Changed("initial-pause") {
		pause, err := config.ParsePause(initialPause)
		if err != nil {
			return err
		}
		cfg.InitialPause = pause
	}
	if flagSet.Changed("loop-pause") {
		pause, err := config.ParsePause(loopPause)
		if err != nil {
			return err
		}
		cfg.LoopPause = pause
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("portal-url") {
		cfg.PortalURL = portalURL
	}
	return nil
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))
}

// promptPassphrase reads the signing key passphrase from the terminal
// when it was not provided in the environment. Echo is disabled; the
// read bytes move straight into a locked buffer.
func promptPassphrase() (*secret.Buffer, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s not set and stdin is not a terminal", config.EnvSigningKeySecret)
	}
	fmt.Fprint(os.Stderr, "Signing key passphrase: ")
	line, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return secret.NewFromBytes(line)
}
