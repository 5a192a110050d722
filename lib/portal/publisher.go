// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

package portal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mavenport/mavenport/lib/bundle"
	"github.com/mavenport/mavenport/lib/clock"
)

// TargetAction is what should happen to the deployments once they
// have all settled.
type TargetAction string

const (
	// ActionDrop deletes the deployments after validation.
	ActionDrop TargetAction = "drop"

	// ActionKeep leaves the deployments in the Portal for manual
	// inspection and release.
	ActionKeep TargetAction = "keep"

	// ActionPromoteOrKeep publishes the deployments when every one
	// validated, and otherwise keeps them all for inspection.
	ActionPromoteOrKeep TargetAction = "promote_or_keep"
)

// ParseTargetAction maps a case-insensitive action name to its
// TargetAction.
func ParseTargetAction(name string) (TargetAction, error) {
	switch TargetAction(strings.ToLower(name)) {
	case ActionDrop:
		return ActionDrop, nil
	case ActionKeep:
		return ActionKeep, nil
	case ActionPromoteOrKeep:
		return ActionPromoteOrKeep, nil
	default:
		return "", fmt.Errorf("portal: unknown target action %q", name)
	}
}

// ExecutedAction is the action that was actually carried out, which
// differs from the target when promotion is demoted to keep.
type ExecutedAction string

const (
	ExecutedDropped  ExecutedAction = "dropped"
	ExecutedKept     ExecutedAction = "kept"
	ExecutedPromoted ExecutedAction = "promoted"
)

// PublishingResult is the outcome of a full publishing run.
type PublishingResult struct {
	// Executed is the terminal action that was carried out.
	Executed ExecutedAction

	// AllValid is true when every deployment settled in VALIDATED
	// or PUBLISHED.
	AllValid bool

	// Final holds the settled state of every bundle, in upload order.
	Final []BundleRepositoryState
}

// Portal is the Publisher API surface the supervisor drives.
type Portal interface {
	Upload(ctx context.Context, b bundle.Bundle) (BundleRepositoryState, error)
	Status(ctx context.Context, deploymentID string) (RepositoryStateInfo, error)
	Publish(ctx context.Context, deploymentIDs []string) error
	Drop(ctx context.Context, deploymentIDs []string) error
}

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	// Portal is the API client.
	Portal Portal

	// Action is the terminal action once all deployments settle.
	Action TargetAction

	// InitialPauseUnit is multiplied by the bundle count for the
	// first wait after upload.
	InitialPauseUnit time.Duration

	// LoopPauseUnit is multiplied by the count of still-transitioning
	// deployments for each subsequent wait.
	LoopPauseUnit time.Duration

	// Clock drives the waits. Nil means the real clock.
	Clock clock.Clock

	// Logger receives progress. Nil means slog.Default().
	Logger *slog.Logger
}

// Publisher uploads bundles, polls their deployments until all have
// settled, and carries out the terminal action.
type Publisher struct {
	portal           Portal
	action           TargetAction
	initialPauseUnit time.Duration
	loopPauseUnit    time.Duration
	clock            clock.Clock
	logger           *slog.Logger
}

// NewPublisher builds a publisher from the configuration.
func NewPublisher(config PublisherConfig) (*Publisher, error) {
	if config.Portal == nil {
		return nil, fmt.Errorf("portal: publisher requires a portal client")
	}
	switch config.Action {
	case ActionDrop, ActionKeep, ActionPromoteOrKeep:
	default:
		return nil, fmt.Errorf("portal: unknown target action %q", config.Action)
	}
	if config.InitialPauseUnit <= 0 || config.LoopPauseUnit <= 0 {
		return nil, fmt.Errorf("portal: pause units must be positive")
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		portal:           config.Portal,
		action:           config.Action,
		initialPauseUnit: config.InitialPauseUnit,
		loopPauseUnit:    config.LoopPauseUnit,
		clock:            clk,
		logger:           logger,
	}, nil
}

// Run uploads the bundles in order, waits for every deployment to
// settle, and applies the terminal action. Upload rejections mark
// their bundle FAILED without aborting the batch; transport-level
// failures abort the run.
func (p *Publisher) Run(ctx context.Context, bundles []bundle.Bundle) (PublishingResult, error) {
	if len(bundles) == 0 {
		return PublishingResult{}, fmt.Errorf("portal: no bundles to publish")
	}

	states := make([]BundleRepositoryState, 0, len(bundles))
	for _, b := range bundles {
		state, err := p.portal.Upload(ctx, b)
		if err != nil {
			return PublishingResult{}, err
		}
		p.logger.Info("bundle uploaded", "bundle", b.Name(), "deployment", state.DeploymentID, "state", state.State())
		states = append(states, state)
	}

	states, err := p.waitForSettled(ctx, states)
	if err != nil {
		return PublishingResult{}, err
	}

	allValid := true
	for _, state := range states {
		if state.State() != StateValidated && state.State() != StatePublished {
			allValid = false
		}
	}

	action := p.action
	if action == ActionPromoteOrKeep && !allValid {
		p.logger.Warn("not all deployments validated, keeping instead of promoting")
		action = ActionKeep
	}

	executed, err := p.execute(ctx, action, states)
	if err != nil {
		return PublishingResult{}, err
	}

	return PublishingResult{Executed: executed, AllValid: allValid, Final: states}, nil
}

// waitForSettled polls transitioning deployments until none remain.
// The first pause scales with the bundle count; later pauses scale
// with how many deployments are still transitioning. Settled entries
// are never probed again.
func (p *Publisher) waitForSettled(ctx context.Context, states []BundleRepositoryState) ([]BundleRepositoryState, error) {
	pause := p.initialPauseUnit * time.Duration(len(states))
	for {
		transitioning := 0
		for _, state := range states {
			if state.Transitioning() {
				transitioning++
			}
		}
		if transitioning == 0 {
			return states, nil
		}

		p.logger.Info("waiting for deployments to settle", "transitioning", transitioning, "pause", pause)
		if err := p.pause(ctx, pause); err != nil {
			return nil, err
		}

		// Build the next snapshot wholesale: settled entries carry
		// over untouched, transitioning ones get a fresh probe.
		next := make([]BundleRepositoryState, 0, len(states))
		for _, state := range states {
			if !state.Transitioning() {
				next = append(next, state)
				continue
			}
			latest, err := p.portal.Status(ctx, state.DeploymentID)
			if err != nil {
				return nil, err
			}
			p.logger.Info("deployment state", "bundle", state.Bundle.Name(), "deployment", state.DeploymentID, "state", latest.State)
			next = append(next, BundleRepositoryState{
				Bundle:       state.Bundle,
				DeploymentID: state.DeploymentID,
				Latest:       latest,
			})
		}
		states = next

		transitioning = 0
		for _, state := range states {
			if state.Transitioning() {
				transitioning++
			}
		}
		pause = p.loopPauseUnit * time.Duration(transitioning)
	}
}

func (p *Publisher) pause(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(d):
		return nil
	}
}

// execute carries out the terminal action on the assigned deployment
// ids. Rejected uploads never got an id and are skipped.
func (p *Publisher) execute(ctx context.Context, action TargetAction, states []BundleRepositoryState) (ExecutedAction, error) {
	ids := make([]string, 0, len(states))
	for _, state := range states {
		if state.DeploymentID != UnassignedID {
			ids = append(ids, state.DeploymentID)
		}
	}

	switch action {
	case ActionDrop:
		if err := p.portal.Drop(ctx, ids); err != nil {
			return "", err
		}
		p.logger.Info("deployments dropped", "count", len(ids))
		return ExecutedDropped, nil
	case ActionKeep:
		p.logger.Info("deployments kept for manual handling", "count", len(ids))
		return ExecutedKept, nil
	case ActionPromoteOrKeep:
		if err := p.portal.Publish(ctx, ids); err != nil {
			return "", err
		}
		p.logger.Info("deployments promoted to Maven Central", "count", len(ids))
		return ExecutedPromoted, nil
	default:
		return "", fmt.Errorf("portal: unknown target action %q", action)
	}
}
