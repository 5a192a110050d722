// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

package portal

import (
	"fmt"

	"github.com/mavenport/mavenport/lib/bundle"
)

// DeploymentState is a deployment's processing state as reported by
// the Publisher API.
type DeploymentState string

const (
	// StatePending: uploaded, waiting for the validation service.
	StatePending DeploymentState = "PENDING"
	// StateValidating: being processed by the validation service.
	StateValidating DeploymentState = "VALIDATING"
	// StateValidated: passed validation, waiting for publication.
	StateValidated DeploymentState = "VALIDATED"
	// StatePublishing: publication in progress.
	StatePublishing DeploymentState = "PUBLISHING"
	// StatePublished: live on Maven Central.
	StatePublished DeploymentState = "PUBLISHED"
	// StateFailed: validation or publication failed; diagnostics are
	// carried in the state info.
	StateFailed DeploymentState = "FAILED"
)

// Transitioning reports whether more state changes are expected.
// VALIDATED, PUBLISHED, and FAILED are terminal.
func (s DeploymentState) Transitioning() bool {
	switch s {
	case StatePending, StateValidating, StatePublishing:
		return true
	default:
		return false
	}
}

// ParseDeploymentState maps a service-reported state name to a known
// state. Unknown names are an error — the caller folds them into a
// local FAILED state rather than guessing.
func ParseDeploymentState(name string) (DeploymentState, error) {
	switch state := DeploymentState(name); state {
	case StatePending, StateValidating, StateValidated, StatePublishing, StatePublished, StateFailed:
		return state, nil
	default:
		return "", fmt.Errorf("portal: unknown deployment state %q", name)
	}
}

// RepositoryStateInfo is the immutable snapshot one status probe
// returned: the state plus any diagnostic text.
type RepositoryStateInfo struct {
	State DeploymentState
	Info  string
}

// pendingInfo is the placeholder snapshot for a fresh upload.
func pendingInfo(info string) RepositoryStateInfo {
	return RepositoryStateInfo{State: StatePending, Info: info}
}

// failedInfo is the local fail-safe snapshot: probe problems collapse
// to FAILED, never to an optimistic state.
func failedInfo(info string) RepositoryStateInfo {
	return RepositoryStateInfo{State: StateFailed, Info: info}
}

// UnassignedID marks a bundle the service never assigned a deployment
// id to (its upload failed).
const UnassignedID = "_unassigned_"

// BundleRepositoryState ties a bundle to its remote deployment and
// the latest probed state. Values are replaced wholesale on each poll
// tick, never mutated; a terminal value is carried unchanged for the
// rest of the run.
type BundleRepositoryState struct {
	Bundle       bundle.Bundle
	DeploymentID string
	Latest       RepositoryStateInfo
}

// State returns the latest deployment state.
func (s BundleRepositoryState) State() DeploymentState {
	return s.Latest.State
}

// Transitioning reports whether the deployment still needs probing.
func (s BundleRepositoryState) Transitioning() bool {
	return s.Latest.State.Transitioning()
}

// Summary renders one line for result reporting: bundle name,
// deployment id, state, and diagnostics for failures.
func (s BundleRepositoryState) Summary() string {
	summary := fmt.Sprintf("%s repo:%s, status: %s", s.Bundle.Name(), s.DeploymentID, s.State())
	if s.State() == StateFailed && s.Latest.Info != "" {
		summary += " [\n" + s.Latest.Info + "]"
	}
	return summary
}
