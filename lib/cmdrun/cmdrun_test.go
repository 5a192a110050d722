// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

package cmdrun

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesCombinedOutput(t *testing.T) {
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), Input{
		Args:    []string{"sh", "-c", "echo out; echo err >&2"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Status != 0 {
		t.Errorf("expected status 0, got %d", result.Status)
	}
	if !strings.Contains(result.Output, "out") || !strings.Contains(result.Output, "err") {
		t.Errorf("expected combined stdout/stderr, got %q", result.Output)
	}
}

func TestRunPipesStdin(t *testing.T) {
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), Input{
		Args:    []string{"cat"},
		Stdin:   strings.NewReader("piped secret"),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Output != "piped secret" {
		t.Errorf("expected stdin echoed back, got %q", result.Output)
	}
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), Input{
		Args:    []string{"pwd"},
		Dir:     dir,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(result.Output, dir) {
		t.Errorf("expected working directory %q, got %q", dir, result.Output)
	}
}

func TestRunAppendsEnvironment(t *testing.T) {
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), Input{
		Args:    []string{"sh", "-c", "echo $CMDRUN_TEST_VALUE"},
		Env:     []string{"CMDRUN_TEST_VALUE=extra"},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Output != "extra" {
		t.Errorf("expected env value %q, got %q", "extra", result.Output)
	}
}

func TestRunFailsOnNonZeroExit(t *testing.T) {
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), Input{
		Args:    []string{"sh", "-c", "echo boom; exit 3"},
		Timeout: 5 * time.Second,
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.Status != 3 {
		t.Errorf("expected status 3, got %d", result.Status)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected captured output in error, got %v", err)
	}
}

func TestRunTimesOut(t *testing.T) {
	runner := &ExecRunner{}
	_, err := runner.Run(context.Background(), Input{
		Args:    []string{"sleep", "10"},
		Timeout: 50 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout in error, got %v", err)
	}
}

func TestRunRejectsEmptyCommand(t *testing.T) {
	runner := &ExecRunner{}
	if _, err := runner.Run(context.Background(), Input{}); err == nil {
		t.Fatal("expected error for empty command")
	}
}
