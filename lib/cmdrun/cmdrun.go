// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

// Package cmdrun runs external commands with an explicit working
// directory, extra environment, optional piped stdin, and a hard
// timeout. The Runner interface keeps process supervision mockable so
// deterministic tests can substitute a fake signing tool without
// invoking a real binary.
//
// Secret material is only ever delivered through stdin. Nothing in
// this package places input text into argv or the environment.
package cmdrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Input describes one command execution.
type Input struct {
	// Args is the command and its arguments. Args[0] is the binary.
	Args []string

	// Dir is the working directory. Empty means the process default.
	Dir string

	// Stdin, when non-nil, is piped to the command's standard input.
	// The pipe is closed after the reader drains so the command does
	// not hang waiting for more.
	Stdin io.Reader

	// Env holds extra KEY=VALUE entries appended to the current
	// process environment.
	Env []string

	// Timeout is the maximum runtime. Exceeding it kills the command
	// and yields an error.
	Timeout time.Duration
}

// Result is the outcome of a completed command.
type Result struct {
	// Status is the command's exit code.
	Status int

	// Output is the combined stdout/stderr text.
	Output string
}

// Runner executes external commands.
type Runner interface {
	// Run executes the command described by in. A non-zero exit
	// status, a timeout, or a failure to start all return an error;
	// the Result carries whatever output was captured.
	Run(ctx context.Context, in Input) (Result, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct {
	// Logger receives debug-level command traces. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Run executes the command, enforcing in.Timeout via the context.
func (r *ExecRunner) Run(ctx context.Context, in Input) (Result, error) {
	if len(in.Args) == 0 {
		return Result{}, fmt.Errorf("cmdrun: no command given")
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if in.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.Timeout)
		defer cancel()
	}

	// Argv only, never secrets: Stdin is not logged.
	logger.Debug("running command", "command", in.Args[0], "args", in.Args[1:], "dir", in.Dir)

	cmd := exec.CommandContext(ctx, in.Args[0], in.Args[1:]...)
	cmd.Dir = in.Dir
	cmd.Env = append(os.Environ(), in.Env...)
	cmd.Stdin = in.Stdin

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	result := Result{
		Status: -1,
		Output: strings.TrimRight(output.String(), "\n"),
	}
	if cmd.ProcessState != nil {
		result.Status = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("cmdrun: %s timed out after %s", in.Args[0], in.Timeout)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return result, fmt.Errorf("cmdrun: %s interrupted: %w", in.Args[0], ctx.Err())
		}
		return result, fmt.Errorf("cmdrun: %s failed (exit %d): %s", in.Args[0], result.Status, result.Output)
	}

	logger.Debug("command completed", "command", in.Args[0], "status", result.Status)
	return result, nil
}
