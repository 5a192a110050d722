// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"testing"
)

func TestNewFromBytesZerosSource(t *testing.T) {
	source := []byte("hunter2")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "hunter2" {
		t.Errorf("expected buffer to hold %q, got %q", "hunter2", got)
	}

	if !bytes.Equal(source, make([]byte, len(source))) {
		t.Errorf("expected source slice to be zeroed, got %q", source)
	}
}

func TestFromString(t *testing.T) {
	buffer, err := FromString("token-value")
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "token-value" {
		t.Errorf("expected %q, got %q", "token-value", got)
	}
	if buffer.Len() != len("token-value") {
		t.Errorf("expected length %d, got %d", len("token-value"), buffer.Len())
	}
}

func TestEmptyInputRejected(t *testing.T) {
	if _, err := NewFromBytes(nil); err == nil {
		t.Error("expected error for empty byte source")
	}
	if _, err := FromString(""); err == nil {
		t.Error("expected error for empty string source")
	}
	if _, err := New(0); err == nil {
		t.Error("expected error for zero-size buffer")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	buffer, err := FromString("secret")
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestReadAfterClosePanics(t *testing.T) {
	buffer, err := FromString("secret")
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	buffer.Close()

	defer func() {
		if recover() == nil {
			t.Error("expected panic reading closed buffer")
		}
	}()
	_ = buffer.Bytes()
}
