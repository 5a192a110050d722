// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

package jsonlite

import (
	"errors"
	"strings"
	"testing"
)

// exampleDoc mirrors a Portal status response, with the quoting and
// spacing variations the extractor must tolerate.
const exampleDoc = `{
  "deploymentId": "28570f16-da32-4c14-bd2e-c1acc0782365",
  "deploymentName": "central-bundle.zip",
  "deploymentState": "PUBLISHED",
  "boolean":true,"another"   : false  ,
  "quoted"
  : "This' might \" break",
  "purls": [
    "pkg:maven/com.sonatype.central.example/example_java_project@0.0.7"
  ]
}`

func TestExtractString(t *testing.T) {
	got, err := ExtractString(exampleDoc, "deploymentState")
	if err != nil {
		t.Fatalf("ExtractString failed: %v", err)
	}
	if got != "PUBLISHED" {
		t.Errorf("expected PUBLISHED, got %q", got)
	}
}

func TestExtractBooleans(t *testing.T) {
	value, err := Extract(exampleDoc, "boolean")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if value.Kind != KindBool || !value.Bool {
		t.Errorf("expected true, got %+v", value)
	}

	value, err = Extract(exampleDoc, "another")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if value.Kind != KindBool || value.Bool {
		t.Errorf("expected false, got %+v", value)
	}
}

func TestExtractPreservesEscapes(t *testing.T) {
	value, err := Extract(exampleDoc, "quoted")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if value.Kind != KindString {
		t.Fatalf("expected string, got kind %d", value.Kind)
	}
	if value.Str != `This' might \" break` {
		t.Errorf("expected escaped content unchanged, got %q", value.Str)
	}
}

func TestExtractStringArray(t *testing.T) {
	value, err := Extract(exampleDoc, "purls")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if value.Kind != KindStrings {
		t.Fatalf("expected string array, got kind %d", value.Kind)
	}
	want := []string{"pkg:maven/com.sonatype.central.example/example_java_project@0.0.7"}
	if len(value.Strings) != 1 || value.Strings[0] != want[0] {
		t.Errorf("expected %v, got %v", want, value.Strings)
	}
}

func TestExtractObject(t *testing.T) {
	doc := `{"errors": {"pom": "missing developer info", "signed": false, "files": ["a.jar"]}}`
	value, err := Extract(doc, "errors")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if value.Kind != KindObject {
		t.Fatalf("expected object, got kind %d", value.Kind)
	}
	if got := value.Object["pom"].Str; got != "missing developer info" {
		t.Errorf("unexpected pom value %q", got)
	}
	if value.Object["signed"].Kind != KindBool || value.Object["signed"].Bool {
		t.Errorf("expected signed=false, got %+v", value.Object["signed"])
	}
	if rendered := value.String(); rendered != "{files: [a.jar], pom: missing developer info, signed: false}" {
		t.Errorf("unexpected rendering %q", rendered)
	}
}

func TestExtractSingleQuotedField(t *testing.T) {
	got, err := ExtractString(`{'state': 'VALIDATED'}`, "state")
	if err != nil {
		t.Fatalf("ExtractString failed: %v", err)
	}
	if got != "VALIDATED" {
		t.Errorf("expected VALIDATED, got %q", got)
	}
}

func TestExtractMissingField(t *testing.T) {
	_, err := Extract(`{"a": "b"}`, "missing")
	if err == nil {
		t.Fatal("expected error for missing field")
	}
	if !strings.Contains(err.Error(), `"missing"`) {
		t.Errorf("expected field name in error, got %v", err)
	}
}

func TestTruncatedDocumentReportsBreakPoint(t *testing.T) {
	// Three lines; the unterminated string runs out at line 3,
	// column 5.
	doc := "{\n\"a\":\n\"bcd"

	_, err := Extract(doc, "a")
	if err == nil {
		t.Fatal("expected decode error for truncated document")
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %T: %v", err, err)
	}
	if decodeErr.Line != 3 || decodeErr.Column != 5 {
		t.Errorf("expected line:3, column:5, got line:%d, column:%d", decodeErr.Line, decodeErr.Column)
	}
	if !strings.Contains(err.Error(), "line:3, column:5") {
		t.Errorf("expected line:3, column:5 in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), doc) {
		t.Error("expected full document in error message")
	}
}

func TestUnsupportedValuesFailLoudly(t *testing.T) {
	cases := map[string]string{
		"number":       `{"n": 42}`,
		"null":         `{"n": null}`,
		"nested array": `{"n": [["deep"]]}`,
	}
	for name, doc := range cases {
		if _, err := Extract(doc, "n"); err == nil {
			t.Errorf("%s: expected decode failure for %s", name, doc)
		}
	}
}

func TestBrokenLiteralPosition(t *testing.T) {
	_, err := Extract(`{"flag": tru}`, "flag")
	if err == nil {
		t.Fatal("expected error for broken literal")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %T", err)
	}
	if decodeErr.Line != 1 || decodeErr.Column != 10 {
		t.Errorf("expected line:1, column:10, got line:%d, column:%d", decodeErr.Line, decodeErr.Column)
	}
}
