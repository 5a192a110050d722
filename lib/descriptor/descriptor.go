// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

// Package descriptor reads artifact coordinates from Maven POM files.
//
// The reader is a minimal tag scanner, not an XML parser: it locates
// the first opening tag with the wanted name and captures the text up
// to the matching closing tag. No entity decoding, no namespaces, no
// schema validation. Release POMs produced by Maven and Gradle are
// regular enough that this narrow extraction is all the publisher
// needs, and it keeps a full parser out of the dependency surface.
package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the filename extension identifying descriptor files.
const Extension = ".pom"

// Descriptor identifies one artifact's coordinate. It is extracted
// once per POM file and never mutated; the coordinate determines both
// the companion search basename and the bundle's internal layout.
type Descriptor struct {
	// Path is the POM file the coordinate was read from.
	Path string

	Group    string
	Artifact string
	Version  string
}

// Read extracts the coordinate from the POM file at path.
func Read(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("reading descriptor %s: %w", path, err)
	}

	doc := string(data)
	group, err := extractField(doc, "groupId")
	if err != nil {
		return Descriptor{}, fmt.Errorf("descriptor %s: %w", path, err)
	}
	artifact, err := extractField(doc, "artifactId")
	if err != nil {
		return Descriptor{}, fmt.Errorf("descriptor %s: %w", path, err)
	}
	version, err := extractField(doc, "version")
	if err != nil {
		return Descriptor{}, fmt.Errorf("descriptor %s: %w", path, err)
	}

	return Descriptor{
		Path:     path,
		Group:    group,
		Artifact: artifact,
		Version:  version,
	}, nil
}

// Basename returns the descriptor's filename without the .pom
// extension. Companion assets are discovered by appending configured
// suffixes to this name.
func (d Descriptor) Basename() string {
	return strings.TrimSuffix(filepath.Base(d.Path), Extension)
}

// CoordinatePath returns the archive-internal directory for the
// coordinate: the group with dots replaced by slashes, then artifact,
// then version, with a trailing slash. Always coordinate-derived,
// never derived from the descriptor's on-disk location.
func (d Descriptor) CoordinatePath() string {
	return strings.ReplaceAll(d.Group, ".", "/") + "/" + d.Artifact + "/" + d.Version + "/"
}

// String renders the coordinate in group:artifact:version form.
func (d Descriptor) String() string {
	return d.Group + ":" + d.Artifact + ":" + d.Version
}

// extractField returns the text between <name> and </name> for the
// first occurrence of the opening tag.
func extractField(doc, name string) (string, error) {
	openTag := "<" + name + ">"
	start := strings.Index(doc, openTag)
	if start < 0 {
		return "", fmt.Errorf("no <%s> field found", name)
	}

	valueStart := start + len(openTag)
	closeTag := "</" + name + ">"
	length := strings.Index(doc[valueStart:], closeTag)
	if length < 0 {
		line, column := position(doc, valueStart)
		return "", fmt.Errorf("<%s> field is not terminated at line:%d, column:%d", name, line, column)
	}

	return doc[valueStart : valueStart+length], nil
}

// position translates a byte offset into a 1-based line and column.
func position(doc string, offset int) (line, column int) {
	line = 1 + strings.Count(doc[:offset], "\n")
	lastNewline := strings.LastIndexByte(doc[:offset], '\n')
	if lastNewline < 0 {
		return line, offset + 1
	}
	return line, offset - lastNewline
}
