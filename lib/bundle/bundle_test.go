// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const testPOM = `<project>
  <groupId>org.example.widgets</groupId>
  <artifactId>widget-core</artifactId>
  <version>1.4.2</version>
</project>
`

// fakeSigner records signing calls and drops a signature file next to
// each input, like the real supervised gpg does.
type fakeSigner struct {
	calls []string
}

func (f *fakeSigner) Sign(_ context.Context, file string) (string, error) {
	f.calls = append(f.calls, file)
	signature := file + ".asc"
	if err := os.WriteFile(signature, []byte("fake signature"), 0o644); err != nil {
		return "", fmt.Errorf("fake signer: %w", err)
	}
	return signature, nil
}

// writeTree creates files below root; a ".pom" file gets coordinate
// content, everything else placeholder bytes.
func writeTree(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating directories for %s: %v", name, err)
		}
		content := "placeholder"
		if strings.HasSuffix(name, ".pom") {
			content = testPOM
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

func TestFindSourcesFiltersBySuffix(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"root.jar", // ignored: no matching descriptor basename
		"dir/a.pom",
		"dir/a.jar", // ignored: .jar is not a configured suffix
		"dir/a-sources.jar",
		"dir/a.module",
	)

	collector := NewCollector(&fakeSigner{}, nil)
	sources, err := collector.FindSources(root, []string{".module", "-sources.jar"})
	if err != nil {
		t.Fatalf("FindSources failed: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}

	var found []string
	for _, file := range sources[0].files() {
		relative, err := filepath.Rel(root, file)
		if err != nil {
			t.Fatalf("relativizing %s: %v", file, err)
		}
		found = append(found, relative)
	}
	sort.Strings(found)
	want := []string{"dir/a-sources.jar", "dir/a.module", "dir/a.pom"}
	if strings.Join(found, ",") != strings.Join(want, ",") {
		t.Errorf("expected files %v, got %v", want, found)
	}

	// Companion order follows the configured suffix order.
	companions := sources[0].Companions
	if len(companions) != 2 ||
		filepath.Base(companions[0]) != "a.module" ||
		filepath.Base(companions[1]) != "a-sources.jar" {
		t.Errorf("expected companions in suffix order, got %v", companions)
	}
}

func TestFindSourcesDescriptorOnlyIsValid(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.pom")

	collector := NewCollector(&fakeSigner{}, nil)
	sources, err := collector.FindSources(root, []string{".jar"})
	if err != nil {
		t.Fatalf("FindSources failed: %v", err)
	}
	if len(sources) != 1 || len(sources[0].Companions) != 0 {
		t.Errorf("expected one descriptor-only source, got %+v", sources)
	}
}

func TestFindSourcesWalkFailureIsFatal(t *testing.T) {
	collector := NewCollector(&fakeSigner{}, nil)
	_, err := collector.FindSources(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if err == nil {
		t.Fatal("expected error for unreadable search directory")
	}
}

func TestAssembleFailsBeforeSigningWhenChecksumMissing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"a.pom", "a.pom.md5", "a.pom.sha1",
		"a.jar", "a.jar.md5", // a.jar.sha1 missing
	)

	signer := &fakeSigner{}
	collector := NewCollector(signer, nil)
	sources, err := collector.FindSources(root, []string{".jar"})
	if err != nil {
		t.Fatalf("FindSources failed: %v", err)
	}

	_, err = collector.Assemble(context.Background(), sources[0])
	if err == nil {
		t.Fatal("expected error for missing checksum sibling")
	}
	if !strings.Contains(err.Error(), "a.jar.sha1") {
		t.Errorf("expected missing file named in error, got %v", err)
	}
	if len(signer.calls) != 0 {
		t.Errorf("expected no signing calls before checksum assertion, got %v", signer.calls)
	}
}

func TestCollectProducesCoordinateAddressedArchive(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"widget-core-1.4.2.pom", "widget-core-1.4.2.pom.md5", "widget-core-1.4.2.pom.sha1",
		"widget-core-1.4.2.jar", "widget-core-1.4.2.jar.md5", "widget-core-1.4.2.jar.sha1",
	)

	signer := &fakeSigner{}
	collector := NewCollector(signer, nil)
	bundles, err := collector.Collect(context.Background(), root, []string{".jar"})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}

	b := bundles[0]
	if b.Name() != "widget-core-1.4.2_bundle.jar" {
		t.Errorf("unexpected bundle name %q", b.Name())
	}
	if len(b.Signatures) != 2 {
		t.Errorf("expected one signature per signed input, got %v", b.Signatures)
	}

	reader, err := zip.OpenReader(b.Path)
	if err != nil {
		t.Fatalf("opening bundle archive: %v", err)
	}
	defer reader.Close()

	var entries []string
	for _, file := range reader.File {
		entries = append(entries, file.Name)
	}
	sort.Strings(entries)

	prefix := "org/example/widgets/widget-core/1.4.2/"
	want := []string{
		prefix + "widget-core-1.4.2.jar",
		prefix + "widget-core-1.4.2.jar.asc",
		prefix + "widget-core-1.4.2.jar.md5",
		prefix + "widget-core-1.4.2.jar.sha1",
		prefix + "widget-core-1.4.2.pom",
		prefix + "widget-core-1.4.2.pom.asc",
		prefix + "widget-core-1.4.2.pom.md5",
		prefix + "widget-core-1.4.2.pom.sha1",
	}
	sort.Strings(want)
	if strings.Join(entries, "\n") != strings.Join(want, "\n") {
		t.Errorf("unexpected archive entries:\n%s\nwant:\n%s", strings.Join(entries, "\n"), strings.Join(want, "\n"))
	}

	// Entry content survives the round trip.
	for _, file := range reader.File {
		if !strings.HasSuffix(file.Name, ".pom") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("opening entry %s: %v", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("reading entry %s: %v", file.Name, err)
		}
		if string(content) != testPOM {
			t.Errorf("descriptor content corrupted in archive")
		}
	}
}
