// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle discovers release artifacts on disk and packs them
// into signed, coordinate-addressed bundle jars.
//
// Discovery walks a search directory for POM descriptors and
// associates companion assets by filename-suffix convention. Assembly
// asserts that every constituent has its .md5/.sha1 checksum siblings
// before any signing work happens, signs each constituent, and writes
// everything into one jar whose entries live under the coordinate
// path group/artifact/version/.
package bundle

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	kflate "github.com/klauspost/compress/flate"

	"github.com/mavenport/mavenport/lib/descriptor"
)

// archiveSuffix replaces the descriptor extension to name the
// produced bundle jar.
const archiveSuffix = "_bundle.jar"

// checksumExtensions are the sibling files every bundle constituent
// must already have. The publisher never generates checksums — their
// absence is a build problem upstream.
var checksumExtensions = []string{".md5", ".sha1"}

// Source is one descriptor and its companion assets, discovered but
// not yet signed or packaged.
type Source struct {
	Descriptor descriptor.Descriptor

	// Companions holds asset paths in configured-suffix order. May
	// be empty: a descriptor-only bundle is valid.
	Companions []string
}

// files returns the descriptor and companions, in signing order.
func (s Source) files() []string {
	return append([]string{s.Descriptor.Path}, s.Companions...)
}

// Bundle is the packaged unit submitted to the publishing service for
// one descriptor.
type Bundle struct {
	// Path is the bundle jar on disk.
	Path string

	// Source is the composition record.
	Source Source

	// Signatures holds one .asc path per signed input, in input order.
	Signatures []string

	// Checksums holds the .md5/.sha1 sibling paths included in the jar.
	Checksums []string
}

// Name returns the bundle jar's filename.
func (b Bundle) Name() string {
	return filepath.Base(b.Path)
}

// Signer produces a detached signature file for an input file and
// returns its path. Implemented by *gpg.Signer.
type Signer interface {
	Sign(ctx context.Context, file string) (string, error)
}

// Collector discovers bundle sources and assembles them into signed
// bundle jars.
type Collector struct {
	signer Signer
	logger *slog.Logger
}

// NewCollector creates a Collector signing with the given signer.
// A nil logger means slog.Default().
func NewCollector(signer Signer, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{signer: signer, logger: logger}
}

// Collect discovers all bundle sources below searchDir and assembles
// each into a signed bundle jar. Any failure is fatal for the run:
// a walk error, missing checksum sibling, or signing failure aborts
// all further work.
func (c *Collector) Collect(ctx context.Context, searchDir string, companionSuffixes []string) ([]Bundle, error) {
	sources, err := c.FindSources(searchDir, companionSuffixes)
	if err != nil {
		return nil, err
	}

	bundles := make([]Bundle, 0, len(sources))
	for _, source := range sources {
		b, err := c.Assemble(ctx, source)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// FindSources walks searchDir for descriptor files and resolves each
// one's companions: basename+suffix for every configured suffix, kept
// when it exists as a regular file, in configured order.
func (c *Collector) FindSources(searchDir string, companionSuffixes []string) ([]Source, error) {
	var descriptorPaths []string
	err := filepath.WalkDir(searchDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), descriptor.Extension) {
			descriptorPaths = append(descriptorPaths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching for descriptors in %s: %w", searchDir, err)
	}

	sources := make([]Source, 0, len(descriptorPaths))
	for _, path := range descriptorPaths {
		d, err := descriptor.Read(path)
		if err != nil {
			return nil, err
		}

		dir := filepath.Dir(path)
		basename := d.Basename()
		var companions []string
		for _, suffix := range companionSuffixes {
			candidate := filepath.Join(dir, basename+suffix)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				companions = append(companions, candidate)
			}
		}

		c.logger.Debug("found bundle source", "descriptor", path, "coordinate", d.String(), "companions", len(companions))
		sources = append(sources, Source{Descriptor: d, Companions: companions})
	}
	return sources, nil
}

// Assemble signs the source's files and packs descriptor, companions,
// checksums, and signatures into the bundle jar. The checksum sibling
// assertion runs before any signing call so a missing checksum costs
// nothing.
func (c *Collector) Assemble(ctx context.Context, source Source) (Bundle, error) {
	inputs := source.files()

	checksums, err := checksumSiblings(inputs)
	if err != nil {
		return Bundle{}, err
	}

	signatures := make([]string, 0, len(inputs))
	for _, file := range inputs {
		signature, err := c.signer.Sign(ctx, file)
		if err != nil {
			return Bundle{}, err
		}
		signatures = append(signatures, signature)
	}

	archivePath := strings.TrimSuffix(source.Descriptor.Path, descriptor.Extension) + archiveSuffix

	var entries []string
	entries = append(entries, inputs...)
	entries = append(entries, checksums...)
	entries = append(entries, signatures...)

	if err := writeArchive(archivePath, source.Descriptor.CoordinatePath(), entries); err != nil {
		return Bundle{}, err
	}

	c.logger.Debug("assembled bundle", "archive", archivePath, "entries", len(entries))
	return Bundle{
		Path:       archivePath,
		Source:     source,
		Signatures: signatures,
		Checksums:  checksums,
	}, nil
}

// checksumSiblings returns the .md5/.sha1 paths for every file, or an
// error naming every missing one.
func checksumSiblings(files []string) ([]string, error) {
	var checksums []string
	var missing []string
	for _, file := range files {
		for _, extension := range checksumExtensions {
			sibling := file + extension
			if info, err := os.Stat(sibling); err != nil || !info.Mode().IsRegular() {
				missing = append(missing, sibling)
				continue
			}
			checksums = append(checksums, sibling)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required checksum files: %s", strings.Join(missing, ", "))
	}
	return checksums, nil
}

// writeArchive creates the bundle jar with every file stored under
// the coordinate directory, keeping its own filename.
func writeArchive(archivePath, coordinatePath string, files []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating bundle archive %s: %w", archivePath, err)
	}
	defer out.Close()

	archive := zip.NewWriter(out)
	archive.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return kflate.NewWriter(w, kflate.DefaultCompression)
	})

	for _, file := range files {
		if err := addEntry(archive, coordinatePath+filepath.Base(file), file); err != nil {
			archive.Close()
			return fmt.Errorf("packaging %s into %s: %w", file, archivePath, err)
		}
	}

	if err := archive.Close(); err != nil {
		return fmt.Errorf("finalizing bundle archive %s: %w", archivePath, err)
	}
	return out.Close()
}

func addEntry(archive *zip.Writer, entryName, file string) error {
	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer in.Close()

	entry, err := archive.CreateHeader(&zip.FileHeader{
		Name:   entryName,
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, in)
	return err
}
