// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package archive bundles raw structure files into in-memory zip
// archives for download.
//
// A fetch failure skips that entry and continues; the completed archive
// then carries a manifest.yaml naming what was archived and what failed,
// so a partial bundle is always honest about its contents.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/httputil"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// defaultFilesURL is the production RCSB file download endpoint.
const defaultFilesURL = "https://files.rcsb.org/download"

// manifestName is the archive entry listing contents and failures.
const manifestName = "manifest.yaml"

// Builder fetches raw structure files and assembles zip bundles.
type Builder struct {
	http *http.Client
	cfg  types.ArchiveConfig
	base string
}

// NewBuilder builds an archive builder from cfg, applying the default
// file endpoint.
func NewBuilder(httpClient *http.Client, cfg types.ArchiveConfig) *Builder {
	base := cfg.FilesURL
	if base == "" {
		base = defaultFilesURL
	}
	return &Builder{http: httpClient, cfg: cfg, base: strings.TrimRight(base, "/")}
}

// Manifest describes what ended up in an archive.
type Manifest struct {
	Archived []string  `yaml:"archived"`
	Failures []Failure `yaml:"failures,omitempty"`
}

// Failure names one identifier that could not be fetched.
type Failure struct {
	ID     string `yaml:"pdb_id"`
	Reason string `yaml:"reason"`
}

// Build fetches each identifier's structure file and writes it into a
// zip archive as {id}.pdb. Fetch failures are skipped and recorded;
// when any occurred, a manifest.yaml entry is appended so the recipient
// can tell the bundle is partial. An empty identifier list produces a
// valid zero-entry archive. Progress lines go to w.
func (b *Builder) Build(ctx context.Context, ids []string, w io.Writer) ([]byte, Manifest, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var manifest Manifest

	for _, id := range ids {
		text, err := b.FetchStructure(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "failed:   %s (%v)\n", id, err)
			manifest.Failures = append(manifest.Failures, Failure{ID: id, Reason: err.Error()})
			continue
		}

		entry, err := zw.Create(id + ".pdb")
		if err != nil {
			return nil, manifest, fmt.Errorf("creating archive entry %s: %w", id, err)
		}
		if _, err := entry.Write([]byte(text)); err != nil {
			return nil, manifest, fmt.Errorf("writing archive entry %s: %w", id, err)
		}
		fmt.Fprintf(w, "archived: %s\n", id)
		manifest.Archived = append(manifest.Archived, id)
	}

	if len(manifest.Failures) > 0 {
		data, err := yaml.Marshal(manifest)
		if err != nil {
			return nil, manifest, fmt.Errorf("marshaling manifest: %w", err)
		}
		entry, err := zw.Create(manifestName)
		if err != nil {
			return nil, manifest, fmt.Errorf("creating manifest entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			return nil, manifest, fmt.Errorf("writing manifest entry: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, manifest, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), manifest, nil
}

// FetchStructure returns the raw PDB text for one identifier. An
// already-acquired local copy is preferred when cfg.LocalDir is set;
// otherwise the file endpoint is queried.
func (b *Builder) FetchStructure(ctx context.Context, id string) (string, error) {
	if b.cfg.LocalDir != "" {
		path := filepath.Join(b.cfg.LocalDir, id+".pdb")
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}

	url := fmt.Sprintf("%s/%s.pdb", b.base, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", b.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.http, req, 0)
	if err != nil {
		return "", fmt.Errorf("file request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("file endpoint returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading structure file: %w", err)
	}
	return string(data), nil
}
