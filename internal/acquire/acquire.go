// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package acquire downloads raw structure files to local storage and
// writes per-structure metadata records. Files already on disk are
// skipped, so re-running a batch only fetches what is missing.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/enrich"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/httputil"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

const (
	rawDir      = "raw"
	metadataDir = "metadata"
)

// defaultFilesURL is the production RCSB file download endpoint.
const defaultFilesURL = "https://files.rcsb.org/download"

// NormalizeID upper-cases and validates a PDB entry identifier: four
// characters, leading digit, alphanumeric.
func NormalizeID(id string) (string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if len(id) != 4 {
		return "", fmt.Errorf("PDB identifier must be four characters: %q", id)
	}
	if id[0] < '1' || id[0] > '9' {
		return "", fmt.Errorf("PDB identifier must start with a digit: %q", id)
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z') {
			return "", fmt.Errorf("PDB identifier must be alphanumeric: %q", id)
		}
	}
	return id, nil
}

// BatchResult holds the outcome of a batch acquisition run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Structures []*types.StructureMeta
}

// Total returns the total number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any structures failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AcquireStructure downloads one structure file and writes its metadata
// record. If the file already exists on disk the download is skipped.
// enr, when non-nil, supplies entry metadata for the record; a metadata
// failure is a warning, not an acquisition failure.
func AcquireStructure(ctx context.Context, client *http.Client, enr *enrich.Enricher, id string, cfg types.AcquisitionConfig, w io.Writer) (meta *types.StructureMeta, skipped bool, err error) {
	id, err = NormalizeID(id)
	if err != nil {
		return nil, false, err
	}

	pdbPath := filepath.Join(cfg.StructuresDir, rawDir, id+".pdb")
	metaPath := filepath.Join(cfg.StructuresDir, metadataDir, id+".yaml")

	if _, err := os.Stat(pdbPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", id)
		m, readErr := readMetadata(metaPath)
		if readErr != nil {
			m = &types.StructureMeta{ID: id, PDBPath: pdbPath}
		}
		return m, true, nil
	}

	for _, dir := range []string{
		filepath.Join(cfg.StructuresDir, rawDir),
		filepath.Join(cfg.StructuresDir, metadataDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	base := cfg.FilesURL
	if base == "" {
		base = defaultFilesURL
	}
	url := fmt.Sprintf("%s/%s.pdb", strings.TrimRight(base, "/"), id)

	fmt.Fprintf(w, "downloading: %s\n", id)

	if err := downloadFile(ctx, client, url, pdbPath, cfg); err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", id, err)
	}

	m := &types.StructureMeta{
		ID:        id,
		SourceURL: url,
		PDBPath:   pdbPath,
		FetchedAt: time.Now().UTC(),
	}

	if enr != nil {
		report := enr.Enrich(ctx, []string{id}, 1)
		if len(report.Records) == 1 {
			rec := report.Records[0]
			m.Title = rec.Title
			m.Method = rec.Method
			m.Resolution = rec.Resolution
			m.Organism = rec.Organism
			m.ChainCount = rec.ChainCount
		} else if len(report.Failures) == 1 {
			fmt.Fprintf(w, "  warning: metadata fetch failed: %s\n", report.Failures[0].Reason)
		}
	}

	if err := writeMetadata(m, metaPath); err != nil {
		return nil, false, fmt.Errorf("writing metadata for %s: %w", id, err)
	}

	return m, false, nil
}

// AcquireBatch processes multiple identifiers, printing per-item status
// and returning a summary. It continues after individual failures and
// applies a delay between consecutive downloads.
func AcquireBatch(ctx context.Context, client *http.Client, enr *enrich.Enricher, ids []string, cfg types.AcquisitionConfig, w io.Writer) BatchResult {
	var result BatchResult
	for i, id := range ids {
		if i > 0 && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		meta, wasSkipped, err := AcquireStructure(ctx, client, enr, id, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Structures = append(result.Structures, meta)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadFile fetches url to destPath through a temporary file so a
// failed download never leaves a truncated .pdb behind.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.AcquisitionConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeMetadata writes a StructureMeta record to a YAML file.
func writeMetadata(meta *types.StructureMeta, path string) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// readMetadata reads a StructureMeta record from a YAML file.
func readMetadata(path string) (*types.StructureMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta types.StructureMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
