// Copyright Precisionmatics Inc., 2026. All rights reserved.

package library

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, "structures", metadataDir), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := types.LibraryConfig{
		LibraryDir:    filepath.Join(tmpDir, "library"),
		StructuresDir: filepath.Join(tmpDir, "structures"),
		MaxResults:    20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func writeMeta(t *testing.T, tmpDir string, meta types.StructureMeta) {
	t.Helper()
	data, err := yaml.Marshal(&meta)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(tmpDir, "structures", metadataDir, meta.ID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func res(v float64) *float64 { return &v }

func sampleMeta(id string, resolution *float64, method, organism string) types.StructureMeta {
	return types.StructureMeta{
		ID:         id,
		Title:      "structure " + id,
		Method:     method,
		Resolution: resolution,
		Organism:   organism,
		ChainCount: 1,
		PDBPath:    "structures/raw/" + id + ".pdb",
		FetchedAt:  time.Now().UTC(),
	}
}

// --- Ingest ---

func TestIngestAndSkipUnchanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	ctx := context.Background()

	writeMeta(t, tmpDir, sampleMeta("1M17", res(2.6), "X-RAY DIFFRACTION", "Homo sapiens"))
	writeMeta(t, tmpDir, sampleMeta("4HHB", res(1.7), "X-RAY DIFFRACTION", "Homo sapiens"))

	summary, err := store.Ingest(ctx, io.Discard)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if summary.Indexed != 2 || summary.Updated != 0 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}

	// Second run with unchanged files skips everything.
	summary, err = store.Ingest(ctx, io.Discard)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if summary.Skipped != 2 || summary.Indexed != 0 {
		t.Errorf("second run summary = %+v", summary)
	}
	if summary.Total() != 2 {
		t.Errorf("Total() = %d, want 2", summary.Total())
	}
}

func TestIngestDetectsChangedFile(t *testing.T) {
	store, tmpDir := testSetup(t)
	ctx := context.Background()

	writeMeta(t, tmpDir, sampleMeta("1M17", res(2.6), "X-RAY DIFFRACTION", "Homo sapiens"))
	if _, err := store.Ingest(ctx, io.Discard); err != nil {
		t.Fatal(err)
	}

	// Rewrite with a different mod time.
	meta := sampleMeta("1M17", res(2.6), "X-RAY DIFFRACTION", "Homo sapiens")
	meta.Title = "revised title"
	writeMeta(t, tmpDir, meta)
	future := time.Now().Add(2 * time.Second)
	path := filepath.Join(tmpDir, "structures", metadataDir, "1M17.yaml")
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	summary, err := store.Ingest(ctx, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Errorf("summary = %+v, want 1 updated", summary)
	}

	rows, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Title != "revised title" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestIngestReportsParseFailures(t *testing.T) {
	store, tmpDir := testSetup(t)

	path := filepath.Join(tmpDir, "structures", metadataDir, "1BAD.yaml")
	if err := os.WriteFile(path, []byte(":: not yaml ::"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := store.Ingest(context.Background(), io.Discard)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
}

// --- Retrieve ---

func seedCatalog(t *testing.T, store *Store, tmpDir string) {
	t.Helper()
	writeMeta(t, tmpDir, sampleMeta("1M17", res(2.6), "X-RAY DIFFRACTION", "Homo sapiens"))
	writeMeta(t, tmpDir, sampleMeta("4HHB", res(1.7), "X-RAY DIFFRACTION", "Homo sapiens"))
	writeMeta(t, tmpDir, sampleMeta("2NMR", nil, "SOLUTION NMR", "Escherichia coli"))
	if _, err := store.Ingest(context.Background(), io.Discard); err != nil {
		t.Fatal(err)
	}
}

func TestRetrieveFullText(t *testing.T) {
	store, tmpDir := testSetup(t)
	seedCatalog(t, store, tmpDir)

	rows, err := store.Retrieve(context.Background(), QueryOptions{Text: "sapiens"})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Organism != "Homo sapiens" {
			t.Errorf("unexpected row %+v", row)
		}
	}
}

func TestRetrieveStructuredFilters(t *testing.T) {
	store, tmpDir := testSetup(t)
	seedCatalog(t, store, tmpDir)
	ctx := context.Background()

	rows, err := store.Retrieve(ctx, QueryOptions{Method: "NMR"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "2NMR" {
		t.Errorf("method filter rows = %+v", rows)
	}

	// Resolution ceiling excludes the NULL-resolution NMR row.
	rows, err = store.Retrieve(ctx, QueryOptions{MaxResolution: 3.0})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("ceiling rows = %+v", rows)
	}
	// Structured queries sort ascending by resolution.
	if rows[0].ID != "4HHB" || rows[1].ID != "1M17" {
		t.Errorf("order = %s, %s; want 4HHB, 1M17", rows[0].ID, rows[1].ID)
	}
}

func TestListOrdersUnresolvedLast(t *testing.T) {
	store, tmpDir := testSetup(t)
	seedCatalog(t, store, tmpDir)

	rows, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[2].ID != "2NMR" || rows[2].Resolution != nil {
		t.Errorf("last row = %+v, want unresolved 2NMR", rows[2])
	}
}

func TestExportYAML(t *testing.T) {
	store, tmpDir := testSetup(t)
	seedCatalog(t, store, tmpDir)

	if err := store.ExportYAML(context.Background()); err != nil {
		t.Fatalf("ExportYAML() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "library", indexDir, "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []types.StructureMeta
	if err := yaml.Unmarshal(data, &entries); err != nil {
		t.Fatalf("parsing export: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("export entries = %d, want 3", len(entries))
	}
}
