// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package library maintains a local SQLite catalog of acquired
// structures with a full-text index over titles and organisms, so a
// structure fetched once can be found again without touching the
// network.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

const (
	indexDir    = "index"
	metadataDir = "metadata"
	dbFile      = "structures.db"
)

// Store manages the structure catalog database.
type Store struct {
	db            *sql.DB
	libraryDir    string
	structuresDir string
	maxResults    int
}

// NewStore opens or creates the catalog database at
// libraryDir/index/structures.db, creating the schema if needed.
func NewStore(cfg types.LibraryConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.LibraryDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:            db,
		libraryDir:    cfg.LibraryDir,
		structuresDir: cfg.StructuresDir,
		maxResults:    maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS structures (
			id TEXT NOT NULL UNIQUE,
			title TEXT,
			method TEXT,
			resolution REAL,
			organism TEXT,
			chain_count INTEGER,
			pdb_path TEXT,
			fetched_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_structures_method ON structures(method)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			structure_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='structures_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE structures_fts USING fts5(title, organism, content=structures, content_rowid=rowid)`,
			`CREATE TRIGGER structures_ai AFTER INSERT ON structures BEGIN
				INSERT INTO structures_fts(rowid, title, organism) VALUES (new.rowid, new.title, new.organism);
			END`,
			`CREATE TRIGGER structures_ad AFTER DELETE ON structures BEGIN
				INSERT INTO structures_fts(structures_fts, rowid, title, organism) VALUES('delete', old.rowid, old.title, old.organism);
			END`,
			`CREATE TRIGGER structures_au AFTER UPDATE ON structures BEGIN
				INSERT INTO structures_fts(structures_fts, rowid, title, organism) VALUES('delete', old.rowid, old.title, old.organism);
				INSERT INTO structures_fts(rowid, title, organism) VALUES (new.rowid, new.title, new.organism);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a catalog indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of metadata files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads structure metadata YAML files from structuresDir/metadata/
// and populates the catalog. Files whose mod-time is unchanged since the
// last run are skipped, so repeated ingests are incremental.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	metaDir := filepath.Join(s.structuresDir, metadataDir)

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading metadata directory %s: %w", metaDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		id := strings.TrimSuffix(entry.Name(), ".yaml")
		filePath := filepath.Join(metaDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE structure_id = ?`, id,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", id)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			continue
		}

		var meta types.StructureMeta
		if err := yaml.Unmarshal(data, &meta); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", id, err)
			summary.Failed++
			continue
		}
		if meta.ID == "" {
			meta.ID = id
		}

		if err := s.upsert(ctx, &meta, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", id)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s\n", id)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

// upsert writes one catalog row inside a transaction. The delete keeps
// the FTS triggers simple.
func (s *Store) upsert(ctx context.Context, meta *types.StructureMeta, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM structures WHERE id = ?`, meta.ID); err != nil {
		return fmt.Errorf("deleting stale row: %w", err)
	}

	var resolution any
	if meta.Resolution != nil {
		resolution = *meta.Resolution
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO structures (id, title, method, resolution, organism, chain_count, pdb_path, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Title, meta.Method, resolution, meta.Organism,
		meta.ChainCount, meta.PDBPath, meta.FetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting structure: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (structure_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(structure_id) DO UPDATE SET file_mod_time = excluded.file_mod_time`,
		meta.ID, modTime)
	if err != nil {
		return fmt.Errorf("recording indexing status: %w", err)
	}

	return tx.Commit()
}
