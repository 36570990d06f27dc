// Copyright Precisionmatics Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// QueryOptions holds parameters for catalog queries.
type QueryOptions struct {
	// Text is the FTS5 search string over title and organism.
	Text string

	// Method filters by method substring.
	Method string

	// MaxResolution keeps rows at or below the ceiling. Zero disables
	// the filter; rows without a resolution never match a ceiling.
	MaxResolution float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query carries no terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.Method == "" && q.MaxResolution == 0
}

// Retrieve queries the catalog with optional full-text search and
// structured filters. Full-text queries rank by FTS relevance;
// structured-only queries sort ascending by resolution with unresolved
// rows last.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.StructureMeta, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	if opts.Text != "" {
		qb.WriteString(
			`SELECT st.id, st.title, st.method, st.resolution, st.organism,
				st.chain_count, st.pdb_path, st.fetched_at
			FROM structures_fts
			JOIN structures st ON st.rowid = structures_fts.rowid
			WHERE structures_fts MATCH ?`)
		args = append(args, opts.Text)
	} else {
		qb.WriteString(
			`SELECT st.id, st.title, st.method, st.resolution, st.organism,
				st.chain_count, st.pdb_path, st.fetched_at
			FROM structures st
			WHERE 1=1`)
	}

	if opts.Method != "" {
		qb.WriteString(` AND st.method LIKE ?`)
		args = append(args, "%"+opts.Method+"%")
	}

	if opts.MaxResolution > 0 {
		qb.WriteString(` AND st.resolution IS NOT NULL AND st.resolution <= ?`)
		args = append(args, opts.MaxResolution)
	}

	if opts.Text != "" {
		qb.WriteString(` ORDER BY structures_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY st.resolution IS NULL, st.resolution, st.id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var out []types.StructureMeta
	for rows.Next() {
		meta, err := scanStructure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

// List returns up to the store default number of catalog rows.
func (s *Store) List(ctx context.Context) ([]types.StructureMeta, error) {
	return s.Retrieve(ctx, QueryOptions{})
}

// ExportYAML writes the whole catalog to libraryDir/index/export.yaml.
func (s *Store) ExportYAML(ctx context.Context) error {
	entries, err := s.Retrieve(ctx, QueryOptions{MaxResults: exportLimit})
	if err != nil {
		return err
	}

	path := filepath.Join(s.libraryDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

const exportLimit = 100000

func scanStructure(rows *sql.Rows) (types.StructureMeta, error) {
	var (
		meta       types.StructureMeta
		resolution sql.NullFloat64
		fetchedAt  string
	)
	if err := rows.Scan(&meta.ID, &meta.Title, &meta.Method, &resolution,
		&meta.Organism, &meta.ChainCount, &meta.PDBPath, &fetchedAt); err != nil {
		return types.StructureMeta{}, fmt.Errorf("scanning row: %w", err)
	}
	if resolution.Valid {
		v := resolution.Float64
		meta.Resolution = &v
	}
	if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
		meta.FetchedAt = t
	}
	return meta, nil
}
