// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package types defines shared data structures for the structure-finder
// pipeline: the enriched entry record flowing from enrichment through
// filtering, ranking, and display, and the per-stage configuration.
package types

import "time"

// EntryRecord is one flat, immutable row describing a structure entry.
// Produced by the enrichment stage from the entry-level and
// polymer-entity-level RCSB responses; consumed by filtering, ranking,
// the table formatter, and the dashboard API.
type EntryRecord struct {
	// ID is the PDB entry identifier (e.g. "1M17").
	ID string `json:"pdb_id" yaml:"pdb_id"`

	// Title is the structure title, "No Title" when absent.
	Title string `json:"title" yaml:"title"`

	// Method is the experimental method, "Unknown" when absent.
	Method string `json:"method" yaml:"method"`

	// Resolution is the combined resolution in angstroms. Nil when the
	// experimental method has no applicable resolution (e.g. NMR).
	Resolution *float64 `json:"resolution" yaml:"resolution"`

	// Organism is the deduplicated, sorted, comma-joined set of source
	// organism scientific names across all polymer entities, or
	// "Unknown" when no organism was reported.
	Organism string `json:"organism" yaml:"organism"`

	// ChainCount is the number of distinct chain labels across all
	// polymer entities, not the number of entities.
	ChainCount int `json:"chain_count" yaml:"chain_count"`
}

// IsMonomer reports whether the entry has exactly one distinct chain.
func (r EntryRecord) IsMonomer() bool {
	return r.ChainCount == 1
}

// EnrichFailure records one identifier that could not be enriched and why.
type EnrichFailure struct {
	ID     string `json:"pdb_id" yaml:"pdb_id"`
	Reason string `json:"reason" yaml:"reason"`
}

// StructureMeta is the metadata record written alongside each acquired
// structure file.
type StructureMeta struct {
	ID         string    `json:"pdb_id" yaml:"pdb_id"`
	Title      string    `json:"title" yaml:"title"`
	Method     string    `json:"method" yaml:"method"`
	Resolution *float64  `json:"resolution" yaml:"resolution"`
	Organism   string    `json:"organism" yaml:"organism"`
	ChainCount int       `json:"chain_count" yaml:"chain_count"`
	SourceURL  string    `json:"source_url" yaml:"source_url"`
	PDBPath    string    `json:"pdb_path" yaml:"pdb_path"`
	FetchedAt  time.Time `json:"fetched_at" yaml:"fetched_at"`
}
