// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package pipeline filters, ranks, and formats enriched entry records.
// Filtering and ranking are pure functions over record slices; nothing
// here touches the network.
package pipeline

import (
	"strings"

	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// MethodAny is the method selector value that disables method filtering.
const MethodAny = "Any"

// humanOrganism is the organism substring the only-human predicate matches.
const humanOrganism = "Homo sapiens"

// Options holds the active filter predicates. The zero MaxResolution is
// treated literally: a ceiling of 0 keeps nothing, matching the always-on
// resolution predicate.
type Options struct {
	// OnlyHuman keeps records whose organism string contains "Homo sapiens".
	OnlyHuman bool

	// MonomerOnly keeps records with exactly one distinct chain.
	MonomerOnly bool

	// MaxResolution is the inclusive resolution ceiling in angstroms.
	// Always applied; records without a resolution never pass.
	MaxResolution float64

	// Method keeps records whose method contains this value,
	// case-insensitively. "Any" or empty disables the predicate.
	Method string
}

// Filter returns the records satisfying every active predicate, in
// input order. It never mutates its input and is idempotent.
func Filter(records []types.EntryRecord, opts Options) []types.EntryRecord {
	out := make([]types.EntryRecord, 0, len(records))
	for _, rec := range records {
		if keep(rec, opts) {
			out = append(out, rec)
		}
	}
	return out
}

// keep evaluates the predicate conjunction for one record. The
// predicates are independent; order does not matter.
func keep(rec types.EntryRecord, opts Options) bool {
	if opts.OnlyHuman && !strings.Contains(rec.Organism, humanOrganism) {
		return false
	}
	if opts.MonomerOnly && !rec.IsMonomer() {
		return false
	}
	if opts.Method != "" && opts.Method != MethodAny && !containsFold(rec.Method, opts.Method) {
		return false
	}
	// Resolution predicate is always on: no resolution, no record.
	if rec.Resolution == nil || *rec.Resolution > opts.MaxResolution {
		return false
	}
	return true
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
