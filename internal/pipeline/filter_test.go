// Copyright Precisionmatics Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"testing"

	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

func res(v float64) *float64 { return &v }

func rec(id string, resolution *float64, method, organism string, chains int) types.EntryRecord {
	return types.EntryRecord{
		ID:         id,
		Title:      "title " + id,
		Method:     method,
		Resolution: resolution,
		Organism:   organism,
		ChainCount: chains,
	}
}

func ids(records []types.EntryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

var sample = []types.EntryRecord{
	rec("HUM1", res(1.8), "X-RAY DIFFRACTION", "Homo sapiens", 1),
	rec("HUM2", res(2.8), "X-RAY DIFFRACTION", "Homo sapiens, Mus musculus", 2),
	rec("MOU1", res(1.2), "X-RAY DIFFRACTION", "Mus musculus", 1),
	rec("NMR1", nil, "SOLUTION NMR", "Homo sapiens", 1),
	rec("CRY1", res(3.4), "ELECTRON MICROSCOPY", "Homo sapiens", 4),
}

func TestFilterPredicates(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "resolution ceiling only",
			opts: Options{MaxResolution: 5.0},
			want: []string{"HUM1", "HUM2", "MOU1", "CRY1"},
		},
		{
			name: "only human",
			opts: Options{OnlyHuman: true, MaxResolution: 5.0},
			want: []string{"HUM1", "HUM2", "CRY1"},
		},
		{
			name: "human substring matches multi-organism records",
			opts: Options{OnlyHuman: true, MaxResolution: 3.0},
			want: []string{"HUM1", "HUM2"},
		},
		{
			name: "monomer only",
			opts: Options{MonomerOnly: true, MaxResolution: 5.0},
			want: []string{"HUM1", "MOU1"},
		},
		{
			name: "method filter is case-insensitive",
			opts: Options{Method: "x-ray", MaxResolution: 5.0},
			want: []string{"HUM1", "HUM2", "MOU1"},
		},
		{
			name: "method Any disables the predicate",
			opts: Options{Method: MethodAny, MaxResolution: 5.0},
			want: []string{"HUM1", "HUM2", "MOU1", "CRY1"},
		},
		{
			name: "tight ceiling",
			opts: Options{MaxResolution: 1.5},
			want: []string{"MOU1"},
		},
		{
			name: "all predicates",
			opts: Options{OnlyHuman: true, MonomerOnly: true, Method: "X-RAY", MaxResolution: 2.5},
			want: []string{"HUM1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sample, tt.opts)
			if fmt.Sprint(ids(got)) != fmt.Sprint(tt.want) {
				t.Errorf("Filter() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterDropsNilResolutionAlways(t *testing.T) {
	// A nil resolution never passes, even with the loosest ceiling and
	// every other predicate disabled.
	records := []types.EntryRecord{rec("NMR1", nil, "SOLUTION NMR", "Homo sapiens", 1)}
	if got := Filter(records, Options{MaxResolution: 5.0}); len(got) != 0 {
		t.Errorf("Filter() kept a record without resolution: %v", ids(got))
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	opts := Options{OnlyHuman: true, Method: "X-RAY", MaxResolution: 3.0}
	once := Filter(sample, opts)
	twice := Filter(once, opts)
	if fmt.Sprint(ids(once)) != fmt.Sprint(ids(twice)) {
		t.Errorf("second pass changed the set: %v vs %v", ids(once), ids(twice))
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	records := []types.EntryRecord{
		rec("B", res(2.0), "X-RAY DIFFRACTION", "Homo sapiens", 1),
		rec("A", res(1.0), "X-RAY DIFFRACTION", "Homo sapiens", 1),
	}
	Filter(records, Options{MaxResolution: 5.0})
	if records[0].ID != "B" || records[1].ID != "A" {
		t.Error("Filter reordered its input")
	}
}

func TestFilterPreservesInputOrder(t *testing.T) {
	got := Filter(sample, Options{MaxResolution: 5.0})
	// HUM2 (2.8) stays ahead of MOU1 (1.2): filtering must not sort.
	if fmt.Sprint(ids(got)) != fmt.Sprint([]string{"HUM1", "HUM2", "MOU1", "CRY1"}) {
		t.Errorf("Filter() = %v, input order not preserved", ids(got))
	}
}
