// Copyright Precisionmatics Inc., 2026. All rights reserved.

package pipeline

import (
	"sort"

	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// rankMethod is the method substring the ranked subset is restricted to.
const rankMethod = "X-RAY"

// rankSize caps the ranked subset.
const rankSize = 3

// Rank returns up to three X-ray records ordered ascending by
// resolution. Records without a resolution sort last and are only
// returned when fewer than three resolved X-ray records exist.
func Rank(records []types.EntryRecord) []types.EntryRecord {
	xray := make([]types.EntryRecord, 0, len(records))
	for _, rec := range records {
		if containsFold(rec.Method, rankMethod) {
			xray = append(xray, rec)
		}
	}

	sortByResolution(xray)

	if len(xray) > rankSize {
		xray = xray[:rankSize]
	}
	return xray
}

// SortByResolution returns a copy of records ordered ascending by
// resolution, with unresolved records last. This is the display order;
// filtering itself never sorts.
func SortByResolution(records []types.EntryRecord) []types.EntryRecord {
	out := make([]types.EntryRecord, len(records))
	copy(out, records)
	sortByResolution(out)
	return out
}

func sortByResolution(records []types.EntryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := records[i].Resolution, records[j].Resolution
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri < *rj
		}
	})
}
