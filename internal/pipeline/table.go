// Copyright Precisionmatics Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.EntryRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No structures matched.")
		return
	}

	fmt.Fprintf(w, "%-6s  %-48s  %-24s  %-8s  %-28s  %s\n",
		"PDB ID", "Title", "Method", "Res (Å)", "Organism", "Chains")
	fmt.Fprintln(w, strings.Repeat("-", 126))

	for _, rec := range records {
		fmt.Fprintf(w, "%-6s  %-48s  %-24s  %-8s  %-28s  %d\n",
			rec.ID,
			truncate(rec.Title, 48),
			truncate(rec.Method, 24),
			formatResolution(rec.Resolution),
			truncate(rec.Organism, 28),
			rec.ChainCount)
	}
}

// FormatCounts writes the raw/filtered counters shown above the table.
func FormatCounts(raw, filtered int, w io.Writer) {
	fmt.Fprintf(w, "\nTotal entries: %d, filtered entries: %d\n", raw, filtered)
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(records []types.EntryRecord, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// FormatFailures writes the enrichment failure report to w, one line
// per dropped identifier.
func FormatFailures(failures []types.EnrichFailure, w io.Writer) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d entries dropped during enrichment:\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  %-6s %s\n", f.ID, f.Reason)
	}
}

func formatResolution(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *r)
}

// truncate shortens s to at most max characters. Counting runes keeps
// a cut inside a non-ASCII title or organism name from emitting
// invalid UTF-8.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
