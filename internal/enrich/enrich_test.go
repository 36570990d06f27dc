// Copyright Precisionmatics Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// entryJSON builds a minimal entry document.
func entryJSON(title, method string, resolution string, entityIDs ...string) string {
	quoted := make([]string, len(entityIDs))
	for i, id := range entityIDs {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf(`{
		"struct": {"title": %q},
		"exptl": [{"method": %q}],
		"rcsb_entry_info": {"resolution_combined": [%s]},
		"rcsb_entry_container_identifiers": {"polymer_entity_ids": [%s]}
	}`, title, method, resolution, strings.Join(quoted, ","))
}

// polymerJSON builds a minimal polymer entity document.
func polymerJSON(organism string, chains ...string) string {
	quoted := make([]string, len(chains))
	for i, c := range chains {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	src := "[]"
	if organism != "" {
		src = fmt.Sprintf(`[{"scientific_name": %q}]`, organism)
	}
	return fmt.Sprintf(`{
		"rcsb_entity_source_organism": %s,
		"rcsb_polymer_entity_container_identifiers": {"auth_asym_ids": [%s]}
	}`, src, strings.Join(quoted, ","))
}

// dataServer serves canned documents keyed by URL path suffix.
func dataServer(docs map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := docs[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
}

func testEnricher(ts *httptest.Server, concurrency int) *Enricher {
	return New(ts.Client(), types.EnrichConfig{
		HTTPConfig:  types.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "test/0.1"},
		DataURL:     ts.URL,
		Concurrency: concurrency,
	})
}

func TestEnrichBuildsRecord(t *testing.T) {
	ts := dataServer(map[string]string{
		"/entry/1M17":            entryJSON("EGFR kinase domain", "X-RAY DIFFRACTION", "2.6", "1", "2"),
		"/polymer_entity/1M17/1": polymerJSON("Homo sapiens", "A", "B"),
		"/polymer_entity/1M17/2": polymerJSON("Mus musculus", "B", "C"),
	})
	defer ts.Close()

	report := testEnricher(ts, 0).Enrich(context.Background(), []string{"1M17"}, 1)
	if report.HasFailures() {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
	if len(report.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1", len(report.Records))
	}

	rec := report.Records[0]
	if rec.ID != "1M17" {
		t.Errorf("ID = %q, want 1M17", rec.ID)
	}
	if rec.Title != "EGFR kinase domain" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.Method != "X-RAY DIFFRACTION" {
		t.Errorf("Method = %q", rec.Method)
	}
	if rec.Resolution == nil || *rec.Resolution != 2.6 {
		t.Errorf("Resolution = %v, want 2.6", rec.Resolution)
	}
	// Organisms deduplicated and sorted; chains counted distinctly
	// across entities (A, B, C; B appears in both entities).
	if rec.Organism != "Homo sapiens, Mus musculus" {
		t.Errorf("Organism = %q", rec.Organism)
	}
	if rec.ChainCount != 3 {
		t.Errorf("ChainCount = %d, want 3", rec.ChainCount)
	}
}

func TestEnrichDefaults(t *testing.T) {
	ts := dataServer(map[string]string{
		// No title, no exptl, null resolution, no polymer entities.
		"/entry/9NUL": `{
			"exptl": [],
			"rcsb_entry_info": {"resolution_combined": [null]},
			"rcsb_entry_container_identifiers": {}
		}`,
	})
	defer ts.Close()

	report := testEnricher(ts, 0).Enrich(context.Background(), []string{"9NUL"}, 1)
	if len(report.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1 (failures: %v)", len(report.Records), report.Failures)
	}

	rec := report.Records[0]
	if rec.Title != "No Title" {
		t.Errorf("Title = %q, want No Title", rec.Title)
	}
	if rec.Method != "Unknown" {
		t.Errorf("Method = %q, want Unknown", rec.Method)
	}
	if rec.Resolution != nil {
		t.Errorf("Resolution = %v, want nil", *rec.Resolution)
	}
	if rec.Organism != "Unknown" {
		t.Errorf("Organism = %q, want Unknown", rec.Organism)
	}
	if rec.ChainCount != 0 {
		t.Errorf("ChainCount = %d, want 0", rec.ChainCount)
	}
}

func TestEnrichEmptyOrganismNameCountsAsUnknown(t *testing.T) {
	ts := dataServer(map[string]string{
		"/entry/1ABC":            entryJSON("t", "SOLUTION NMR", "null", "1"),
		"/polymer_entity/1ABC/1": `{"rcsb_entity_source_organism": [{}], "rcsb_polymer_entity_container_identifiers": {"auth_asym_ids": ["A"]}}`,
	})
	defer ts.Close()

	report := testEnricher(ts, 0).Enrich(context.Background(), []string{"1ABC"}, 1)
	if len(report.Records) != 1 {
		t.Fatalf("failures: %v", report.Failures)
	}
	if got := report.Records[0].Organism; got != "Unknown" {
		t.Errorf("Organism = %q, want Unknown", got)
	}
}

func TestEnrichFailureDropsWholeIdentifier(t *testing.T) {
	ts := dataServer(map[string]string{
		"/entry/GOOD":            entryJSON("ok", "X-RAY DIFFRACTION", "1.9", "1"),
		"/polymer_entity/GOOD/1": polymerJSON("Homo sapiens", "A"),
		// BADP's entry document lists an entity the server doesn't have,
		// so the chain fails mid-way; no partial record may survive.
		"/entry/BADP": entryJSON("broken", "X-RAY DIFFRACTION", "2.0", "1"),
	})
	defer ts.Close()

	report := testEnricher(ts, 0).Enrich(context.Background(), []string{"GOOD", "MISSING", "BADP"}, 4)

	if len(report.Records) != 1 || report.Records[0].ID != "GOOD" {
		t.Errorf("Records = %+v, want only GOOD", report.Records)
	}
	if len(report.Failures) != 2 {
		t.Fatalf("Failures = %+v, want 2", report.Failures)
	}
	failed := map[string]string{}
	for _, f := range report.Failures {
		failed[f.ID] = f.Reason
	}
	if _, ok := failed["MISSING"]; !ok {
		t.Error("MISSING not reported as failure")
	}
	if reason, ok := failed["BADP"]; !ok || !strings.Contains(reason, "polymer entity") {
		t.Errorf("BADP reason = %q, want polymer entity failure", reason)
	}
	if report.Total() != 3 {
		t.Errorf("Total() = %d, want 3", report.Total())
	}
}

func TestEnrichConcurrencyIndependence(t *testing.T) {
	docs := map[string]string{}
	var ids []string
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("%04d", i)
		ids = append(ids, id)
		docs["/entry/"+id] = entryJSON("title "+id, "X-RAY DIFFRACTION", fmt.Sprintf("%.1f", 1.0+float64(i)*0.1), "1")
		docs["/polymer_entity/"+id+"/1"] = polymerJSON("Homo sapiens", "A")
	}
	ts := dataServer(docs)
	defer ts.Close()

	got1 := testEnricher(ts, 0).Enrich(context.Background(), ids, 1)
	got20 := testEnricher(ts, 0).Enrich(context.Background(), ids, 20)

	if len(got1.Records) != 12 || len(got20.Records) != 12 {
		t.Fatalf("record counts = %d, %d; want 12, 12", len(got1.Records), len(got20.Records))
	}

	byID := func(recs []types.EntryRecord) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.ID
		}
		sort.Strings(out)
		return out
	}
	if fmt.Sprint(byID(got1.Records)) != fmt.Sprint(byID(got20.Records)) {
		t.Error("record sets differ between concurrency 1 and 20")
	}
}

func TestEnrichPoolIsBounded(t *testing.T) {
	var inFlight, peak int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/entry/") {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}
		fmt.Fprint(w, entryJSON("t", "X-RAY DIFFRACTION", "2.0"))
	}))
	defer ts.Close()

	ids := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	testEnricher(ts, 0).Enrich(context.Background(), ids, 2)

	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("peak in-flight entry fetches = %d, want <= 2", p)
	}
}
