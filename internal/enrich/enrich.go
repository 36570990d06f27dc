// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package enrich turns PDB entry identifiers into flat EntryRecords by
// fetching entry-level and polymer-entity-level metadata from the RCSB
// data API.
//
// Identifiers are processed by a bounded worker pool; within one
// identifier the sub-entity fetches run sequentially. Any failure along
// an identifier's fetch chain drops the whole identifier from the record
// set, but the failure is kept in the report so a caller can see what
// was lost instead of it vanishing silently.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/httputil"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// defaultDataURL is the production RCSB data API base.
const defaultDataURL = "https://data.rcsb.org/rest/v1/core"

const (
	minConcurrency     = 1
	maxConcurrency     = 20
	defaultConcurrency = 10
)

// Enricher fetches per-entry metadata from the RCSB data API.
type Enricher struct {
	http *http.Client
	cfg  types.EnrichConfig
	base string
}

// New builds an enricher from cfg, applying the default data API base.
func New(httpClient *http.Client, cfg types.EnrichConfig) *Enricher {
	base := cfg.DataURL
	if base == "" {
		base = defaultDataURL
	}
	return &Enricher{http: httpClient, cfg: cfg, base: strings.TrimRight(base, "/")}
}

// Report holds the outcome of an enrichment run: one record per
// identifier that fetched cleanly, one failure per identifier that did
// not. Records appear in completion order, not input order.
type Report struct {
	Records  []types.EntryRecord
	Failures []types.EnrichFailure
}

// Total returns the number of identifiers processed.
func (r Report) Total() int {
	return len(r.Records) + len(r.Failures)
}

// HasFailures reports whether any identifier was dropped.
func (r Report) HasFailures() bool {
	return len(r.Failures) > 0
}

// Enrich runs the per-identifier fetch chains through a worker pool of
// concurrency goroutines (clamped to 1..20; zero or negative falls back
// to the configured default) and blocks until all chains complete.
// Per-identifier failures are absorbed into the report; Enrich itself
// never fails.
func (e *Enricher) Enrich(ctx context.Context, ids []string, concurrency int) Report {
	workers := concurrency
	if workers < minConcurrency {
		workers = e.cfg.Concurrency
	}
	if workers < minConcurrency {
		workers = defaultConcurrency
	}
	if workers > maxConcurrency {
		workers = maxConcurrency
	}

	var (
		mu     sync.Mutex
		report Report
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for _, id := range ids {
		eg.Go(func() error {
			rec, err := e.enrichOne(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, types.EnrichFailure{ID: id, Reason: err.Error()})
				return nil
			}
			report.Records = append(report.Records, rec)
			return nil
		})
	}

	eg.Wait()
	return report
}

// enrichOne runs the fetch chain for a single identifier: the entry
// document, then each polymer entity document in sequence.
func (e *Enricher) enrichOne(ctx context.Context, id string) (types.EntryRecord, error) {
	var entry entryResponse
	if err := e.getJSON(ctx, fmt.Sprintf("%s/entry/%s", e.base, id), &entry); err != nil {
		return types.EntryRecord{}, fmt.Errorf("entry metadata: %w", err)
	}

	rec := types.EntryRecord{
		ID:     id,
		Title:  entry.Struct.Title,
		Method: "Unknown",
	}
	if rec.Title == "" {
		rec.Title = "No Title"
	}
	if len(entry.Exptl) > 0 && entry.Exptl[0].Method != "" {
		rec.Method = entry.Exptl[0].Method
	}
	if len(entry.EntryInfo.ResolutionCombined) > 0 {
		rec.Resolution = entry.EntryInfo.ResolutionCombined[0]
	}

	organisms := make(map[string]struct{})
	chains := make(map[string]struct{})

	for _, entityID := range entry.ContainerIdentifiers.PolymerEntityIDs {
		var entity polymerResponse
		url := fmt.Sprintf("%s/polymer_entity/%s/%s", e.base, id, entityID)
		if err := e.getJSON(ctx, url, &entity); err != nil {
			return types.EntryRecord{}, fmt.Errorf("polymer entity %s: %w", entityID, err)
		}

		if len(entity.SourceOrganisms) > 0 {
			name := entity.SourceOrganisms[0].ScientificName
			if name == "" {
				name = "Unknown"
			}
			organisms[name] = struct{}{}
		}
		for _, label := range entity.ContainerIdentifiers.AuthAsymIDs {
			chains[label] = struct{}{}
		}
	}

	rec.Organism = joinSorted(organisms)
	rec.ChainCount = len(chains)
	return rec, nil
}

// getJSON fetches url and decodes the JSON body into v. The configured
// timeout bounds each request individually so one slow document cannot
// consume the whole run's budget.
func (e *Enricher) getJSON(ctx context.Context, url string, v any) error {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, e.http, req, 0)
	if err != nil {
		return fmt.Errorf("data API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("data API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// joinSorted reduces the organism set to a sorted, comma-joined string.
func joinSorted(set map[string]struct{}) string {
	if len(set) == 0 {
		return "Unknown"
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// RCSB data API response structures, trimmed to the fields we read.

type entryResponse struct {
	Struct struct {
		Title string `json:"title"`
	} `json:"struct"`
	Exptl []struct {
		Method string `json:"method"`
	} `json:"exptl"`
	EntryInfo struct {
		// resolution_combined may contain null for methods without an
		// applicable resolution.
		ResolutionCombined []*float64 `json:"resolution_combined"`
	} `json:"rcsb_entry_info"`
	ContainerIdentifiers struct {
		PolymerEntityIDs []string `json:"polymer_entity_ids"`
	} `json:"rcsb_entry_container_identifiers"`
}

type polymerResponse struct {
	SourceOrganisms []struct {
		ScientificName string `json:"scientific_name"`
	} `json:"rcsb_entity_source_organism"`
	ContainerIdentifiers struct {
		AuthAsymIDs []string `json:"auth_asym_ids"`
	} `json:"rcsb_polymer_entity_container_identifiers"`
}
