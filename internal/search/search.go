// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package search resolves a protein or gene name to PDB entry
// identifiers through the RCSB search API.
//
// The lookup is two-stage: a precise query matching the structure title,
// polymer description, and gene name, and a broader full-text fallback
// used only when the precise query comes back empty. A failure in either
// stage counts as zero results for that stage rather than an error, so
// the only user-visible outcome of total failure is an empty identifier
// list.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/cache"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/httputil"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// defaultSearchURL is the production RCSB search endpoint.
const defaultSearchURL = "https://search.rcsb.org/rcsbsearch/v2/query"

const (
	defaultCacheSize = 128
	defaultCacheTTL  = 15 * time.Minute
)

// Client issues hybrid searches against the RCSB search API. Results
// are memoized per exact query string in a bounded TTL cache, so
// repeating a search within a session does not hit the network again.
type Client struct {
	http *http.Client
	cfg  types.SearchConfig
	url  string
	memo *cache.Cache[string, []string]
}

// NewClient builds a search client from cfg, applying defaults for the
// endpoint, cache size, and cache TTL.
func NewClient(httpClient *http.Client, cfg types.SearchConfig) *Client {
	url := cfg.SearchURL
	if url == "" {
		url = defaultSearchURL
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Client{
		http: httpClient,
		cfg:  cfg,
		url:  url,
		memo: cache.New[string, []string](size, ttl),
	}
}

// Search returns the entry identifiers matching query. The precise
// query result is returned when non-empty; otherwise the full-text
// fallback result is returned, which may itself be empty. The two
// result sets are never mixed. Stage failures are reported as warnings
// on w and treated as empty results.
func (c *Client) Search(ctx context.Context, query string, w io.Writer) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty: provide a protein or gene name")
	}

	if ids, ok := c.memo.Get(query); ok {
		return ids, nil
	}

	ids, err := c.run(ctx, preciseRequest(query))
	if err != nil {
		fmt.Fprintf(w, "warning: precise search failed: %v\n", err)
		ids = nil
	}

	if len(ids) == 0 {
		ids, err = c.run(ctx, fullTextRequest(query))
		if err != nil {
			fmt.Fprintf(w, "warning: full-text search failed: %v\n", err)
			ids = nil
		}
	}

	// An empty set from the fallback erroring is transient, not a real
	// answer; caching it would pin a bad result for the full TTL.
	if err == nil {
		c.memo.Set(query, ids)
	}
	return ids, nil
}

// run posts one query document and collects the identifiers.
func (c *Client) run(ctx context.Context, sr searchRequest) ([]string, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("encoding query document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("search API request: %w", err)
	}
	defer resp.Body.Close()

	// RCSB answers 204 for a well-formed query with no hits.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned HTTP %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.ResultSet))
	for _, hit := range parsed.ResultSet {
		if hit.Identifier != "" {
			ids = append(ids, hit.Identifier)
		}
	}
	return ids, nil
}
