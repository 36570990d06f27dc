// Copyright Precisionmatics Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/acquire"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/pipeline"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

// searchRequest is the body of POST /api/search.
type searchRequest struct {
	Query       string `json:"query"`
	Concurrency int    `json:"concurrency"`

	OnlyHuman     bool    `json:"only_human"`
	MonomerOnly   bool    `json:"monomer_only"`
	MaxResolution float64 `json:"max_resolution"`
	Method        string  `json:"method"`
}

// searchResponse is the body of a successful search run. Records hold
// the filtered set in ascending resolution order with unresolved
// entries last; TopXRay holds the ranked X-ray subset.
type searchResponse struct {
	Query    string                `json:"query"`
	Total    int                   `json:"total"`
	Matched  int                   `json:"matched"`
	Records  []types.EntryRecord   `json:"records"`
	TopXRay  []types.EntryRecord   `json:"top_xray"`
	Failures []types.EnrichFailure `json:"failures,omitempty"`
}

// archiveRequest is the body of POST /api/archive. Explicit IDs win;
// otherwise Query drives a full pipeline run and the filtered set
// (or the ranked top set, with TopOnly) is archived.
type archiveRequest struct {
	IDs []string `json:"ids"`

	Query   string `json:"query"`
	TopOnly bool   `json:"top_only"`

	OnlyHuman     bool    `json:"only_human"`
	MonomerOnly   bool    `json:"monomer_only"`
	MaxResolution float64 `json:"max_resolution"`
	Method        string  `json:"method"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be blank")
		return
	}

	warn := s.log.WriterLevel(logrus.WarnLevel)
	defer warn.Close()

	ids, err := s.searcher.Search(r.Context(), req.Query, warn)
	if err != nil {
		s.metrics.searchesTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := s.enricher.Enrich(r.Context(), ids, req.Concurrency)
	s.metrics.enrichFailuresTotal.Add(float64(len(report.Failures)))

	filtered := pipeline.SortByResolution(pipeline.Filter(report.Records, s.filterOptions(req.OnlyHuman, req.MonomerOnly, req.MaxResolution, req.Method)))

	s.metrics.searchesTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, searchResponse{
		Query:    req.Query,
		Total:    len(ids),
		Matched:  len(filtered),
		Records:  filtered,
		TopXRay:  pipeline.Rank(filtered),
		Failures: report.Failures,
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ids := req.IDs
	if len(ids) == 0 {
		if strings.TrimSpace(req.Query) == "" {
			writeError(w, http.StatusBadRequest, "request needs ids or a query")
			return
		}
		var err error
		ids, err = s.resolveArchiveIDs(r, req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	progress := s.log.WriterLevel(logrus.DebugLevel)
	defer progress.Close()

	data, manifest, err := s.builder.Build(r.Context(), ids, progress)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "archive assembly failed: "+err.Error())
		return
	}
	s.metrics.archivedTotal.Add(float64(len(manifest.Archived)))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="structures.zip"`)
	w.Header().Set("X-Archive-Failed", strconv.Itoa(len(manifest.Failures)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// resolveArchiveIDs runs the search pipeline to turn a query-scoped
// archive request into concrete identifiers.
func (s *Server) resolveArchiveIDs(r *http.Request, req archiveRequest) ([]string, error) {
	warn := s.log.WriterLevel(logrus.WarnLevel)
	defer warn.Close()

	hits, err := s.searcher.Search(r.Context(), req.Query, warn)
	if err != nil {
		return nil, err
	}

	report := s.enricher.Enrich(r.Context(), hits, 0)
	filtered := pipeline.Filter(report.Records, s.filterOptions(req.OnlyHuman, req.MonomerOnly, req.MaxResolution, req.Method))
	if req.TopOnly {
		filtered = pipeline.Rank(filtered)
	}

	ids := make([]string, len(filtered))
	for i, rec := range filtered {
		ids[i] = rec.ID
	}
	return ids, nil
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	id, err := acquire.NormalizeID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body, err := s.builder.FetchStructure(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("fetching %s: %v", id, err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// filterOptions clamps the client resolution ceiling into the
// configured bound. A missing ceiling falls back to the bound.
func (s *Server) filterOptions(onlyHuman, monomerOnly bool, maxResolution float64, method string) pipeline.Options {
	if maxResolution <= 0 || maxResolution > s.cfg.MaxResolution {
		maxResolution = s.cfg.MaxResolution
	}
	return pipeline.Options{
		OnlyHuman:     onlyHuman,
		MonomerOnly:   monomerOnly,
		MaxResolution: maxResolution,
		Method:        method,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
