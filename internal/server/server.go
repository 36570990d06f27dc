// Copyright Precisionmatics Inc., 2026. All rights reserved.

// Package server exposes the search, enrichment, filtering, and archive
// stages over HTTP as the dashboard backend.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/precisionmatics/Protein-Structure-Finder/internal/archive"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/enrich"
	"github.com/precisionmatics/Protein-Structure-Finder/internal/search"
	"github.com/precisionmatics/Protein-Structure-Finder/pkg/types"
)

const (
	defaultAddr          = ":8080"
	defaultMaxResolution = 5.0

	requestIDHeader = "X-Request-ID"

	shutdownTimeout = 10 * time.Second
)

// Server wires the pipeline stages behind a mux router.
type Server struct {
	cfg      types.ServerConfig
	log      *logrus.Logger
	router   *mux.Router
	searcher *search.Client
	enricher *enrich.Enricher
	builder  *archive.Builder
	metrics  *metrics
}

// New builds a Server around the given stage clients. A nil logger
// falls back to the logrus standard logger.
func New(cfg types.ServerConfig, searcher *search.Client, enricher *enrich.Enricher, builder *archive.Builder, log *logrus.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.MaxResolution <= 0 {
		cfg.MaxResolution = defaultMaxResolution
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		router:   mux.NewRouter(),
		searcher: searcher,
		enricher: enricher,
		builder:  builder,
		metrics:  newMetrics(),
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler, for embedding in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(s.requestIDMiddleware, s.loggingMiddleware, s.metricsMiddleware)

	s.router.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodPost)
	s.router.HandleFunc("/api/archive", s.handleArchive).Methods(http.MethodPost)
	s.router.HandleFunc("/api/structures/{id}", s.handleStructure).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
}

// ListenAndServe blocks until the context is canceled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.WithFields(logrus.Fields{
			"request_id": r.Header.Get(requestIDHeader),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("request handled")
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		s.metrics.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
