// Package dashboard serves a small read-only JSON API over the saved
// position manifest and the latest run summary.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/vol-trader-arslancm/BloombergData/internal/manifest"
	"github.com/vol-trader-arslancm/BloombergData/internal/report"
)

type Config struct {
	Port      int
	AuthToken string
	// SummaryPath is where the run summary JSON lives on disk.
	SummaryPath string
}

type Server struct {
	router      *chi.Mux
	server      *http.Server
	store       manifest.Store
	summaryPath string
	logger      *logrus.Logger
	port        int
	authToken   string
}

func NewServer(cfg Config, store manifest.Store, logger *logrus.Logger) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		store:       store,
		summaryPath: cfg.SummaryPath,
		logger:      logger,
		port:        cfg.Port,
		authToken:   cfg.AuthToken,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/manifest", s.handleGetManifest)
	s.router.Get("/api/entry", s.handleGetEntry)
	s.router.Get("/api/report", s.handleGetReport)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infof("Starting dashboard server on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	s.writeJSON(w, health)
}

func (s *Server) handleGetManifest(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Load()
	if err != nil {
		if errors.Is(err, manifest.ErrNoManifest) {
			s.writeJSON(w, []manifest.Entry{})
			return
		}
		s.logger.WithError(err).Error("Failed to load manifest")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, entries)
}

// handleGetEntry looks up a single manifest entry. Symbols contain spaces
// and slashes, so they arrive as a query parameter rather than a path segment.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "missing symbol parameter", http.StatusBadRequest)
		return
	}

	entries, err := s.store.Load()
	if err != nil && !errors.Is(err, manifest.ErrNoManifest) {
		s.logger.WithError(err).Error("Failed to load manifest")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	for _, e := range entries {
		if e.Symbol == symbol {
			s.writeJSON(w, e)
			return
		}
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	summary, err := report.Load(s.summaryPath)
	if err != nil {
		if errors.Is(err, report.ErrNoSummary) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		s.logger.WithError(err).Error("Failed to load run summary")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, summary)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
