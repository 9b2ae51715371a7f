package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/the2dl/friendly-ad/internal/auth"
	"github.com/the2dl/friendly-ad/internal/config"
	"github.com/the2dl/friendly-ad/internal/models"
	"github.com/the2dl/friendly-ad/internal/store"
)

// Searcher is the directory query engine as the HTTP layer sees it.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error)
	GroupByDN(ctx context.Context, dn string, domainID *int64) (*models.Group, error)
}

// Server is the HTTP boundary: routing, caching and the admin surface.
type Server struct {
	searcher Searcher
	store    *store.Store
	cache    *searchCache
	logger   *logrus.Logger
}

// NewServer builds the HTTP server around the query engine and registry.
func NewServer(cfg *config.Config, searcher Searcher, st *store.Store, logger *logrus.Logger) *Server {
	return &Server{
		searcher: searcher,
		store:    st,
		cache:    newSearchCache(cfg.CacheTTL, !cfg.NoCache),
		logger:   logger,
	}
}

// Handler returns the fully wired route tree with middleware applied.
func (s *Server) Handler(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(loggingMiddleware(s.logger))
	r.Use(metricsMiddleware())

	r.Get("/search", s.handleSearch)
	r.Get("/groups/*", s.handleGroupDetails)
	r.Get("/domains", s.handleListActiveDomains)
	r.Get("/health", s.handleHealth)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/setup-status", s.handleSetupStatus)
		r.Post("/setup", s.handleSetup)

		authMw := auth.NewMiddleware(s.store, s.logger)
		r.Group(func(r chi.Router) {
			r.Use(authMw.RequireAdminKey)
			r.Get("/domains", s.handleListDomains)
			r.Post("/domains", s.handleCreateDomain)
			r.Delete("/domains/{domainID}", s.handleDeactivateDomain)
		})
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to write response")
	}
}

func (s *Server) writeErr(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
