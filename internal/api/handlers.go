package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/the2dl/friendly-ad/internal/directory"
	"github.com/the2dl/friendly-ad/internal/models"
	"github.com/the2dl/friendly-ad/internal/store"
)

// searchResponse is the /search contract: records plus a truncation flag.
// Truncated is a partial success; the UI shows the data with an indicator.
type searchResponse struct {
	Data      any  `json:"data"`
	Truncated bool `json:"truncated"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := models.SearchQuery{
		Query:    r.URL.Query().Get("query"),
		Type:     r.URL.Query().Get("type"),
		Precise:  r.URL.Query().Get("precise") == "true",
		SearchBy: r.URL.Query().Get("searchBy"),
	}
	if raw := r.URL.Query().Get("domain"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeErr(w, http.StatusBadRequest, "Invalid domain id")
			return
		}
		q.DomainID = &id
	}

	if body, ok := s.cache.get(q); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
		return
	}

	result, err := s.searcher.Search(r.Context(), q)
	if err != nil {
		s.writeSearchError(w, err)
		return
	}

	body, err := json.Marshal(searchResponse{Data: result.Data(), Truncated: result.Truncated})
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
	s.cache.set(q, body)

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) handleGroupDetails(w http.ResponseWriter, r *http.Request) {
	dn, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || dn == "" {
		s.writeErr(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	var domainID *int64
	if raw := r.URL.Query().Get("domain"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeErr(w, http.StatusBadRequest, "Invalid domain id")
			return
		}
		domainID = &id
	}

	group, err := s.searcher.GroupByDN(r.Context(), dn, domainID)
	if err != nil {
		if errors.Is(err, directory.ErrGroupNotFound) {
			s.writeErr(w, http.StatusNotFound, "Group not found")
			return
		}
		s.writeSearchError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleListActiveDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.store.ListActiveDomains(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list active domains")
		s.writeErr(w, http.StatusInternalServerError, "Internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, domains)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeSearchError converts the directory error taxonomy into the
// HTTP-style outcomes the frontend expects. Everything here is a server
// side failure; user-correctable input problems are handled before the
// search runs.
func (s *Server) writeSearchError(w http.ResponseWriter, err error) {
	s.logger.WithError(err).Error("Directory search failed")

	switch {
	case errors.Is(err, store.ErrNoActiveDomain):
		s.writeErr(w, http.StatusInternalServerError, "No active domain configured")
	case errors.Is(err, directory.ErrBindFailed):
		s.writeErr(w, http.StatusInternalServerError, "Directory bind failed")
	default:
		s.writeErr(w, http.StatusInternalServerError, "Could not connect to LDAP server")
	}
}

// Admin surface

func (s *Server) handleSetupStatus(w http.ResponseWriter, r *http.Request) {
	done, err := s.store.SetupComplete(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to read setup status")
		s.writeErr(w, http.StatusInternalServerError, "Internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"isSetup": done})
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AdminKey string `json:"adminKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.AdminKey == "" {
		s.writeErr(w, http.StatusBadRequest, "Missing admin key")
		return
	}

	if err := s.store.CompleteSetup(r.Context(), payload.AdminKey); err != nil {
		if errors.Is(err, store.ErrAlreadySetup) {
			s.writeErr(w, http.StatusBadRequest, "Admin key already set")
			return
		}
		s.logger.WithError(err).Error("Setup failed")
		s.writeErr(w, http.StatusInternalServerError, "Internal error")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"message": "Admin key set successfully"})
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.store.ListDomains(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list domains")
		s.writeErr(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if domains == nil {
		domains = []*models.Domain{}
	}
	s.writeJSON(w, http.StatusOK, domains)
}

func (s *Server) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	var input models.CreateDomainInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := s.store.CreateDomain(r.Context(), &input)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			s.writeErr(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		s.logger.WithError(err).Error("Failed to create domain")
		s.writeErr(w, http.StatusInternalServerError, "Internal error")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": "Domain added successfully",
	})
}

func (s *Server) handleDeactivateDomain(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "domainID"), 10, 64)
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, "Invalid domain id")
		return
	}

	// Soft delete; repeating the call for an inactive or unknown id is
	// harmless and still returns 204.
	if err := s.store.DeactivateDomain(r.Context(), id); err != nil {
		s.logger.WithError(err).Error("Failed to deactivate domain")
		s.writeErr(w, http.StatusInternalServerError, "Internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
