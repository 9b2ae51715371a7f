package auth

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/the2dl/friendly-ad/internal/store"
)

// AdminKeyHeader carries the admin secret on administrative requests.
const AdminKeyHeader = "X-Admin-Key"

// Middleware gates administrative mutation behind the one-time admin key.
type Middleware struct {
	store  *store.Store
	logger *logrus.Logger
}

// NewMiddleware creates a new admin auth middleware
func NewMiddleware(st *store.Store, logger *logrus.Logger) *Middleware {
	return &Middleware{store: st, logger: logger}
}

// RequireAdminKey rejects requests whose X-Admin-Key header does not match
// the stored secret. The comparison itself is constant-time; requests with
// no header at all are rejected before the lookup.
func (m *Middleware) RequireAdminKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(AdminKeyHeader)
		if presented == "" {
			writeError(w, http.StatusUnauthorized, "Missing admin key")
			return
		}

		ok, err := m.store.CheckAdminKey(r.Context(), presented)
		if err != nil {
			m.logger.WithError(err).Error("Admin key check failed")
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if !ok {
			m.logger.WithField("path", r.URL.Path).Warn("Rejected admin request")
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
