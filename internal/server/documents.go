package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/basehelp/basehelp/internal/tenant"
)

// handleDocumentSource proxies an internal Ragie document URL with the
// tenant's credentials attached, so citation links work for end users
// who have no Ragie access. No authentication: tenant slug plus a URL
// under the Ragie base is the whole contract.
func (s *Server) handleDocumentSource(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("tenantSlug")
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "Invalid URL params", http.StatusUnprocessableEntity)
		return
	}

	ten, err := s.tenants.TenantBySlug(r.Context(), slug)
	if errors.Is(err, tenant.ErrNotFound) {
		http.Error(w, "Tenant not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("tenant lookup failed", "slug", slug, "error", err)
		http.Error(w, "Error fetching document source", http.StatusInternalServerError)
		return
	}

	if !strings.HasPrefix(rawURL, s.ragieBaseURL) {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		http.Error(w, "Error fetching document source", http.StatusInternalServerError)
		return
	}
	req.Header.Set("Authorization", "Bearer "+ten.RagieAPIKey)
	req.Header.Set("partition", ten.ID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("upstream document fetch failed", "slug", slug, "error", err)
		http.Error(w, "Error fetching document source", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	for _, h := range []string{"Content-Type", "Content-Disposition", "Content-Length"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
