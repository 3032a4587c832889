// Package server exposes the HTTP surface: the Slack events webhook,
// the Cloud Tasks processing endpoint and the public document route.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/basehelp/basehelp/internal/slackbot"
	"github.com/basehelp/basehelp/internal/tenant"
)

// Dispatcher enqueues inbound events for asynchronous processing.
type Dispatcher interface {
	Enqueue(ctx context.Context, eventType string, event json.RawMessage) error
}

// EventProcessor handles one verified queued task.
type EventProcessor interface {
	Process(ctx context.Context, ev slackbot.InboundEvent) error
}

// TenantFinder resolves tenants for the public document route.
type TenantFinder interface {
	TenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	signingSecret string
	dispatcher    Dispatcher
	processor     EventProcessor
	tenants       TenantFinder
	ragieBaseURL  string
	httpClient    *http.Client

	seenMu  sync.Mutex
	seen    map[string]time.Time
	seenTTL time.Duration
}

// New wires the HTTP surface. signingSecret may be empty in local
// setups, which disables webhook signature verification.
func New(signingSecret string, dispatcher Dispatcher, processor EventProcessor, tenants TenantFinder, ragieBaseURL string) *Server {
	return &Server{
		signingSecret: signingSecret,
		dispatcher:    dispatcher,
		processor:     processor,
		tenants:       tenants,
		ragieBaseURL:  ragieBaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		seen:          map[string]time.Time{},
		seenTTL:       10 * time.Minute,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("POST /api/slack/events", s.handleSlackEvents)
	mux.HandleFunc("POST /api/slack/tasks", s.handleSlackTasks)
	mux.HandleFunc("GET /api/public/documents/{tenantSlug}/source", s.handleDocumentSource)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// seenEvent records id and reports whether it was already seen within
// the TTL. Slack redelivers webhook events on slow responses; one
// enqueue per event id is enough.
func (s *Server) seenEvent(id string, now time.Time) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	cutoff := now.Add(-s.seenTTL)
	for k, t := range s.seen {
		if t.Before(cutoff) {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = now
	return false
}
