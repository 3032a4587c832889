package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/basehelp/basehelp/internal/slackbot"
	"github.com/basehelp/basehelp/internal/taskqueue"
)

type eventsPayload struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	TeamID    string          `json:"team_id"`
	EventID   string          `json:"event_id"`
	Event     json.RawMessage `json:"event"`
}

// handleSlackEvents receives the Slack Events API webhook. Slack
// expects an answer within three seconds, so the only synchronous work
// here is the enqueue; everything else happens on task delivery.
func (s *Server) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	if err := s.verifySlackSignature(r.Header, body); err != nil {
		slog.Warn("slack signature rejected", "error", err)
		http.Error(w, "invalid slack signature", http.StatusUnauthorized)
		return
	}

	var payload eventsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	switch payload.Type {
	case "url_verification":
		writeJSON(w, http.StatusOK, map[string]string{"challenge": payload.Challenge})
	case "event_callback":
		if payload.EventID != "" && s.seenEvent("slack:event:"+payload.EventID, time.Now()) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deduped": true})
			return
		}
		var ev slackbot.InboundEvent
		if err := json.Unmarshal(payload.Event, &ev); err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		if ev.Type != "message" && ev.Type != "app_mention" {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		if ev.Team == "" {
			ev.Team = payload.TeamID
		}
		raw, err := json.Marshal(ev)
		if err != nil {
			http.Error(w, "marshal event", http.StatusInternalServerError)
			return
		}
		if err := s.dispatcher.Enqueue(r.Context(), ev.Type, raw); err != nil {
			slog.Error("enqueue failed", "event_type", ev.Type, "error", err)
			http.Error(w, "enqueue failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (s *Server) verifySlackSignature(header http.Header, body []byte) error {
	if s.signingSecret == "" {
		return nil
	}
	verifier, err := slack.NewSecretsVerifier(header, s.signingSecret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}

type taskPayload struct {
	Event json.RawMessage `json:"event"`
}

// handleSlackTasks is the Cloud Tasks delivery endpoint. 401 rejects
// unverified callers, 400 rejects malformed tasks, 500 asks the queue
// to redeliver, and 200 means fully handled — including the
// gate-rejected path, which must not be retried.
func (s *Server) handleSlackTasks(w http.ResponseWriter, r *http.Request) {
	if !taskqueue.VerifyRequest(r) {
		slog.Error("unauthorized task request, not from Cloud Tasks")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing event data"})
		return
	}
	if len(payload.Event) == 0 || string(payload.Event) == "null" {
		slog.Error("no event data in task body")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing event data"})
		return
	}
	var ev slackbot.InboundEvent
	if err := json.Unmarshal(payload.Event, &ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing event data"})
		return
	}

	if err := s.processor.Process(r.Context(), ev); err != nil {
		slog.Error("task processing failed", "event_type", ev.Type, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
