package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/basehelp/basehelp/internal/slackbot"
	"github.com/basehelp/basehelp/internal/taskqueue"
	"github.com/basehelp/basehelp/internal/tenant"
)

type fakeDispatcher struct {
	eventTypes []string
	events     []json.RawMessage
	err        error
}

func (d *fakeDispatcher) Enqueue(_ context.Context, eventType string, event json.RawMessage) error {
	if d.err != nil {
		return d.err
	}
	d.eventTypes = append(d.eventTypes, eventType)
	d.events = append(d.events, event)
	return nil
}

type fakeProcessor struct {
	events []slackbot.InboundEvent
	err    error
}

func (p *fakeProcessor) Process(_ context.Context, ev slackbot.InboundEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type fakeTenantFinder struct {
	tenants map[string]*tenant.Tenant
}

func (f *fakeTenantFinder) TenantBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	if t, ok := f.tenants[slug]; ok {
		return t, nil
	}
	return nil, tenant.ErrNotFound
}

func newTestServer(dispatcher *fakeDispatcher, processor *fakeProcessor, secret string) *Server {
	return New(secret, dispatcher, processor, &fakeTenantFinder{tenants: map[string]*tenant.Tenant{}}, "https://api.ragie.ai")
}

func postEvents(t *testing.T, s *Server, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	r := httptest.NewRequest("POST", "/api/slack/events", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func TestEventsURLVerification(t *testing.T) {
	s := newTestServer(&fakeDispatcher{}, &fakeProcessor{}, "")
	w := postEvents(t, s, map[string]any{"type": "url_verification", "challenge": "c123"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["challenge"] != "c123" {
		t.Errorf("challenge = %q", resp["challenge"])
	}
}

func TestEventsCallbackEnqueues(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	s := newTestServer(dispatcher, &fakeProcessor{}, "")

	w := postEvents(t, s, map[string]any{
		"type":     "event_callback",
		"team_id":  "T123",
		"event_id": "Ev1",
		"event": map[string]any{
			"type":    "message",
			"user":    "U42",
			"text":    "hello?",
			"channel": "C1",
			"ts":      "1700000000.000100",
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(dispatcher.events) != 1 {
		t.Fatalf("enqueued %d events, want 1", len(dispatcher.events))
	}
	if dispatcher.eventTypes[0] != "message" {
		t.Errorf("event type = %q", dispatcher.eventTypes[0])
	}

	var ev slackbot.InboundEvent
	if err := json.Unmarshal(dispatcher.events[0], &ev); err != nil {
		t.Fatalf("unmarshal enqueued event: %v", err)
	}
	// team_id from the outer payload lands on the event.
	if ev.Team != "T123" || ev.Text != "hello?" {
		t.Errorf("enqueued event = %+v", ev)
	}
}

func TestEventsCallbackDedupes(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	s := newTestServer(dispatcher, &fakeProcessor{}, "")

	payload := map[string]any{
		"type":     "event_callback",
		"team_id":  "T123",
		"event_id": "Ev1",
		"event":    map[string]any{"type": "message", "text": "hi?", "channel": "C1"},
	}
	postEvents(t, s, payload)
	w := postEvents(t, s, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(dispatcher.events) != 1 {
		t.Errorf("enqueued %d events, want 1 after dedupe", len(dispatcher.events))
	}
	if !strings.Contains(w.Body.String(), "deduped") {
		t.Errorf("body = %s, want deduped marker", w.Body.String())
	}
}

func TestEventsIgnoresOtherEventTypes(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	s := newTestServer(dispatcher, &fakeProcessor{}, "")

	w := postEvents(t, s, map[string]any{
		"type":     "event_callback",
		"team_id":  "T123",
		"event_id": "Ev2",
		"event":    map[string]any{"type": "reaction_added"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(dispatcher.events) != 0 {
		t.Errorf("enqueued %d events, want 0", len(dispatcher.events))
	}
}

func TestEventsEnqueueFailureIs500(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("queue down")}
	s := newTestServer(dispatcher, &fakeProcessor{}, "")

	w := postEvents(t, s, map[string]any{
		"type":     "event_callback",
		"team_id":  "T123",
		"event_id": "Ev3",
		"event":    map[string]any{"type": "message", "text": "hi?"},
	})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestEventsSignatureVerification(t *testing.T) {
	secret := "8f742231b10e8888abcd99yyyzzz85a5"
	s := newTestServer(&fakeDispatcher{}, &fakeProcessor{}, secret)

	body := []byte(`{"type":"url_verification","challenge":"c1"}`)
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":" + string(body)))
	sig := "v0=" + hex.EncodeToString(mac.Sum(nil))

	r := httptest.NewRequest("POST", "/api/slack/events", bytes.NewReader(body))
	r.Header.Set("X-Slack-Request-Timestamp", ts)
	r.Header.Set("X-Slack-Signature", sig)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("valid signature: status = %d", w.Code)
	}

	r = httptest.NewRequest("POST", "/api/slack/events", bytes.NewReader(body))
	r.Header.Set("X-Slack-Request-Timestamp", ts)
	r.Header.Set("X-Slack-Signature", "v0=bad")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad signature: status = %d, want 401", w.Code)
	}
}

func postTask(t *testing.T, s *Server, body string, withHeaders bool) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", "/api/slack/tasks", strings.NewReader(body))
	if withHeaders {
		r.Header.Set(taskqueue.HeaderQueueName, "slack-events")
		r.Header.Set(taskqueue.HeaderTaskName, "task-1")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func TestTasksUnverifiedIs401(t *testing.T) {
	processor := &fakeProcessor{}
	s := newTestServer(&fakeDispatcher{}, processor, "")

	w := postTask(t, s, `{"event":{"type":"message"}}`, false)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if len(processor.events) != 0 {
		t.Error("processor invoked for unverified request")
	}
}

func TestTasksMissingEventIs400(t *testing.T) {
	for _, body := range []string{`{}`, `{"event":null}`, `not json`} {
		s := newTestServer(&fakeDispatcher{}, &fakeProcessor{}, "")
		if w := postTask(t, s, body, true); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestTasksProcessedIs200(t *testing.T) {
	processor := &fakeProcessor{}
	s := newTestServer(&fakeDispatcher{}, processor, "")

	w := postTask(t, s, `{"event":{"type":"message","text":"hi?","team":"T123","channel":"C1"}}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp["success"] {
		t.Errorf("body = %s, want success true", w.Body.String())
	}
	if len(processor.events) != 1 || processor.events[0].Team != "T123" {
		t.Errorf("processor events = %+v", processor.events)
	}
}

func TestTasksProcessorFailureIs500(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("downstream out")}
	s := newTestServer(&fakeDispatcher{}, processor, "")

	w := postTask(t, s, `{"event":{"type":"message","text":"hi?"}}`, true)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 so the queue retries", w.Code)
	}
}
