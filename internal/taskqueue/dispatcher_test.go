package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/googleapis/gax-go/v2"

	"github.com/basehelp/basehelp/internal/config"
)

type fakeTaskCreator struct {
	req *cloudtaskspb.CreateTaskRequest
	err error
}

func (f *fakeTaskCreator) CreateTask(_ context.Context, req *cloudtaskspb.CreateTaskRequest, _ ...gax.CallOption) (*cloudtaskspb.Task, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &cloudtaskspb.Task{Name: req.Parent + "/tasks/task-1"}, nil
}

func validTasksConfig() config.TasksConfig {
	return config.TasksConfig{
		ProjectID:      "proj-1",
		Location:       "us-central1",
		Queue:          "slack-events",
		ServiceAccount: "tasks@proj-1.iam.gserviceaccount.com",
	}
}

func TestNewDispatcherRequiresSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.TasksConfig)
	}{
		{"project", func(c *config.TasksConfig) { c.ProjectID = "" }},
		{"location", func(c *config.TasksConfig) { c.Location = "" }},
		{"queue", func(c *config.TasksConfig) { c.Queue = "" }},
		{"service account", func(c *config.TasksConfig) { c.ServiceAccount = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTasksConfig()
			tt.mutate(&cfg)
			if _, err := NewDispatcher(cfg, "https://bot.example.com", &fakeTaskCreator{}); err == nil {
				t.Error("NewDispatcher: want error for missing setting")
			}
		})
	}

	if _, err := NewDispatcher(validTasksConfig(), "", &fakeTaskCreator{}); err == nil {
		t.Error("NewDispatcher: want error for missing base URL")
	}
}

func TestEnqueueBuildsTask(t *testing.T) {
	creator := &fakeTaskCreator{}
	d, err := NewDispatcher(validTasksConfig(), "https://bot.example.com/", creator)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	event := json.RawMessage(`{"type":"message","text":"hi","channel":"C1"}`)
	if err := d.Enqueue(context.Background(), "message", event); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	req := creator.req
	if req == nil {
		t.Fatal("CreateTask not called")
	}
	if req.Parent != "projects/proj-1/locations/us-central1/queues/slack-events" {
		t.Errorf("Parent = %q", req.Parent)
	}

	httpReq := req.Task.GetHttpRequest()
	if httpReq == nil {
		t.Fatal("task has no http request")
	}
	if httpReq.Url != "https://bot.example.com/api/slack/tasks" {
		t.Errorf("Url = %q", httpReq.Url)
	}
	if httpReq.HttpMethod != cloudtaskspb.HttpMethod_POST {
		t.Errorf("HttpMethod = %v", httpReq.HttpMethod)
	}
	if ct := httpReq.Headers["Content-Type"]; ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	oidc := httpReq.GetOidcToken()
	if oidc == nil || oidc.ServiceAccountEmail != "tasks@proj-1.iam.gserviceaccount.com" {
		t.Errorf("OidcToken = %+v", oidc)
	}

	var body struct {
		Event struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"event"`
	}
	if err := json.Unmarshal(httpReq.Body, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Event.Type != "message" || body.Event.Text != "hi" {
		t.Errorf("body event = %+v", body.Event)
	}
}

func TestEnqueuePropagatesCreateError(t *testing.T) {
	creator := &fakeTaskCreator{err: errors.New("queue unavailable")}
	d, err := NewDispatcher(validTasksConfig(), "https://bot.example.com", creator)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	if err := d.Enqueue(context.Background(), "message", json.RawMessage(`{}`)); err == nil {
		t.Error("Enqueue: want error")
	}
}
