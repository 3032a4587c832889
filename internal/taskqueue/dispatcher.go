// Package taskqueue dispatches inbound Slack events to Google Cloud
// Tasks and verifies that processing requests came back through it.
package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/googleapis/gax-go/v2"

	"github.com/basehelp/basehelp/internal/config"
)

// TaskCreator is the slice of the Cloud Tasks client the dispatcher
// uses. *cloudtasks.Client satisfies it; tests substitute a stub.
type TaskCreator interface {
	CreateTask(ctx context.Context, req *cloudtaskspb.CreateTaskRequest, opts ...gax.CallOption) (*cloudtaskspb.Task, error)
}

// NewCloudTasksClient constructs the real Cloud Tasks client using
// ambient Google credentials.
func NewCloudTasksClient(ctx context.Context) (TaskCreator, error) {
	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create cloud tasks client: %w", err)
	}
	return client, nil
}

// Dispatcher enqueues inbound events as HTTP tasks addressed back at
// this service's own processing endpoint.
type Dispatcher struct {
	creator        TaskCreator
	queuePath      string
	queue          string
	targetURL      string
	serviceAccount string
}

// NewDispatcher validates the queue configuration and returns a
// dispatcher. Missing settings are fatal misconfigurations, never
// retryable conditions.
func NewDispatcher(cfg config.TasksConfig, baseURL string, creator TaskCreator) (*Dispatcher, error) {
	switch {
	case strings.TrimSpace(cfg.ProjectID) == "":
		return nil, fmt.Errorf("GOOGLE_PROJECT_ID is required")
	case strings.TrimSpace(cfg.Location) == "":
		return nil, fmt.Errorf("GOOGLE_TASKS_LOCATION is required")
	case strings.TrimSpace(cfg.Queue) == "":
		return nil, fmt.Errorf("GOOGLE_TASKS_QUEUE is required")
	case strings.TrimSpace(cfg.ServiceAccount) == "":
		return nil, fmt.Errorf("GOOGLE_TASKS_SERVICE_ACCOUNT is required")
	case strings.TrimSpace(baseURL) == "":
		return nil, fmt.Errorf("base URL is required")
	}
	return &Dispatcher{
		creator:        creator,
		queuePath:      fmt.Sprintf("projects/%s/locations/%s/queues/%s", cfg.ProjectID, cfg.Location, cfg.Queue),
		queue:          cfg.Queue,
		targetURL:      strings.TrimSuffix(baseURL, "/") + "/api/slack/tasks",
		serviceAccount: cfg.ServiceAccount,
	}, nil
}

type taskEnvelope struct {
	Event json.RawMessage `json:"event"`
}

// Enqueue wraps event in a task body and submits it to the queue with
// an OIDC identity assertion naming the authorized service account.
// The event body itself is never logged; it can contain user content.
func (d *Dispatcher) Enqueue(ctx context.Context, eventType string, event json.RawMessage) error {
	payload, err := json.Marshal(taskEnvelope{Event: event})
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}

	slog.Info("enqueuing slack event task",
		"queue", d.queue, "url", d.targetURL, "event_type", eventType)

	task, err := d.creator.CreateTask(ctx, &cloudtaskspb.CreateTaskRequest{
		Parent: d.queuePath,
		Task: &cloudtaskspb.Task{
			MessageType: &cloudtaskspb.Task_HttpRequest{
				HttpRequest: &cloudtaskspb.HttpRequest{
					HttpMethod: cloudtaskspb.HttpMethod_POST,
					Url:        d.targetURL,
					Headers:    map[string]string{"Content-Type": "application/json"},
					Body:       payload,
					AuthorizationHeader: &cloudtaskspb.HttpRequest_OidcToken{
						OidcToken: &cloudtaskspb.OidcToken{
							ServiceAccountEmail: d.serviceAccount,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	slog.Info("slack event task created", "task", task.GetName())
	return nil
}
