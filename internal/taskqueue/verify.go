package taskqueue

import (
	"log/slog"
	"net/http"
)

// Headers Cloud Tasks attaches to every task it delivers.
const (
	HeaderQueueName = "X-CloudTasks-QueueName"
	HeaderTaskName  = "X-CloudTasks-TaskName"
)

// VerifyRequest reports whether r came through the Cloud Tasks queue,
// judged by the presence of both queue and task headers. This is a
// coarse trust boundary: the processing endpoint is assumed to be
// unreachable except through the queue path. Cheap and side-effect
// free, so safe under redelivery.
func VerifyRequest(r *http.Request) bool {
	queueName := r.Header.Get(HeaderQueueName)
	taskName := r.Header.Get(HeaderTaskName)
	if queueName == "" || taskName == "" {
		slog.Warn("missing required Cloud Tasks headers")
		return false
	}
	slog.Debug("verified Cloud Tasks request", "queue", queueName, "task", taskName)
	return true
}
