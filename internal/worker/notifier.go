// Package worker runs the queued edit and index jobs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/service"
)

// Notifier pushes job events to live subscribers. *websocket.Hub
// implements it.
type Notifier interface {
	BroadcastProgress(jobID string, progress int, status model.JobStatus, stage model.Stage, step string)
	BroadcastComplete(jobID string, result interface{})
	BroadcastError(jobID string, code, message string)
}

type nopNotifier struct{}

func (nopNotifier) BroadcastProgress(string, int, model.JobStatus, model.Stage, string) {}
func (nopNotifier) BroadcastComplete(string, interface{})                               {}
func (nopNotifier) BroadcastError(string, string, string)                               {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func decodeTask(t *asynq.Task) (*service.TaskPayload, error) {
	var env service.TaskPayload
	if err := json.Unmarshal(t.Payload(), &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}
	return &env, nil
}

// noteRetry records a retry attempt on the job record.
func noteRetry(ctx context.Context, jobs *service.JobManager, jobID string, log *zap.Logger) {
	if n, ok := asynq.GetRetryCount(ctx); ok && n > 0 {
		if err := jobs.IncrementRetry(ctx, jobID); err != nil {
			log.Warn("failed to record retry", zap.Error(err))
		}
	}
}
