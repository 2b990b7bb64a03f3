package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/indexing"
	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/service"
)

// BatchRunner indexes already uploaded videos. *indexing.BatchIndexer
// implements it.
type BatchRunner interface {
	IndexBatchWithProgress(ctx context.Context, videoIDs []string, kind model.IndexKind, scenePrompt string, maxConcurrency int, progress indexing.ProgressFunc) indexing.Result
}

// CollectionRunner uploads and indexes URLs. *indexing.CollectionBuilder
// implements it.
type CollectionRunner interface {
	Create(ctx context.Context, urls []string, kind model.IndexKind, scenePrompt string, progress indexing.ProgressFunc) *model.CollectionResult
}

// IndexWorker processes batch indexing and collection jobs
type IndexWorker struct {
	jobs           *service.JobManager
	batch          BatchRunner
	collections    CollectionRunner
	notifier       Notifier
	maxConcurrency int
	logger         *zap.Logger
}

// NewIndexWorker creates a new index worker
func NewIndexWorker(jobs *service.JobManager, batch BatchRunner, collections CollectionRunner, notifier Notifier, maxConcurrency int, logger *zap.Logger) *IndexWorker {
	return &IndexWorker{
		jobs:           jobs,
		batch:          batch,
		collections:    collections,
		notifier:       orNop(notifier),
		maxConcurrency: maxConcurrency,
		logger:         logging.WithComponent(logger, "index_worker"),
	}
}

// ProcessTask handles index and collection task processing. Per-video
// failures are part of the result; only job bookkeeping errors are retried.
func (w *IndexWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	env, err := decodeTask(t)
	if err != nil {
		return err
	}

	jobID := env.JobID
	log := logging.WithJobID(w.logger, jobID).With(zap.String("job_type", env.JobType))
	noteRetry(ctx, w.jobs, jobID, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var canceled atomic.Bool
	report := func(progress int, step string) {
		if canceled.Load() {
			return
		}
		if err := w.jobs.Progress(ctx, jobID, progress, "", step); err != nil {
			if errors.Is(err, service.ErrJobCanceled) {
				canceled.Store(true)
				cancel()
				return
			}
			log.Warn("failed to update progress", zap.Error(err))
		}
		w.notifier.BroadcastProgress(jobID, progress, model.JobStatusRunning, "", step)
	}
	onItem := func(videoID string, ok bool, done, total int) {
		report(5+done*90/total, fmt.Sprintf("Indexed %d/%d", done, total))
	}

	var result interface{}
	switch env.JobType {
	case model.JobTypeCollection:
		var payload model.CollectionJobPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			w.failJob(ctx, jobID, "Invalid payload")
			return fmt.Errorf("failed to unmarshal collection payload: %v: %w", err, asynq.SkipRetry)
		}
		report(5, fmt.Sprintf("Uploading %d videos...", len(payload.URLs)))
		result = w.collections.Create(ctx, payload.URLs, payload.Kind, payload.ScenePrompt, onItem)

	default:
		var payload model.IndexJobPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			w.failJob(ctx, jobID, "Invalid payload")
			return fmt.Errorf("failed to unmarshal index payload: %v: %w", err, asynq.SkipRetry)
		}
		maxConcurrency := payload.MaxConcurrency
		if maxConcurrency <= 0 {
			maxConcurrency = w.maxConcurrency
		}
		report(5, fmt.Sprintf("Indexing %d videos...", len(payload.VideoIDs)))
		indexed := w.batch.IndexBatchWithProgress(ctx, payload.VideoIDs, payload.Kind, payload.ScenePrompt, maxConcurrency, onItem)
		result = &model.IndexResultResponse{
			JobID:     jobID,
			Results:   indexed,
			Succeeded: len(indexed.Succeeded()),
			Failed:    indexed.Failed(),
		}
	}

	if canceled.Load() {
		log.Info("index job canceled")
		return nil
	}

	if err := w.jobs.Complete(ctx, jobID, result); err != nil {
		if errors.Is(err, service.ErrJobCanceled) {
			return nil
		}
		return fmt.Errorf("failed to complete job: %w", err)
	}
	w.notifier.BroadcastComplete(jobID, result)

	log.Info("index job completed")
	return nil
}

func (w *IndexWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.jobs.Fail(ctx, jobID, "", errMsg); err != nil && !errors.Is(err, service.ErrJobCanceled) {
		w.logger.Error("failed to mark job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	w.notifier.BroadcastError(jobID, "INDEX_FAILED", errMsg)
}
