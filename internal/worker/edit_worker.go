package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/service"
	"github.com/vibecut/api/internal/workflow"
)

// WorkflowRunner drives one edit request. *workflow.Controller
// implements it.
type WorkflowRunner interface {
	Run(ctx context.Context, s model.WorkflowState, observe workflow.Observer) workflow.Result
}

type stageProgress struct {
	progress int
	step     string
}

var editProgress = map[model.Stage]stageProgress{
	model.StagePlanning:          {10, "Planning the edit..."},
	model.StagePlanningComplete:  {25, "Plan ready"},
	model.StageRetrieval:         {40, "Searching clips..."},
	model.StageRetrievalComplete: {60, "Clips selected"},
	model.StageAssembly:          {70, "Assembling video..."},
	model.StageComplete:          {100, "Complete"},
}

// EditWorker processes edit workflow jobs
type EditWorker struct {
	jobs     *service.JobManager
	workflow WorkflowRunner
	notifier Notifier
	logger   *zap.Logger
}

// NewEditWorker creates a new edit worker
func NewEditWorker(jobs *service.JobManager, wf WorkflowRunner, notifier Notifier, logger *zap.Logger) *EditWorker {
	return &EditWorker{
		jobs:     jobs,
		workflow: wf,
		notifier: orNop(notifier),
		logger:   logging.WithComponent(logger, "edit_worker"),
	}
}

// ProcessTask handles edit task processing
func (w *EditWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	env, err := decodeTask(t)
	if err != nil {
		return err
	}

	jobID := env.JobID
	log := logging.WithJobID(w.logger, jobID)
	log.Info("starting edit job")

	var payload model.EditJobPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "", "Invalid payload")
		return fmt.Errorf("failed to unmarshal edit payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	canceled := false
	observe := func(stage model.Stage, _ model.WorkflowState) {
		p, ok := editProgress[stage]
		if !ok || stage == model.StageComplete || canceled {
			return
		}
		if err := w.jobs.Progress(ctx, jobID, p.progress, stage, p.step); err != nil {
			if errors.Is(err, service.ErrJobCanceled) {
				canceled = true
				cancel()
				return
			}
			log.Warn("failed to update progress", zap.Error(err))
		}
		w.notifier.BroadcastProgress(jobID, p.progress, model.JobStatusRunning, stage, p.step)
	}

	initial := workflow.NewState(payload.UserQuery, payload.ClipIDs, payload.Preset, model.CustomSettings{
		Duration: payload.CustomDuration,
		Theme:    payload.CustomTheme,
	})
	res := w.workflow.Run(ctx, initial, observe)

	if canceled {
		log.Info("edit job canceled")
		return nil
	}

	if !res.OK() {
		msg := res.Err.Error()
		if res.State.ErrorMessage != nil {
			msg = *res.State.ErrorMessage
		}
		var serr *workflow.StageError
		stage := model.StageError
		if errors.As(res.Err, &serr) {
			log.Warn("edit workflow failed", zap.String("failed_stage", string(serr.Stage)), zap.Error(serr.Err))
		}
		w.failJob(ctx, jobID, stage, msg)
		// a failed workflow is discarded, never retried
		return fmt.Errorf("edit job %s: %s: %w", jobID, msg, asynq.SkipRetry)
	}

	result := model.NewEditResult(jobID, res.State)
	if err := w.jobs.Complete(ctx, jobID, result); err != nil {
		if errors.Is(err, service.ErrJobCanceled) {
			return nil
		}
		return fmt.Errorf("failed to complete job: %w", err)
	}
	w.notifier.BroadcastComplete(jobID, result)

	log.Info("edit job completed",
		zap.Int("selected", len(result.SelectedClips)),
		zap.String("duration", result.FormattedDuration))
	return nil
}

func (w *EditWorker) failJob(ctx context.Context, jobID string, stage model.Stage, errMsg string) {
	if err := w.jobs.Fail(ctx, jobID, stage, errMsg); err != nil && !errors.Is(err, service.ErrJobCanceled) {
		w.logger.Error("failed to mark job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	w.notifier.BroadcastError(jobID, "WORKFLOW_FAILED", errMsg)
}
