package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/vibecut/api/internal/model"
)

// EditService queues and tracks edit workflow jobs
type EditService struct {
	jobs *JobManager
}

func NewEditService(jobs *JobManager) *EditService {
	return &EditService{jobs: jobs}
}

// StartEdit queues a new edit workflow
func (s *EditService) StartEdit(ctx context.Context, req *model.EditStartRequest) (*model.JobStartResponse, error) {
	jobID := uuid.New().String()

	payload := &model.EditJobPayload{
		UserQuery:      req.UserQuery,
		ClipIDs:        req.ClipIDs,
		Preset:         model.ParsePresetType(string(req.Preset)),
		CustomDuration: req.CustomDuration,
		CustomTheme:    req.CustomTheme,
	}

	// A failed workflow is discarded, so edit tasks are never retried
	job, err := s.jobs.Submit(ctx, jobID, model.JobTypeEdit, TaskTypeEdit, payload,
		asynq.Queue(QueueEdit),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, err
	}

	target := model.BuildAssemblyConfig(payload.Preset, model.CustomSettings{
		Duration: payload.CustomDuration,
		Theme:    payload.CustomTheme,
	}).TargetDurationSeconds

	return &model.JobStartResponse{
		JobID:             jobID,
		Status:            model.JobStatusQueued,
		EstimatedDuration: model.EstimateProcessingTime(len(payload.ClipIDs), target),
		CreatedAt:         job.CreatedAt,
	}, nil
}

// GetStatus returns the current status of an edit job
func (s *EditService) GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	return s.jobs.Status(ctx, jobID)
}

// GetResult returns the result of a completed edit job
func (s *EditService) GetResult(ctx context.Context, jobID string) (*model.EditResultResponse, error) {
	var result model.EditResultResponse
	if err := s.jobs.Result(ctx, jobID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelEdit cancels an edit job
func (s *EditService) CancelEdit(ctx context.Context, jobID string) (*model.JobCancelResponse, error) {
	return s.jobs.Cancel(ctx, jobID)
}
