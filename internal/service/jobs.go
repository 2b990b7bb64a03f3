package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/multierr"

	"github.com/vibecut/api/internal/model"
)

const (
	TaskTypeEdit  = "edit:process"
	TaskTypeIndex = "index:process"

	QueueEdit  = "edit"
	QueueIndex = "index"
)

// ErrJobCanceled is returned to a worker whose job was canceled.
var ErrJobCanceled = errors.New("job canceled")

// TaskEnqueuer is the part of *asynq.Client the services use.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskPayload is the envelope carried by every task.
type TaskPayload struct {
	JobID   string          `json:"jobId"`
	JobType string          `json:"jobType,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// JobManager implements the job lifecycle shared by every job type:
// queued, running, then succeeded, failed or canceled.
type JobManager struct {
	store    JobStore
	enqueuer TaskEnqueuer
}

func NewJobManager(store JobStore, enqueuer TaskEnqueuer) *JobManager {
	return &JobManager{store: store, enqueuer: enqueuer}
}

// Submit stores a queued job and enqueues its task. A job whose task could
// not be enqueued is marked failed.
func (m *JobManager) Submit(ctx context.Context, jobID, jobType, taskType string, payload interface{}, opts ...asynq.Option) (*model.Job, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &model.Job{
		ID:        jobID,
		Type:      jobType,
		Status:    model.JobStatusQueued,
		Stage:     stageForNewJob(jobType),
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}

	if err := m.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	data, err := json.Marshal(TaskPayload{JobID: jobID, JobType: jobType, Payload: payloadBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if _, err := m.enqueuer.Enqueue(asynq.NewTask(taskType, data), opts...); err != nil {
		err = fmt.Errorf("failed to enqueue task: %w", err)
		return nil, multierr.Append(err, m.Fail(ctx, jobID, "", err.Error()))
	}

	return job, nil
}

func stageForNewJob(jobType string) model.Stage {
	if jobType == model.JobTypeEdit {
		return model.StageStart
	}
	return ""
}

// Status returns the job's progress record.
func (m *JobManager) Status(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	job, err := m.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return &model.JobStatusResponse{
		JobID:       job.ID,
		Type:        job.Type,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Stage:       job.Stage,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		RetryCount:  job.RetryCount,
	}, nil
}

// Result decodes the stored result of a succeeded job into out.
func (m *JobManager) Result(ctx context.Context, jobID string, out interface{}) error {
	job, err := m.store.Get(ctx, jobID)
	if err != nil {
		return err
	}

	if job.Status != model.JobStatusSucceeded {
		return ErrJobNotCompleted
	}

	if err := json.Unmarshal(job.Result, out); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return nil
}

// Cancel marks an unfinished job canceled. The worker notices at its next
// progress update.
func (m *JobManager) Cancel(ctx context.Context, jobID string) (*model.JobCancelResponse, error) {
	_, err := m.store.Update(ctx, jobID, func(job *model.Job) error {
		if job.Status.Finished() {
			return ErrJobAlreadyFinished
		}
		job.Status = model.JobStatusCanceled
		now := time.Now()
		job.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &model.JobCancelResponse{
		Success: true,
		JobID:   jobID,
		Status:  model.JobStatusCanceled,
	}, nil
}

// Progress records a running job's progress. It returns ErrJobCanceled if
// the job was canceled in the meantime.
func (m *JobManager) Progress(ctx context.Context, jobID string, progress int, stage model.Stage, step string) error {
	_, err := m.store.Update(ctx, jobID, func(job *model.Job) error {
		if job.Status == model.JobStatusCanceled {
			return ErrJobCanceled
		}
		if job.Status == model.JobStatusQueued {
			job.Status = model.JobStatusRunning
			now := time.Now()
			job.StartedAt = &now
		}
		job.Progress = progress
		job.CurrentStep = step
		if stage != "" {
			job.Stage = stage
		}
		return nil
	})
	return err
}

// Complete stores the result and marks the job succeeded.
func (m *JobManager) Complete(ctx context.Context, jobID string, result interface{}) error {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	_, err = m.store.Update(ctx, jobID, func(job *model.Job) error {
		if job.Status == model.JobStatusCanceled {
			return ErrJobCanceled
		}
		job.Status = model.JobStatusSucceeded
		job.Progress = 100
		job.Result = resultBytes
		now := time.Now()
		job.CompletedAt = &now
		return nil
	})
	return err
}

// Fail marks the job failed with errMsg. stage may be empty.
func (m *JobManager) Fail(ctx context.Context, jobID string, stage model.Stage, errMsg string) error {
	_, err := m.store.Update(ctx, jobID, func(job *model.Job) error {
		if job.Status == model.JobStatusCanceled {
			return ErrJobCanceled
		}
		job.Status = model.JobStatusFailed
		job.Error = &errMsg
		if stage != "" {
			job.Stage = stage
		}
		now := time.Now()
		job.CompletedAt = &now
		return nil
	})
	return err
}

// IncrementRetry bumps the retry counter before a task is re-run.
func (m *JobManager) IncrementRetry(ctx context.Context, jobID string) error {
	_, err := m.store.Update(ctx, jobID, func(job *model.Job) error {
		job.RetryCount++
		return nil
	})
	return err
}
