package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/vibecut/api/internal/model"
)

// VideoLister lists the videos of a collection.
type VideoLister interface {
	ListVideos(ctx context.Context, collection string) ([]string, error)
}

// IndexService queues batch indexing and collection jobs
type IndexService struct {
	jobs        *JobManager
	store       JobStore
	lister      VideoLister
	collection  string
	scenePrompt string
}

func NewIndexService(jobs *JobManager, store JobStore, lister VideoLister, collection, scenePrompt string) *IndexService {
	return &IndexService{
		jobs:        jobs,
		store:       store,
		lister:      lister,
		collection:  collection,
		scenePrompt: scenePrompt,
	}
}

var indexTaskOptions = []asynq.Option{
	asynq.Queue(QueueIndex),
	asynq.MaxRetry(3),
	asynq.Retention(24 * time.Hour),
}

// StartIndex queues indexing of already uploaded videos
func (s *IndexService) StartIndex(ctx context.Context, req *model.IndexStartRequest) (*model.JobStartResponse, error) {
	jobID := uuid.New().String()

	payload := &model.IndexJobPayload{
		VideoIDs:       req.VideoIDs,
		Kind:           req.Kind,
		ScenePrompt:    s.prompt(req.ScenePrompt),
		MaxConcurrency: req.MaxConcurrency,
	}

	job, err := s.jobs.Submit(ctx, jobID, model.JobTypeIndex, TaskTypeIndex, payload, indexTaskOptions...)
	if err != nil {
		return nil, err
	}

	return &model.JobStartResponse{
		JobID:             jobID,
		Status:            model.JobStatusQueued,
		EstimatedDuration: estimateIndexSeconds(len(req.VideoIDs), req.Kind),
		CreatedAt:         job.CreatedAt,
	}, nil
}

// StartCollection queues an upload-and-index job for a list of URLs
func (s *IndexService) StartCollection(ctx context.Context, req *model.CollectionCreateRequest) (*model.JobStartResponse, error) {
	jobID := uuid.New().String()

	payload := &model.CollectionJobPayload{
		URLs:        req.URLs,
		Kind:        req.Kind,
		ScenePrompt: s.prompt(req.ScenePrompt),
	}

	job, err := s.jobs.Submit(ctx, jobID, model.JobTypeCollection, TaskTypeIndex, payload, indexTaskOptions...)
	if err != nil {
		return nil, err
	}

	return &model.JobStartResponse{
		JobID:             jobID,
		Status:            model.JobStatusQueued,
		EstimatedDuration: 30*len(req.URLs) + estimateIndexSeconds(len(req.URLs), req.Kind),
		CreatedAt:         job.CreatedAt,
	}, nil
}

// GetStatus returns the current status of an index or collection job
func (s *IndexService) GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	return s.jobs.Status(ctx, jobID)
}

// GetResult returns *model.IndexResultResponse for index jobs and
// *model.CollectionResult for collection jobs.
func (s *IndexService) GetResult(ctx context.Context, jobID string) (interface{}, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusSucceeded {
		return nil, ErrJobNotCompleted
	}

	var out interface{}
	switch job.Type {
	case model.JobTypeIndex:
		out = &model.IndexResultResponse{}
	case model.JobTypeCollection:
		out = &model.CollectionResult{}
	default:
		return nil, ErrJobNotFound
	}

	if err := json.Unmarshal(job.Result, out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return out, nil
}

// CollectionStatus lists the videos in the configured collection
func (s *IndexService) CollectionStatus(ctx context.Context) (*model.CollectionVideosResponse, error) {
	ids, err := s.lister.ListVideos(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	return &model.CollectionVideosResponse{
		Collection: s.collection,
		VideoIDs:   ids,
		Count:      len(ids),
	}, nil
}

func (s *IndexService) prompt(p *string) string {
	if p != nil && *p != "" {
		return *p
	}
	return s.scenePrompt
}

// estimateIndexSeconds assumes a pool of three and about a minute per
// index operation.
func estimateIndexSeconds(videos int, kind model.IndexKind) int {
	perVideo := 60
	if kind == model.IndexBoth {
		perVideo = 120
	}
	rounds := (videos + 2) / 3
	return rounds * perVideo
}
