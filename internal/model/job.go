package model

import (
	"encoding/json"
	"time"
)

// Job represents a background job in the system
type Job struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"` // "edit", "index" or "collection"
	Status      JobStatus       `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"currentStep,omitempty"`
	Stage       Stage           `json:"stage,omitempty"`
	Error       *string         `json:"error,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	RetryCount  int             `json:"retryCount"`
}

// Job types
const (
	JobTypeEdit       = "edit"
	JobTypeIndex      = "index"
	JobTypeCollection = "collection"
)

// EditJobPayload contains the data for an edit workflow job
type EditJobPayload struct {
	UserQuery      string     `json:"userQuery"`
	ClipIDs        []string   `json:"clipIds"`
	Preset         PresetType `json:"preset"`
	CustomDuration *float64   `json:"customDuration,omitempty"`
	CustomTheme    *string    `json:"customTheme,omitempty"`
}

// IndexJobPayload contains the data for a batch indexing job
type IndexJobPayload struct {
	VideoIDs       []string  `json:"videoIds"`
	Kind           IndexKind `json:"kind"`
	ScenePrompt    string    `json:"scenePrompt,omitempty"`
	MaxConcurrency int       `json:"maxConcurrency,omitempty"`
}

// CollectionJobPayload contains the data for an upload-and-index job
type CollectionJobPayload struct {
	URLs        []string  `json:"urls"`
	Kind        IndexKind `json:"kind"`
	ScenePrompt string    `json:"scenePrompt,omitempty"`
}

// JobStartResponse is returned when any background job is queued
type JobStartResponse struct {
	JobID             string    `json:"jobId"`
	Status            JobStatus `json:"status"`
	EstimatedDuration int       `json:"estimatedDuration"`
	CreatedAt         time.Time `json:"createdAt"`
}

// JobStatusResponse reports the progress of a background job
type JobStatusResponse struct {
	JobID       string     `json:"jobId"`
	Type        string     `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Stage       Stage      `json:"stage,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RetryCount  int        `json:"retryCount"`
}

// JobCancelResponse represents the response for cancelling a job
type JobCancelResponse struct {
	Success bool      `json:"success"`
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
}
