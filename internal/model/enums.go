package model

import "strings"

// Preset types
type PresetType string

const (
	PresetHighlights PresetType = "highlights"
	PresetReel       PresetType = "reel"
	PresetCustom     PresetType = "custom"
)

var ValidPresetTypes = []PresetType{PresetHighlights, PresetReel, PresetCustom}

// ParsePresetType resolves a preset name; unknown names fall back to custom.
func ParsePresetType(s string) PresetType {
	switch PresetType(strings.ToLower(strings.TrimSpace(s))) {
	case PresetHighlights:
		return PresetHighlights
	case PresetReel:
		return PresetReel
	default:
		return PresetCustom
	}
}

// Stage is a point in the edit workflow state machine. Start, the two
// *-complete boundaries, Complete and Error are the values a WorkflowState
// can hold; Planning, Retrieval and Assembly name the step in progress and
// only appear in progress events.
type Stage string

const (
	StageStart             Stage = "start"
	StagePlanning          Stage = "planning"
	StagePlanningComplete  Stage = "planning_complete"
	StageRetrieval         Stage = "retrieval"
	StageRetrievalComplete Stage = "retrieval_complete"
	StageAssembly          Stage = "assembly"
	StageComplete          Stage = "complete"
	StageError             Stage = "error"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// Index kinds
type IndexKind string

const (
	IndexSpokenWords IndexKind = "spoken_words"
	IndexScenes      IndexKind = "scenes"
	IndexBoth        IndexKind = "both"
)

// Search types
type SearchType string

const (
	SearchSemantic SearchType = "semantic"
	SearchKeyword  SearchType = "keyword"
)

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Finished reports whether the job reached a terminal status.
func (s JobStatus) Finished() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed || s == JobStatusCanceled
}
