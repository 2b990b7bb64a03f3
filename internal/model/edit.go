package model

// EditStartRequest represents the request to start an edit workflow
type EditStartRequest struct {
	UserQuery      string     `json:"userQuery" validate:"required,min=3,max=2000"`
	ClipIDs        []string   `json:"clipIds" validate:"required,min=1,max=50,unique,dive,required,max=128"`
	Preset         PresetType `json:"preset" validate:"required,oneof=highlights reel custom"`
	CustomDuration *float64   `json:"customDuration" validate:"omitempty,gt=0,lte=600"`
	CustomTheme    *string    `json:"customTheme" validate:"omitempty,max=100"`
}

// EditResultResponse is the outcome of a finished edit workflow
type EditResultResponse struct {
	JobID             string          `json:"jobId"`
	Stage             Stage           `json:"stage"`
	FinalVideoURL     string          `json:"finalVideoUrl"`
	PreviewURL        string          `json:"previewUrl"`
	SearchQueries     []string        `json:"searchQueries"`
	RetrievedCount    int             `json:"retrievedCount"`
	SelectedClips     []ClipCandidate `json:"selectedClips"`
	TotalDuration     float64         `json:"totalDuration"`
	FormattedDuration string          `json:"formattedDuration"`
	AssemblyConfig    *AssemblyConfig `json:"assemblyConfig,omitempty"`
	ExecutionPlan     *ExecutionPlan  `json:"executionPlan,omitempty"`
}

// NewEditResult summarises a terminal workflow state.
func NewEditResult(jobID string, s WorkflowState) *EditResultResponse {
	total := TotalDuration(s.SelectedClips)
	selected := s.SelectedClips
	if selected == nil {
		selected = []ClipCandidate{}
	}
	return &EditResultResponse{
		JobID:             jobID,
		Stage:             s.Stage,
		FinalVideoURL:     s.FinalVideoURL,
		PreviewURL:        s.PreviewURL,
		SearchQueries:     s.SearchQueries,
		RetrievedCount:    len(s.RetrievedClips),
		SelectedClips:     selected,
		TotalDuration:     total,
		FormattedDuration: FormatDuration(total),
		AssemblyConfig:    s.AssemblyConfig,
		ExecutionPlan:     s.ExecutionPlan,
	}
}
