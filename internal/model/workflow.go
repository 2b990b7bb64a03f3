package model

import "encoding/json"

// ExecutionPlan is the planner's output. Only SearchQueries is read by the
// engine; Raw carries the full plan through untouched.
type ExecutionPlan struct {
	SearchQueries []string        `json:"searchQueries"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// CustomSettings are the optional user overrides of a preset.
type CustomSettings struct {
	Duration *float64 `json:"duration,omitempty"`
	Theme    *string  `json:"theme,omitempty"`
}

// AssemblyConfig is derived once selection is final and handed to the
// assembler as-is.
type AssemblyConfig struct {
	Preset                PresetType `json:"preset"`
	TargetDurationSeconds float64    `json:"targetDurationSeconds"`
	Theme                 string     `json:"theme"`
	TransitionStyle       string     `json:"transitionStyle,omitempty"`
	AspectRatio           string     `json:"aspectRatio,omitempty"`
	MaxClips              int        `json:"maxClips,omitempty"`
}

// WorkflowState is one snapshot of an edit request. Values are never
// mutated after construction; each transition builds a new one.
type WorkflowState struct {
	UserQuery       string          `json:"userQuery"`
	UploadedClipIDs []string        `json:"uploadedClipIds"`
	PresetType      PresetType      `json:"presetType"`
	CustomDuration  *float64        `json:"customDuration,omitempty"`
	CustomTheme     *string         `json:"customTheme,omitempty"`
	ExecutionPlan   *ExecutionPlan  `json:"executionPlan,omitempty"`
	SearchQueries   []string        `json:"searchQueries,omitempty"`
	RetrievedClips  []ClipCandidate `json:"retrievedClips,omitempty"`
	SelectedClips   []ClipCandidate `json:"selectedClips,omitempty"`
	AssemblyConfig  *AssemblyConfig `json:"assemblyConfig,omitempty"`
	FinalVideoURL   string          `json:"finalVideoUrl,omitempty"`
	PreviewURL      string          `json:"previewUrl,omitempty"`
	Stage           Stage           `json:"stage"`
	ErrorMessage    *string         `json:"errorMessage,omitempty"`
}

// CustomSettings returns the user overrides carried by the state.
func (s WorkflowState) CustomSettings() CustomSettings {
	return CustomSettings{Duration: s.CustomDuration, Theme: s.CustomTheme}
}

// Clone returns a deep copy that shares no slices or pointers with s.
func (s WorkflowState) Clone() WorkflowState {
	out := s
	out.UploadedClipIDs = cloneStrings(s.UploadedClipIDs)
	out.SearchQueries = cloneStrings(s.SearchQueries)
	out.RetrievedClips = CloneClips(s.RetrievedClips)
	out.SelectedClips = CloneClips(s.SelectedClips)
	if s.CustomDuration != nil {
		d := *s.CustomDuration
		out.CustomDuration = &d
	}
	if s.CustomTheme != nil {
		th := *s.CustomTheme
		out.CustomTheme = &th
	}
	if s.ExecutionPlan != nil {
		p := ExecutionPlan{
			SearchQueries: cloneStrings(s.ExecutionPlan.SearchQueries),
			Raw:           append(json.RawMessage(nil), s.ExecutionPlan.Raw...),
		}
		out.ExecutionPlan = &p
	}
	if s.AssemblyConfig != nil {
		c := *s.AssemblyConfig
		out.AssemblyConfig = &c
	}
	if s.ErrorMessage != nil {
		m := *s.ErrorMessage
		out.ErrorMessage = &m
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
