package workflow

import (
	"errors"
	"fmt"

	"github.com/vibecut/api/internal/model"
)

// ErrUnexpectedStage is wrapped by a StageError when a step is entered from
// the wrong stage.
var ErrUnexpectedStage = errors.New("unexpected stage")

// StageError is a failure of one workflow step. Stage is the step that
// failed: planning, retrieval or assembly.
type StageError struct {
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", stageLabel(e.Stage), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is matches another *StageError for the same stage, so callers can test
// errors.Is(err, &StageError{Stage: model.StagePlanning}).
func (e *StageError) Is(target error) bool {
	t, ok := target.(*StageError)
	return ok && t.Stage == e.Stage
}

func stageLabel(s model.Stage) string {
	switch s {
	case model.StagePlanning:
		return "Planning"
	case model.StageRetrieval:
		return "Retrieval"
	case model.StageAssembly:
		return "Assembly"
	default:
		return string(s)
	}
}

// Result is the outcome of one step. Err is nil on success; on failure
// State is the terminal error state and Err is a *StageError.
type Result struct {
	State model.WorkflowState
	Err   error
}

// OK reports whether the step succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Event drives one transition.
type Event interface {
	event()
}

// Planned carries the planner output.
type Planned struct {
	Plan model.ExecutionPlan
}

// Retrieved carries the ranked candidates and the budgeted selection.
type Retrieved struct {
	Clips    []model.ClipCandidate
	Selected []model.ClipCandidate
}

// Assembled carries the rendered artifacts.
type Assembled struct {
	Config     model.AssemblyConfig
	VideoURL   string
	PreviewURL string
}

// Failed ends the workflow.
type Failed struct {
	Err *StageError
}

func (Planned) event()   {}
func (Retrieved) event() {}
func (Assembled) event() {}
func (Failed) event()    {}

// NewState builds the initial state of an edit request. Duplicate clip ids
// are dropped, keeping the first occurrence.
func NewState(userQuery string, clipIDs []string, preset model.PresetType, custom model.CustomSettings) model.WorkflowState {
	s := model.WorkflowState{
		UserQuery:       userQuery,
		UploadedClipIDs: uniqueStrings(clipIDs),
		PresetType:      preset,
		CustomDuration:  custom.Duration,
		CustomTheme:     custom.Theme,
		Stage:           model.StageStart,
	}
	return s.Clone()
}

// Transition applies ev to s and returns the new state. s is not modified.
func Transition(s model.WorkflowState, ev Event) model.WorkflowState {
	next := s.Clone()
	switch e := ev.(type) {
	case Planned:
		plan := clonePlan(e.Plan)
		next.ExecutionPlan = &plan
		next.SearchQueries = append([]string(nil), plan.SearchQueries...)
		next.Stage = model.StagePlanningComplete
	case Retrieved:
		next.RetrievedClips = model.CloneClips(e.Clips)
		next.SelectedClips = model.CloneClips(e.Selected)
		next.Stage = model.StageRetrievalComplete
	case Assembled:
		cfg := e.Config
		next.AssemblyConfig = &cfg
		next.FinalVideoURL = e.VideoURL
		next.PreviewURL = e.PreviewURL
		next.Stage = model.StageComplete
	case Failed:
		msg := e.Err.Error()
		next.ErrorMessage = &msg
		next.Stage = model.StageError
	}
	return next
}

func clonePlan(p model.ExecutionPlan) model.ExecutionPlan {
	return model.ExecutionPlan{
		SearchQueries: append([]string(nil), p.SearchQueries...),
		Raw:           append([]byte(nil), p.Raw...),
	}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
