// Package workflow drives one edit request through planning, retrieval
// and assembly. Every step takes a state and returns a new one; a failed
// step ends in the error stage with a stage-prefixed message.
package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// Planner turns the user request into an execution plan.
type Planner interface {
	CreatePlan(ctx context.Context, userQuery string, clipIDs []string, preset model.PresetType, custom model.CustomSettings) (model.ExecutionPlan, error)
}

// Retriever runs the planned queries and returns ranked candidates.
type Retriever interface {
	Retrieve(ctx context.Context, queries []string, scope model.VideoScope, perQueryLimit int) ([]model.ClipCandidate, error)
}

// ClipSelector applies the duration budget and the clip count cap.
type ClipSelector interface {
	Select(ranked []model.ClipCandidate, targetDurationSeconds float64, maxClips int) []model.ClipCandidate
}

// Assembler renders the selected clips.
type Assembler interface {
	Assemble(ctx context.Context, clips []model.ClipCandidate, cfg model.AssemblyConfig) (string, error)
	CreatePreview(ctx context.Context, clips []model.ClipCandidate) (string, error)
}

// Observer is told about every stage boundary Run passes, including the
// in-progress planning, retrieval and assembly stages.
type Observer func(stage model.Stage, state model.WorkflowState)

// Options tune the retrieval step.
type Options struct {
	// Collection is searched when a request carries more than one clip id.
	Collection    string
	PerQueryLimit int
}

// Controller owns no state between calls; one Controller serves many
// concurrent requests.
type Controller struct {
	planner   Planner
	retriever Retriever
	selector  ClipSelector
	assembler Assembler
	opts      Options
	logger    *zap.Logger
}

// NewController wires the collaborators.
func NewController(planner Planner, retriever Retriever, selector ClipSelector, assembler Assembler, opts Options, logger *zap.Logger) *Controller {
	return &Controller{
		planner:   planner,
		retriever: retriever,
		selector:  selector,
		assembler: assembler,
		opts:      opts,
		logger:    logging.WithComponent(logger, "workflow"),
	}
}

// Plan runs the planner on a start state.
func (c *Controller) Plan(ctx context.Context, s model.WorkflowState) Result {
	if s.Stage != model.StageStart {
		return c.fail(s, model.StagePlanning, unexpected(model.StageStart, s.Stage))
	}

	var plan model.ExecutionPlan
	err := guard(func() error {
		var err error
		plan, err = c.planner.CreatePlan(ctx, s.UserQuery, s.UploadedClipIDs, s.PresetType, s.CustomSettings())
		return err
	})
	if err != nil {
		return c.fail(s, model.StagePlanning, err)
	}

	return Result{State: Transition(s, Planned{Plan: plan})}
}

// Retrieve runs the planned queries over the uploaded clips and selects
// within the target duration.
func (c *Controller) Retrieve(ctx context.Context, s model.WorkflowState) Result {
	if s.Stage != model.StagePlanningComplete {
		return c.fail(s, model.StageRetrieval, unexpected(model.StagePlanningComplete, s.Stage))
	}

	if len(s.UploadedClipIDs) == 0 {
		c.logger.Info("no uploaded clips, skipping retrieval")
		return Result{State: Transition(s, Retrieved{Clips: []model.ClipCandidate{}, Selected: []model.ClipCandidate{}})}
	}

	var ranked []model.ClipCandidate
	err := guard(func() error {
		var err error
		ranked, err = c.retriever.Retrieve(ctx, s.SearchQueries, c.scope(s), c.opts.PerQueryLimit)
		return err
	})
	if err != nil {
		return c.fail(s, model.StageRetrieval, err)
	}

	cfg := model.BuildAssemblyConfig(s.PresetType, s.CustomSettings())
	target := cfg.TargetDurationSeconds
	var selected []model.ClipCandidate
	err = guard(func() error {
		selected = c.selector.Select(ranked, target, cfg.MaxClips)
		return nil
	})
	if err != nil {
		return c.fail(s, model.StageRetrieval, err)
	}

	c.logger.Info("retrieval complete",
		zap.Int("queries", len(s.SearchQueries)),
		zap.Int("retrieved", len(ranked)),
		zap.Int("selected", len(selected)),
		zap.Float64("target_seconds", target))

	return Result{State: Transition(s, Retrieved{Clips: ranked, Selected: selected})}
}

// Assemble renders the selected clips and a preview.
func (c *Controller) Assemble(ctx context.Context, s model.WorkflowState) Result {
	if s.Stage != model.StageRetrievalComplete {
		return c.fail(s, model.StageAssembly, unexpected(model.StageRetrievalComplete, s.Stage))
	}

	cfg := model.BuildAssemblyConfig(s.PresetType, s.CustomSettings())
	clips := model.CloneClips(s.SelectedClips)

	var videoURL, previewURL string
	err := guard(func() error {
		var err error
		if videoURL, err = c.assembler.Assemble(ctx, clips, cfg); err != nil {
			return err
		}
		previewURL, err = c.assembler.CreatePreview(ctx, clips)
		return err
	})
	if err != nil {
		return c.fail(s, model.StageAssembly, err)
	}

	return Result{State: Transition(s, Assembled{Config: cfg, VideoURL: videoURL, PreviewURL: previewURL})}
}

// Run drives s from start to complete or error. observe may be nil.
func (c *Controller) Run(ctx context.Context, s model.WorkflowState, observe Observer) Result {
	if observe == nil {
		observe = func(model.Stage, model.WorkflowState) {}
	}

	steps := []struct {
		stage model.Stage
		run   func(context.Context, model.WorkflowState) Result
	}{
		{model.StagePlanning, c.Plan},
		{model.StageRetrieval, c.Retrieve},
		{model.StageAssembly, c.Assemble},
	}

	res := Result{State: s}
	for _, step := range steps {
		observe(step.stage, res.State)
		res = step.run(ctx, res.State)
		observe(res.State.Stage, res.State)
		if !res.OK() {
			return res
		}
	}
	return res
}

func (c *Controller) scope(s model.WorkflowState) model.VideoScope {
	if len(s.UploadedClipIDs) == 1 {
		return model.SingleVideo(s.UploadedClipIDs[0])
	}
	return model.CollectionScope(c.opts.Collection, s.UploadedClipIDs...)
}

func (c *Controller) fail(s model.WorkflowState, stage model.Stage, err error) Result {
	serr := &StageError{Stage: stage, Err: err}
	c.logger.Warn("workflow step failed", zap.String("stage", string(stage)), zap.Error(err))
	return Result{State: Transition(s, Failed{Err: serr}), Err: serr}
}

func unexpected(want, got model.Stage) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedStage, want, got)
}

// guard turns a collaborator panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}
