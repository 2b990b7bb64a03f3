package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/client"
	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// Compiler renders clip timelines.
type Compiler interface {
	Compile(ctx context.Context, req *client.CompileRequest) (string, error)
	IsConfigured() bool
}

// AssemblyService renders the selected clips through VideoDB
type AssemblyService struct {
	compiler Compiler
	logger   *zap.Logger
}

// NewAssemblyService creates an assembler. A nil or unconfigured compiler
// gives mock stream URLs.
func NewAssemblyService(compiler Compiler, logger *zap.Logger) *AssemblyService {
	return &AssemblyService{
		compiler: compiler,
		logger:   logging.WithComponent(logger, "assembler"),
	}
}

// Assemble compiles exactly the given clips in order. Count and duration
// limits are applied at selection. No clips gives an empty URL.
func (s *AssemblyService) Assemble(ctx context.Context, clips []model.ClipCandidate, cfg model.AssemblyConfig) (string, error) {
	if len(clips) == 0 {
		s.logger.Info("nothing to assemble")
		return "", nil
	}

	if !s.configured() {
		return s.mockURL("edits"), nil
	}

	url, err := s.compiler.Compile(ctx, &client.CompileRequest{
		Clips:          toCompileClips(clips),
		Preset:         string(cfg.Preset),
		Transition:     cfg.TransitionStyle,
		AspectRatio:    cfg.AspectRatio,
		Theme:          cfg.Theme,
		TargetDuration: cfg.TargetDurationSeconds,
	})
	if err != nil {
		return "", fmt.Errorf("compilation failed: %w", err)
	}

	s.logger.Info("video assembled", zap.Int("clips", len(clips)), zap.String("url", url))
	return url, nil
}

// CreatePreview compiles a low-resolution preview of clips.
func (s *AssemblyService) CreatePreview(ctx context.Context, clips []model.ClipCandidate) (string, error) {
	if len(clips) == 0 {
		return "", nil
	}

	if !s.configured() {
		return s.mockURL("previews"), nil
	}

	url, err := s.compiler.Compile(ctx, &client.CompileRequest{
		Clips:   toCompileClips(clips),
		Preview: true,
	})
	if err != nil {
		return "", fmt.Errorf("preview failed: %w", err)
	}
	return url, nil
}

func (s *AssemblyService) configured() bool {
	return s.compiler != nil && s.compiler.IsConfigured()
}

func (s *AssemblyService) mockURL(kind string) string {
	return fmt.Sprintf("https://cdn.vibecut.app/%s/%s.m3u8", kind, uuid.New().String())
}

func toCompileClips(clips []model.ClipCandidate) []client.CompileClip {
	out := make([]client.CompileClip, len(clips))
	for i, c := range clips {
		out[i] = client.CompileClip{VideoID: c.ClipID, Start: c.StartTime, End: c.EndTime}
	}
	return out
}
