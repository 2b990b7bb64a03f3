// Package indexing prepares uploaded videos for search: a Runner performs
// one index operation and never fails loudly, a BatchIndexer runs many of
// them under a concurrency cap.
package indexing

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// DefaultScenePrompt is used when neither the caller nor the config supplies
// a scene prompt.
const DefaultScenePrompt = "Describe the key visual scenes and actions"

// Indexer is the part of the video service that builds search indexes.
type Indexer interface {
	IndexSpokenWords(ctx context.Context, videoID string) error
	IndexScenes(ctx context.Context, videoID, prompt string) error
}

// Runner executes a single index operation.
type Runner struct {
	indexer     Indexer
	scenePrompt string
	logger      *zap.Logger
}

// NewRunner creates a runner. An empty scenePrompt means DefaultScenePrompt.
func NewRunner(indexer Indexer, scenePrompt string, logger *zap.Logger) *Runner {
	if scenePrompt == "" {
		scenePrompt = DefaultScenePrompt
	}
	return &Runner{
		indexer:     indexer,
		scenePrompt: scenePrompt,
		logger:      logging.WithComponent(logger, "index_runner"),
	}
}

// Index builds the requested index for videoID and reports success. Errors
// and panics from the indexer are logged and turned into false. For
// IndexBoth both operations are attempted and both must succeed.
func (r *Runner) Index(ctx context.Context, videoID string, kind model.IndexKind, scenePrompt string) (ok bool) {
	log := logging.WithVideoID(r.logger, videoID).With(zap.String("kind", string(kind)))

	defer func() {
		if p := recover(); p != nil {
			log.Error("indexing panicked", zap.Any("panic", p))
			ok = false
		}
	}()

	if scenePrompt == "" {
		scenePrompt = r.scenePrompt
	}

	var err error
	switch kind {
	case model.IndexSpokenWords:
		err = r.indexer.IndexSpokenWords(ctx, videoID)
	case model.IndexScenes:
		err = r.indexer.IndexScenes(ctx, videoID, scenePrompt)
	case model.IndexBoth:
		err = multierr.Append(
			wrap("spoken words", r.indexer.IndexSpokenWords(ctx, videoID)),
			wrap("scenes", r.indexer.IndexScenes(ctx, videoID, scenePrompt)),
		)
	default:
		err = fmt.Errorf("unknown index kind %q", kind)
	}

	if err != nil {
		log.Warn("indexing failed", zap.Error(err))
		return false
	}

	log.Debug("indexing succeeded")
	return true
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
