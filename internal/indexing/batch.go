package indexing

import (
	"context"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// DefaultMaxConcurrency bounds in-flight index calls when the caller passes
// a non-positive limit.
const DefaultMaxConcurrency = 3

// Result maps each submitted video id to whether it was indexed. Failed
// ids are kept.
type Result map[string]bool

// Succeeded lists the ids that were indexed, sorted.
func (r Result) Succeeded() []string {
	return r.filter(true)
}

// Failed lists the ids that were not indexed, sorted.
func (r Result) Failed() []string {
	return r.filter(false)
}

func (r Result) filter(want bool) []string {
	out := []string{}
	for id, ok := range r {
		if ok == want {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// TaskRunner indexes one video and reports success.
type TaskRunner interface {
	Index(ctx context.Context, videoID string, kind model.IndexKind, scenePrompt string) bool
}

// ProgressFunc is told about every finished item. Calls are serialized.
type ProgressFunc func(videoID string, ok bool, done, total int)

// BatchIndexer runs one TaskRunner invocation per video id under a fixed
// concurrency cap.
type BatchIndexer struct {
	runner TaskRunner
	logger *zap.Logger
}

// NewBatchIndexer creates a batch indexer over runner.
func NewBatchIndexer(runner TaskRunner, logger *zap.Logger) *BatchIndexer {
	return &BatchIndexer{
		runner: runner,
		logger: logging.WithComponent(logger, "batch_indexer"),
	}
}

// IndexBatch indexes every id with at most maxConcurrency calls in flight
// and returns one entry per distinct id. There is no retry.
func (b *BatchIndexer) IndexBatch(ctx context.Context, videoIDs []string, kind model.IndexKind, scenePrompt string, maxConcurrency int) Result {
	return b.IndexBatchWithProgress(ctx, videoIDs, kind, scenePrompt, maxConcurrency, nil)
}

// IndexBatchWithProgress is IndexBatch with a per-item callback.
func (b *BatchIndexer) IndexBatchWithProgress(ctx context.Context, videoIDs []string, kind model.IndexKind, scenePrompt string, maxConcurrency int, progress ProgressFunc) Result {
	ids := uniqueIDs(videoIDs)
	if len(ids) == 0 {
		return Result{}
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	b.logger.Info("batch indexing started",
		zap.Int("videos", len(ids)),
		zap.String("kind", string(kind)),
		zap.Int("max_concurrency", maxConcurrency))

	// each task owns its slot, so no lock is needed for outcomes
	outcomes := make([]bool, len(ids))

	var mu sync.Mutex
	done := 0

	p := pool.New().WithMaxGoroutines(maxConcurrency)
	for i, id := range ids {
		i, id := i, id
		p.Go(func() {
			ok := b.runner.Index(ctx, id, kind, scenePrompt)
			outcomes[i] = ok

			mu.Lock()
			done++
			if progress != nil {
				progress(id, ok, done, len(ids))
			}
			mu.Unlock()
		})
	}
	p.Wait()

	result := make(Result, len(ids))
	for i, id := range ids {
		result[id] = outcomes[i]
	}

	b.logger.Info("batch indexing finished",
		zap.Int("videos", len(ids)),
		zap.Int("failed", len(result.Failed())))

	return result
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
