package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// DefaultMaxParallel bounds concurrent queries within one Retrieve call.
const DefaultMaxParallel = 4

// QuerySearcher runs one query. *QueryExecutor implements it.
type QuerySearcher interface {
	Search(ctx context.Context, query string, scope model.VideoScope, limit int) ([]model.ClipCandidate, error)
}

// Aggregator merges the results of several queries into one ranked list.
type Aggregator struct {
	searcher    QuerySearcher
	maxParallel int
	logger      *zap.Logger
}

// NewAggregator creates an aggregator. A non-positive maxParallel means
// DefaultMaxParallel.
func NewAggregator(searcher QuerySearcher, maxParallel int, logger *zap.Logger) *Aggregator {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	return &Aggregator{
		searcher:    searcher,
		maxParallel: maxParallel,
		logger:      logging.WithComponent(logger, "retrieval_aggregator"),
	}
}

// Retrieve runs every query within scope, drops duplicate spans and ranks
// what is left. A failing query contributes nothing and is logged; the
// call only errors when ctx is done. The result is not truncated.
func (a *Aggregator) Retrieve(ctx context.Context, queries []string, scope model.VideoScope, perQueryLimit int) ([]model.ClipCandidate, error) {
	if len(queries) == 0 {
		return []model.ClipCandidate{}, nil
	}
	if perQueryLimit <= 0 {
		perQueryLimit = DefaultPerQueryLimit
	}

	perQuery := make([][]model.ClipCandidate, len(queries))

	p := pool.New().WithMaxGoroutines(a.maxParallel)
	for i, q := range queries {
		i, q := i, q
		p.Go(func() {
			clips, err := a.searcher.Search(ctx, q, scope, perQueryLimit)
			if err != nil {
				a.logger.Warn("query failed", zap.String("query", q), zap.Error(err))
				return
			}
			for j := range clips {
				clips[j].SourceQuery = q
			}
			perQuery[i] = clips
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieval interrupted: %w", err)
	}

	var all []model.ClipCandidate
	for _, clips := range perQuery {
		all = append(all, clips...)
	}

	ranked := Rank(Dedup(all))

	a.logger.Info("retrieval finished",
		zap.Int("queries", len(queries)),
		zap.Int("candidates", len(all)),
		zap.Int("unique", len(ranked)))

	return ranked, nil
}

// Dedup keeps one candidate per (clipId, startTime, endTime). The higher
// score wins; on a tie the one seen first wins, so callers pass candidates
// in query submission order.
func Dedup(clips []model.ClipCandidate) []model.ClipCandidate {
	out := make([]model.ClipCandidate, 0, len(clips))
	pos := make(map[model.ClipKey]int, len(clips))
	for _, c := range clips {
		k := c.Key()
		if i, ok := pos[k]; ok {
			if c.RelevanceScore > out[i].RelevanceScore {
				out[i] = c
			}
			continue
		}
		pos[k] = len(out)
		out = append(out, c)
	}
	return out
}

// Rank sorts clips in place by score descending, then start time, clip id
// and end time ascending, and returns them.
func Rank(clips []model.ClipCandidate) []model.ClipCandidate {
	sort.SliceStable(clips, func(i, j int) bool {
		a, b := clips[i], clips[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.ClipID != b.ClipID {
			return a.ClipID < b.ClipID
		}
		return a.EndTime < b.EndTime
	})
	return clips
}
