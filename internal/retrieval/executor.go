// Package retrieval turns search queries into ranked clip candidates. The
// QueryExecutor runs one query; the Aggregator fans a query list out and
// merges the results into one deterministic ranking.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vibecut/api/internal/client"
	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// DefaultPerQueryLimit is the number of hits requested per query when the
// caller passes a non-positive limit.
const DefaultPerQueryLimit = 10

// Searcher is the search half of the video service.
type Searcher interface {
	Search(ctx context.Context, req *client.SearchRequest) ([]client.SearchResult, error)
}

// SearchOptions are passed through to the search service unchanged.
// Filters carry no meaning here.
type SearchOptions struct {
	SearchType   model.SearchType
	IndexType    string
	SceneIndexID string
	Filters      map[string]string
}

// QueryExecutor runs a single query against a scope.
type QueryExecutor struct {
	searcher Searcher
	opts     SearchOptions
	logger   *zap.Logger
}

// NewQueryExecutor creates an executor with the given default options.
func NewQueryExecutor(searcher Searcher, opts SearchOptions, logger *zap.Logger) *QueryExecutor {
	if opts.SearchType == "" {
		opts.SearchType = model.SearchSemantic
	}
	return &QueryExecutor{
		searcher: searcher,
		opts:     opts,
		logger:   logging.WithComponent(logger, "query_executor"),
	}
}

// WithOptions returns a copy of the executor using opts instead of the
// defaults. Zero fields keep the default.
func (e *QueryExecutor) WithOptions(opts SearchOptions) *QueryExecutor {
	merged := e.opts
	if opts.SearchType != "" {
		merged.SearchType = opts.SearchType
	}
	if opts.IndexType != "" {
		merged.IndexType = opts.IndexType
	}
	if opts.SceneIndexID != "" {
		merged.SceneIndexID = opts.SceneIndexID
	}
	if len(opts.Filters) > 0 {
		merged.Filters = opts.Filters
	}
	return &QueryExecutor{searcher: e.searcher, opts: merged, logger: e.logger}
}

// Search returns the candidates for query within scope. No match gives an
// empty slice and a nil error; a failed call gives a non-nil error.
func (e *QueryExecutor) Search(ctx context.Context, query string, scope model.VideoScope, limit int) ([]model.ClipCandidate, error) {
	if limit <= 0 {
		limit = DefaultPerQueryLimit
	}

	req := &client.SearchRequest{
		Query:        query,
		SearchType:   string(e.opts.SearchType),
		IndexType:    e.opts.IndexType,
		Limit:        limit,
		SceneIndexID: e.opts.SceneIndexID,
		Filters:      e.opts.Filters,
	}
	if scope.IsSingleVideo() {
		req.VideoID = scope.VideoID
	} else {
		req.Collection = scope.Collection
	}

	hits, err := e.searcher.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	allowed := allowedVideos(scope)
	clips := make([]model.ClipCandidate, 0, len(hits))
	for _, h := range hits {
		if h.End <= h.Start {
			e.logger.Debug("dropping empty span",
				zap.String("video_id", h.VideoID),
				zap.Float64("start", h.Start),
				zap.Float64("end", h.End))
			continue
		}
		videoID := h.VideoID
		if videoID == "" {
			videoID = scope.VideoID
		}
		if allowed != nil {
			if _, ok := allowed[videoID]; !ok {
				continue
			}
		}
		var score float64
		if h.Score != nil {
			score = *h.Score
		}
		clips = append(clips, model.ClipCandidate{
			ClipID:         videoID,
			StartTime:      h.Start,
			EndTime:        h.End,
			RelevanceScore: score,
			SourceQuery:    query,
			Description:    h.Description,
		})
	}
	return clips, nil
}

func allowedVideos(scope model.VideoScope) map[string]struct{} {
	if scope.IsSingleVideo() || len(scope.VideoIDs) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(scope.VideoIDs))
	for _, id := range scope.VideoIDs {
		m[id] = struct{}{}
	}
	return m
}
