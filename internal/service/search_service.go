package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/retrieval"
	"github.com/vibecut/api/internal/selection"
)

// SearchService runs an aggregated retrieval synchronously
type SearchService struct {
	executor      *retrieval.QueryExecutor
	selector      *selection.Selector
	collection    string
	perQueryLimit int
	logger        *zap.Logger
}

func NewSearchService(executor *retrieval.QueryExecutor, selector *selection.Selector, collection string, perQueryLimit int, logger *zap.Logger) *SearchService {
	return &SearchService{
		executor:      executor,
		selector:      selector,
		collection:    collection,
		perQueryLimit: perQueryLimit,
		logger:        logging.WithComponent(logger, "search"),
	}
}

// Search ranks the candidates for every query. With a target duration the
// budgeted selection is returned as well.
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	executor := s.executor.WithOptions(retrieval.SearchOptions{
		SearchType:   req.SearchType,
		SceneIndexID: req.SceneIndexID,
		Filters:      req.Filters,
	})

	scope := model.CollectionScope(s.collection, req.VideoIDs...)
	if req.VideoID != "" {
		scope = model.SingleVideo(req.VideoID)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.perQueryLimit
	}

	clips, err := retrieval.NewAggregator(executor, 0, s.logger).Retrieve(ctx, req.Queries, scope, limit)
	if err != nil {
		return nil, err
	}

	resp := &model.SearchResponse{Clips: clips, Count: len(clips)}
	if req.TargetDuration != nil {
		resp.Selected = s.selector.Select(clips, *req.TargetDuration, 0)
		resp.SelectedDuration = model.TotalDuration(resp.Selected)
	}
	return resp, nil
}
