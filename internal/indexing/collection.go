package indexing

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
)

// Uploader ingests a video by URL and returns its id.
type Uploader interface {
	Upload(ctx context.Context, sourceURL string) (string, error)
}

// CollectionBuilder uploads a set of URLs and indexes whatever arrived.
type CollectionBuilder struct {
	uploader       Uploader
	batch          *BatchIndexer
	collection     string
	maxConcurrency int
	logger         *zap.Logger
}

// NewCollectionBuilder creates a builder that uploads into collection.
func NewCollectionBuilder(uploader Uploader, batch *BatchIndexer, collection string, maxConcurrency int, logger *zap.Logger) *CollectionBuilder {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &CollectionBuilder{
		uploader:       uploader,
		batch:          batch,
		collection:     collection,
		maxConcurrency: maxConcurrency,
		logger:         logging.WithComponent(logger, "collection_builder"),
	}
}

// Create uploads every URL, records the ones that failed, then batch
// indexes the uploaded videos. Upload order is preserved in VideoIDs.
func (c *CollectionBuilder) Create(ctx context.Context, urls []string, kind model.IndexKind, scenePrompt string, progress ProgressFunc) *model.CollectionResult {
	type upload struct {
		id  string
		err error
	}
	uploads := make([]upload, len(urls))

	p := pool.New().WithMaxGoroutines(c.maxConcurrency)
	for i, u := range urls {
		i, u := i, u
		p.Go(func() {
			id, err := c.uploader.Upload(ctx, u)
			uploads[i] = upload{id: id, err: err}
		})
	}
	p.Wait()

	result := &model.CollectionResult{
		CollectionName:  c.collection,
		TotalVideos:     len(urls),
		FailedUploads:   []string{},
		IndexingResults: map[string]bool{},
		VideoIDs:        []string{},
	}
	for i, up := range uploads {
		if up.err != nil {
			c.logger.Warn("upload failed", zap.String("url", urls[i]), zap.Error(up.err))
			result.FailedUploads = append(result.FailedUploads, urls[i])
			continue
		}
		result.VideoIDs = append(result.VideoIDs, up.id)
	}
	result.UploadedVideos = len(result.VideoIDs)

	if len(result.VideoIDs) > 0 {
		indexed := c.batch.IndexBatchWithProgress(ctx, result.VideoIDs, kind, scenePrompt, c.maxConcurrency, progress)
		for id, ok := range indexed {
			result.IndexingResults[id] = ok
		}
	}

	c.logger.Info("collection created",
		zap.String("collection", c.collection),
		zap.Int("total", result.TotalVideos),
		zap.Int("uploaded", result.UploadedVideos),
		zap.Int("failed_uploads", len(result.FailedUploads)))

	return result
}
