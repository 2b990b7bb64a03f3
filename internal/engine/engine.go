// Package engine wires the external clients and the indexing, retrieval,
// selection and workflow components into one graph shared by the server
// and the CLI.
package engine

import (
	"go.uber.org/zap"

	"github.com/vibecut/api/internal/client"
	"github.com/vibecut/api/internal/config"
	"github.com/vibecut/api/internal/indexing"
	"github.com/vibecut/api/internal/logging"
	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/retrieval"
	"github.com/vibecut/api/internal/selection"
	"github.com/vibecut/api/internal/service"
	"github.com/vibecut/api/internal/workflow"
)

// Engine holds the composed components.
type Engine struct {
	VideoDB *client.VideoDBClient
	LLM     *client.LLMClient
	// Storage is nil when R2 is not configured.
	Storage client.StorageClient

	Runner      *indexing.Runner
	Batch       *indexing.BatchIndexer
	Collections *indexing.CollectionBuilder

	Executor   *retrieval.QueryExecutor
	Aggregator *retrieval.Aggregator
	Selector   *selection.Selector

	Planner   *service.PlannerService
	Assembler *service.AssemblyService
	Workflow  *workflow.Controller
}

// New builds the engine from cfg. R2 is optional: a failure to set it up
// is logged and the engine runs without object storage.
func New(cfg *config.Config, logger *zap.Logger) *Engine {
	logger = logging.OrNop(logger)

	e := &Engine{
		VideoDB: client.NewVideoDBClient(&cfg.VideoDB),
		LLM:     client.NewLLMClient(&cfg.LLM),
	}

	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			logger.Warn("R2 client not initialized", zap.Error(err))
		} else {
			e.Storage = r2
		}
	} else {
		logger.Info("R2 storage not configured, uploads need a source url")
	}

	e.Runner = indexing.NewRunner(e.VideoDB, cfg.Indexing.ScenePrompt, logger)
	e.Batch = indexing.NewBatchIndexer(e.Runner, logger)
	e.Collections = indexing.NewCollectionBuilder(e.VideoDB, e.Batch, cfg.VideoDB.Collection, cfg.Indexing.MaxConcurrency, logger)

	e.Executor = retrieval.NewQueryExecutor(e.VideoDB, retrieval.SearchOptions{
		SearchType: model.SearchType(cfg.Retrieval.SearchType),
	}, logger)
	e.Aggregator = retrieval.NewAggregator(e.Executor, retrieval.DefaultMaxParallel, logger)
	e.Selector = selection.NewSelector(cfg.Retrieval.EarlyStopFraction, logger)

	e.Planner = service.NewPlannerService(e.LLM, logger)
	e.Assembler = service.NewAssemblyService(e.VideoDB, logger)
	e.Workflow = workflow.NewController(e.Planner, e.Aggregator, e.Selector, e.Assembler, workflow.Options{
		Collection:    cfg.VideoDB.Collection,
		PerQueryLimit: cfg.Retrieval.PerQueryLimit,
	}, logger)

	return e
}

// Search returns the synchronous search service over this engine.
func (e *Engine) Search(cfg *config.Config, logger *zap.Logger) *service.SearchService {
	return service.NewSearchService(e.Executor, e.Selector, cfg.VideoDB.Collection, cfg.Retrieval.PerQueryLimit, logger)
}

// Services reports which external services are configured.
func (e *Engine) Services() map[string]bool {
	return map[string]bool{
		"videodb": e.VideoDB.IsConfigured(),
		"llm":     e.LLM.IsConfigured(),
		"r2":      e.Storage != nil && e.Storage.IsConfigured(),
	}
}
