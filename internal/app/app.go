// -----------------------------------------------------------------------
// Last Modified: Friday, 21st August 2026 4:12:05 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/handlers"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/services/artifacts"
	"github.com/ternarybob/respondeo/internal/services/blob"
	"github.com/ternarybob/respondeo/internal/services/chunker"
	"github.com/ternarybob/respondeo/internal/services/classifier"
	"github.com/ternarybob/respondeo/internal/services/embeddings"
	"github.com/ternarybob/respondeo/internal/services/extraction"
	"github.com/ternarybob/respondeo/internal/services/knowledge"
	"github.com/ternarybob/respondeo/internal/services/llm"
	"github.com/ternarybob/respondeo/internal/services/parsers"
	"github.com/ternarybob/respondeo/internal/services/pipeline"
	"github.com/ternarybob/respondeo/internal/services/responses"
	"github.com/ternarybob/respondeo/internal/services/sheets"
	"github.com/ternarybob/respondeo/internal/services/systemlogs"
	"github.com/ternarybob/respondeo/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// External clients (process-wide, reentrant)
	BlobService      interfaces.BlobService
	LLMService       interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService

	// Domain services
	KnowledgeService *knowledge.Service
	Pipeline         *pipeline.Pipeline

	// Periodic knowledge base re-embed sweep
	cron *cron.Cron

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	ProjectHandler   *handlers.ProjectHandler
	DocumentHandler  *handlers.DocumentHandler
	GenerateHandler  *handlers.GenerateHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	ResultsHandler   *handlers.ResultsHandler
	LogsHandler      *handlers.LogsHandler
}

// New initializes the application with all dependencies
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	blobService, err := blob.NewService(ctx, &cfg.Blob, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	app.BlobService = blobService

	llmService, err := llm.NewClaudeService(&cfg.Claude, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	app.LLMService = llmService

	embeddingService, err := embeddings.NewService(ctx, &cfg.Embeddings, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
	}
	app.EmbeddingService = embeddingService

	app.KnowledgeService = knowledge.NewService(
		storageManager.KnowledgeStorage(),
		embeddingService,
		cfg.Embeddings.Model,
		cfg.Pipeline.RetrievalTopK,
		cfg.Pipeline.RetrievalMinScore,
		logger,
	)

	app.Pipeline = app.buildPipeline(logger)

	app.APIHandler = handlers.NewAPIHandler()
	app.ProjectHandler = handlers.NewProjectHandler(storageManager)
	app.DocumentHandler = handlers.NewDocumentHandler(storageManager, blobService)
	app.GenerateHandler = handlers.NewGenerateHandler(storageManager, app.Pipeline)
	app.KnowledgeHandler = handlers.NewKnowledgeHandler(storageManager, app.KnowledgeService)
	app.ResultsHandler = handlers.NewResultsHandler(storageManager)
	app.LogsHandler = handlers.NewLogsHandler(systemlogs.NewService(logsDir(), logger))

	if cfg.Processing.Enabled {
		if err := app.startReembedSweep(); err != nil {
			return nil, fmt.Errorf("failed to start re-embed sweep: %w", err)
		}
	}

	logger.Info().Msg("Application initialized")
	return app, nil
}

// buildPipeline wires the generation pipeline and every service it
// drives.
func (a *App) buildPipeline(logger arbor.ILogger) *pipeline.Pipeline {
	cfg := a.Config

	ocr := parsers.NewTesseractEngine("", logger)
	dispatcher := parsers.NewDispatcher(cfg, ocr, logger)

	textChunker := chunker.New(cfg.Pipeline.ChunkMaxTokens, cfg.Pipeline.ChunkOverlapTokens)
	deduper := extraction.NewDeduper(a.EmbeddingService, cfg.Pipeline.DedupeThreshold, logger)

	svc := pipeline.Services{
		Storage:      a.StorageManager,
		Blob:         a.BlobService,
		LLM:          a.LLMService,
		Parsers:      dispatcher,
		Classifier:   classifier.NewService(a.LLMService, logger),
		Requirements: extraction.NewRequirementExtractor(a.LLMService, deduper, textChunker, logger),
		Schedule:     extraction.NewScheduleExtractor(a.LLMService, logger),
		Pricing:      extraction.NewPricingExtractor(a.LLMService, logger),
		Detector:     sheets.NewDetector(logger),
		Questions:    sheets.NewExtractor(logger),
		Writer:       sheets.NewWriter(logger),
		Generator:    responses.NewGenerator(a.LLMService, a.KnowledgeService, cfg.Pipeline.MaxConcurrency, logger),
		Planner:      responses.NewPlanner(a.LLMService, a.StorageManager.PlanStorage(), logger),
		WinPlan:      artifacts.NewWinPlanBuilder(logger),
		RFIPDF:       artifacts.NewRFIPDFBuilder(cfg.Proposal.FontDir, logger),
	}
	return pipeline.New(cfg, svc, logger)
}

// logsDir resolves the directory the file log writer targets, beside
// the executable.
func logsDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(execPath), "logs")
}

// startReembedSweep schedules the periodic pass that re-embeds
// knowledge entries indexed under an older embedding model.
func (a *App) startReembedSweep() error {
	a.cron = cron.New()
	_, err := a.cron.AddFunc(a.Config.Processing.Schedule, func() {
		updated, err := a.KnowledgeService.ReembedStale(context.Background(), a.Config.Processing.Limit)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Knowledge re-embed sweep failed")
			return
		}
		if updated > 0 {
			a.Logger.Info().Int("updated", updated).Msg("Knowledge re-embed sweep completed")
		}
	})
	if err != nil {
		return err
	}
	a.cron.Start()
	a.Logger.Info().Str("schedule", a.Config.Processing.Schedule).Msg("Knowledge re-embed sweep scheduled")
	return nil
}

// Close shuts down application components in reverse dependency order.
func (a *App) Close() error {
	if a.cron != nil {
		a.cron.Stop()
	}

	if a.LLMService != nil {
		usage := a.LLMService.TotalUsage()
		a.Logger.Info().
			Int64("input_tokens", usage.InputTokens).
			Int64("output_tokens", usage.OutputTokens).
			Msg("LLM usage for this run")
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM client")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
