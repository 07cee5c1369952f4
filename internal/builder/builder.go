package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/api"
	"github.com/Ziad-epi/ai-data-copilot/internal/api/chatapi"
	"github.com/Ziad-epi/ai-data-copilot/internal/api/datasetapi"
	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/ingest"
	"github.com/Ziad-epi/ai-data-copilot/internal/insights"
	"github.com/Ziad-epi/ai-data-copilot/internal/integration/embedding"
	"github.com/Ziad-epi/ai-data-copilot/internal/integration/llm"
	"github.com/Ziad-epi/ai-data-copilot/internal/integration/vectorstore"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/formatter"
	"github.com/Ziad-epi/ai-data-copilot/internal/repository"
	"github.com/Ziad-epi/ai-data-copilot/internal/usecase/chat"
	"github.com/Ziad-epi/ai-data-copilot/internal/usecase/dataset"
	insightsuc "github.com/Ziad-epi/ai-data-copilot/internal/usecase/insights"
	"github.com/Ziad-epi/ai-data-copilot/internal/usecase/rag"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup artifact storage
	var db *pgxpool.Pool
	var store repository.Store

	switch cfg.StorageCfg.Backend {
	case "postgres":
		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.StorageCfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		db, err = repository.NewPool(ctx, cfg.StorageCfg)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}
		store = repository.NewPostgresStore(db, cfg.StorageCfg.Dir)
		logger.Info("Using postgres artifact storage")
	default:
		store = repository.NewFilesystemStore(cfg.StorageCfg.Dir)
		logger.Info("Using filesystem artifact storage", zap.String("dir", cfg.StorageCfg.Dir))
	}

	// Initialize the analysis engines
	ingestor := ingest.NewIngestor(cfg.IngestCfg)
	analyzer := insights.NewAnalyzer(cfg.InsightsCfg)
	suggester := insights.NewSuggester(cfg.ChartsCfg)

	// Initialize external service connectors (with mock support)
	var embedder rag.Embedder
	var generator chat.Generator

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = embedding.NewMockConnector(logger)
		generator = llm.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		embedder = embedding.NewConnector(cfg.EmbeddingConnectorCfg, logger)
		generator = llm.NewConnector(cfg.LLMConnectorCfg, logger)
	}

	// Vector index: Qdrant when configured, otherwise the embedded
	// file-backed store next to the dataset artifacts.
	var vectors rag.VectorStore
	if cfg.QdrantCfg.Url != "" {
		vectors = vectorstore.NewQdrantConnector(cfg.QdrantCfg, logger)
		logger.Info("Using qdrant vector store", zap.String("url", cfg.QdrantCfg.Url))
	} else {
		vectors = vectorstore.NewLocalStore(cfg.StorageCfg.Dir, logger)
		logger.Info("Using local vector store")
	}

	// Initialize use cases
	ragUC := rag.NewUsecase(store, embedder, vectors, cfg.RagCfg, logger)
	datasetUC := dataset.NewUsecase(store, ingestor, vectors, cfg.RagCfg.Collection, cfg.IngestCfg, logger)
	insightsUC := insightsuc.NewUsecase(store, analyzer, suggester, generator, cfg.InsightsCfg, logger)
	chatUC := chat.NewUsecase(store, ragUC, generator, cfg.RagCfg, logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	datasetHandler := datasetapi.NewHandler(datasetUC, insightsUC, ragUC, formatter.NewFactory(), cfg.IngestCfg)
	chatHandler := chatapi.NewHandler(chatUC)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(datasetHandler, chatHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}
