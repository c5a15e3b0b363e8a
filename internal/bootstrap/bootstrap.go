package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/stewardai/adaptive-rag/internal/config"
	"github.com/stewardai/adaptive-rag/internal/core/ports"
	"github.com/stewardai/adaptive-rag/internal/core/usecase"
	"github.com/stewardai/adaptive-rag/internal/infrastructure/embedding/ollama"
	"github.com/stewardai/adaptive-rag/internal/infrastructure/llm/openaichat"
	"github.com/stewardai/adaptive-rag/internal/infrastructure/queue/nats"
	"github.com/stewardai/adaptive-rag/internal/infrastructure/repository/postgres"
	"github.com/stewardai/adaptive-rag/internal/infrastructure/vector/qdrant"
	"github.com/stewardai/adaptive-rag/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    *nats.Queue
	Archive  ports.RunArchive
	VectorDB *qdrant.Client
	Pipeline ports.QueryPipeline

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	archive := postgres.NewRunRepository(db)
	if err := archive.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	gateway := openaichat.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxRetries)
	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel)
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	analyzer := usecase.NewQueryAnalyzer(gateway, cfg.LLMTemperature)
	relevance := usecase.NewRelevanceGate(embedder, cfg.DomainText)
	validator := usecase.NewRewriteValidator(gateway)
	recon := usecase.NewReconstructionController(analyzer, relevance, validator)

	retriever := usecase.NewRetriever(embedder, vectorDB, cfg.RetrieverTopK)
	coverage := usecase.NewCoverageGuard(embedder, cfg.KBCoverageThreshold, cfg.CoveragePrefixChars, logger)

	grader := usecase.NewRetrievalGrader(gateway, 0)
	hallucination := usecase.NewHallucinationChecker(gateway, 0)
	finalCheck := usecase.NewFinalRelevanceChecker(gateway, 0)
	generator := usecase.NewAnswerGenerator(gateway, cfg.LLMTemperature)
	fallback := usecase.NewFallbackGenerator(gateway)

	pipeline := usecase.NewOrchestrator(
		recon,
		retriever,
		coverage,
		grader,
		hallucination,
		finalCheck,
		generator,
		fallback,
		cfg.MaxPipelineRetries,
		logger,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Queue:    queue,
		Archive:  archive,
		VectorDB: vectorDB,
		Pipeline: pipeline,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
