package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jaehyunkim/docuvision/internal/config"
	"github.com/jaehyunkim/docuvision/internal/core/ports"
	"github.com/jaehyunkim/docuvision/internal/core/usecase"
	"github.com/jaehyunkim/docuvision/internal/infrastructure/catalog/postgres"
	"github.com/jaehyunkim/docuvision/internal/infrastructure/llm/ollama"
	"github.com/jaehyunkim/docuvision/internal/infrastructure/ocr/sidecar"
	"github.com/jaehyunkim/docuvision/internal/infrastructure/pdfinfo"
	"github.com/jaehyunkim/docuvision/internal/infrastructure/queue/nats"
	"github.com/jaehyunkim/docuvision/internal/infrastructure/resilience"
	"github.com/jaehyunkim/docuvision/internal/infrastructure/storage/requestfs"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue

	IngestUC  ports.RequestIngestor
	ProcessUC *usecase.ProcessRequestUseCase
	ReadUC    ports.RequestReader
	EditUC    ports.BlockEditor
	AnalyzeUC ports.PageAnalysisService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	catalog := postgres.NewRequestCatalog(db)
	if err := catalog.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	store, err := requestfs.NewStore(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init request store: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ocrClient := sidecar.New(
		cfg.OCRSidecarURL,
		sidecar.WithTimeout(time.Duration(cfg.OCRTimeoutSeconds)*time.Second),
		sidecar.WithResilienceExecutor(executor),
	)
	llmClient := ollama.New(cfg.OllamaURL, cfg.OllamaModel, ollama.WithResilienceExecutor(executor))
	inspector := pdfinfo.New()

	return &App{
		Config: cfg,
		Queue:  queue,

		IngestUC:  usecase.NewIngestRequestUseCase(store, catalog, queue, inspector),
		ProcessUC: usecase.NewProcessRequestUseCase(store, catalog, ocrClient, inspector, cfg.MergeThresholdPx),
		ReadUC:    usecase.NewReadRequestsUseCase(store, catalog),
		EditUC:    usecase.NewEditBlocksUseCase(store),
		AnalyzeUC: usecase.NewAnalyzePageUseCase(store, llmClient),

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
