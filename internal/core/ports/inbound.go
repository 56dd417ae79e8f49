package ports

import (
	"context"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

// RequestIngestor is the inbound contract for document upload orchestration.
type RequestIngestor interface {
	Ingest(ctx context.Context, filename, description string, data []byte) (*domain.Request, error)
}

// RequestProcessor is the inbound contract for asynchronous OCR processing.
type RequestProcessor interface {
	ProcessByID(ctx context.Context, requestID string) error
}

// RequestReader is the inbound read model for requests, pages and blocks.
type RequestReader interface {
	GetRequest(ctx context.Context, requestID string) (*domain.Request, error)
	ListRequests(ctx context.Context, limit int) ([]domain.Request, error)
	GetPage(ctx context.Context, requestID string, pageNumber int) (*domain.PageResult, error)
	GetBlock(ctx context.Context, requestID string, pageNumber, blockID int) (*domain.Block, error)
	DeleteRequest(ctx context.Context, requestID string) error
}

// BlockEditor is the inbound contract for post-OCR block correction.
type BlockEditor interface {
	UpdateBlock(ctx context.Context, requestID string, pageNumber, blockID int, update domain.BlockUpdate) (*domain.PageResult, error)
	DeleteBlock(ctx context.Context, requestID string, pageNumber, blockID int) (*domain.PageResult, error)
	AddBlock(ctx context.Context, requestID string, pageNumber int, block domain.NewBlock) (*domain.PageResult, error)
}

// PageAnalysisService is the inbound contract for model-assisted page analysis.
type PageAnalysisService interface {
	AnalyzePage(ctx context.Context, requestID string, pageNumber int, prompt, modelID string) (string, error)
}
