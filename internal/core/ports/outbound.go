package ports

import (
	"context"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

// RequestStore is the filesystem tree of record for requests, pages and
// blocks. All mutating methods are atomic per request.
type RequestStore interface {
	CreateRequest(ctx context.Context, req *domain.Request) error
	GetRequest(ctx context.Context, requestID string) (*domain.Request, error)
	ListRequestIDs(ctx context.Context) ([]string, error)
	DeleteRequest(ctx context.Context, requestID string) (int, error)

	SaveSource(ctx context.Context, requestID, filename string, data []byte) error
	OpenSource(ctx context.Context, requestID string) (string, []byte, error)

	SavePageResult(ctx context.Context, requestID string, page *domain.PageResult, pageImage []byte) error
	GetPageResult(ctx context.Context, requestID string, pageNumber int) (*domain.PageResult, error)

	UpdateBlockInPage(ctx context.Context, requestID string, pageNumber, blockID int, update domain.BlockUpdate) (*domain.PageResult, error)
	DeleteBlockFromPage(ctx context.Context, requestID string, pageNumber, blockID int) (*domain.PageResult, error)
	AddBlockToPage(ctx context.Context, requestID string, pageNumber int, block domain.NewBlock) (*domain.PageResult, error)

	UpdateStatus(ctx context.Context, requestID string, status domain.ProcessingStatus, errMessage string) error
	CompleteRequest(ctx context.Context, requestID string, summary domain.RequestSummary) error
	FailRequest(ctx context.Context, requestID string, reason string) error
	SaveAnalysis(ctx context.Context, requestID string, pageNumber int, analysis []byte) error
}

// RequestCatalog is the relational index over requests used for listings
// and status lookups. The filesystem store stays the source of truth.
type RequestCatalog interface {
	Insert(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, requestID string) (*domain.Request, error)
	UpdateStatus(ctx context.Context, requestID string, status domain.ProcessingStatus, errMessage string) error
	ListRecent(ctx context.Context, limit int) ([]domain.Request, error)
	Delete(ctx context.Context, requestID string) error
}

// MessageQueue publishes/consumes request-created events.
type MessageQueue interface {
	PublishRequestCreated(ctx context.Context, requestID string) error
	SubscribeRequestCreated(ctx context.Context, handler func(context.Context, string) error) error
}

// OCREngine runs text detection and recognition on a page image.
type OCREngine interface {
	DetectAndRecognize(ctx context.Context, image []byte) ([]domain.RawBlock, error)
}

// DocumentAnalyzer generates a model-written analysis of page text.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, text, prompt, modelID string) (string, error)
}

// PDFInspector splits multi-page PDF input into per-page documents.
type PDFInspector interface {
	PageCount(ctx context.Context, pdf []byte) (int, error)
	ExtractPage(ctx context.Context, pdf []byte, pageNumber int) ([]byte, error)
}
