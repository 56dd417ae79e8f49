package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jaehyunkim/docuvision/internal/core/analysis"
	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/core/geometry"
	"github.com/jaehyunkim/docuvision/internal/core/layout"
	"github.com/jaehyunkim/docuvision/internal/core/ports"
)

type ProcessRequestUseCase struct {
	store     ports.RequestStore
	catalog   ports.RequestCatalog
	ocr       ports.OCREngine
	inspector ports.PDFInspector

	mergeThresholdPx float64
	now              func() time.Time

	// pageObserver, when set, is told each processed page's block count.
	pageObserver func(blockCount int)
}

// SetPageObserver installs a callback invoked after every saved page.
// Callers use it for instrumentation; it must not block.
func (uc *ProcessRequestUseCase) SetPageObserver(fn func(blockCount int)) {
	uc.pageObserver = fn
}

func NewProcessRequestUseCase(
	store ports.RequestStore,
	catalog ports.RequestCatalog,
	ocr ports.OCREngine,
	inspector ports.PDFInspector,
	mergeThresholdPx float64,
) *ProcessRequestUseCase {
	return &ProcessRequestUseCase{
		store:            store,
		catalog:          catalog,
		ocr:              ocr,
		inspector:        inspector,
		mergeThresholdPx: mergeThresholdPx,
		now:              time.Now,
	}
}

// ProcessByID runs the full OCR pipeline for one request: per-page text
// detection, block merging, classification, section grouping, hierarchy
// building and page-level summarization. The request ends completed or
// failed; both the filesystem store and the catalog reflect the outcome.
func (uc *ProcessRequestUseCase) ProcessByID(ctx context.Context, requestID string) error {
	req, err := uc.store.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("fetch request: %w", err)
	}
	// Queue delivery is at least once; a replayed event for a finished
	// request must not reprocess it.
	if req.Status == domain.StatusCompleted || req.Status == domain.StatusFailed {
		return nil
	}

	if err := uc.markStatus(ctx, requestID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	summary, err := uc.processPipeline(ctx, requestID)
	if err != nil {
		if failErr := uc.markFailed(ctx, requestID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.store.CompleteRequest(ctx, requestID, summary); err != nil {
		return fmt.Errorf("complete request: %w", err)
	}
	if err := uc.catalog.UpdateStatus(ctx, requestID, domain.StatusCompleted, ""); err != nil {
		return fmt.Errorf("set catalog status=completed: %w", err)
	}
	return nil
}

func (uc *ProcessRequestUseCase) processPipeline(ctx context.Context, requestID string) (domain.RequestSummary, error) {
	started := uc.now()

	req, err := uc.store.GetRequest(ctx, requestID)
	if err != nil {
		return domain.RequestSummary{}, fmt.Errorf("fetch request: %w", err)
	}
	_, source, err := uc.store.OpenSource(ctx, requestID)
	if err != nil {
		return domain.RequestSummary{}, fmt.Errorf("open source file: %w", err)
	}

	totalBlocks := 0
	confidenceSum := 0.0
	for pageNumber := 1; pageNumber <= req.TotalPages; pageNumber++ {
		page, err := uc.processPage(ctx, req, source, pageNumber)
		if err != nil {
			return domain.RequestSummary{}, fmt.Errorf("process page %d: %w", pageNumber, err)
		}
		totalBlocks += page.TotalBlocks
		confidenceSum += page.AverageConfidence * float64(page.TotalBlocks)
	}

	avgConfidence := 0.0
	if totalBlocks > 0 {
		avgConfidence = confidenceSum / float64(totalBlocks)
	}
	completedAt := uc.now()
	return domain.RequestSummary{
		TotalPages:        req.TotalPages,
		TotalBlocks:       totalBlocks,
		AverageConfidence: avgConfidence,
		ProcessingTime:    completedAt.Sub(started).Seconds(),
		CompletedAt:       completedAt.UTC(),
	}, nil
}

func (uc *ProcessRequestUseCase) processPage(
	ctx context.Context,
	req *domain.Request,
	source []byte,
	pageNumber int,
) (*domain.PageResult, error) {
	pageStarted := uc.now()

	pageData := source
	if req.FileType == domain.FilePDF {
		var err error
		pageData, err = uc.inspector.ExtractPage(ctx, source, pageNumber)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page: %w", err)
		}
	}

	rawBlocks, err := uc.ocr.DetectAndRecognize(ctx, pageData)
	if err != nil {
		return nil, fmt.Errorf("run ocr: %w", err)
	}

	blocks := make([]domain.Block, len(rawBlocks))
	for i, raw := range rawBlocks {
		blocks[i] = raw.ToBlock(i)
	}
	blocks = layout.MergeAdjacentBlocks(blocks, uc.mergeThresholdPx)

	for i := range blocks {
		summary := analysis.SummarizeBlock(blocks[i])
		blocks[i].Summary = &summary
		blocks[i].Type = analysis.ClassifyContent(blocks[i].Text)
	}
	blocks = layout.BuildHierarchy(blocks)

	pageHeight := 0.0
	if box, ok := unionOfBlocks(blocks); ok {
		pageHeight = box.YMax
	}
	sections := layout.GroupIntoSections(blocks, pageHeight)
	pageSummary := analysis.SummarizePage(blocks)

	page := &domain.PageResult{
		PageNumber:     pageNumber,
		ProcessingTime: uc.now().Sub(pageStarted).Seconds(),
		Blocks:         blocks,
		Sections:       sections,
		ContentSummary: &pageSummary,
	}
	page.Recompute()

	if err := uc.store.SavePageResult(ctx, req.ID, page, pageData); err != nil {
		return nil, fmt.Errorf("save page result: %w", err)
	}
	if uc.pageObserver != nil {
		uc.pageObserver(page.TotalBlocks)
	}
	return page, nil
}

func unionOfBlocks(blocks []domain.Block) (domain.BoundingBox, bool) {
	boxes := make([]domain.BoundingBox, 0, len(blocks))
	for _, b := range blocks {
		if b.Box.Valid() {
			boxes = append(boxes, b.Box)
		}
	}
	return geometry.UnionBox(boxes)
}

func (uc *ProcessRequestUseCase) markStatus(ctx context.Context, requestID string, status domain.ProcessingStatus, errMessage string) error {
	if err := uc.store.UpdateStatus(ctx, requestID, status, errMessage); err != nil {
		return err
	}
	return uc.catalog.UpdateStatus(ctx, requestID, status, errMessage)
}

func (uc *ProcessRequestUseCase) markFailed(ctx context.Context, requestID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	if err := uc.store.FailRequest(ctx, requestID, processErr.Error()); err != nil {
		return err
	}
	return uc.catalog.UpdateStatus(ctx, requestID, domain.StatusFailed, processErr.Error())
}
