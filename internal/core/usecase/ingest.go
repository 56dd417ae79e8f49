package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/core/ports"
)

type IngestRequestUseCase struct {
	store     ports.RequestStore
	catalog   ports.RequestCatalog
	queue     ports.MessageQueue
	inspector ports.PDFInspector
}

func NewIngestRequestUseCase(
	store ports.RequestStore,
	catalog ports.RequestCatalog,
	queue ports.MessageQueue,
	inspector ports.PDFInspector,
) *IngestRequestUseCase {
	return &IngestRequestUseCase{
		store:     store,
		catalog:   catalog,
		queue:     queue,
		inspector: inspector,
	}
}

// Ingest registers an uploaded document and queues it for processing.
// Request ids are UUIDv7, so lexicographic id order equals creation order.
func (uc *IngestRequestUseCase) Ingest(
	ctx context.Context,
	filename, description string,
	data []byte,
) (*domain.Request, error) {
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest request", errors.New("empty file"))
	}
	fileType, err := fileTypeFromName(filename)
	if err != nil {
		return nil, err
	}

	totalPages := 1
	if fileType == domain.FilePDF {
		totalPages, err = uc.inspector.PageCount(ctx, data)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "count pdf pages", err)
		}
		if totalPages < 1 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "count pdf pages", errors.New("pdf has no pages"))
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate request id: %w", err)
	}

	req := &domain.Request{
		ID:               id.String(),
		OriginalFilename: filepath.Base(filename),
		FileType:         fileType,
		FileSize:         int64(len(data)),
		TotalPages:       totalPages,
		Status:           domain.StatusPending,
		Description:      description,
		CreatedAt:        time.Now().UTC(),
	}

	if err := uc.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create request directory: %w", err)
	}
	if err := uc.store.SaveSource(ctx, req.ID, req.OriginalFilename, data); err != nil {
		return nil, fmt.Errorf("save source file: %w", err)
	}
	if err := uc.catalog.Insert(ctx, req); err != nil {
		return nil, fmt.Errorf("insert request into catalog: %w", err)
	}
	if err := uc.queue.PublishRequestCreated(ctx, req.ID); err != nil {
		return nil, fmt.Errorf("publish request event: %w", err)
	}
	return req, nil
}

func fileTypeFromName(filename string) (domain.FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".webp":
		return domain.FileImage, nil
	case ".pdf":
		return domain.FilePDF, nil
	}
	return "", domain.WrapError(
		domain.ErrInvalidInput,
		"detect file type",
		fmt.Errorf("unsupported file extension %q", filepath.Ext(filename)),
	)
}
