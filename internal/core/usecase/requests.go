package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/core/ports"
)

// ReadRequestsUseCase serves request, page and block reads plus request
// deletion. The filesystem store is the source of truth; the catalog only
// accelerates listings and is kept in sync on delete.
type ReadRequestsUseCase struct {
	store   ports.RequestStore
	catalog ports.RequestCatalog
}

func NewReadRequestsUseCase(store ports.RequestStore, catalog ports.RequestCatalog) *ReadRequestsUseCase {
	return &ReadRequestsUseCase{store: store, catalog: catalog}
}

func (uc *ReadRequestsUseCase) GetRequest(ctx context.Context, requestID string) (*domain.Request, error) {
	req, err := uc.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("fetch request: %w", err)
	}
	return req, nil
}

// ListRequests returns up to limit requests, newest first, served from the
// catalog index. When the catalog is unavailable the store is scanned
// instead; UUIDv7 ids sort by creation time, so the store's descending id
// order is creation order too.
func (uc *ReadRequestsUseCase) ListRequests(ctx context.Context, limit int) ([]domain.Request, error) {
	reqs, catErr := uc.catalog.ListRecent(ctx, limit)
	if catErr == nil {
		return reqs, nil
	}
	slog.Warn("catalog listing unavailable, scanning store", "error", catErr)

	ids, err := uc.store.ListRequestIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list request ids: %w", err)
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]domain.Request, 0, len(ids))
	for _, id := range ids {
		req, err := uc.store.GetRequest(ctx, id)
		if err != nil {
			if domain.IsKind(err, domain.ErrRequestNotFound) {
				continue
			}
			return nil, fmt.Errorf("fetch request %s: %w", id, err)
		}
		out = append(out, *req)
	}
	return out, nil
}

func (uc *ReadRequestsUseCase) GetPage(ctx context.Context, requestID string, pageNumber int) (*domain.PageResult, error) {
	page, err := uc.store.GetPageResult(ctx, requestID, pageNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch page result: %w", err)
	}
	return page, nil
}

func (uc *ReadRequestsUseCase) GetBlock(ctx context.Context, requestID string, pageNumber, blockID int) (*domain.Block, error) {
	page, err := uc.store.GetPageResult(ctx, requestID, pageNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch page result: %w", err)
	}
	for _, b := range page.Blocks {
		if b.ID == blockID {
			block := b.Clone()
			return &block, nil
		}
	}
	return nil, domain.WrapError(
		domain.ErrBlockNotFound,
		"fetch block",
		fmt.Errorf("block %d not in page %d", blockID, pageNumber),
	)
}

// DeleteRequest removes the whole request tree and its catalog row.
func (uc *ReadRequestsUseCase) DeleteRequest(ctx context.Context, requestID string) error {
	if _, err := uc.store.DeleteRequest(ctx, requestID); err != nil {
		return fmt.Errorf("delete request tree: %w", err)
	}
	if err := uc.catalog.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("delete catalog row: %w", err)
	}
	return nil
}
