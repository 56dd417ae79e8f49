package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/core/ports"
)

type EditBlocksUseCase struct {
	store ports.RequestStore
}

func NewEditBlocksUseCase(store ports.RequestStore) *EditBlocksUseCase {
	return &EditBlocksUseCase{store: store}
}

// UpdateBlock applies a partial update to one block and returns the page as
// re-persisted. Aggregates are recomputed by the store.
func (uc *EditBlocksUseCase) UpdateBlock(
	ctx context.Context,
	requestID string,
	pageNumber, blockID int,
	update domain.BlockUpdate,
) (*domain.PageResult, error) {
	if err := validateUpdate(update); err != nil {
		return nil, err
	}
	page, err := uc.store.UpdateBlockInPage(ctx, requestID, pageNumber, blockID, update)
	if err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	return page, nil
}

// DeleteBlock removes one block. Remaining blocks are renumbered to keep
// ids contiguous from zero.
func (uc *EditBlocksUseCase) DeleteBlock(
	ctx context.Context,
	requestID string,
	pageNumber, blockID int,
) (*domain.PageResult, error) {
	page, err := uc.store.DeleteBlockFromPage(ctx, requestID, pageNumber, blockID)
	if err != nil {
		return nil, fmt.Errorf("delete block: %w", err)
	}
	return page, nil
}

// AddBlock appends a new block to the page with the next free id.
func (uc *EditBlocksUseCase) AddBlock(
	ctx context.Context,
	requestID string,
	pageNumber int,
	block domain.NewBlock,
) (*domain.PageResult, error) {
	if err := validateNewBlock(block); err != nil {
		return nil, err
	}
	page, err := uc.store.AddBlockToPage(ctx, requestID, pageNumber, block)
	if err != nil {
		return nil, fmt.Errorf("add block: %w", err)
	}
	return page, nil
}

func validateUpdate(update domain.BlockUpdate) error {
	if update.Text == nil && update.Confidence == nil && update.Box == nil && update.Type == nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate block update", errors.New("no fields to update"))
	}
	if update.Confidence != nil && (*update.Confidence < 0 || *update.Confidence > 1) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"validate block update",
			fmt.Errorf("confidence %v outside [0,1]", *update.Confidence),
		)
	}
	if update.Box != nil && !update.Box.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "validate block update", errors.New("degenerate bounding box"))
	}
	if update.Type != nil && !update.Type.Valid() {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"validate block update",
			fmt.Errorf("unknown block type %q", *update.Type),
		)
	}
	return nil
}

func validateNewBlock(block domain.NewBlock) error {
	if block.Box == nil || !block.Box.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "validate new block", errors.New("missing or degenerate bounding box"))
	}
	if block.Confidence != nil && (*block.Confidence < 0 || *block.Confidence > 1) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"validate new block",
			fmt.Errorf("confidence %v outside [0,1]", *block.Confidence),
		)
	}
	if block.Type != nil && !block.Type.Valid() {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"validate new block",
			fmt.Errorf("unknown block type %q", *block.Type),
		)
	}
	return nil
}
