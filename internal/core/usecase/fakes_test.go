package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

// fakeStore is an in-memory stand-in for the filesystem request store.
type fakeStore struct {
	requests map[string]*domain.Request
	sources  map[string][]byte
	pages    map[string]*domain.PageResult
	analyses map[string][]byte
	summary  map[string]domain.RequestSummary

	failOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests: make(map[string]*domain.Request),
		sources:  make(map[string][]byte),
		pages:    make(map[string]*domain.PageResult),
		analyses: make(map[string][]byte),
		summary:  make(map[string]domain.RequestSummary),
		failOn:   make(map[string]error),
	}
}

func pageKey(requestID string, pageNumber int) string {
	return fmt.Sprintf("%s/%d", requestID, pageNumber)
}

func (f *fakeStore) CreateRequest(_ context.Context, req *domain.Request) error {
	if err := f.failOn["CreateRequest"]; err != nil {
		return err
	}
	clone := *req
	f.requests[req.ID] = &clone
	return nil
}

func (f *fakeStore) GetRequest(_ context.Context, requestID string) (*domain.Request, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return nil, domain.WrapError(domain.ErrRequestNotFound, "fake get", errors.New(requestID))
	}
	clone := *req
	return &clone, nil
}

func (f *fakeStore) ListRequestIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.requests))
	for id := range f.requests {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) DeleteRequest(_ context.Context, requestID string) (int, error) {
	if _, ok := f.requests[requestID]; !ok {
		return 0, domain.WrapError(domain.ErrRequestNotFound, "fake delete", errors.New(requestID))
	}
	delete(f.requests, requestID)
	return 1, nil
}

func (f *fakeStore) SaveSource(_ context.Context, requestID, _ string, data []byte) error {
	if err := f.failOn["SaveSource"]; err != nil {
		return err
	}
	f.sources[requestID] = data
	return nil
}

func (f *fakeStore) OpenSource(_ context.Context, requestID string) (string, []byte, error) {
	data, ok := f.sources[requestID]
	if !ok {
		return "", nil, domain.WrapError(domain.ErrRequestNotFound, "fake open source", errors.New(requestID))
	}
	return "source.bin", data, nil
}

func (f *fakeStore) SavePageResult(_ context.Context, requestID string, page *domain.PageResult, _ []byte) error {
	if err := f.failOn["SavePageResult"]; err != nil {
		return err
	}
	clone := *page
	f.pages[pageKey(requestID, page.PageNumber)] = &clone
	return nil
}

func (f *fakeStore) GetPageResult(_ context.Context, requestID string, pageNumber int) (*domain.PageResult, error) {
	page, ok := f.pages[pageKey(requestID, pageNumber)]
	if !ok {
		return nil, domain.WrapError(domain.ErrPageNotFound, "fake get page", fmt.Errorf("page %d", pageNumber))
	}
	clone := *page
	return &clone, nil
}

func (f *fakeStore) UpdateBlockInPage(ctx context.Context, requestID string, pageNumber, blockID int, update domain.BlockUpdate) (*domain.PageResult, error) {
	if err := f.failOn["UpdateBlockInPage"]; err != nil {
		return nil, err
	}
	page, err := f.GetPageResult(ctx, requestID, pageNumber)
	if err != nil {
		return nil, err
	}
	for i := range page.Blocks {
		if page.Blocks[i].ID != blockID {
			continue
		}
		if update.Text != nil {
			page.Blocks[i].Text = *update.Text
		}
		if update.Confidence != nil {
			page.Blocks[i].Confidence = *update.Confidence
		}
		if update.Box != nil {
			page.Blocks[i].Box = *update.Box
		}
		if update.Type != nil {
			page.Blocks[i].Type = *update.Type
		}
		page.Recompute()
		f.pages[pageKey(requestID, pageNumber)] = page
		return page, nil
	}
	return nil, domain.WrapError(domain.ErrBlockNotFound, "fake update block", fmt.Errorf("block %d", blockID))
}

func (f *fakeStore) DeleteBlockFromPage(ctx context.Context, requestID string, pageNumber, blockID int) (*domain.PageResult, error) {
	page, err := f.GetPageResult(ctx, requestID, pageNumber)
	if err != nil {
		return nil, err
	}
	kept := page.Blocks[:0]
	found := false
	for _, b := range page.Blocks {
		if b.ID == blockID {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	if !found {
		return nil, domain.WrapError(domain.ErrBlockNotFound, "fake delete block", fmt.Errorf("block %d", blockID))
	}
	for i := range kept {
		kept[i].ID = i
	}
	page.Blocks = kept
	page.Recompute()
	f.pages[pageKey(requestID, pageNumber)] = page
	return page, nil
}

func (f *fakeStore) AddBlockToPage(ctx context.Context, requestID string, pageNumber int, block domain.NewBlock) (*domain.PageResult, error) {
	page, err := f.GetPageResult(ctx, requestID, pageNumber)
	if err != nil {
		return nil, err
	}
	confidence := 1.0
	if block.Confidence != nil {
		confidence = *block.Confidence
	}
	blockType := domain.BlockOther
	if block.Type != nil {
		blockType = *block.Type
	}
	page.Blocks = append(page.Blocks, domain.Block{
		ID:         len(page.Blocks),
		Text:       block.Text,
		Confidence: confidence,
		Box:        *block.Box,
		Type:       blockType,
	})
	page.Recompute()
	f.pages[pageKey(requestID, pageNumber)] = page
	return page, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, requestID string, status domain.ProcessingStatus, errMessage string) error {
	if err := f.failOn["UpdateStatus"]; err != nil {
		return err
	}
	req, ok := f.requests[requestID]
	if !ok {
		return domain.WrapError(domain.ErrRequestNotFound, "fake update status", errors.New(requestID))
	}
	req.Status = status
	req.Error = errMessage
	return nil
}

func (f *fakeStore) CompleteRequest(_ context.Context, requestID string, summary domain.RequestSummary) error {
	if err := f.failOn["CompleteRequest"]; err != nil {
		return err
	}
	req, ok := f.requests[requestID]
	if !ok {
		return domain.WrapError(domain.ErrRequestNotFound, "fake complete", errors.New(requestID))
	}
	req.Status = domain.StatusCompleted
	f.summary[requestID] = summary
	return nil
}

func (f *fakeStore) FailRequest(_ context.Context, requestID string, reason string) error {
	req, ok := f.requests[requestID]
	if !ok {
		return domain.WrapError(domain.ErrRequestNotFound, "fake fail", errors.New(requestID))
	}
	req.Status = domain.StatusFailed
	req.Error = reason
	return nil
}

func (f *fakeStore) SaveAnalysis(_ context.Context, requestID string, pageNumber int, analysis []byte) error {
	if err := f.failOn["SaveAnalysis"]; err != nil {
		return err
	}
	f.analyses[pageKey(requestID, pageNumber)] = analysis
	return nil
}

type fakeCatalog struct {
	inserted []domain.Request
	statuses map[string]domain.ProcessingStatus
	deleted  []string
	err      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{statuses: make(map[string]domain.ProcessingStatus)}
}

func (f *fakeCatalog) Insert(_ context.Context, req *domain.Request) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, *req)
	f.statuses[req.ID] = req.Status
	return nil
}

func (f *fakeCatalog) GetByID(_ context.Context, requestID string) (*domain.Request, error) {
	for i := range f.inserted {
		if f.inserted[i].ID == requestID {
			clone := f.inserted[i]
			return &clone, nil
		}
	}
	return nil, domain.WrapError(domain.ErrRequestNotFound, "fake catalog get", errors.New(requestID))
}

func (f *fakeCatalog) UpdateStatus(_ context.Context, requestID string, status domain.ProcessingStatus, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.statuses[requestID] = status
	return nil
}

func (f *fakeCatalog) ListRecent(_ context.Context, limit int) ([]domain.Request, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := append([]domain.Request(nil), f.inserted...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCatalog) Delete(_ context.Context, requestID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, requestID)
	return nil
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishRequestCreated(_ context.Context, requestID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, requestID)
	return nil
}

func (f *fakeQueue) SubscribeRequestCreated(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type fakeOCR struct {
	blocks []domain.RawBlock
	err    error
	calls  int
}

func (f *fakeOCR) DetectAndRecognize(context.Context, []byte) ([]domain.RawBlock, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.blocks, nil
}

type fakeInspector struct {
	pageCount int
	pageData  []byte
	err       error
}

func (f *fakeInspector) PageCount(context.Context, []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.pageCount, nil
}

func (f *fakeInspector) ExtractPage(_ context.Context, _ []byte, pageNumber int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append(f.pageData, byte(pageNumber)), nil
}

type fakeAnalyzer struct {
	answer string
	err    error
	text   string
	prompt string
	model  string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, text, prompt, modelID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.text = text
	f.prompt = prompt
	f.model = modelID
	return f.answer, nil
}
