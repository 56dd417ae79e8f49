// Package requestfs is the filesystem tree of record for OCR requests.
//
// Layout per request:
//
//	<root>/<request_id>/
//	    metadata.json
//	    summary.json
//	    source/<original filename>
//	    pages/NNN/
//	        page_info.json
//	        result.json
//	        original.png
//	        blocks/block_NNN.json
//	        analysis/llm_analysis.json
//
// NNN is the zero-padded page number; block files are numbered 1-based from
// the block's 0-based id. All JSON writes go through a temp file plus rename
// so a crash never leaves a half-written result, and every read-modify-write
// cycle holds a per-request mutex.
package requestfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	return &Store{root: root, locks: make(map[string]*sync.Mutex)}, nil
}

// lockRequest returns the mutex guarding one request's tree. Lock lifetime
// is the read-modify-write cycle, never longer.
func (s *Store) lockRequest(requestID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[requestID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[requestID] = l
	}
	return l
}

func (s *Store) requestDir(requestID string) string {
	return filepath.Join(s.root, requestID)
}

func (s *Store) pageDir(requestID string, pageNumber int) string {
	return filepath.Join(s.requestDir(requestID), "pages", fmt.Sprintf("%03d", pageNumber))
}

func blockFileName(blockID int) string {
	return fmt.Sprintf("block_%03d.json", blockID+1)
}

func (s *Store) CreateRequest(_ context.Context, req *domain.Request) error {
	dir := s.requestDir(req.ID)
	if err := os.MkdirAll(filepath.Join(dir, "source"), 0o755); err != nil {
		return fmt.Errorf("create request directories: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "pages"), 0o755); err != nil {
		return fmt.Errorf("create request directories: %w", err)
	}
	return writeJSONAtomic(filepath.Join(dir, "metadata.json"), req)
}

func (s *Store) GetRequest(_ context.Context, requestID string) (*domain.Request, error) {
	var req domain.Request
	if err := readJSON(filepath.Join(s.requestDir(requestID), "metadata.json"), &req); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrRequestNotFound, "read request metadata", err)
		}
		return nil, fmt.Errorf("read request metadata: %w", err)
	}
	return &req, nil
}

// ListRequestIDs returns all request ids, newest first. Request ids are
// UUIDv7, so descending lexicographic order is reverse creation order.
func (s *Store) ListRequestIDs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read output root: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, e.Name(), "metadata.json")); err != nil {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// DeleteRequest removes the request tree and reports how many files it held.
func (s *Store) DeleteRequest(_ context.Context, requestID string) (int, error) {
	lock := s.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	dir := s.requestDir(requestID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, domain.WrapError(domain.ErrRequestNotFound, "delete request", err)
		}
		return 0, fmt.Errorf("stat request dir: %w", err)
	}
	count := 0
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			count++
		}
		return nil
	})
	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("remove request dir: %w", err)
	}

	s.mu.Lock()
	delete(s.locks, requestID)
	s.mu.Unlock()
	return count, nil
}

func (s *Store) SaveSource(_ context.Context, requestID, filename string, data []byte) error {
	dir := filepath.Join(s.requestDir(requestID), "source")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create source dir: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, filepath.Base(filename)), data)
}

// OpenSource returns the stored source file's name and bytes.
func (s *Store) OpenSource(_ context.Context, requestID string) (string, []byte, error) {
	dir := filepath.Join(s.requestDir(requestID), "source")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, domain.WrapError(domain.ErrRequestNotFound, "open source", err)
		}
		return "", nil, fmt.Errorf("read source dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return "", nil, fmt.Errorf("read source file: %w", err)
		}
		return e.Name(), data, nil
	}
	return "", nil, domain.WrapError(domain.ErrRequestNotFound, "open source", errors.New("no source file"))
}

// pageInfo is the small per-page metadata file kept next to result.json.
type pageInfo struct {
	PageNumber        int     `json:"page_number"`
	TotalBlocks       int     `json:"total_blocks"`
	AverageConfidence float64 `json:"average_confidence"`
	ProcessingTime    float64 `json:"processing_time"`
	SavedAt           string  `json:"saved_at"`
}

// SavePageResult persists a full page: result.json, page_info.json, the
// per-block files and, when given, the page image. Saving the same page
// again replaces everything, including stale block files.
func (s *Store) SavePageResult(ctx context.Context, requestID string, page *domain.PageResult, pageImage []byte) error {
	lock := s.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.GetRequest(ctx, requestID); err != nil {
		return err
	}
	if err := s.savePageLocked(requestID, page); err != nil {
		return err
	}
	if len(pageImage) > 0 {
		// Best effort: a missing page image never fails the save.
		_ = writeFileAtomic(filepath.Join(s.pageDir(requestID, page.PageNumber), "original.png"), pageImage)
	}
	return nil
}

// savePageLocked writes result.json, page_info.json and the block files.
// Caller holds the request lock.
func (s *Store) savePageLocked(requestID string, page *domain.PageResult) error {
	page.Recompute()

	dir := s.pageDir(requestID, page.PageNumber)
	blocksDir := filepath.Join(dir, "blocks")
	// Wipe so deleted blocks do not leave orphaned files behind.
	if err := os.RemoveAll(blocksDir); err != nil {
		return fmt.Errorf("clear blocks dir: %w", err)
	}
	if err := os.MkdirAll(blocksDir, 0o755); err != nil {
		return fmt.Errorf("create blocks dir: %w", err)
	}

	if err := writeJSONAtomic(filepath.Join(dir, "result.json"), page); err != nil {
		return err
	}
	info := pageInfo{
		PageNumber:        page.PageNumber,
		TotalBlocks:       page.TotalBlocks,
		AverageConfidence: page.AverageConfidence,
		ProcessingTime:    page.ProcessingTime,
		SavedAt:           time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeJSONAtomic(filepath.Join(dir, "page_info.json"), info); err != nil {
		return err
	}
	for _, b := range page.Blocks {
		if err := writeJSONAtomic(filepath.Join(blocksDir, blockFileName(b.ID)), b); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetPageResult(_ context.Context, requestID string, pageNumber int) (*domain.PageResult, error) {
	var page domain.PageResult
	path := filepath.Join(s.pageDir(requestID, pageNumber), "result.json")
	if err := readJSON(path, &page); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrPageNotFound, "read page result", err)
		}
		return nil, fmt.Errorf("read page result: %w", err)
	}
	return &page, nil
}

func (s *Store) UpdateBlockInPage(ctx context.Context, requestID string, pageNumber, blockID int, update domain.BlockUpdate) (*domain.PageResult, error) {
	lock := s.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	page, err := s.GetPageResult(ctx, requestID, pageNumber)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range page.Blocks {
		if page.Blocks[i].ID == blockID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.WrapError(domain.ErrBlockNotFound, "update block", fmt.Errorf("block %d", blockID))
	}
	if update.Text != nil {
		page.Blocks[idx].Text = *update.Text
	}
	if update.Confidence != nil {
		page.Blocks[idx].Confidence = *update.Confidence
	}
	if update.Box != nil {
		page.Blocks[idx].Box = *update.Box
		page.Blocks[idx].Polygon = update.Box.Polygon()
	}
	if update.Type != nil {
		page.Blocks[idx].Type = *update.Type
	}
	if err := s.savePageLocked(requestID, page); err != nil {
		return nil, err
	}
	return page, nil
}

// DeleteBlockFromPage removes a block and renumbers the survivors so ids
// stay contiguous from zero. Block files are rewritten to match.
func (s *Store) DeleteBlockFromPage(ctx context.Context, requestID string, pageNumber, blockID int) (*domain.PageResult, error) {
	lock := s.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	page, err := s.GetPageResult(ctx, requestID, pageNumber)
	if err != nil {
		return nil, err
	}
	kept := make([]domain.Block, 0, len(page.Blocks))
	found := false
	for _, b := range page.Blocks {
		if b.ID == blockID {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	if !found {
		return nil, domain.WrapError(domain.ErrBlockNotFound, "delete block", fmt.Errorf("block %d", blockID))
	}
	for i := range kept {
		kept[i].ID = i
	}
	page.Blocks = kept
	if err := s.savePageLocked(requestID, page); err != nil {
		return nil, err
	}
	return page, nil
}

// AddBlockToPage appends a block with the next free id. Confidence defaults
// to 1.0 (a manual correction is trusted) and the type to "other".
func (s *Store) AddBlockToPage(ctx context.Context, requestID string, pageNumber int, block domain.NewBlock) (*domain.PageResult, error) {
	lock := s.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	page, err := s.GetPageResult(ctx, requestID, pageNumber)
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
		Polygon:    block.Box.Polygon(),
		Type:       blockType,
	})
	if err := s.savePageLocked(requestID, page); err != nil {
		return nil, err
	}
	return page, nil
}

// UpdateStatus moves the request to status. The status machine is forward
// only; setting the current status again is an idempotent no-op, going
// backward is invalid input. Replayed queue events hit both cases.
func (s *Store) UpdateStatus(ctx context.Context, requestID string, status domain.ProcessingStatus, errMessage string) error {
	lock := s.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()
	return s.updateMetadataLocked(ctx, requestID, func(req *domain.Request) error {
		if err := checkTransition(req.Status, status); err != nil {
			return err
		}
		req.Status = status
		req.Error = errMessage
		return nil
	})
}

// CompleteRequest marks the request completed and writes summary.json.
func (s *Store) CompleteRequest(ctx context.Context, requestID string, summary domain.RequestSummary) error {
	lock := s.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	err := s.updateMetadataLocked(ctx, requestID, func(req *domain.Request) error {
		if err := checkTransition(req.Status, domain.StatusCompleted); err != nil {
			return err
		}
		req.Status = domain.StatusCompleted
		req.Error = ""
		completedAt := summary.CompletedAt
		req.CompletedAt = &completedAt
		return nil
	})
	if err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(s.requestDir(requestID), "summary.json"), summary)
}

func (s *Store) FailRequest(ctx context.Context, requestID string, reason string) error {
	lock := s.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()
	return s.updateMetadataLocked(ctx, requestID, func(req *domain.Request) error {
		if err := checkTransition(req.Status, domain.StatusFailed); err != nil {
			return err
		}
		req.Status = domain.StatusFailed
		req.Error = reason
		return nil
	})
}

func checkTransition(from, to domain.ProcessingStatus) error {
	if from == to || from.CanTransitionTo(to) {
		return nil
	}
	return domain.WrapError(
		domain.ErrInvalidInput,
		"update request status",
		fmt.Errorf("transition %s -> %s", from, to),
	)
}

func (s *Store) updateMetadataLocked(ctx context.Context, requestID string, mutate func(*domain.Request) error) error {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if err := mutate(req); err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(s.requestDir(requestID), "metadata.json"), req)
}

// SaveAnalysis stores the model answer for one page.
func (s *Store) SaveAnalysis(_ context.Context, requestID string, pageNumber int, analysis []byte) error {
	lock := s.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Join(s.pageDir(requestID, pageNumber), "analysis")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create analysis dir: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, "llm_analysis.json"), analysis)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes via a temp file in the target directory followed by
// a rename, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
