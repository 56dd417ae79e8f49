package requestfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func newRequest(t *testing.T) *domain.Request {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("uuid.NewV7() error = %v", err)
	}
	return &domain.Request{
		ID:               id.String(),
		OriginalFilename: "scan.png",
		FileType:         domain.FileImage,
		FileSize:         9,
		TotalPages:       1,
		Status:           domain.StatusPending,
		CreatedAt:        time.Now().UTC(),
	}
}

func testPage(pageNumber int, blocks ...domain.Block) *domain.PageResult {
	page := &domain.PageResult{PageNumber: pageNumber, Blocks: blocks, ProcessingTime: 0.5}
	page.Recompute()
	return page
}

func testBlock(id int, text string, conf float64) domain.Block {
	box := domain.NewBoundingBox(0, float64(id*30), 100, float64(id*30+20))
	return domain.Block{
		ID:         id,
		Text:       text,
		Confidence: conf,
		Box:        box,
		Polygon:    box.Polygon(),
		Type:       domain.BlockOther,
	}
}

func TestCreateAndGetRequest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)

	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	got, err := store.GetRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetRequest() error = %v", err)
	}
	if got.ID != req.ID || got.Status != domain.StatusPending || got.OriginalFilename != "scan.png" {
		t.Fatalf("round-tripped request = %+v", got)
	}
}

func TestGetRequestNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetRequest(context.Background(), "missing"); !domain.IsKind(err, domain.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSourceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if err := store.SaveSource(ctx, req.ID, "scan.png", []byte("imagedata")); err != nil {
		t.Fatalf("SaveSource() error = %v", err)
	}
	name, data, err := store.OpenSource(ctx, req.ID)
	if err != nil {
		t.Fatalf("OpenSource() error = %v", err)
	}
	if name != "scan.png" || string(data) != "imagedata" {
		t.Fatalf("source = %q, %q", name, data)
	}
}

func TestSavePageResultLayout(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	page := testPage(1, testBlock(0, "a", 0.9), testBlock(1, "b", 0.8))
	if err := store.SavePageResult(ctx, req.ID, page, []byte("png")); err != nil {
		t.Fatalf("SavePageResult() error = %v", err)
	}

	pageDir := filepath.Join(store.root, req.ID, "pages", "001")
	for _, f := range []string{
		"result.json",
		"page_info.json",
		"original.png",
		filepath.Join("blocks", "block_001.json"),
		filepath.Join("blocks", "block_002.json"),
	} {
		if _, err := os.Stat(filepath.Join(pageDir, f)); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}

	got, err := store.GetPageResult(ctx, req.ID, 1)
	if err != nil {
		t.Fatalf("GetPageResult() error = %v", err)
	}
	if got.TotalBlocks != 2 || len(got.Blocks) != 2 {
		t.Fatalf("page = %+v", got)
	}
}

func TestSavePageResultIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	three := testPage(1, testBlock(0, "a", 0.9), testBlock(1, "b", 0.9), testBlock(2, "c", 0.9))
	if err := store.SavePageResult(ctx, req.ID, three, nil); err != nil {
		t.Fatalf("SavePageResult() error = %v", err)
	}
	one := testPage(1, testBlock(0, "only", 0.9))
	if err := store.SavePageResult(ctx, req.ID, one, nil); err != nil {
		t.Fatalf("SavePageResult() re-save error = %v", err)
	}

	// Stale block files from the first save must be gone.
	blocksDir := filepath.Join(store.root, req.ID, "pages", "001", "blocks")
	entries, err := os.ReadDir(blocksDir)
	if err != nil {
		t.Fatalf("read blocks dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "block_001.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("blocks dir = %v, want only block_001.json", names)
	}
}

func TestSavePageResultUnknownRequest(t *testing.T) {
	store := newTestStore(t)
	err := store.SavePageResult(context.Background(), "missing", testPage(1), nil)
	if !domain.IsKind(err, domain.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateBlockPersists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if err := store.SavePageResult(ctx, req.ID, testPage(1, testBlock(0, "teh", 0.7)), nil); err != nil {
		t.Fatalf("SavePageResult() error = %v", err)
	}

	text := "the"
	conf := 0.99
	page, err := store.UpdateBlockInPage(ctx, req.ID, 1, 0, domain.BlockUpdate{Text: &text, Confidence: &conf})
	if err != nil {
		t.Fatalf("UpdateBlockInPage() error = %v", err)
	}
	if page.Blocks[0].Text != "the" || page.Blocks[0].Confidence != 0.99 {
		t.Fatalf("updated block = %+v", page.Blocks[0])
	}
	if page.AverageConfidence != 0.99 {
		t.Fatalf("aggregate not recomputed: %v", page.AverageConfidence)
	}

	reread, err := store.GetPageResult(ctx, req.ID, 1)
	if err != nil {
		t.Fatalf("GetPageResult() error = %v", err)
	}
	if reread.Blocks[0].Text != "the" {
		t.Fatal("update not persisted")
	}
}

func TestDeleteBlockRenumbersFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	page := testPage(1, testBlock(0, "a", 0.9), testBlock(1, "b", 0.8), testBlock(2, "c", 0.7))
	if err := store.SavePageResult(ctx, req.ID, page, nil); err != nil {
		t.Fatalf("SavePageResult() error = %v", err)
	}

	got, err := store.DeleteBlockFromPage(ctx, req.ID, 1, 1)
	if err != nil {
		t.Fatalf("DeleteBlockFromPage() error = %v", err)
	}
	if got.TotalBlocks != 2 {
		t.Fatalf("total blocks = %d", got.TotalBlocks)
	}
	if got.Blocks[0].Text != "a" || got.Blocks[1].Text != "c" {
		t.Fatalf("surviving texts = %q, %q", got.Blocks[0].Text, got.Blocks[1].Text)
	}
	if got.Blocks[0].ID != 0 || got.Blocks[1].ID != 1 {
		t.Fatalf("ids = %d, %d, want contiguous", got.Blocks[0].ID, got.Blocks[1].ID)
	}

	blocksDir := filepath.Join(store.root, req.ID, "pages", "001", "blocks")
	entries, err := os.ReadDir(blocksDir)
	if err != nil {
		t.Fatalf("read blocks dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("block files = %d, want 2", len(entries))
	}
	if entries[0].Name() != "block_001.json" || entries[1].Name() != "block_002.json" {
		t.Fatalf("block files = %s, %s", entries[0].Name(), entries[1].Name())
	}
}

func TestDeleteBlockNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if err := store.SavePageResult(ctx, req.ID, testPage(1, testBlock(0, "a", 0.9)), nil); err != nil {
		t.Fatalf("SavePageResult() error = %v", err)
	}
	if _, err := store.DeleteBlockFromPage(ctx, req.ID, 1, 9); !domain.IsKind(err, domain.ErrBlockNotFound) {
		t.Fatalf("expected block not found, got %v", err)
	}
}

func TestAddBlockDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if err := store.SavePageResult(ctx, req.ID, testPage(1, testBlock(0, "a", 0.9)), nil); err != nil {
		t.Fatalf("SavePageResult() error = %v", err)
	}

	box := domain.NewBoundingBox(0, 100, 50, 130)
	page, err := store.AddBlockToPage(ctx, req.ID, 1, domain.NewBlock{Text: "added", Box: &box})
	if err != nil {
		t.Fatalf("AddBlockToPage() error = %v", err)
	}
	added := page.Blocks[1]
	if added.ID != 1 || added.Confidence != 1.0 || added.Type != domain.BlockOther {
		t.Fatalf("added block = %+v", added)
	}
}

func TestCompleteRequestWritesSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	completedAt := time.Now().UTC().Truncate(time.Second)
	summary := domain.RequestSummary{
		TotalPages:        1,
		TotalBlocks:       3,
		AverageConfidence: 0.9,
		ProcessingTime:    1.2,
		CompletedAt:       completedAt,
	}
	if err := store.CompleteRequest(ctx, req.ID, summary); err != nil {
		t.Fatalf("CompleteRequest() error = %v", err)
	}

	got, err := store.GetRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetRequest() error = %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %q", got.Status)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Fatalf("completed at = %v", got.CompletedAt)
	}
	if _, err := os.Stat(filepath.Join(store.root, req.ID, "summary.json")); err != nil {
		t.Fatalf("summary.json missing: %v", err)
	}
}

func TestCompleteRequestUnknownID(t *testing.T) {
	store := newTestStore(t)
	err := store.CompleteRequest(context.Background(), "missing", domain.RequestSummary{})
	if !domain.IsKind(err, domain.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFailRequestRecordsReason(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if err := store.FailRequest(ctx, req.ID, "ocr timeout"); err != nil {
		t.Fatalf("FailRequest() error = %v", err)
	}
	got, _ := store.GetRequest(ctx, req.ID)
	if got.Status != domain.StatusFailed || got.Error != "ocr timeout" {
		t.Fatalf("request = %+v", got)
	}
}

func TestStatusTransitionsAreForwardOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	if err := store.UpdateStatus(ctx, req.ID, domain.StatusProcessing, ""); err != nil {
		t.Fatalf("UpdateStatus(processing) error = %v", err)
	}
	// Setting the current status again is a no-op, not an error.
	if err := store.UpdateStatus(ctx, req.ID, domain.StatusProcessing, ""); err != nil {
		t.Fatalf("repeated UpdateStatus(processing) error = %v", err)
	}
	if err := store.CompleteRequest(ctx, req.ID, domain.RequestSummary{CompletedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("CompleteRequest() error = %v", err)
	}

	err := store.UpdateStatus(ctx, req.ID, domain.StatusProcessing, "")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("backward UpdateStatus error = %v, want invalid input", err)
	}
	if err := store.FailRequest(ctx, req.ID, "late failure"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("FailRequest after completion error = %v, want invalid input", err)
	}

	got, err := store.GetRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetRequest() error = %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
}

func TestDeleteRequestCountsFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if err := store.SaveSource(ctx, req.ID, "scan.png", []byte("img")); err != nil {
		t.Fatalf("SaveSource() error = %v", err)
	}
	if err := store.SavePageResult(ctx, req.ID, testPage(1, testBlock(0, "a", 0.9)), nil); err != nil {
		t.Fatalf("SavePageResult() error = %v", err)
	}

	// metadata.json + source + result.json + page_info.json + 1 block file.
	count, err := store.DeleteRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("DeleteRequest() error = %v", err)
	}
	if count != 5 {
		t.Fatalf("deleted file count = %d, want 5", count)
	}
	if _, err := store.GetRequest(ctx, req.ID); !domain.IsKind(err, domain.ErrRequestNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListRequestIDsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := newRequest(t)
	if err := store.CreateRequest(ctx, first); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	time.Sleep(3 * time.Millisecond)
	second := newRequest(t)
	if err := store.CreateRequest(ctx, second); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	ids, err := store.ListRequestIDs(ctx)
	if err != nil {
		t.Fatalf("ListRequestIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}
	if ids[0] != second.ID || ids[1] != first.ID {
		t.Fatalf("order = %v, want newest first", ids)
	}
}

func TestSaveAnalysis(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)
	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if err := store.SaveAnalysis(ctx, req.ID, 1, []byte(`{"x":1}`)); err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	path := filepath.Join(store.root, req.ID, "pages", "001", "analysis", "llm_analysis.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("analysis file missing: %v", err)
	}
	if string(data) != `{"x":1}` {
		t.Fatalf("analysis = %q", data)
	}
}

// Full lifecycle: create, save a page, edit blocks, complete, read back.
func TestRequestLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := newRequest(t)

	if err := store.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	page := testPage(1, testBlock(0, "INVOICE", 0.98), testBlock(1, "Total", 0.95), testBlock(2, "$100", 0.93))
	if err := store.SavePageResult(ctx, req.ID, page, nil); err != nil {
		t.Fatalf("SavePageResult() error = %v", err)
	}

	if _, err := store.DeleteBlockFromPage(ctx, req.ID, 1, 2); err != nil {
		t.Fatalf("DeleteBlockFromPage() error = %v", err)
	}
	text := "TOTAL"
	if _, err := store.UpdateBlockInPage(ctx, req.ID, 1, 1, domain.BlockUpdate{Text: &text}); err != nil {
		t.Fatalf("UpdateBlockInPage() error = %v", err)
	}
	if err := store.CompleteRequest(ctx, req.ID, domain.RequestSummary{TotalPages: 1, TotalBlocks: 2, CompletedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("CompleteRequest() error = %v", err)
	}

	final, err := store.GetPageResult(ctx, req.ID, 1)
	if err != nil {
		t.Fatalf("GetPageResult() error = %v", err)
	}
	if final.TotalBlocks != 2 || final.Blocks[1].Text != "TOTAL" {
		t.Fatalf("final page = %+v", final)
	}
	meta, _ := store.GetRequest(ctx, req.ID)
	if meta.Status != domain.StatusCompleted {
		t.Fatalf("final status = %q", meta.Status)
	}
}
