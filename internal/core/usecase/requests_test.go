package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

func TestGetRequest(t *testing.T) {
	store := newFakeStore()
	store.requests["req-1"] = &domain.Request{ID: "req-1", Status: domain.StatusCompleted, CreatedAt: time.Now()}
	uc := NewReadRequestsUseCase(store, newFakeCatalog())

	req, err := uc.GetRequest(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("GetRequest() error = %v", err)
	}
	if req.ID != "req-1" {
		t.Fatalf("id = %q", req.ID)
	}
}

func TestGetRequestNotFound(t *testing.T) {
	uc := NewReadRequestsUseCase(newFakeStore(), newFakeCatalog())
	if _, err := uc.GetRequest(context.Background(), "nope"); !domain.IsKind(err, domain.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRequestsServedFromCatalog(t *testing.T) {
	store := newFakeStore()
	catalog := newFakeCatalog()
	for _, id := range []string{"a", "b", "c"} {
		catalog.inserted = append(catalog.inserted, domain.Request{ID: id, Status: domain.StatusPending})
	}
	uc := NewReadRequestsUseCase(store, catalog)

	reqs, err := uc.ListRequests(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRequests() error = %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("len = %d, want 2", len(reqs))
	}
}

func TestListRequestsFallsBackToStoreScan(t *testing.T) {
	store := newFakeStore()
	for _, id := range []string{"a", "b", "c"} {
		store.requests[id] = &domain.Request{ID: id, Status: domain.StatusPending}
	}
	catalog := newFakeCatalog()
	catalog.err = errors.New("connection refused")
	uc := NewReadRequestsUseCase(store, catalog)

	reqs, err := uc.ListRequests(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRequests() error = %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("len = %d, want 2", len(reqs))
	}
}

func TestGetBlock(t *testing.T) {
	store := newFakeStore()
	seedPage(store, "req-1", 1, editBlock(0, "a", 0.9), editBlock(1, "b", 0.8))
	uc := NewReadRequestsUseCase(store, newFakeCatalog())

	block, err := uc.GetBlock(context.Background(), "req-1", 1, 1)
	if err != nil {
		t.Fatalf("GetBlock() error = %v", err)
	}
	if block.Text != "b" {
		t.Fatalf("text = %q", block.Text)
	}

	if _, err := uc.GetBlock(context.Background(), "req-1", 1, 5); !domain.IsKind(err, domain.ErrBlockNotFound) {
		t.Fatalf("expected block not found, got %v", err)
	}
}

func TestDeleteRequestAlsoDropsCatalogRow(t *testing.T) {
	store := newFakeStore()
	store.requests["req-1"] = &domain.Request{ID: "req-1"}
	catalog := newFakeCatalog()
	uc := NewReadRequestsUseCase(store, catalog)

	if err := uc.DeleteRequest(context.Background(), "req-1"); err != nil {
		t.Fatalf("DeleteRequest() error = %v", err)
	}
	if _, ok := store.requests["req-1"]; ok {
		t.Fatal("request still in store")
	}
	if len(catalog.deleted) != 1 || catalog.deleted[0] != "req-1" {
		t.Fatalf("catalog deletes = %v", catalog.deleted)
	}
}

func TestDeleteRequestNotFound(t *testing.T) {
	uc := NewReadRequestsUseCase(newFakeStore(), newFakeCatalog())
	if err := uc.DeleteRequest(context.Background(), "missing"); !domain.IsKind(err, domain.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
