package item

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rewear/rewear-api/internal/domain/category"
)

type fakeRepo struct {
	items       map[uuid.UUID]*Item
	lastSet     Status
	lastList    *Pagination
	updateCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[uuid.UUID]*Item)}
}

func (f *fakeRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, it *Item) error {
	f.items[it.ID] = it
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return f.items[id], nil
}

func (f *fakeRepo) Update(ctx context.Context, it *Item) error {
	f.updateCalls++
	f.items[it.ID] = it
	return nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	f.lastSet = status
	if it, ok := f.items[id]; ok {
		it.Status = status
	}
	return nil
}

func (f *fakeRepo) MarkSwappedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	return nil
}

func (f *fakeRepo) List(ctx context.Context, filter *Filter, sortBy SortBy, pagination *Pagination) ([]*Item, int, error) {
	f.lastList = pagination
	return nil, 0, nil
}

func (f *fakeRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Item, error) {
	return nil, nil
}

func (f *fakeRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Item, error) {
	return nil, nil
}

func (f *fakeRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return nil
}

type fakeCategories struct{}

func (fakeCategories) GetBySlug(ctx context.Context, slug string) (*category.Category, error) {
	if slug == "tops" {
		return &category.Category{ID: uuid.New(), Name: "Tops", Slug: "tops"}, nil
	}
	return nil, errors.New("no rows")
}

func seededItem(owner uuid.UUID, status Status) *Item {
	return &Item{ID: uuid.New(), OwnerID: owner, Title: "Wool coat", Status: status}
}

func TestGetUnknownItem(t *testing.T) {
	svc := NewService(nil, newFakeRepo(), fakeCategories{}, nil, 0)

	_, err := svc.Get(context.Background(), uuid.New())
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCreateRequiresImages(t *testing.T) {
	svc := NewService(nil, newFakeRepo(), fakeCategories{}, nil, 0)

	_, err := svc.Create(context.Background(), uuid.New(), &CreateItemRequest{
		Title:        "Wool coat",
		CategorySlug: "tops",
	})
	if !errors.Is(err, ErrImagesRequired) {
		t.Fatalf("expected ErrImagesRequired, got %v", err)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc := NewService(nil, newFakeRepo(), fakeCategories{}, nil, 0)

	_, err := svc.Create(context.Background(), uuid.New(), &CreateItemRequest{
		Title:        "Wool coat",
		CategorySlug: "spaceships",
		Images:       []string{"https://cdn.example.com/a.jpg"},
	})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestUpdateRequiresOwner(t *testing.T) {
	owner := uuid.New()
	repo := newFakeRepo()
	it := seededItem(owner, StatusActive)
	repo.items[it.ID] = it
	svc := NewService(nil, repo, fakeCategories{}, nil, 0)

	title := "Renamed"
	_, err := svc.Update(context.Background(), uuid.New(), it.ID, &UpdateItemRequest{Title: &title})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatal("update must not be persisted for non-owners")
	}
}

func TestUpdateRequiresActiveItem(t *testing.T) {
	owner := uuid.New()
	repo := newFakeRepo()
	it := seededItem(owner, StatusSwapped)
	repo.items[it.ID] = it
	svc := NewService(nil, repo, fakeCategories{}, nil, 0)

	title := "Renamed"
	_, err := svc.Update(context.Background(), owner, it.ID, &UpdateItemRequest{Title: &title})
	if !errors.Is(err, ErrItemNotActive) {
		t.Fatalf("expected ErrItemNotActive, got %v", err)
	}
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	owner := uuid.New()
	repo := newFakeRepo()
	it := seededItem(owner, StatusActive)
	it.Description = "Warm winter coat"
	repo.items[it.ID] = it
	svc := NewService(nil, repo, fakeCategories{}, nil, 0)

	title := "Renamed"
	got, err := svc.Update(context.Background(), owner, it.ID, &UpdateItemRequest{Title: &title})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got.Title != "Renamed" {
		t.Fatalf("expected title updated, got %q", got.Title)
	}
	if got.Description != "Warm winter coat" {
		t.Fatalf("expected description untouched, got %q", got.Description)
	}
}

func TestRemoveAllowsAdmin(t *testing.T) {
	owner := uuid.New()
	repo := newFakeRepo()
	it := seededItem(owner, StatusActive)
	repo.items[it.ID] = it
	svc := NewService(nil, repo, fakeCategories{}, nil, 0)

	if err := svc.Remove(context.Background(), uuid.New(), false, it.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for stranger, got %v", err)
	}
	if err := svc.Remove(context.Background(), uuid.New(), true, it.ID); err != nil {
		t.Fatalf("admin remove failed: %v", err)
	}
	if repo.lastSet != StatusRemoved {
		t.Fatalf("expected removed status, got %s", repo.lastSet)
	}
}

func TestListClampsPagination(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(nil, repo, fakeCategories{}, nil, 0)

	if _, _, err := svc.List(context.Background(), &Filter{}, SortByNewest, &Pagination{Page: -3, Limit: 500}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.lastList.Page != 1 || repo.lastList.Limit != 12 {
		t.Fatalf("expected clamped pagination 1/12, got %d/%d", repo.lastList.Page, repo.lastList.Limit)
	}
}
