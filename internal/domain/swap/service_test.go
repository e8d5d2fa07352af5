package swap

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rewear/rewear-api/internal/domain/item"
)

type fakeRepo struct {
	stored   map[uuid.UUID]*Swap
	statuses map[uuid.UUID]Status
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		stored:   make(map[uuid.UUID]*Swap),
		statuses: make(map[uuid.UUID]Status),
	}
}

func (f *fakeRepo) Create(ctx context.Context, s *Swap) error {
	f.stored[s.ID] = s
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Swap, error) {
	return f.stored[id], nil
}

func (f *fakeRepo) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Swap, error) {
	return f.stored[id], nil
}

func (f *fakeRepo) setStatus(id uuid.UUID, status Status) error {
	sw, ok := f.stored[id]
	if !ok || !sw.IsPending() {
		return ErrNotPending
	}
	sw.Status = status
	f.statuses[id] = status
	return nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return f.setStatus(id, status)
}

func (f *fakeRepo) SetStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error {
	return f.setStatus(id, status)
}

func (f *fakeRepo) RejectOtherPendingTx(ctx context.Context, tx *sqlx.Tx, itemID, excludeID uuid.UUID) ([]*Swap, error) {
	return nil, nil
}

func (f *fakeRepo) ListForUser(ctx context.Context, userID uuid.UUID, direction Direction, status Status, limit, offset int) ([]*Swap, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Swap, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return nil, nil
}

type fakeItemStore struct {
	items map[uuid.UUID]*item.Item
}

func (f *fakeItemStore) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	return f.items[id], nil
}

func (f *fakeItemStore) MarkSwappedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	it, ok := f.items[id]
	if !ok || it.Status != item.StatusActive {
		return item.ErrItemNotActive
	}
	it.Status = item.StatusSwapped
	return nil
}

type fakeLedger struct {
	balance int64
}

func (f *fakeLedger) TransferTx(ctx context.Context, tx *sqlx.Tx, from, to uuid.UUID, amount int64, description, referenceID string) error {
	return nil
}

func (f *fakeLedger) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.balance, nil
}

func activeItem(owner uuid.UUID) *item.Item {
	return &item.Item{ID: uuid.New(), OwnerID: owner, Title: "Denim jacket", Status: item.StatusActive}
}

func newTestService(repo Repository, items ItemStore, ledger Ledger) *Service {
	return NewService(nil, repo, items, ledger, nil)
}

func TestCreateRejectsAmbiguousOffer(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeItemStore{}, &fakeLedger{})
	requester := uuid.New()

	// neither an item nor points
	_, err := svc.Create(context.Background(), requester, &CreateSwapRequest{ItemID: uuid.New()})
	if !errors.Is(err, ErrInvalidOffer) {
		t.Fatalf("expected ErrInvalidOffer for empty offer, got %v", err)
	}

	// both at once
	offered := uuid.New()
	points := int64(30)
	_, err = svc.Create(context.Background(), requester, &CreateSwapRequest{
		ItemID:        uuid.New(),
		OfferedItemID: &offered,
		PointsOffered: &points,
	})
	if !errors.Is(err, ErrInvalidOffer) {
		t.Fatalf("expected ErrInvalidOffer for double offer, got %v", err)
	}
}

func TestCreateRejectsSelfSwap(t *testing.T) {
	requester := uuid.New()
	target := activeItem(requester)
	store := &fakeItemStore{items: map[uuid.UUID]*item.Item{target.ID: target}}
	svc := newTestService(newFakeRepo(), store, &fakeLedger{balance: 100})

	points := int64(10)
	_, err := svc.Create(context.Background(), requester, &CreateSwapRequest{ItemID: target.ID, PointsOffered: &points})
	if !errors.Is(err, ErrSelfSwap) {
		t.Fatalf("expected ErrSelfSwap, got %v", err)
	}
}

func TestCreateRejectsInactiveTarget(t *testing.T) {
	owner := uuid.New()
	target := activeItem(owner)
	target.Status = item.StatusSwapped
	store := &fakeItemStore{items: map[uuid.UUID]*item.Item{target.ID: target}}
	svc := newTestService(newFakeRepo(), store, &fakeLedger{balance: 100})

	points := int64(10)
	_, err := svc.Create(context.Background(), uuid.New(), &CreateSwapRequest{ItemID: target.ID, PointsOffered: &points})
	if !errors.Is(err, item.ErrItemNotActive) {
		t.Fatalf("expected ErrItemNotActive, got %v", err)
	}
}

func TestCreateRejectsUnknownTarget(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeItemStore{}, &fakeLedger{balance: 100})

	points := int64(10)
	_, err := svc.Create(context.Background(), uuid.New(), &CreateSwapRequest{ItemID: uuid.New(), PointsOffered: &points})
	if !errors.Is(err, item.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCreateChecksPointsBalance(t *testing.T) {
	owner := uuid.New()
	target := activeItem(owner)
	store := &fakeItemStore{items: map[uuid.UUID]*item.Item{target.ID: target}}
	svc := newTestService(newFakeRepo(), store, &fakeLedger{balance: 5})

	points := int64(10)
	_, err := svc.Create(context.Background(), uuid.New(), &CreateSwapRequest{ItemID: target.ID, PointsOffered: &points})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestCreateValidatesOfferedItemOwnership(t *testing.T) {
	owner := uuid.New()
	requester := uuid.New()
	target := activeItem(owner)
	// offered item belongs to a third user
	offered := activeItem(uuid.New())
	store := &fakeItemStore{items: map[uuid.UUID]*item.Item{target.ID: target, offered.ID: offered}}
	svc := newTestService(newFakeRepo(), store, &fakeLedger{})

	_, err := svc.Create(context.Background(), requester, &CreateSwapRequest{ItemID: target.ID, OfferedItemID: &offered.ID})
	if !errors.Is(err, ErrOfferedItemInvalid) {
		t.Fatalf("expected ErrOfferedItemInvalid, got %v", err)
	}
}

func TestCreateItemForItem(t *testing.T) {
	owner := uuid.New()
	requester := uuid.New()
	target := activeItem(owner)
	offered := activeItem(requester)
	store := &fakeItemStore{items: map[uuid.UUID]*item.Item{target.ID: target, offered.ID: offered}}
	repo := newFakeRepo()
	svc := newTestService(repo, store, &fakeLedger{})

	sw, err := svc.Create(context.Background(), requester, &CreateSwapRequest{ItemID: target.ID, OfferedItemID: &offered.ID})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sw.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", sw.Status)
	}
	if !sw.OfferedItemID.Valid || sw.OfferedItemID.UUID != offered.ID {
		t.Fatal("expected offered item recorded on the swap")
	}
	if sw.OwnerID != owner {
		t.Fatalf("expected owner %s, got %s", owner, sw.OwnerID)
	}
}

func TestRejectRequiresOwner(t *testing.T) {
	owner := uuid.New()
	requester := uuid.New()
	repo := newFakeRepo()
	sw := &Swap{ID: uuid.New(), RequesterID: requester, OwnerID: owner, Status: StatusPending}
	repo.stored[sw.ID] = sw
	svc := newTestService(repo, &fakeItemStore{}, &fakeLedger{})

	if _, err := svc.Reject(context.Background(), requester, sw.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	got, err := svc.Reject(context.Background(), owner, sw.ID)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if got.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", got.Status)
	}
}

func TestCancelRequiresRequester(t *testing.T) {
	owner := uuid.New()
	requester := uuid.New()
	repo := newFakeRepo()
	sw := &Swap{ID: uuid.New(), RequesterID: requester, OwnerID: owner, Status: StatusPending}
	repo.stored[sw.ID] = sw
	svc := newTestService(repo, &fakeItemStore{}, &fakeLedger{})

	if _, err := svc.Cancel(context.Background(), owner, sw.ID); !errors.Is(err, ErrNotRequester) {
		t.Fatalf("expected ErrNotRequester, got %v", err)
	}

	got, err := svc.Cancel(context.Background(), requester, sw.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestRejectRequiresPending(t *testing.T) {
	owner := uuid.New()
	repo := newFakeRepo()
	sw := &Swap{ID: uuid.New(), RequesterID: uuid.New(), OwnerID: owner, Status: StatusCompleted}
	repo.stored[sw.ID] = sw
	svc := newTestService(repo, &fakeItemStore{}, &fakeLedger{})

	if _, err := svc.Reject(context.Background(), owner, sw.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

// staleReadRepo serves reads from a snapshot taken before a concurrent
// settlement committed, while writes hit the settled row.
type staleReadRepo struct {
	*fakeRepo
	snapshot *Swap
}

func (r *staleReadRepo) GetByID(ctx context.Context, id uuid.UUID) (*Swap, error) {
	return r.snapshot, nil
}

func TestRejectCannotOverwriteCompletedSwap(t *testing.T) {
	owner := uuid.New()
	repo := newFakeRepo()
	settled := &Swap{ID: uuid.New(), RequesterID: uuid.New(), OwnerID: owner, Status: StatusCompleted}
	repo.stored[settled.ID] = settled

	snapshot := *settled
	snapshot.Status = StatusPending
	svc := newTestService(&staleReadRepo{fakeRepo: repo, snapshot: &snapshot}, &fakeItemStore{}, &fakeLedger{})

	if _, err := svc.Reject(context.Background(), owner, settled.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if settled.Status != StatusCompleted {
		t.Fatalf("completed swap was overwritten to %s", settled.Status)
	}
}

func TestCancelCannotOverwriteCompletedSwap(t *testing.T) {
	requester := uuid.New()
	repo := newFakeRepo()
	settled := &Swap{ID: uuid.New(), RequesterID: requester, OwnerID: uuid.New(), Status: StatusCompleted}
	repo.stored[settled.ID] = settled

	snapshot := *settled
	snapshot.Status = StatusPending
	svc := newTestService(&staleReadRepo{fakeRepo: repo, snapshot: &snapshot}, &fakeItemStore{}, &fakeLedger{})

	if _, err := svc.Cancel(context.Background(), requester, settled.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if settled.Status != StatusCompleted {
		t.Fatalf("completed swap was overwritten to %s", settled.Status)
	}
}

func TestGetHidesSwapFromOutsiders(t *testing.T) {
	repo := newFakeRepo()
	sw := &Swap{ID: uuid.New(), RequesterID: uuid.New(), OwnerID: uuid.New(), Status: StatusPending}
	repo.stored[sw.ID] = sw
	svc := newTestService(repo, &fakeItemStore{}, &fakeLedger{})

	if _, err := svc.Get(context.Background(), uuid.New(), sw.ID); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := svc.Get(context.Background(), sw.RequesterID, sw.ID); err != nil {
		t.Fatalf("participant should see the swap: %v", err)
	}
}
