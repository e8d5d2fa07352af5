package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeNotificationRepo struct {
	created []*Notification
	byID    map[uuid.UUID]*Notification
	read    []uuid.UUID
	failing bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{byID: make(map[uuid.UUID]*Notification)}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *Notification) error {
	if f.failing {
		return errors.New("insert failed")
	}
	f.created = append(f.created, n)
	f.byID[n.ID] = n
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return f.byID[id], nil
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return nil, nil
}

func (f *fakeNotificationRepo) CountUnreadByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return len(f.created), nil
}

func (f *fakeNotificationRepo) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	f.read = append(f.read, id)
	return nil
}

func (f *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (f *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	return 0, nil
}

func TestNotifyPersistsAndNeverFails(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo, nil)
	userID := uuid.New()
	refID := uuid.New()

	svc.Notify(context.Background(), userID, "swap_requested", "New swap request", "Someone wants your coat", refID)

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 stored notification, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.UserID != userID || n.Kind != KindSwapRequested {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if !n.ReferenceID.Valid || n.ReferenceID.UUID != refID {
		t.Fatal("expected reference id recorded")
	}

	// a failing store must not panic or propagate
	repo.failing = true
	svc.Notify(context.Background(), userID, "swap_accepted", "Swap accepted", "", uuid.Nil)
}

func TestMarkAsReadEnforcesOwnership(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewService(repo, nil)
	owner := uuid.New()

	n := &Notification{ID: uuid.New(), UserID: owner, Kind: KindSwapAccepted, CreatedAt: time.Now()}
	repo.byID[n.ID] = n

	if err := svc.MarkAsRead(context.Background(), uuid.New(), n.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for stranger, got %v", err)
	}
	if err := svc.MarkAsRead(context.Background(), owner, n.ID); err != nil {
		t.Fatalf("mark as read failed: %v", err)
	}
	if len(repo.read) != 1 || repo.read[0] != n.ID {
		t.Fatal("expected notification marked read")
	}
}

func TestMarkAsReadUnknownNotification(t *testing.T) {
	svc := NewService(newFakeNotificationRepo(), nil)

	err := svc.MarkAsRead(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}
