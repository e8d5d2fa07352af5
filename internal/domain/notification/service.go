package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service persists notifications and pushes them to connected clients
type Service struct {
	repo Repository
	hub  *Hub
}

// NewService creates notification service
func NewService(repo Repository, hub *Hub) *Service {
	return &Service{repo: repo, hub: hub}
}

// Notify stores a notification and pushes it over WebSocket. It never
// fails the caller: delivery problems are logged here.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind, title, body string, referenceID uuid.UUID) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      Kind(kind),
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if referenceID != uuid.Nil {
		n.ReferenceID = uuid.NullUUID{UUID: referenceID, Valid: true}
	}

	if err := s.repo.Create(ctx, n); err != nil {
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("kind", kind).
			Msg("notification store failed")
		return
	}

	if s.hub != nil {
		if err := s.hub.Push(userID, n); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("notification push failed")
		}
	}
}

// List returns a page of the user's notifications
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// UnreadCount returns the number of unread notifications
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnreadByUser(ctx, userID)
}

// MarkAsRead marks one notification as read. Users can only touch
// their own notifications.
func (s *Service) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil || n.UserID != userID {
		return ErrNotificationNotFound
	}
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks every unread notification as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// StartCleanup prunes old read notifications periodically until ctx
// is cancelled
func (s *Service) StartCleanup(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.repo.DeleteOlderThan(ctx, retention)
			if err != nil {
				log.Error().Err(err).Msg("notification cleanup failed")
				continue
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("old notifications pruned")
			}
		}
	}
}
