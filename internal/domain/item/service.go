package item

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/domain/category"
)

// Ledger is the slice of the points ledger the catalog needs
type Ledger interface {
	AwardTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, description, referenceID string) error
}

// CategoryResolver resolves category slugs to rows
type CategoryResolver interface {
	GetBySlug(ctx context.Context, slug string) (*category.Category, error)
}

// Service handles item catalog business logic
type Service struct {
	db           *sqlx.DB
	repo         Repository
	categories   CategoryResolver
	ledger       Ledger
	listingBonus int64
}

// NewService creates item service
func NewService(db *sqlx.DB, repo Repository, categories CategoryResolver, ledger Ledger, listingBonus int64) *Service {
	return &Service{
		db:           db,
		repo:         repo,
		categories:   categories,
		ledger:       ledger,
		listingBonus: listingBonus,
	}
}

// Create lists a new item and awards the listing bonus. The item insert
// and the bonus entry commit in one transaction.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateItemRequest) (*Item, error) {
	if len(req.Images) == 0 {
		return nil, ErrImagesRequired
	}

	cat, err := s.categories.GetBySlug(ctx, req.CategorySlug)
	if err != nil {
		return nil, ErrInvalidCategory
	}

	now := time.Now()
	item := &Item{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		CategoryID:  cat.ID,
		Title:       req.Title,
		Description: req.Description,
		Size:        req.Size,
		Condition:   req.Condition,
		Brand:       nullString(req.Brand),
		Color:       nullString(req.Color),
		Material:    nullString(req.Material),
		Points:      req.Points,
		Status:      StatusActive,
		Images:      pq.StringArray(req.Images),
		Tags:        pq.StringArray(req.Tags),
		Views:       0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.repo.CreateTx(ctx, tx, item); err != nil {
		return nil, err
	}

	if s.listingBonus > 0 {
		if err := s.ledger.AwardTx(ctx, tx, ownerID, s.listingBonus, "Item listed", item.ID.String()); err != nil {
			return nil, fmt.Errorf("listing bonus: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Str("item_id", item.ID.String()).
		Str("owner_id", ownerID.String()).
		Int64("listing_bonus", s.listingBonus).
		Msg("item listed")

	item.CategoryName = cat.Name
	item.CategorySlug = cat.Slug
	return item, nil
}

// Get returns one item by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// List returns a page of the catalog
func (s *Service) List(ctx context.Context, filter *Filter, sortBy SortBy, pagination *Pagination) ([]*Item, int, error) {
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.Limit < 1 || pagination.Limit > 50 {
		pagination.Limit = 12
	}
	return s.repo.List(ctx, filter, sortBy, pagination)
}

// ListByOwner returns all of a user's items, any status
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Item, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Update applies partial edits. Only the owner may edit, and only while
// the item is still active.
func (s *Service) Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *UpdateItemRequest) (*Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.CanBeEditedBy(actorID) {
		return nil, ErrNotOwner
	}
	if !item.IsActive() {
		return nil, ErrItemNotActive
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Size != nil {
		item.Size = *req.Size
	}
	if req.Condition != nil {
		item.Condition = *req.Condition
	}
	if req.Brand != nil {
		item.Brand = nullString(*req.Brand)
	}
	if req.Color != nil {
		item.Color = nullString(*req.Color)
	}
	if req.Material != nil {
		item.Material = nullString(*req.Material)
	}
	if req.Points != nil {
		item.Points = *req.Points
	}
	if req.Images != nil {
		item.Images = pq.StringArray(req.Images)
	}
	if req.Tags != nil {
		item.Tags = pq.StringArray(req.Tags)
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// Remove soft deletes an item. Allowed for the owner and for admins.
func (s *Service) Remove(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !item.CanBeEditedBy(actorID) && !isAdmin {
		return ErrNotOwner
	}
	if !item.IsActive() {
		return ErrItemNotActive
	}

	if err := s.repo.SetStatus(ctx, id, StatusRemoved); err != nil {
		return err
	}

	log.Info().
		Str("item_id", id.String()).
		Str("actor_id", actorID.String()).
		Bool("is_admin", isAdmin).
		Msg("item removed")
	return nil
}

// RecordView bumps the view counter. Non-critical telemetry: failures
// are logged and never reach the caller.
func (s *Service) RecordView(ctx context.Context, id uuid.UUID) {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		log.Warn().Err(err).Str("item_id", id.String()).Msg("view count increment failed")
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
