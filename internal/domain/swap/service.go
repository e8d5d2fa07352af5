package swap

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/domain/item"
)

// ItemStore is the slice of the catalog the swap flow needs
type ItemStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error)
	MarkSwappedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
}

// Ledger is the slice of the points ledger the swap flow needs
type Ledger interface {
	TransferTx(ctx context.Context, tx *sqlx.Tx, from, to uuid.UUID, amount int64, description, referenceID string) error
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Notifier delivers in-app notifications. Implementations must not
// fail the calling flow; delivery problems are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string, referenceID uuid.UUID)
}

// Service handles swap business logic
type Service struct {
	db       *sqlx.DB
	repo     Repository
	items    ItemStore
	ledger   Ledger
	notifier Notifier
}

// NewService creates swap service
func NewService(db *sqlx.DB, repo Repository, items ItemStore, ledger Ledger, notifier Notifier) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		items:    items,
		ledger:   ledger,
		notifier: notifier,
	}
}

// Create opens a pending swap request against an active item. The offer
// must be exactly one of another item or a points amount.
func (s *Service) Create(ctx context.Context, requesterID uuid.UUID, req *CreateSwapRequest) (*Swap, error) {
	hasItem := req.OfferedItemID != nil
	hasPoints := req.PointsOffered != nil
	if hasItem == hasPoints {
		return nil, ErrInvalidOffer
	}

	target, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, item.ErrItemNotFound
	}
	if target.OwnerID == requesterID {
		return nil, ErrSelfSwap
	}
	if !target.IsActive() {
		return nil, item.ErrItemNotActive
	}

	sw := &Swap{
		ID:          uuid.New(),
		RequesterID: requesterID,
		OwnerID:     target.OwnerID,
		ItemID:      target.ID,
		Status:      StatusPending,
	}
	if req.Message != "" {
		sw.Message = sql.NullString{String: req.Message, Valid: true}
	}

	if hasItem {
		offered, err := s.items.GetByID(ctx, *req.OfferedItemID)
		if err != nil {
			return nil, err
		}
		if offered == nil || offered.OwnerID != requesterID || !offered.IsActive() {
			return nil, ErrOfferedItemInvalid
		}
		sw.OfferedItemID = uuid.NullUUID{UUID: offered.ID, Valid: true}
	} else {
		balance, err := s.ledger.Balance(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if balance < *req.PointsOffered {
			return nil, ErrInsufficientBalance
		}
		sw.PointsOffered = sql.NullInt64{Int64: *req.PointsOffered, Valid: true}
	}

	if err := s.repo.Create(ctx, sw); err != nil {
		return nil, err
	}

	log.Info().
		Str("swap_id", sw.ID.String()).
		Str("requester_id", requesterID.String()).
		Str("item_id", target.ID.String()).
		Bool("points_offer", hasPoints).
		Msg("swap requested")

	s.notify(ctx, target.OwnerID, "swap_requested", "New swap request",
		"Someone wants to swap for \""+target.Title+"\"", sw.ID)

	created, err := s.repo.GetByID(ctx, sw.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, ErrSwapNotFound
	}
	return created, nil
}

// Get returns one swap, visible only to its participants
func (s *Service) Get(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*Swap, error) {
	sw, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sw == nil {
		return nil, ErrSwapNotFound
	}
	if sw.RequesterID != actorID && sw.OwnerID != actorID {
		return nil, ErrNotParticipant
	}
	return sw, nil
}

// List returns the user's swaps, filtered by direction and status
func (s *Service) List(ctx context.Context, userID uuid.UUID, direction Direction, status Status, page, limit int) ([]*Swap, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return s.repo.ListForUser(ctx, userID, direction, status, limit, (page-1)*limit)
}

// Accept settles a pending swap in one transaction: the requested item
// (and the offered item, if any) flip to swapped, points move through
// the ledger for points offers, the swap becomes completed, and every
// other pending request touching the settled items is rejected. Either
// all of it commits or none of it does.
func (s *Service) Accept(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*Swap, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	sw, err := s.repo.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if sw == nil {
		return nil, ErrSwapNotFound
	}
	if sw.OwnerID != actorID {
		return nil, ErrNotOwner
	}
	if !sw.IsPending() {
		return nil, ErrNotPending
	}

	if err := s.items.MarkSwappedTx(ctx, tx, sw.ItemID); err != nil {
		return nil, err
	}

	if sw.OfferedItemID.Valid {
		if err := s.items.MarkSwappedTx(ctx, tx, sw.OfferedItemID.UUID); err != nil {
			return nil, err
		}
	} else if sw.PointsOffered.Valid {
		err := s.ledger.TransferTx(ctx, tx, sw.RequesterID, sw.OwnerID,
			sw.PointsOffered.Int64, "Swap settlement", sw.ID.String())
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetStatusTx(ctx, tx, id, StatusCompleted); err != nil {
		return nil, err
	}

	rejected, err := s.repo.RejectOtherPendingTx(ctx, tx, sw.ItemID, sw.ID)
	if err != nil {
		return nil, err
	}
	if sw.OfferedItemID.Valid {
		more, err := s.repo.RejectOtherPendingTx(ctx, tx, sw.OfferedItemID.UUID, sw.ID)
		if err != nil {
			return nil, err
		}
		rejected = append(rejected, more...)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Str("swap_id", sw.ID.String()).
		Str("owner_id", sw.OwnerID.String()).
		Str("requester_id", sw.RequesterID.String()).
		Int("rejected_others", len(rejected)).
		Msg("swap completed")

	s.notify(ctx, sw.RequesterID, "swap_accepted", "Swap accepted",
		"Your request for \""+sw.ItemTitle+"\" was accepted", sw.ID)
	for _, r := range rejected {
		s.notify(ctx, r.RequesterID, "swap_rejected", "Swap no longer available",
			"The item you requested was swapped with someone else", r.ID)
	}

	return s.Get(ctx, actorID, id)
}

// Reject declines a pending swap. Owner only.
func (s *Service) Reject(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*Swap, error) {
	sw, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if sw.OwnerID != actorID {
		return nil, ErrNotOwner
	}
	if !sw.IsPending() {
		return nil, ErrNotPending
	}

	if err := s.repo.SetStatus(ctx, id, StatusRejected); err != nil {
		return nil, err
	}
	sw.Status = StatusRejected

	s.notify(ctx, sw.RequesterID, "swap_rejected", "Swap declined",
		"Your request for \""+sw.ItemTitle+"\" was declined", sw.ID)

	return sw, nil
}

// Cancel withdraws a pending swap. Requester only.
func (s *Service) Cancel(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*Swap, error) {
	sw, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if sw.RequesterID != actorID {
		return nil, ErrNotRequester
	}
	if !sw.IsPending() {
		return nil, ErrNotPending
	}

	if err := s.repo.SetStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	sw.Status = StatusCancelled

	s.notify(ctx, sw.OwnerID, "swap_cancelled", "Swap withdrawn",
		"A request for \""+sw.ItemTitle+"\" was withdrawn", sw.ID)

	return sw, nil
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, kind, title, body string, refID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(context.WithoutCancel(ctx), userID, kind, title, body, refID)
}
