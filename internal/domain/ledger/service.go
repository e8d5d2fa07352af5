package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Service handles points ledger business logic. All balance changes in
// the system funnel through here; nothing else writes profiles.points.
type Service struct {
	repo *Repository
}

// NewService creates ledger service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Record appends a signed entry. Sign convention is enforced here:
// earned and bonus entries must be positive, spent entries negative.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, description, referenceID string) error {
	if !txType.IsValid() {
		return ErrInvalidType
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	switch txType {
	case TransactionTypeSpent:
		if amount > 0 {
			return ErrInvalidAmount
		}
	default:
		if amount < 0 {
			return ErrInvalidAmount
		}
	}

	if err := s.repo.Record(ctx, userID, amount, txType, description, referenceID); err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("type", string(txType)).
		Str("reference_id", referenceID).
		Msg("ledger entry recorded")
	return nil
}

// Award records a positive earned entry (listing bonus etc.)
func (s *Service) Award(ctx context.Context, userID uuid.UUID, amount int64, description, referenceID string) error {
	return s.Record(ctx, userID, amount, TransactionTypeEarned, description, referenceID)
}

// Grant records a positive bonus entry (welcome bonus, admin grants)
func (s *Service) Grant(ctx context.Context, userID uuid.UUID, amount int64, description, referenceID string) error {
	return s.Record(ctx, userID, amount, TransactionTypeBonus, description, referenceID)
}

// AwardTx records a positive earned entry inside the caller's
// transaction, so a listing and its bonus commit together.
func (s *Service) AwardTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, description, referenceID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.RecordTx(ctx, tx, userID, amount, TransactionTypeEarned, description, referenceID)
}

// TransferTx moves points between two users inside the caller's
// transaction. Used by swap settlement so the transfer commits or rolls
// back together with the item status changes.
func (s *Service) TransferTx(ctx context.Context, tx *sqlx.Tx, from, to uuid.UUID, amount int64, description, referenceID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.TransferTx(ctx, tx, from, to, amount, description, referenceID)
}

// Balance returns the user's current balance
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.Balance(ctx, userID)
}

// History returns the user's transaction history
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*PointTransaction, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
