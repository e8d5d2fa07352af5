package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository persists point transactions and keeps profile balances
// consistent with them. Every mutation runs inside a transaction that
// locks the affected profile rows.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates ledger repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func lockBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (int64, error) {
	var balance int64
	err := tx.GetContext(ctx, &balance, `SELECT points FROM profiles WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProfileNotFound
	}
	return balance, err
}

func updateBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, balance int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE profiles SET points = $1, updated_at = NOW() WHERE id = $2`, balance, userID)
	return err
}

func getAmountByReference(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, txType TransactionType, referenceID string) (int64, bool, error) {
	if referenceID == "" {
		return 0, false, nil
	}

	var amount int64
	err := tx.GetContext(ctx, &amount, `
		SELECT amount
		FROM point_transactions
		WHERE user_id = $1 AND type = $2 AND reference_id = $3
		LIMIT 1
	`, userID, string(txType), referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

func insertTransaction(ctx context.Context, tx *sqlx.Tx, entry *PointTransaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO point_transactions (id, user_id, amount, type, description, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, entry.ID, entry.UserID, entry.Amount, string(entry.Type), entry.Description, entry.ReferenceID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrReferenceConflict
		}
		return err
	}
	return nil
}

// applyTx appends a ledger entry and adjusts the profile balance inside
// the given transaction. The profile row must not yet be locked by the
// caller for a different user set; lock ordering is the caller's duty.
func applyTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, description, referenceID string) error {
	balance, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return err
	}

	// Idempotency: a retry carrying the same (user, type, reference)
	// with the same amount is a no-op; a different amount is a conflict.
	existing, exists, err := getAmountByReference(ctx, tx, userID, txType, referenceID)
	if err != nil {
		return err
	}
	if exists {
		if existing != amount {
			return ErrReferenceConflict
		}
		return nil
	}

	nextBalance := balance + amount
	if nextBalance < 0 {
		return ErrInsufficientPoints
	}

	if err := updateBalance(ctx, tx, userID, nextBalance); err != nil {
		return err
	}

	entry := &PointTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
	}
	if referenceID != "" {
		entry.ReferenceID = sql.NullString{String: referenceID, Valid: true}
	}

	return insertTransaction(ctx, tx, entry)
}

// Record appends one entry and adjusts the balance atomically
func (r *Repository) Record(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, description, referenceID string) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := applyTx(ctx, tx, userID, amount, txType, description, referenceID); err != nil {
		return err
	}

	return tx.Commit()
}

// RecordTx appends one entry inside a caller-provided transaction
func (r *Repository) RecordTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, description, referenceID string) error {
	return applyTx(ctx, tx, userID, amount, txType, description, referenceID)
}

// TransferTx moves amount points from one user to another inside a
// caller-provided transaction: a spent entry for the sender and an
// earned entry for the receiver, both referencing referenceID. Profiles
// are locked in id order so two concurrent transfers cannot deadlock.
func (r *Repository) TransferTx(ctx context.Context, tx *sqlx.Tx, from, to uuid.UUID, amount int64, description, referenceID string) error {
	if from.String() < to.String() {
		if _, err := lockBalance(ctx, tx, from); err != nil {
			return err
		}
		if _, err := lockBalance(ctx, tx, to); err != nil {
			return err
		}
	} else {
		if _, err := lockBalance(ctx, tx, to); err != nil {
			return err
		}
		if _, err := lockBalance(ctx, tx, from); err != nil {
			return err
		}
	}

	if err := applyTx(ctx, tx, from, -amount, TransactionTypeSpent, description, referenceID); err != nil {
		return err
	}
	return applyTx(ctx, tx, to, amount, TransactionTypeEarned, description, referenceID)
}

// Balance returns the current balance from the profile row
func (r *Repository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT points FROM profiles WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProfileNotFound
	}
	return balance, err
}

// SumByUser returns the sum of a user's ledger entries. Used for
// reconciliation against the profile balance.
func (r *Repository) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum, `SELECT COALESCE(SUM(amount), 0) FROM point_transactions WHERE user_id = $1`, userID)
	return sum, err
}

// ListByUser returns a user's transaction history, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*PointTransaction, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM point_transactions WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, user_id, amount, type, description, reference_id, created_at
		FROM point_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var entries []*PointTransaction
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit, offset); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
