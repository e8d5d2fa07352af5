package swap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Direction selects which side of a swap the user is on
type Direction string

const (
	DirectionAll      Direction = ""
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Repository defines swap data access
type Repository interface {
	Create(ctx context.Context, s *Swap) error
	GetByID(ctx context.Context, id uuid.UUID) (*Swap, error)
	GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Swap, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	SetStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error
	RejectOtherPendingTx(ctx context.Context, tx *sqlx.Tx, itemID, excludeID uuid.UUID) ([]*Swap, error)
	ListForUser(ctx context.Context, userID uuid.UUID, direction Direction, status Status, limit, offset int) ([]*Swap, int, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Swap, int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates swap repository
func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const swapSelectColumns = `
	s.id, s.requester_id, s.owner_id, s.item_id, s.offered_item_id,
	s.points_offered, s.message, s.status, s.created_at, s.updated_at,
	i.title AS item_title,
	(i.images)[1] AS item_image,
	oi.title AS offered_item_title,
	(oi.images)[1] AS offered_item_image,
	rp.name AS requester_name,
	op.name AS owner_name`

const swapJoins = `
	JOIN items i ON i.id = s.item_id
	LEFT JOIN items oi ON oi.id = s.offered_item_id
	JOIN profiles rp ON rp.id = s.requester_id
	JOIN profiles op ON op.id = s.owner_id`

// Create inserts a pending swap. A partial unique index on
// (requester_id, item_id) WHERE status = 'pending' rejects duplicate
// open requests for the same item.
func (r *postgresRepository) Create(ctx context.Context, s *Swap) error {
	query := `
		INSERT INTO swaps (id, requester_id, owner_id, item_id, offered_item_id, points_offered, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.RequesterID, s.OwnerID, s.ItemID,
		s.OfferedItemID, s.PointsOffered, s.Message, string(s.Status),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateRequest
		}
		return err
	}
	return nil
}

func (r *postgresRepository) getByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID, forUpdate bool) (*Swap, error) {
	query := fmt.Sprintf(`SELECT %s FROM swaps s %s WHERE s.id = $1`, swapSelectColumns, swapJoins)
	if forUpdate {
		query += ` FOR UPDATE OF s`
	}

	var s Swap
	err := sqlx.GetContext(ctx, q, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns a swap with joined item and profile data
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Swap, error) {
	return r.getByID(ctx, r.db, id, false)
}

// GetByIDTx returns a swap locked for the duration of the caller's
// transaction, so two settlements of the same swap serialize.
func (r *postgresRepository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Swap, error) {
	return r.getByID(ctx, tx, id, true)
}

// setStatus transitions a swap out of pending. Every target status is
// terminal, so the guard keeps a caller working from a stale read from
// overwriting a swap that a concurrent settlement already completed.
func setStatus(ctx context.Context, e sqlx.ExecerContext, id uuid.UUID, status Status) error {
	res, err := e.ExecContext(ctx,
		`UPDATE swaps SET status = $1, updated_at = NOW() WHERE id = $2 AND status = 'pending'`,
		string(status), id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotPending
	}
	return nil
}

// SetStatus moves a pending swap to a terminal status
func (r *postgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return setStatus(ctx, r.db, id, status)
}

// SetStatusTx moves a pending swap to a terminal status inside a
// caller-provided transaction
func (r *postgresRepository) SetStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error {
	return setStatus(ctx, tx, id, status)
}

// RejectOtherPendingTx rejects every other pending swap that targets or
// offers the given item, returning the affected swaps so callers can
// notify their requesters. Runs inside the settlement transaction.
func (r *postgresRepository) RejectOtherPendingTx(ctx context.Context, tx *sqlx.Tx, itemID, excludeID uuid.UUID) ([]*Swap, error) {
	query := `
		UPDATE swaps
		SET status = 'rejected', updated_at = NOW()
		WHERE status = 'pending'
		  AND id <> $1
		  AND (item_id = $2 OR offered_item_id = $2)
		RETURNING id, requester_id, owner_id, item_id, offered_item_id, points_offered, message, status, created_at, updated_at
	`

	var affected []*Swap
	rows, err := tx.QueryxContext(ctx, query, excludeID, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s Swap
		if err := rows.StructScan(&s); err != nil {
			return nil, err
		}
		affected = append(affected, &s)
	}
	return affected, rows.Err()
}

// ListForUser returns swaps where the user is requester, owner, or
// either, newest first
func (r *postgresRepository) ListForUser(ctx context.Context, userID uuid.UUID, direction Direction, status Status, limit, offset int) ([]*Swap, int, error) {
	where := `(s.requester_id = $1 OR s.owner_id = $1)`
	switch direction {
	case DirectionIncoming:
		where = `s.owner_id = $1`
	case DirectionOutgoing:
		where = `s.requester_id = $1`
	}

	args := []interface{}{userID}
	if status != "" {
		args = append(args, string(status))
		where += fmt.Sprintf(` AND s.status = $%d`, len(args))
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM swaps s WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM swaps s %s
		WHERE %s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d
	`, swapSelectColumns, swapJoins, where, len(args)-1, len(args))

	var swaps []*Swap
	if err := r.db.SelectContext(ctx, &swaps, query, args...); err != nil {
		return nil, 0, err
	}

	return swaps, total, nil
}

// ListByStatus returns all swaps with the given status, newest first.
// Used by moderation views.
func (r *postgresRepository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Swap, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM swaps WHERE status = $1`, string(status)); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM swaps s %s
		WHERE s.status = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`, swapSelectColumns, swapJoins)

	var swaps []*Swap
	if err := r.db.SelectContext(ctx, &swaps, query, string(status), limit, offset); err != nil {
		return nil, 0, err
	}

	return swaps, total, nil
}

// CountByStatus returns swap counts grouped by status
func (r *postgresRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM swaps GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
