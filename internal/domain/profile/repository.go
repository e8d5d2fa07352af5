package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines profile data access interface
type Repository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new profile repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const profileColumns = `id, name, avatar_url, points, is_admin, location, created_at, updated_at`

// CreateTx inserts a profile inside the signup transaction. Points start
// at zero; the welcome bonus arrives through the ledger afterwards.
func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, p *Profile) error {
	query := `
		INSERT INTO profiles (id, name, avatar_url, points, is_admin, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.AvatarURL,
		p.Points,
		p.IsAdmin,
		p.Location,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("profile repository create: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}

// Update writes the editable fields only. Points and is_admin are owned
// by the ledger and admin modules respectively.
func (r *repository) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE profiles
		SET name = $2, avatar_url = $3, location = $4, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.AvatarURL, p.Location)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}
	return nil
}
