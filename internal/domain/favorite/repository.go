package favorite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Favorite represents a bookmarked item
type Favorite struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ItemID    uuid.UUID `json:"item_id" db:"item_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Repository for favorites
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates favorites repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Add bookmarks an item. Adding twice is a no-op.
func (r *Repository) Add(ctx context.Context, userID, itemID uuid.UUID) (*Favorite, error) {
	fav := &Favorite{
		ID:        uuid.New(),
		UserID:    userID,
		ItemID:    itemID,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO favorites (id, user_id, item_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, item_id) DO NOTHING
		RETURNING id
	`

	var insertedID uuid.UUID
	err := r.db.GetContext(ctx, &insertedID, query, fav.ID, fav.UserID, fav.ItemID, fav.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.get(ctx, userID, itemID)
	}
	if err != nil {
		return nil, err
	}
	return fav, nil
}

// Remove deletes a bookmark
func (r *Repository) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	return err
}

func (r *Repository) get(ctx context.Context, userID, itemID uuid.UUID) (*Favorite, error) {
	var fav Favorite
	err := r.db.GetContext(ctx, &fav, `SELECT id, user_id, item_id, created_at FROM favorites WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

// IsFavorited checks if the user bookmarked the item
func (r *Repository) IsFavorited(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM favorites WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	return count > 0, err
}

// ListItemIDs returns the ids of a user's bookmarked items, newest
// bookmark first
func (r *Repository) ListItemIDs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT item_id FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return ids, total, nil
}

// CountByItem returns how many users bookmarked an item
func (r *Repository) CountByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM favorites WHERE item_id = $1`, itemID)
	return count, err
}
