package admin

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Stats is the platform overview for the admin dashboard
type Stats struct {
	TotalUsers     int   `db:"total_users" json:"total_users"`
	BannedUsers    int   `db:"banned_users" json:"banned_users"`
	ActiveItems    int   `db:"active_items" json:"active_items"`
	SwappedItems   int   `db:"swapped_items" json:"swapped_items"`
	PendingSwaps   int   `db:"pending_swaps" json:"pending_swaps"`
	CompletedSwaps int   `db:"completed_swaps" json:"completed_swaps"`
	PointsInPlay   int64 `db:"points_in_play" json:"points_in_play"`
}

// Repository reads platform-wide aggregates
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates admin repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Stats returns counts across the whole platform
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM users WHERE is_banned) AS banned_users,
			(SELECT COUNT(*) FROM items WHERE status = 'active') AS active_items,
			(SELECT COUNT(*) FROM items WHERE status = 'swapped') AS swapped_items,
			(SELECT COUNT(*) FROM swaps WHERE status = 'pending') AS pending_swaps,
			(SELECT COUNT(*) FROM swaps WHERE status = 'completed') AS completed_swaps,
			(SELECT COALESCE(SUM(points), 0) FROM profiles) AS points_in_play
	`

	var s Stats
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return nil, err
	}
	return &s, nil
}
