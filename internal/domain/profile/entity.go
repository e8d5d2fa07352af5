package profile

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Profile represents a member's public profile (matches profiles table).
// ID is the owning user's id. The points column is owned by the ledger
// package and is never written directly here.
type Profile struct {
	ID        uuid.UUID      `db:"id"`
	Name      string         `db:"name"`
	AvatarURL sql.NullString `db:"avatar_url"`
	Points    int64          `db:"points"`
	IsAdmin   bool           `db:"is_admin"`
	Location  sql.NullString `db:"location"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}
