package item

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status represents item status (matches item_status enum)
type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
	StatusSwapped Status = "swapped"
	StatusRemoved Status = "removed"
)

// Condition values accepted for a garment
const (
	ConditionNew     = "new"
	ConditionLikeNew = "like_new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
	ConditionWorn    = "worn"
)

// Item represents a garment listing (matches items table).
// Items are never physically deleted; removal flips status to removed.
type Item struct {
	ID          uuid.UUID      `db:"id"`
	OwnerID     uuid.UUID      `db:"owner_id"`
	CategoryID  uuid.UUID      `db:"category_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Size        string         `db:"size"`
	Condition   string         `db:"condition"`
	Brand       sql.NullString `db:"brand"`
	Color       sql.NullString `db:"color"`
	Material    sql.NullString `db:"material"`
	Points      int64          `db:"points"`
	Status      Status         `db:"status"`
	Images      pq.StringArray `db:"images"`
	Tags        pq.StringArray `db:"tags"`
	Views       int            `db:"views"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`

	// Joined data (not columns, populated by queries)
	CategoryName  string         `db:"category_name"`
	CategorySlug  string         `db:"category_slug"`
	OwnerName     string         `db:"owner_name"`
	OwnerAvatar   sql.NullString `db:"owner_avatar"`
	OwnerLocation sql.NullString `db:"owner_location"`
}

// IsActive returns true if the item can be browsed and requested
func (i *Item) IsActive() bool {
	return i.Status == StatusActive
}

// CanBeEditedBy checks if user can edit this item
func (i *Item) CanBeEditedBy(userID uuid.UUID) bool {
	return i.OwnerID == userID
}
