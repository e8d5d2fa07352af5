package swap

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents swap status (matches swap_status enum)
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Swap represents an exchange request for one item. The offer is either
// another item or a points amount, never both.
type Swap struct {
	ID            uuid.UUID      `db:"id"`
	RequesterID   uuid.UUID      `db:"requester_id"`
	OwnerID       uuid.UUID      `db:"owner_id"`
	ItemID        uuid.UUID      `db:"item_id"`
	OfferedItemID uuid.NullUUID  `db:"offered_item_id"`
	PointsOffered sql.NullInt64  `db:"points_offered"`
	Message       sql.NullString `db:"message"`
	Status        Status         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`

	// Joined data (not columns, populated by queries)
	ItemTitle        string         `db:"item_title"`
	ItemImage        sql.NullString `db:"item_image"`
	OfferedItemTitle sql.NullString `db:"offered_item_title"`
	OfferedItemImage sql.NullString `db:"offered_item_image"`
	RequesterName    string         `db:"requester_name"`
	OwnerName        string         `db:"owner_name"`
}

// IsPending returns true while the owner can still decide
func (s *Swap) IsPending() bool {
	return s.Status == StatusPending
}

// IsPointsOffer returns true for item-for-points requests
func (s *Swap) IsPointsOffer() bool {
	return s.PointsOffered.Valid
}
