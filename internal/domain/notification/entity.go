package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Kind represents notification kind
type Kind string

const (
	KindSwapRequested Kind = "swap_requested" // Owner: someone wants their item
	KindSwapAccepted  Kind = "swap_accepted"  // Requester: owner accepted
	KindSwapRejected  Kind = "swap_rejected"  // Requester: declined or lost the item
	KindSwapCancelled Kind = "swap_cancelled" // Owner: requester withdrew
	KindItemRemoved   Kind = "item_removed"   // Owner: moderation removed a listing
	KindPointsGranted Kind = "points_granted" // User: admin granted points
)

// Notification represents a user notification
type Notification struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	UserID      uuid.UUID     `db:"user_id" json:"user_id"`
	Kind        Kind          `db:"kind" json:"kind"`
	Title       string        `db:"title" json:"title"`
	Body        string        `db:"body" json:"body"`
	ReferenceID uuid.NullUUID `db:"reference_id" json:"reference_id,omitempty"`
	IsRead      bool          `db:"is_read" json:"is_read"`
	ReadAt      sql.NullTime  `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}
