package ledger

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a point movement
type TransactionType string

const (
	TransactionTypeEarned TransactionType = "earned"
	TransactionTypeSpent  TransactionType = "spent"
	TransactionTypeBonus  TransactionType = "bonus"
)

// IsValid reports whether t is a known transaction type
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeEarned, TransactionTypeSpent, TransactionTypeBonus:
		return true
	}
	return false
}

// PointTransaction is an append-only ledger row. Amount is signed:
// positive for earned/bonus, negative for spent. The sum of a user's
// rows always equals profiles.points for that user.
type PointTransaction struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	Amount      int64           `db:"amount" json:"amount"`
	Type        TransactionType `db:"type" json:"type"`
	Description string          `db:"description" json:"description"`
	ReferenceID sql.NullString  `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
