package ledger

import "errors"

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInsufficientPoints = errors.New("insufficient points balance")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrReferenceConflict  = errors.New("reference conflicts with different amount")
)
