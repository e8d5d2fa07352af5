package swap

import "errors"

var (
	ErrSwapNotFound        = errors.New("swap not found")
	ErrNotParticipant      = errors.New("not a participant of this swap")
	ErrNotOwner            = errors.New("only the item owner can decide")
	ErrNotRequester        = errors.New("only the requester can cancel")
	ErrNotPending          = errors.New("swap is no longer pending")
	ErrSelfSwap            = errors.New("cannot request a swap for your own item")
	ErrInvalidOffer        = errors.New("offer must be exactly one of an item or points")
	ErrOfferedItemInvalid  = errors.New("offered item must be your own active item")
	ErrDuplicateRequest    = errors.New("a pending request for this item already exists")
	ErrInsufficientBalance = errors.New("not enough points for this offer")
)
