package item

import "errors"

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrNotOwner        = errors.New("only the item owner can do this")
	ErrItemNotActive   = errors.New("item is no longer active")
	ErrInvalidCategory = errors.New("invalid category reference")
	ErrImagesRequired  = errors.New("at least one image is required")
)
