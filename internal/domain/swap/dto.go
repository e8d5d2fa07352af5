package swap

import (
	"time"

	"github.com/google/uuid"
)

// CreateSwapRequest is the body for requesting an exchange.
// Exactly one of offered_item_id and points_offered must be set.
type CreateSwapRequest struct {
	ItemID        uuid.UUID  `json:"item_id" validate:"required"`
	OfferedItemID *uuid.UUID `json:"offered_item_id"`
	PointsOffered *int64     `json:"points_offered" validate:"omitempty,gt=0,lte=10000"`
	Message       string     `json:"message" validate:"omitempty,max=500"`
}

// SwapResponse is the API shape of a swap
type SwapResponse struct {
	ID            uuid.UUID  `json:"id"`
	RequesterID   uuid.UUID  `json:"requester_id"`
	RequesterName string     `json:"requester_name"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	OwnerName     string     `json:"owner_name"`
	ItemID        uuid.UUID  `json:"item_id"`
	ItemTitle     string     `json:"item_title"`
	ItemImage     string     `json:"item_image,omitempty"`
	OfferedItemID *uuid.UUID `json:"offered_item_id,omitempty"`
	OfferedTitle  string     `json:"offered_item_title,omitempty"`
	OfferedImage  string     `json:"offered_item_image,omitempty"`
	PointsOffered *int64     `json:"points_offered,omitempty"`
	Message       string     `json:"message,omitempty"`
	Status        Status     `json:"status"`
	CreatedAt     string     `json:"created_at"`
	UpdatedAt     string     `json:"updated_at"`
}

// NewSwapResponse converts entity to response
func NewSwapResponse(s *Swap) SwapResponse {
	resp := SwapResponse{
		ID:            s.ID,
		RequesterID:   s.RequesterID,
		RequesterName: s.RequesterName,
		OwnerID:       s.OwnerID,
		OwnerName:     s.OwnerName,
		ItemID:        s.ItemID,
		ItemTitle:     s.ItemTitle,
		Status:        s.Status,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}

	if s.OfferedItemID.Valid {
		id := s.OfferedItemID.UUID
		resp.OfferedItemID = &id
	}
	if s.PointsOffered.Valid {
		points := s.PointsOffered.Int64
		resp.PointsOffered = &points
	}
	if s.Message.Valid {
		resp.Message = s.Message.String
	}
	if s.ItemImage.Valid {
		resp.ItemImage = s.ItemImage.String
	}
	if s.OfferedItemTitle.Valid {
		resp.OfferedTitle = s.OfferedItemTitle.String
	}
	if s.OfferedItemImage.Valid {
		resp.OfferedImage = s.OfferedItemImage.String
	}

	return resp
}

// NewSwapResponses converts a slice of entities
func NewSwapResponses(swaps []*Swap) []SwapResponse {
	out := make([]SwapResponse, 0, len(swaps))
	for _, s := range swaps {
		out = append(out, NewSwapResponse(s))
	}
	return out
}
