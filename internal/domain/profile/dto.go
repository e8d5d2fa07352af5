package profile

import (
	"time"

	"github.com/google/uuid"
)

// UpdateRequest for PATCH /profiles/me
type UpdateRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
	Location  *string `json:"location" validate:"omitempty,max=100"`
}

// ProfileResponse represents a profile in API responses
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Points    int64     `json:"points"`
	IsAdmin   bool      `json:"is_admin"`
	Location  string    `json:"location,omitempty"`
	CreatedAt string    `json:"created_at"`
}

// NewProfileResponse builds a ProfileResponse from the entity
func NewProfileResponse(p *Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Points:    p.Points,
		IsAdmin:   p.IsAdmin,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	if p.AvatarURL.Valid {
		resp.AvatarURL = p.AvatarURL.String
	}
	if p.Location.Valid {
		resp.Location = p.Location.String
	}
	return resp
}
