package profile

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service handles profile business logic
type Service struct {
	repo Repository
}

// NewService creates profile service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a profile by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// Update applies partial edits to the caller's own profile
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req *UpdateRequest) (*Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.AvatarURL != nil {
		p.AvatarURL = sql.NullString{String: *req.AvatarURL, Valid: *req.AvatarURL != ""}
	}
	if req.Location != nil {
		p.Location = sql.NullString{String: *req.Location, Valid: *req.Location != ""}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Msg("profile updated")
	return p, nil
}
