package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/domain/profile"
	"github.com/rewear/rewear-api/internal/domain/user"
	"github.com/rewear/rewear-api/internal/pkg/jwt"
	"github.com/rewear/rewear-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	db           *sqlx.DB
	userRepo     user.Repository
	profileRepo  profile.Repository
	ledger       *ledger.Service
	jwtService   *jwt.Service
	redis        *redis.Client // nil if Redis disabled
	welcomeBonus int64
}

// NewService creates auth service
func NewService(db *sqlx.DB, userRepo user.Repository, profileRepo profile.Repository, ledgerService *ledger.Service, jwtService *jwt.Service, redisClient *redis.Client, welcomeBonus int64) *Service {
	return &Service{
		db:           db,
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		ledger:       ledgerService,
		jwtService:   jwtService,
		redis:        redisClient,
		welcomeBonus: welcomeBonus,
	}
}

// Register creates the account and its profile in one transaction,
// then grants the welcome bonus through the ledger. The bonus
// references the user id, so a retried signup can never grant twice.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	existing, _ := s.userRepo.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	p := &profile.Profile{
		ID:        u.ID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Location != "" {
		p.Location = sql.NullString{String: req.Location, Valid: true}
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.userRepo.CreateTx(ctx, tx, u); err != nil {
		// Two signups can race past the pre-check; the unique index
		// decides and the loser gets the same conflict answer.
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	if err := s.profileRepo.CreateTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if s.welcomeBonus > 0 {
		err := s.ledger.Grant(ctx, u.ID, s.welcomeBonus, "Welcome bonus", u.ID.String())
		if err != nil {
			// The account exists; a missing bonus is recoverable
			log.Error().Err(err).Str("user_id", u.ID.String()).Msg("welcome bonus grant failed")
		}
	}

	log.Info().Str("user_id", u.ID.String()).Msg("user registered")

	return s.generateTokens(ctx, u, p.Name)
}

// Login authenticates a user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if u.IsBanned {
		return nil, ErrUserBanned
	}

	p, err := s.profileRepo.GetByID(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	name := ""
	if p != nil {
		name = p.Name
	}
	return s.generateTokens(ctx, u, name)
}

// Refresh rotates the refresh token and issues a new pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	userID, err := s.getRefreshToken(ctx, refreshHash)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}

	// Rotation: the presented token is spent either way
	_ = s.deleteRefreshToken(ctx, refreshHash)

	p, err := s.profileRepo.GetByID(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	name := ""
	if p != nil {
		name = p.Name
	}
	return s.generateTokens(ctx, u, name)
}

// Logout invalidates the refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.deleteRefreshToken(ctx, jwt.HashRefreshToken(refreshToken))
}

// GetCurrentUser returns the authenticated user's account view
func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}

	p, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := ""
	points := int64(0)
	if p != nil {
		name = p.Name
		points = p.Points
	}

	resp := NewUserResponse(u.ID, u.Email, name, u.IsAdmin, points, u.CreatedAt)
	return &resp, nil
}

func (s *Service) generateTokens(ctx context.Context, u *user.User, name string) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, u.IsAdmin)
	if err != nil {
		return nil, err
	}

	refreshToken, _, _, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	if err := s.storeRefreshToken(ctx, refreshHash, u.ID); err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(ctx, u.ID)
	if err != nil {
		balance = 0
	}

	return &AuthResponse{
		User: NewUserResponse(u.ID, u.Email, name, u.IsAdmin, balance, u.CreatedAt),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:    "Bearer",
		},
	}, nil
}

// Redis helpers (handle nil redis gracefully)
func (s *Service) storeRefreshToken(ctx context.Context, tokenHash string, userID uuid.UUID) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Set(ctx, "refresh:"+tokenHash, userID.String(), s.jwtService.GetRefreshTTL()).Err()
}

func (s *Service) getRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	if s.redis == nil {
		// Without Redis, refresh tokens don't work
		return uuid.Nil, ErrInvalidRefreshToken
	}
	val, err := s.redis.Get(ctx, "refresh:"+tokenHash).Result()
	if err != nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	return uuid.Parse(val)
}

func (s *Service) deleteRefreshToken(ctx context.Context, tokenHash string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, "refresh:"+tokenHash).Err()
}
