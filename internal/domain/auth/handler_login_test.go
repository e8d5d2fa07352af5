package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/domain/profile"
	"github.com/rewear/rewear-api/internal/domain/user"
	"github.com/rewear/rewear-api/internal/pkg/jwt"
	"github.com/rewear/rewear-api/internal/pkg/password"
)

type fakeUserRepo struct {
	byEmail *user.User
	byID    *user.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error { return nil }
func (f *fakeUserRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, u *user.User) error {
	return nil
}
func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return f.byID, nil
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if f.byEmail != nil && f.byEmail.Email == email {
		return f.byEmail, nil
	}
	return nil, nil
}
func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return nil
}
func (f *fakeUserRepo) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error { return nil }
func (f *fakeUserRepo) SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error   { return nil }
func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]*user.User, int, error) {
	return nil, 0, nil
}

type fakeProfileRepo struct {
	byID *profile.Profile
}

func (f *fakeProfileRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, p *profile.Profile) error {
	return nil
}
func (f *fakeProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return f.byID, nil
}
func (f *fakeProfileRepo) Update(ctx context.Context, p *profile.Profile) error { return nil }

// unreachableDB gives the ledger a handle whose queries fail fast, so
// balance lookups degrade to zero instead of panicking.
func unreachableDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("postgres", "host=127.0.0.1 port=1 sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	return db
}

func newTestHandler(t *testing.T, users *fakeUserRepo, profiles *fakeProfileRepo) *Handler {
	t.Helper()
	jwtService := jwt.NewService("secret", time.Minute, time.Hour)
	ledgerService := ledger.NewService(ledger.NewRepository(unreachableDB(t)))
	svc := NewService(nil, users, profiles, ledgerService, jwtService, nil, 0)
	return NewHandler(svc)
}

func TestLoginHandlerWrongPasswordReturns401(t *testing.T) {
	hash, _ := password.Hash("password123")
	u := &user.User{ID: uuid.New(), Email: "member@example.com", PasswordHash: hash, CreatedAt: time.Now()}
	h := newTestHandler(t, &fakeUserRepo{byEmail: u, byID: u}, &fakeProfileRepo{})

	body, _ := json.Marshal(LoginRequest{Email: u.Email, Password: "wrong-password"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLoginHandlerUnknownEmailReturns401(t *testing.T) {
	h := newTestHandler(t, &fakeUserRepo{}, &fakeProfileRepo{})

	body, _ := json.Marshal(LoginRequest{Email: "nobody@example.com", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLoginHandlerBannedReturns403(t *testing.T) {
	hash, _ := password.Hash("password123")
	u := &user.User{ID: uuid.New(), Email: "banned@example.com", PasswordHash: hash, IsBanned: true, CreatedAt: time.Now()}
	h := newTestHandler(t, &fakeUserRepo{byEmail: u, byID: u}, &fakeProfileRepo{})

	body, _ := json.Marshal(LoginRequest{Email: u.Email, Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLoginHandlerSuccessReturnsTokens(t *testing.T) {
	hash, _ := password.Hash("password123")
	u := &user.User{ID: uuid.New(), Email: "member@example.com", PasswordHash: hash, CreatedAt: time.Now()}
	p := &profile.Profile{ID: u.ID, Name: "Member"}
	h := newTestHandler(t, &fakeUserRepo{byEmail: u, byID: u}, &fakeProfileRepo{byID: p})

	body, _ := json.Marshal(LoginRequest{Email: u.Email, Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		Success bool `json:"success"`
		Data    struct {
			User struct {
				Name string `json:"name"`
			} `json:"user"`
			Tokens struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
				TokenType    string `json:"token_type"`
			} `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Data.Tokens.AccessToken == "" || out.Data.Tokens.RefreshToken == "" {
		t.Fatal("expected tokens in response")
	}
	if out.Data.Tokens.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %q", out.Data.Tokens.TokenType)
	}
	if out.Data.User.Name != "Member" {
		t.Fatalf("expected profile name in response, got %q", out.Data.User.Name)
	}
}

func TestLoginHandlerNormalizesEmail(t *testing.T) {
	hash, _ := password.Hash("password123")
	u := &user.User{ID: uuid.New(), Email: "member@example.com", PasswordHash: hash, CreatedAt: time.Now()}
	h := newTestHandler(t, &fakeUserRepo{byEmail: u, byID: u}, &fakeProfileRepo{})

	body, _ := json.Marshal(LoginRequest{Email: "MEMBER@Example.COM", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for uppercased email, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRefreshHandlerWithoutRedisReturns401(t *testing.T) {
	h := newTestHandler(t, &fakeUserRepo{}, &fakeProfileRepo{})

	body, _ := json.Marshal(RefreshRequest{RefreshToken: "some-token"})
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Refresh(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}
