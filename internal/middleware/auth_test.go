package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/pkg/jwt"
)

func TestAuthRejectsMissingHeader(t *testing.T) {
	jwtService := jwt.NewService("secret", time.Minute, time.Hour)
	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	jwtService := jwt.NewService("secret", time.Minute, time.Hour)
	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a malformed header")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	jwtService := jwt.NewService("secret", -time.Minute, time.Hour)
	token, err := jwtService.GenerateAccessToken(uuid.New(), false)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthPopulatesContext(t *testing.T) {
	jwtService := jwt.NewService("secret", time.Minute, time.Hour)
	userID := uuid.New()
	token, err := jwtService.GenerateAccessToken(userID, true)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	var gotID uuid.UUID
	var gotAdmin bool
	handler := Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotAdmin = IsAdmin(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotID != userID {
		t.Fatalf("expected user id %s in context, got %s", userID, gotID)
	}
	if !gotAdmin {
		t.Fatal("expected admin flag in context")
	}
}

func TestRequireAdminBlocksNonAdmins(t *testing.T) {
	jwtService := jwt.NewService("secret", time.Minute, time.Hour)
	token, err := jwtService.GenerateAccessToken(uuid.New(), false)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	chain := Auth(jwtService)(RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for non-admins")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}
