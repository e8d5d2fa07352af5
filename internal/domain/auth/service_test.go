package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/user"
	"github.com/rewear/rewear-api/internal/pkg/jwt"
)

func TestRegisterDuplicateEmail(t *testing.T) {
	existing := &user.User{ID: uuid.New(), Email: "taken@example.com"}
	jwtService := jwt.NewService("secret", time.Minute, time.Hour)
	svc := NewService(nil, &fakeUserRepo{byEmail: existing}, &fakeProfileRepo{}, nil, jwtService, nil, 0)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "Taken@Example.com",
		Password: "password123",
		Name:     "Someone",
	})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLogoutWithoutTokenIsNoop(t *testing.T) {
	jwtService := jwt.NewService("secret", time.Minute, time.Hour)
	svc := NewService(nil, &fakeUserRepo{}, &fakeProfileRepo{}, nil, jwtService, nil, 0)

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
