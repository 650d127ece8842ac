package service_test

import (
	"errors"
	"testing"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/service"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestTokenService_IssueAndVerify(t *testing.T) {
	tokens := service.NewTokenService(testSecret, time.Hour)

	token, err := tokens.Issue(42, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	identity, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if identity.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", identity.UserID)
	}
	if identity.Username != "alice" {
		t.Fatalf("expected username alice, got %q", identity.Username)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	tokens := service.NewTokenService(testSecret, time.Hour)

	_, err := tokens.Verify("not-a-valid-jwt")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_Tampered(t *testing.T) {
	tokens := service.NewTokenService(testSecret, time.Hour)

	token, err := tokens.Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := token[:len(token)-5] + "XXXXX"
	_, err = tokens.Verify(tampered)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	tokens := service.NewTokenService(testSecret, time.Hour)
	other := service.NewTokenService("different-secret", time.Hour)

	token, err := tokens.Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = other.Verify(token)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	tokens := service.NewTokenService(testSecret, -time.Minute)

	token, err := tokens.Issue(1, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = tokens.Verify(token)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
