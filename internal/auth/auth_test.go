package auth

import (
	"errors"
	"testing"
	"time"

	"quizzie-service/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	tok, err := issuer.Issue(domain.User{ID: "u1", Name: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.ID != "u1" || id.Email != "alice@example.com" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestTokenRejectsExpiredAndForged(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	tok, err := issuer.Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := issuer.Verify(tok); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	other := NewTokenIssuer("other-secret", time.Minute)
	if _, err := other.Verify(tok); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected forged token to fail, got %v", err)
	}

	if _, err := other.Verify(""); !errors.Is(err, domain.ErrSessionRequired) {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ok, err := h.Compare(hash, "Passw0rd!"); err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	if ok, err := h.Compare(hash, "wrong"); err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}
