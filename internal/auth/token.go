package auth

import (
	"time"

	"quizzie-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a verified session token says about its bearer.
type Identity struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue returns a signed token for the user.
func (t *TokenIssuer) Issue(user domain.User) (string, error) {
	now := t.now()
	claims := &Claims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    "quizzie",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses a token and returns its identity. Every failure maps to ErrInvalidSession.
func (t *TokenIssuer) Verify(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, domain.ErrSessionRequired
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, domain.ErrInvalidSession
	}
	if claims.Subject == "" {
		return Identity{}, domain.ErrInvalidSession
	}
	return Identity{ID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}
