package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"quizzie-service/internal/auth"
)

const sessionCookie = "accessToken"

// SessionVerifier turns a raw token into the identity it was issued for.
type SessionVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// CookiePolicy controls the attributes of the session cookie.
type CookiePolicy struct {
	Development bool
	MaxAge      time.Duration
}

type identityKey struct{}

func withIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// identityFrom is only meaningful behind requireAuth.
func identityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey{}).(auth.Identity)
	return id
}

// requireAuth accepts the session cookie or an Authorization: Bearer header.
func requireAuth(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(sessionToken(r))
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (p CookiePolicy) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
		Secure:   true,
	}
	if p.Development {
		c.SameSite = http.SameSiteLaxMode
		c.Secure = false
	}
	return c
}

func (p CookiePolicy) set(w http.ResponseWriter, token string) {
	maxAge := p.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	http.SetCookie(w, p.cookie(token, int(maxAge.Seconds())))
}

func (p CookiePolicy) clear(w http.ResponseWriter) {
	http.SetCookie(w, p.cookie("", -1))
}
