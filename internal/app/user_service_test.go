package app_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"quizzie-service/internal/app"
	"quizzie-service/internal/auth"
	"quizzie-service/internal/domain"
	"quizzie-service/internal/infra/memory"
)

const strongPassword = "Secret#123"

func newUserService(t *testing.T) *app.UserService {
	t.Helper()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return app.NewUserService(memory.NewStore(), auth.NewPasswordHasher(bcrypt.MinCost), tokens)
}

func TestSignupValidation(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, app.SignupInput{Name: "", Email: "a@example.com", Password: strongPassword})
	if domain.KindOf(err) != domain.KindBadRequest || err.Error() != "All fields are required" {
		t.Fatalf("expected missing fields error, got %v", err)
	}

	_, err = svc.Signup(ctx, app.SignupInput{Name: "alice", Email: "a@example.com", Password: "weak"})
	if domain.KindOf(err) != domain.KindBadRequest {
		t.Fatalf("expected weak password rejected, got %v", err)
	}

	user, err := svc.Signup(ctx, app.SignupInput{Name: "  alice ", Email: " A@Example.com ", Password: strongPassword})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "a@example.com" || user.Password == strongPassword {
		t.Fatalf("unexpected stored user %+v", user)
	}

	_, err = svc.Signup(ctx, app.SignupInput{Name: "bob", Email: "a@example.com", Password: strongPassword})
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, app.SignupInput{Name: "alice", Email: "a@example.com", Password: strongPassword}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Login(ctx, "a@example.com", "Wrong#123"); domain.KindOf(err) != domain.KindUnauthorized {
			t.Fatalf("attempt %d: expected unauthorized, got %v", i, err)
		}
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", strongPassword); domain.KindOf(err) != domain.KindUnauthorized {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}

	user, token, err := svc.Login(ctx, "A@example.com", strongPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || user.Name != "alice" {
		t.Fatalf("unexpected login result %+v %q", user, token)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	alice, _ := svc.Signup(ctx, app.SignupInput{Name: "alice", Email: "a@example.com", Password: strongPassword})
	_, _ = svc.Signup(ctx, app.SignupInput{Name: "bob", Email: "b@example.com", Password: strongPassword})

	taken := "b@example.com"
	if _, err := svc.UpdateProfile(ctx, alice.ID, app.ProfileUpdate{Email: &taken}); domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	same := "a@example.com"
	name := "  Alicia "
	updated, err := svc.UpdateProfile(ctx, alice.ID, app.ProfileUpdate{Name: &name, Email: &same})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "alicia" {
		t.Fatalf("unexpected name %q", updated.Name)
	}

	weak := "short"
	if _, err := svc.UpdateProfile(ctx, alice.ID, app.ProfileUpdate{Password: &weak}); domain.KindOf(err) != domain.KindBadRequest {
		t.Fatalf("expected weak password rejected, got %v", err)
	}

	next := "Another#456"
	if _, err := svc.UpdateProfile(ctx, alice.ID, app.ProfileUpdate{Password: &next}); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@example.com", next); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestOverlongPasswordIsBadRequest(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()
	long := "Aa1!" + strings.Repeat("x", 80)

	_, err := svc.Signup(ctx, app.SignupInput{Name: "alice", Email: "a@example.com", Password: long})
	if domain.KindOf(err) != domain.KindBadRequest || !strings.Contains(err.Error(), "at most 72") {
		t.Fatalf("expected overlong password rejected on signup, got %v", err)
	}

	alice, err := svc.Signup(ctx, app.SignupInput{Name: "alice", Email: "a@example.com", Password: strongPassword})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err = svc.UpdateProfile(ctx, alice.ID, app.ProfileUpdate{Password: &long})
	if domain.KindOf(err) != domain.KindBadRequest || !strings.Contains(err.Error(), "at most 72") {
		t.Fatalf("expected overlong password rejected on update, got %v", err)
	}
}
