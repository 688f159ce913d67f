package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"quizzie-service/internal/domain"
)

// PasswordHasher is the opaque "hash secret" capability.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// SessionIssuer is the opaque "issue signed token" capability.
type SessionIssuer interface {
	Issue(user domain.User) (string, error)
}

// SignupInput is the body of a signup request.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries the fields a profile update touches; nil means unchanged.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UserService contains the account use cases.
type UserService struct {
	users  UserStore
	hasher PasswordHasher
	tokens SessionIssuer
	now    func() time.Time
}

func NewUserService(users UserStore, hasher PasswordHasher, tokens SessionIssuer) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens, now: time.Now}
}

// Signup registers a new account.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (domain.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return domain.User{}, domain.BadRequest("All fields are required")
	}
	name := domain.NormalizeName(in.Name)
	email := domain.NormalizeEmail(in.Email)

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	if err := domain.ValidateAccount(name, email, &in.Password); err != nil {
		return domain.User{}, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	return s.users.CreateUser(ctx, domain.User{
		Name:      name,
		Email:     email,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// VerifyCredentials returns the account matching email and password.
// An unknown email and a wrong password are indistinguishable.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.users.FindUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	ok, err := s.hasher.Compare(user.Password, password)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return domain.User{}, "", domain.BadRequest("All fields are required")
	}
	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return domain.User{}, "", err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Profile loads the account behind a session.
func (s *UserService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.FindUserByID(ctx, userID)
}

// UpdateProfile applies any subset of name, email and password.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (domain.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if in.Name != nil {
		user.Name = domain.NormalizeName(*in.Name)
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		other, err := s.users.FindUserByEmail(ctx, email)
		switch {
		case err == nil && other.ID != user.ID:
			return domain.User{}, domain.ErrEmailInUse
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return domain.User{}, err
		}
		user.Email = email
	}
	if err := domain.ValidateAccount(user.Name, user.Email, in.Password); err != nil {
		return domain.User{}, err
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return domain.User{}, err
		}
		user.Password = hash
	}
	user.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	updated, err := s.users.UpdateUser(ctx, user)
	if errors.Is(err, domain.ErrEmailTaken) {
		return domain.User{}, domain.ErrEmailInUse
	}
	return updated, err
}
