package postgres

import (
	"context"
	"errors"
	"fmt"

	"quizzie-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	user.ID = uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.User{}, domain.ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id::text, name, email, password, created_at, updated_at
		FROM users WHERE email=$1`, email)
	return scanUser(row)
}

func (s *UserStore) FindUserByID(ctx context.Context, id string) (domain.User, error) {
	if !validID(id) {
		return domain.User{}, domain.ErrUserNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT id::text, name, email, password, created_at, updated_at
		FROM users WHERE id=$1`, id)
	return scanUser(row)
}

func (s *UserStore) UpdateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if !validID(user.ID) {
		return domain.User{}, domain.ErrUserNotFound
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET name=$2, email=$3, password=$4, updated_at=$5
		WHERE id=$1`,
		user.ID, user.Name, user.Email, user.Password, user.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.User{}, domain.ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
