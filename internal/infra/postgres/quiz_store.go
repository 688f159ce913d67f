package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizzie-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const quizColumns = `id::text, owner_id::text, quiz_name, quiz_type, questions, views, created_at, updated_at`

// QuizStore keeps quizzes in Postgres with the question tree as JSONB.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	quiz = quiz.Clone()
	quiz.ID = uuid.NewString()
	raw, err := json.Marshal(quiz.Questions)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal questions: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, owner_id, quiz_name, quiz_type, questions, views, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		quiz.ID, quiz.Owner, quiz.QuizName, string(quiz.QuizType), raw, quiz.Views, quiz.CreatedAt, quiz.UpdatedAt)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if !validID(quizID) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, quizID)
	return scanQuiz(row)
}

func (s *QuizStore) FindOwnedQuiz(ctx context.Context, quizID, ownerID string) (domain.Quiz, error) {
	if !validID(quizID) || !validID(ownerID) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1 AND owner_id=$2`, quizID, ownerID)
	return scanQuiz(row)
}

func (s *QuizStore) ReplaceQuestions(ctx context.Context, quizID, ownerID string, questions []domain.Question, updatedAt time.Time) (domain.Quiz, error) {
	if !validID(quizID) || !validID(ownerID) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	questions = domain.CloneQuestions(questions)
	domain.ResetCounters(questions)
	raw, err := json.Marshal(questions)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal questions: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE quizzes SET questions=$3, updated_at=$4
		WHERE id=$1 AND owner_id=$2
		RETURNING `+quizColumns, quizID, ownerID, raw, updatedAt)
	return scanQuiz(row)
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID, ownerID string) error {
	if !validID(quizID) || !validID(ownerID) {
		return domain.ErrQuizNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1 AND owner_id=$2`, quizID, ownerID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) IncrementViews(ctx context.Context, quizID string) error {
	if !validID(quizID) {
		return domain.ErrQuizNotFound
	}
	tag, err := s.pool.Exec(ctx, `UPDATE quizzes SET views = views + 1 WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// ApplyTally locks the row, checks the revision and rewrites the counters in one transaction.
func (s *QuizStore) ApplyTally(ctx context.Context, quizID string, revision time.Time, tally domain.Tally) error {
	if !validID(quizID) {
		return domain.ErrQuizNotFound
	}
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1 FOR UPDATE`, quizID)
		quiz, err := scanQuiz(row)
		if err != nil {
			return err
		}
		if !quiz.UpdatedAt.Equal(revision) {
			return domain.ErrStaleQuiz
		}
		tally.Apply(&quiz)
		raw, err := json.Marshal(quiz.Questions)
		if err != nil {
			return fmt.Errorf("marshal questions: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE quizzes SET questions=$2 WHERE id=$1`, quizID, raw); err != nil {
			return fmt.Errorf("apply tally: %w", err)
		}
		return nil
	})
}

func (s *QuizStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	if !validID(ownerID) {
		return []domain.Quiz{}, nil
	}
	return s.query(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE owner_id=$1 ORDER BY created_at, id`, ownerID)
}

func (s *QuizStore) Trending(ctx context.Context, ownerID string, minViews int) (domain.TrendingSummary, error) {
	if !validID(ownerID) {
		return domain.SummarizeTrending(nil), nil
	}
	quizzes, err := s.query(ctx, `
		SELECT `+quizColumns+` FROM quizzes
		WHERE owner_id=$1 AND views > $2
		ORDER BY views DESC, created_at, id`, ownerID, minViews)
	if err != nil {
		return domain.TrendingSummary{}, err
	}
	return domain.SummarizeTrending(quizzes), nil
}

func (s *QuizStore) QuestionAnalysis(ctx context.Context, quizID, ownerID string) (domain.QuizAnalysis, error) {
	quiz, err := s.FindOwnedQuiz(ctx, quizID, ownerID)
	if err != nil {
		return domain.QuizAnalysis{}, err
	}
	return domain.Analyze(quiz), nil
}

func (s *QuizStore) query(ctx context.Context, sql string, args ...interface{}) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	out := []domain.Quiz{}
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, quiz)
	}
	return out, rows.Err()
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz     domain.Quiz
		quizType string
		raw      []byte
	)
	err := row.Scan(&quiz.ID, &quiz.Owner, &quiz.QuizName, &quizType, &raw, &quiz.Views, &quiz.CreatedAt, &quiz.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("scan quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	quiz.QuizType = domain.QuizType(quizType)
	quiz.CreatedAt = quiz.CreatedAt.UTC()
	quiz.UpdatedAt = quiz.UpdatedAt.UTC()
	return quiz, nil
}

// validID filters ids Postgres would reject as malformed uuids.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
