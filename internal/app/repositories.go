package app

import (
	"context"
	"io"
	"time"

	"quizzie-service/internal/domain"
)

// QuizStore persists quizzes. Lookups keyed by id and owner return
// domain.ErrQuizNotFound for both a missing quiz and a foreign one.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	FindOwnedQuiz(ctx context.Context, quizID, ownerID string) (domain.Quiz, error)
	ReplaceQuestions(ctx context.Context, quizID, ownerID string, questions []domain.Question, updatedAt time.Time) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID, ownerID string) error
	IncrementViews(ctx context.Context, quizID string) error
	// ApplyTally adds the counters atomically, provided the quiz still has the
	// given revision (UpdatedAt). Otherwise it returns domain.ErrStaleQuiz.
	ApplyTally(ctx context.Context, quizID string, revision time.Time, tally domain.Tally) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error)
	Trending(ctx context.Context, ownerID string, minViews int) (domain.TrendingSummary, error)
	QuestionAnalysis(ctx context.Context, quizID, ownerID string) (domain.QuizAnalysis, error)
}

// QuizCache is a read-through cache in front of QuizStore.LoadQuiz.
type QuizCache interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string)
}

// UserStore persists accounts. CreateUser and UpdateUser return
// domain.ErrEmailTaken when the email belongs to another account.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	FindUserByID(ctx context.Context, id string) (domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (domain.User, error)
}

// ImageStore keeps uploaded option images and returns their public URL.
type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// LiveBroker shares live analysis watchers and snapshots between service instances.
// Watching and Idle mark when this instance gains its first watcher of a quiz and loses its last.
type LiveBroker interface {
	Watching(quizID string)
	Idle(quizID string)
	IsLive(ctx context.Context, quizID string) (bool, error)
	Publish(ctx context.Context, quizID string, analysis domain.QuizAnalysis) error
	Listen(ctx context.Context, deliver func(quizID string, analysis domain.QuizAnalysis)) error
}
