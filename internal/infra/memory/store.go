package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizzie-service/internal/domain"

	"github.com/google/uuid"
)

// Store is an in-memory implementation of app.QuizStore and app.UserStore.
// It backs tests and single-process runs without external services.
type Store struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	users   map[string]domain.User
}

func NewStore() *Store {
	return &Store{
		quizzes: make(map[string]domain.Quiz),
		users:   make(map[string]domain.User),
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz = quiz.Clone()
	quiz.ID = uuid.NewString()
	s.quizzes[quiz.ID] = quiz
	return quiz.Clone(), nil
}

func (s *Store) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

func (s *Store) FindOwnedQuiz(_ context.Context, quizID, ownerID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.owned(quizID, ownerID)
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

func (s *Store) ReplaceQuestions(_ context.Context, quizID, ownerID string, questions []domain.Question, updatedAt time.Time) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.owned(quizID, ownerID)
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.Questions = domain.CloneQuestions(questions)
	domain.ResetCounters(quiz.Questions)
	quiz.UpdatedAt = updatedAt
	s.quizzes[quizID] = quiz
	return quiz.Clone(), nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owned(quizID, ownerID); !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}

func (s *Store) IncrementViews(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	quiz.Views++
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) ApplyTally(_ context.Context, quizID string, revision time.Time, tally domain.Tally) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	if !quiz.UpdatedAt.Equal(revision) {
		return domain.ErrStaleQuiz
	}
	tally.Apply(&quiz)
	s.quizzes[quizID] = quiz
	return nil
}

func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byOwner(ownerID), nil
}

func (s *Store) Trending(_ context.Context, ownerID string, minViews int) (domain.TrendingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SummarizeTrending(domain.SelectTrending(s.byOwner(ownerID), minViews)), nil
}

func (s *Store) QuestionAnalysis(_ context.Context, quizID, ownerID string) (domain.QuizAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.owned(quizID, ownerID)
	if !ok {
		return domain.QuizAnalysis{}, domain.ErrQuizNotFound
	}
	return domain.Analyze(quiz), nil
}

func (s *Store) owned(quizID, ownerID string) (domain.Quiz, bool) {
	quiz, ok := s.quizzes[quizID]
	if !ok || ownerID == "" || quiz.Owner != ownerID {
		return domain.Quiz{}, false
	}
	return quiz, true
}

// byOwner returns copies ordered by creation time.
func (s *Store) byOwner(ownerID string) []domain.Quiz {
	out := []domain.Quiz{}
	for _, quiz := range s.quizzes {
		if ownerID != "" && quiz.Owner == ownerID {
			out = append(out, quiz.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(user.Email, "") {
		return domain.User{}, domain.ErrEmailTaken
	}
	user.ID = uuid.NewString()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) FindUserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if s.emailTaken(user.Email, user.ID) {
		return domain.User{}, domain.ErrEmailTaken
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) emailTaken(email, exceptID string) bool {
	for id, user := range s.users {
		if id != exceptID && user.Email == email {
			return true
		}
	}
	return false
}
