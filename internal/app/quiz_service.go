package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"quizzie-service/internal/domain"
)

const maxTallyRetries = 3

// QuizService contains the quiz use cases: authoring, attempts and analytics.
type QuizService struct {
	store       QuizStore
	cache       QuizCache
	hub         *analysisHub
	broker      LiveBroker
	now         func() time.Time
	viewTimeout time.Duration

	pending sync.WaitGroup
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithClock replaces time.Now, for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithViewTimeout bounds each detached view increment.
func WithViewTimeout(d time.Duration) Option {
	return func(s *QuizService) {
		if d > 0 {
			s.viewTimeout = d
		}
	}
}

// WithLiveBroker shares live analysis with other instances. RelayLive must run
// for local watchers to receive snapshots.
func WithLiveBroker(b LiveBroker) Option {
	return func(s *QuizService) {
		if b != nil {
			s.broker = b
			s.hub.registry = b
		}
	}
}

func NewQuizService(store QuizStore, cache QuizCache, opts ...Option) *QuizService {
	s := &QuizService{
		store:       store,
		cache:       cache,
		hub:         newAnalysisHub(),
		now:         time.Now,
		viewTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is truncated to milliseconds so revisions survive every store's precision.
func (s *QuizService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// nextRevision is strictly after prev even when the clock has not moved past it.
func (s *QuizService) nextRevision(prev time.Time) time.Time {
	now := s.timestamp()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

// Create validates the quiz tree and stores it for ownerID.
func (s *QuizService) Create(ctx context.Context, ownerID string, in domain.QuizInput) (domain.Quiz, error) {
	if err := domain.CheckQuiz(in); err != nil {
		return domain.Quiz{}, err
	}
	quiz := in.Build(ownerID)
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	now := s.timestamp()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	return s.store.CreateQuiz(ctx, quiz)
}

// Update replaces the whole question list of an owned quiz. Counters start over.
func (s *QuizService) Update(ctx context.Context, quizID, ownerID string, questions []domain.QuestionInput) (domain.Quiz, error) {
	existing, err := s.store.FindOwnedQuiz(ctx, quizID, ownerID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := domain.CheckQuestions(existing.QuizType, questions); err != nil {
		return domain.Quiz{}, err
	}
	candidate := existing
	candidate.Questions = domain.BuildQuestions(questions)
	if err := domain.ValidateQuiz(candidate); err != nil {
		return domain.Quiz{}, err
	}
	updated, err := s.store.ReplaceQuestions(ctx, quizID, ownerID, candidate.Questions, s.nextRevision(existing.UpdatedAt))
	if err != nil {
		return domain.Quiz{}, err
	}
	s.cache.Invalidate(ctx, quizID)
	return updated, nil
}

// Delete removes an owned quiz.
func (s *QuizService) Delete(ctx context.Context, quizID, ownerID string) error {
	if err := s.store.DeleteQuiz(ctx, quizID, ownerID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, quizID)
	return nil
}

// Get is the public read. It counts a view without waiting for the write.
func (s *QuizService) Get(ctx context.Context, quizID string) (domain.QuizView, error) {
	quiz, err := s.cache.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizView{}, err
	}
	s.recordView(quizID)
	return quiz.View(), nil
}

func (s *QuizService) recordView(quizID string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.viewTimeout)
		defer cancel()
		if err := s.store.IncrementViews(ctx, quizID); err != nil {
			log.Printf("increment views for quiz %s: %v", quizID, err)
		}
	}()
}

// Drain waits for detached view increments to finish.
func (s *QuizService) Drain() {
	s.pending.Wait()
}

// RecordQNA scores a submission and returns the number of correct answers.
func (s *QuizService) RecordQNA(ctx context.Context, quizID string, answers []*int) (int, error) {
	tally, err := s.recordAttempt(ctx, quizID, func(q domain.Quiz) domain.Tally {
		return domain.TallyQNA(q, answers)
	})
	if err != nil {
		return 0, err
	}
	return tally.Score, nil
}

// RecordPoll counts the votes of a submission.
func (s *QuizService) RecordPoll(ctx context.Context, quizID string, answers []*int) error {
	_, err := s.recordAttempt(ctx, quizID, func(q domain.Quiz) domain.Tally {
		return domain.TallyPoll(q, answers)
	})
	return err
}

func (s *QuizService) recordAttempt(ctx context.Context, quizID string, tallyFn func(domain.Quiz) domain.Tally) (domain.Tally, error) {
	for attempt := 1; ; attempt++ {
		quiz, err := s.cache.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Tally{}, err
		}
		tally := tallyFn(quiz)
		if tally.Empty() {
			return tally, nil
		}
		err = s.store.ApplyTally(ctx, quizID, quiz.UpdatedAt, tally)
		switch {
		case errors.Is(err, domain.ErrStaleQuiz) && attempt < maxTallyRetries:
			s.cache.Invalidate(ctx, quizID)
			continue
		case err != nil:
			s.cache.Invalidate(ctx, quizID)
			return domain.Tally{}, err
		}
		s.cache.Invalidate(ctx, quizID)
		s.publishAnalysis(ctx, quiz)
		return tally, nil
	}
}

func (s *QuizService) publishAnalysis(ctx context.Context, quiz domain.Quiz) {
	if !s.watched(ctx, quiz.ID) {
		return
	}
	analysis, err := s.store.QuestionAnalysis(ctx, quiz.ID, quiz.Owner)
	if err != nil {
		log.Printf("refresh analysis for quiz %s: %v", quiz.ID, err)
		return
	}
	if s.broker != nil {
		err := s.broker.Publish(ctx, quiz.ID, analysis)
		if err == nil {
			return
		}
		log.Printf("publish analysis for quiz %s: %v", quiz.ID, err)
	}
	s.hub.broadcast(quiz.ID, analysis)
}

func (s *QuizService) watched(ctx context.Context, quizID string) bool {
	if s.hub.hasSubscribers(quizID) {
		return true
	}
	if s.broker == nil {
		return false
	}
	live, err := s.broker.IsLive(ctx, quizID)
	if err != nil {
		log.Printf("check live watchers for quiz %s: %v", quizID, err)
		return false
	}
	return live
}

// RelayLive delivers snapshots published by any instance to the local watchers.
// It blocks until ctx ends and returns immediately without a broker.
func (s *QuizService) RelayLive(ctx context.Context) error {
	if s.broker == nil {
		return nil
	}
	return s.broker.Listen(ctx, s.hub.broadcast)
}

// Trending summarizes the owner's quizzes with more than ten views.
func (s *QuizService) Trending(ctx context.Context, ownerID string) (domain.TrendingSummary, error) {
	summary, err := s.store.Trending(ctx, ownerID, domain.TrendingMinViews)
	if err != nil {
		return domain.TrendingSummary{}, err
	}
	if summary.TotalQuizzes == 0 {
		return domain.TrendingSummary{}, domain.ErrNoQuizFound
	}
	return summary, nil
}

// History lists every quiz of the owner, oldest first.
func (s *QuizService) History(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	quizzes, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return nil, domain.ErrNoQuizFound
	}
	return quizzes, nil
}

// Analysis returns per-question counters of an owned quiz.
func (s *QuizService) Analysis(ctx context.Context, quizID, ownerID string) (domain.QuizAnalysis, error) {
	return s.store.QuestionAnalysis(ctx, quizID, ownerID)
}

// Subscribe streams analysis snapshots of an owned quiz, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, quizID, ownerID string) (<-chan domain.QuizAnalysis, func(), error) {
	analysis, err := s.store.QuestionAnalysis(ctx, quizID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.subscribe(quizID, analysis)
	return ch, cancel, nil
}
