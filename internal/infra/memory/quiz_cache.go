package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizzie-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizCache keeps loaded quizzes in process with a TTL to avoid repeated store hits.
type QuizCache struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
	// gens counts invalidations per quiz so a load that raced one is not cached.
	gens map[string]uint64
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
		gens:   make(map[string]uint64),
	}
}

// GetQuiz returns a private copy of the quiz, loading it on a miss.
func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.lookup(quizID); ok {
		return quiz.Clone(), nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		if quiz, ok := c.lookup(quizID); ok {
			return quiz, nil
		}
		now := c.clock()
		c.mu.RLock()
		gen := c.gens[quizID]
		c.mu.RUnlock()
		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			c.mu.Lock()
			if c.gens[quizID] == gen {
				c.cache[quizID] = cachedQuiz{quiz: quiz, expiresAt: now.Add(ttl)}
			}
			c.mu.Unlock()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz).Clone(), nil
}

// Invalidate drops the cached entry so the next read reloads it.
func (c *QuizCache) Invalidate(_ context.Context, quizID string) {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.gens[quizID]++
	c.mu.Unlock()
	c.sf.Forget(quizID)
}

func (c *QuizCache) lookup(quizID string) (domain.Quiz, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
