package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"quizzie-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from the backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

var errInvalidated = errors.New("quiz invalidated during load")

// getter is satisfied by both a client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// QuizCache caches whole quizzes in Redis as JSON and falls back to a loader on a miss.
// Quizzes are stored as: SET quiz:{quizID} {json} EX ttl
// Invalidations bump: INCR quiz:{quizID}:gen
type QuizCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizCache(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.lookup(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if quiz, ok := c.lookup(ctx, quizID); ok {
			return quiz, nil
		}
		gen, genErr := c.generation(ctx, c.client, quizID)
		if genErr != nil {
			log.Printf("read cache generation of quiz %s: %v", quizID, genErr)
		}
		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if genErr == nil {
			c.store(ctx, quizID, quiz, gen)
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz).Clone(), nil
}

// store caches quiz unless an Invalidate ran since gen was read, so a load that
// raced with an update never puts the old questions back.
func (c *QuizCache) store(ctx context.Context, quizID string, quiz domain.Quiz, gen int64) {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(quiz)
	if err != nil {
		log.Printf("cache quiz %s: %v", quizID, err)
		return
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if current != gen {
			return errInvalidated
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(quizID), payload, ttl)
			return nil
		})
		return err
	}, c.genKey(quizID))
	if err != nil && !errors.Is(err, errInvalidated) && !errors.Is(err, redis.TxFailedErr) {
		log.Printf("cache quiz %s: %v", quizID, err)
	}
}

// Invalidate removes the cached copy and bumps the quiz generation.
// Failures are logged; the TTL bounds staleness.
func (c *QuizCache) Invalidate(ctx context.Context, quizID string) {
	c.sf.Forget(quizID)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.genKey(quizID))
	pipe.Expire(ctx, c.genKey(quizID), c.genTTL())
	pipe.Del(ctx, c.key(quizID))
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("invalidate quiz %s: %v", quizID, err)
	}
}

func (c *QuizCache) generation(ctx context.Context, r getter, quizID string) (int64, error) {
	gen, err := r.Get(ctx, c.genKey(quizID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// genTTL keeps the generation around longer than any cached copy could live.
func (c *QuizCache) genTTL() time.Duration {
	if c.ttl < time.Minute {
		return 2 * time.Minute
	}
	return 2 * c.ttl
}

func (c *QuizCache) genKey(quizID string) string {
	return "quiz:" + quizID + ":gen"
}

func (c *QuizCache) lookup(ctx context.Context, quizID string) (domain.Quiz, bool) {
	payload, err := c.client.Get(ctx, c.key(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached quiz %s: %v", quizID, err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(payload, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(quizID string) string {
	return "quiz:" + quizID
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
