package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"quizzie-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const analysisChannel = "quiz:analysis"

// LiveBroker shares live analysis watchers and snapshots between instances.
// Watchers are tracked per quiz as: ZADD quiz:live:{quizID} {expiresAtMs} {instanceID}
// Each instance refreshes its own members while it has watchers, so an entry left by
// a crashed instance ages out without touching the others.
type LiveBroker struct {
	client   *redis.Client
	ttl      time.Duration
	instance string
	now      func() time.Time

	mu      sync.Mutex
	watched map[string]struct{}
}

type liveSnapshot struct {
	QuizID   string              `json:"quizId"`
	Analysis domain.QuizAnalysis `json:"analysis"`
}

func NewLiveBroker(client *redis.Client, ttl time.Duration) *LiveBroker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LiveBroker{
		client:   client,
		ttl:      ttl,
		instance: uuid.NewString(),
		now:      time.Now,
		watched:  make(map[string]struct{}),
	}
}

func (b *LiveBroker) Watching(quizID string) {
	b.mu.Lock()
	b.watched[quizID] = struct{}{}
	b.mu.Unlock()
	if err := b.mark(context.Background(), quizID); err != nil {
		log.Printf("mark quiz %s live: %v", quizID, err)
	}
}

func (b *LiveBroker) Idle(quizID string) {
	b.mu.Lock()
	delete(b.watched, quizID)
	b.mu.Unlock()
	if err := b.client.ZRem(context.Background(), b.key(quizID), b.instance).Err(); err != nil {
		log.Printf("clear live quiz %s: %v", quizID, err)
	}
}

// IsLive reports whether any instance has an unexpired watcher on the quiz.
func (b *LiveBroker) IsLive(ctx context.Context, quizID string) (bool, error) {
	key := b.key(quizID)
	cutoff := "(" + strconv.FormatInt(b.now().UnixMilli(), 10)
	pipe := b.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return card.Val() > 0, nil
}

// Publish sends a snapshot to the watchers of every instance.
func (b *LiveBroker) Publish(ctx context.Context, quizID string, analysis domain.QuizAnalysis) error {
	payload, err := json.Marshal(liveSnapshot{QuizID: quizID, Analysis: analysis})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, analysisChannel, payload).Err()
}

// Listen hands every published snapshot to deliver and keeps this instance's
// watcher entries fresh. It returns when ctx ends.
func (b *LiveBroker) Listen(ctx context.Context, deliver func(quizID string, analysis domain.QuizAnalysis)) error {
	sub := b.client.Subscribe(ctx, analysisChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", analysisChannel, err)
	}
	messages := sub.Channel()

	ticker := time.NewTicker(b.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.refresh(ctx)
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var snap liveSnapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
				log.Printf("decode live snapshot: %v", err)
				continue
			}
			deliver(snap.QuizID, snap.Analysis)
		}
	}
}

func (b *LiveBroker) refresh(ctx context.Context) {
	b.mu.Lock()
	ids := make([]string, 0, len(b.watched))
	for id := range b.watched {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	for _, id := range ids {
		if err := b.mark(ctx, id); err != nil {
			log.Printf("refresh live quiz %s: %v", id, err)
		}
	}
}

func (b *LiveBroker) mark(ctx context.Context, quizID string) error {
	key := b.key(quizID)
	expiresAt := b.now().Add(b.ttl).UnixMilli()
	pipe := b.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(expiresAt), Member: b.instance})
	pipe.Expire(ctx, key, b.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (b *LiveBroker) key(quizID string) string {
	return "quiz:live:" + quizID
}
