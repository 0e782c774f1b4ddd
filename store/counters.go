package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore maintains the denormalized per-business view/contact counters.
// These are a convenience projection for the directory UI; metrics computation
// always re-derives from raw events and never reads them.
type CounterStore interface {
	IncrementViews(ctx context.Context, subjectID, eventID string) error
	IncrementContacts(ctx context.Context, subjectID, eventID string) error
}

const counterDedupeTTL = 48 * time.Hour

// RedisCounterStore implements CounterStore on Redis. Increments are
// idempotent per event: a dedupe key carrying the event id guards each INCR.
type RedisCounterStore struct {
	Client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{Client: client}
}

func (s *RedisCounterStore) IncrementViews(ctx context.Context, subjectID, eventID string) error {
	return s.increment(ctx, "business:views:"+subjectID, eventID)
}

func (s *RedisCounterStore) IncrementContacts(ctx context.Context, subjectID, eventID string) error {
	return s.increment(ctx, "business:contacts:"+subjectID, eventID)
}

func (s *RedisCounterStore) increment(ctx context.Context, counterKey, eventID string) error {
	dedupeKey := "analytics:counted:" + eventID

	ok, err := s.Client.SetNX(ctx, dedupeKey, 1, counterDedupeTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve counter dedupe key: %w", err)
	}
	if !ok {
		// already counted this event
		return nil
	}

	if err := s.Client.Incr(ctx, counterKey).Err(); err != nil {
		return fmt.Errorf("failed to increment %s: %w", counterKey, err)
	}
	return nil
}

// Views reads a business's denormalized view counter. Missing keys read as 0.
func (s *RedisCounterStore) Views(ctx context.Context, subjectID string) (int64, error) {
	n, err := s.Client.Get(ctx, "business:views:"+subjectID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// Contacts reads a business's denormalized contact counter.
func (s *RedisCounterStore) Contacts(ctx context.Context, subjectID string) (int64, error) {
	n, err := s.Client.Get(ctx, "business:contacts:"+subjectID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
