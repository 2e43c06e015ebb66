package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kc92/Desperado-s-Destiny-sub003/engine"
)

// RedisStore shares cooldown state across processes. Acquisition uses
// SET NX with the cooldown as TTL, which makes the check-and-set atomic
// on the Redis side; while the key exists the ability is on cooldown.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func cooldownKey(participantID uuid.UUID, ability engine.AbilityID) string {
	return fmt.Sprintf("deckhand:cooldown:%s:%s", participantID, ability)
}

// Acquire implements Store.
func (r *RedisStore) Acquire(ctx context.Context, participantID uuid.UUID, ability engine.AbilityID, cd time.Duration, now time.Time) (time.Duration, error) {
	key := cooldownKey(participantID, ability)
	ok, err := r.rdb.SetNX(ctx, key, now.UnixMilli(), cd).Result()
	if err != nil {
		return 0, fmt.Errorf("cooldown acquire %s: %w", key, err)
	}
	if ok {
		return 0, nil
	}
	ttl, err := r.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cooldown ttl %s: %w", key, err)
	}
	if ttl < 0 {
		// Key expired between SETNX and PTTL; treat as a minimal wait
		// and let the caller retry.
		ttl = time.Millisecond
	}
	return ttl, nil
}

// Release implements Store.
func (r *RedisStore) Release(ctx context.Context, participantID uuid.UUID, ability engine.AbilityID) error {
	key := cooldownKey(participantID, ability)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cooldown release %s: %w", key, err)
	}
	return nil
}
