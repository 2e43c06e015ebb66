// Package cache publishes resolution-session events to Redis for
// realtime consumers (duel spectators, activity feeds) and queues sealed
// outcome records for the historian.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionEventChannel is the pub/sub channel for session progress.
	SessionEventChannel = "deckhand:session_events"
	// OutcomeQueueKey is the list sealed outcome records are pushed to.
	OutcomeQueueKey = "deckhand:outcomes"
)

// Rdb is the shared Redis client, initialized by InitRedis. Nil when
// Redis is not configured; publishers must tolerate that.
var Rdb *redis.Client

// InitRedis connects the package-level client and verifies the address.
func InitRedis(ctx context.Context, addr, password string) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", addr, err)
	}
	Rdb = client
	return nil
}

// SessionEventRecord is the wire form of one session event. Payload
// never contains hand contents before resolution; the session layer
// enforces that.
type SessionEventRecord struct {
	SessionID uuid.UUID              `json:"sessionId"`
	Seq       int                    `json:"seq"`
	EventType string                 `json:"eventType"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// PublishSessionEvent sends one event record to the session channel.
func PublishSessionEvent(ctx context.Context, rec SessionEventRecord) error {
	if Rdb == nil {
		return fmt.Errorf("redis client not initialized")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	if err := Rdb.Publish(ctx, SessionEventChannel, data).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}

// QueueOutcome pushes a sealed outcome record onto the historian queue.
func QueueOutcome(ctx context.Context, record interface{}) error {
	if Rdb == nil {
		return fmt.Errorf("redis client not initialized")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal outcome record: %w", err)
	}
	if err := Rdb.RPush(ctx, OutcomeQueueKey, data).Err(); err != nil {
		return fmt.Errorf("queue outcome record: %w", err)
	}
	return nil
}
