// Package database persists sealed outcome records to Postgres for
// audit and replay. Sessions themselves are ephemeral and never stored.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the shared connection pool, initialized by Connect. Nil when
// Postgres is not configured; persistence degrades to a no-op.
var DB *pgxpool.Pool

// Connect opens the pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("postgres ping: %w", err)
	}
	DB = pool
	return nil
}

// StoreOutcomeRecord inserts one sealed outcome as a JSONB document
// keyed by session id and sequence number. Records are immutable;
// conflicts on replay are ignored rather than updated.
func StoreOutcomeRecord(ctx context.Context, sessionID string, seq uint64, record interface{}) error {
	if DB == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal outcome record: %w", err)
	}
	_, err = DB.Exec(ctx, `
		INSERT INTO outcome_records (session_id, seq, record, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, seq, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outcome record: %w", err)
	}
	return nil
}

// StoreOutcomeRecordAsync persists in the background with a bounded
// timeout, logging failures instead of propagating them — resolution
// must not block on the audit trail.
func StoreOutcomeRecordAsync(log *logrus.Logger, sessionID string, seq uint64, record interface{}) {
	if DB == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := StoreOutcomeRecord(ctx, sessionID, seq, record); err != nil {
			log.WithError(err).WithField("session", sessionID).Error("failed to persist outcome record")
		}
	}()
}
