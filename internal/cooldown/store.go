// Package cooldown tracks per-participant ability cooldowns. This is the
// only mutable state shared across resolution sessions, so acquisition
// is an atomic check-and-set: two near-simultaneous invocations can
// never both pass the cooldown check.
package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kc92/Desperado-s-Destiny-sub003/engine"
)

// Store is the cooldown state keyed by (participant, ability).
type Store interface {
	// Acquire records an invocation at now if the ability is off
	// cooldown, returning the remaining wait otherwise. The check and
	// the write are one atomic step.
	Acquire(ctx context.Context, participantID uuid.UUID, ability engine.AbilityID, cd time.Duration, now time.Time) (time.Duration, error)

	// Release undoes an acquisition whose invocation failed validation
	// downstream (e.g. Peek in a solo session), restoring the previous
	// last-used timestamp.
	Release(ctx context.Context, participantID uuid.UUID, ability engine.AbilityID) error
}

type cdKey struct {
	participant uuid.UUID
	ability     engine.AbilityID
}

// MemoryStore is the in-process Store. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	lastUsed map[cdKey]time.Time
	prior    map[cdKey]time.Time
}

// NewMemoryStore returns an empty in-process cooldown store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lastUsed: make(map[cdKey]time.Time),
		prior:    make(map[cdKey]time.Time),
	}
}

// Acquire implements Store.
func (m *MemoryStore) Acquire(_ context.Context, participantID uuid.UUID, ability engine.AbilityID, cd time.Duration, now time.Time) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := cdKey{participant: participantID, ability: ability}
	if last, ok := m.lastUsed[key]; ok {
		ready := last.Add(cd)
		if now.Before(ready) {
			return ready.Sub(now), nil
		}
	}
	m.prior[key] = m.lastUsed[key]
	m.lastUsed[key] = now
	return 0, nil
}

// Release implements Store.
func (m *MemoryStore) Release(_ context.Context, participantID uuid.UUID, ability engine.AbilityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := cdKey{participant: participantID, ability: ability}
	if prior, ok := m.prior[key]; ok && !prior.IsZero() {
		m.lastUsed[key] = prior
	} else {
		delete(m.lastUsed, key)
	}
	delete(m.prior, key)
	return nil
}
