package engine

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the resolution protocol. Callers branch with
// errors.Is; all decision and ability errors are recoverable within
// their phase unless noted single-use.
var (
	// ErrInvalidDecision reports a malformed hold-set.
	ErrInvalidDecision = errors.New("invalid decision")

	// ErrWrongPhase reports an action submitted outside its valid phase.
	ErrWrongPhase = errors.New("wrong phase")

	// ErrDeckExhausted reports a draw beyond the remaining pool. With a
	// 52-card pool and at most 10 cards per leg it is unreachable;
	// treated as an internal invariant failure, not a user error.
	ErrDeckExhausted = errors.New("deck exhausted")

	// ErrAbilityLocked reports an ability above the participant's level.
	ErrAbilityLocked = errors.New("ability locked")

	// ErrAbilityOnCooldown reports an ability invoked before its
	// cooldown expired. Wrapped by CooldownError to carry the remainder.
	ErrAbilityOnCooldown = errors.New("ability on cooldown")

	// ErrAbilityAlreadyUsed reports a single-use ability invoked twice
	// in one session.
	ErrAbilityAlreadyUsed = errors.New("ability already used this session")

	// ErrAbilityInvalidContext reports an ability invoked in a session
	// shape that cannot support it (e.g. Peek with no opponent).
	ErrAbilityInvalidContext = errors.New("ability invalid in this context")

	// ErrSessionNotFound reports an unknown or already-discarded session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionTimeout marks a session that auto-resolved after a
	// stalled decision. Not surfaced to end users; the outcome record
	// degrades to the default or forfeit result instead.
	ErrSessionTimeout = errors.New("session timed out")
)

// CooldownError wraps ErrAbilityOnCooldown with the remaining wait.
type CooldownError struct {
	Ability   AbilityID
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("ability %s on cooldown for %s", e.Ability, e.Remaining)
}

func (e *CooldownError) Unwrap() error { return ErrAbilityOnCooldown }
