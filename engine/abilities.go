package engine

import (
	"fmt"
	"time"
)

// AbilityID identifies one special ability in the catalog.
type AbilityID uint8

const (
	AbilityReroll    AbilityID = iota // 0 — extra redraw cycle
	AbilityPeek                       // 1 — reveal opponent hand pre-commit
	AbilityQuickDraw                  // 2 — act first in outcome ordering
	AbilityDeadlyAim                  // 3 — next Spades crit guaranteed

	NumAbilities = 4
)

var abilityNames = [NumAbilities]string{"reroll", "peek", "quick_draw", "deadly_aim"}

func (a AbilityID) String() string {
	if int(a) < NumAbilities {
		return abilityNames[a]
	}
	return "unknown"
}

// AbilitySpec describes unlock gating and cooldown for one ability.
// Cooldowns are tracked per participant, not per session, so they carry
// across resolution sessions.
type AbilitySpec struct {
	ID             AbilityID
	UnlockLevel    int
	Cooldown       time.Duration
	OncePerSession bool
	RequiresPvP    bool
}

// abilityCatalog holds the canonical ability set. Cooldown durations are
// tuning values.
var abilityCatalog = [NumAbilities]AbilitySpec{
	{ID: AbilityReroll, UnlockLevel: 30, Cooldown: 5 * time.Minute, OncePerSession: true},
	{ID: AbilityPeek, UnlockLevel: 50, Cooldown: 10 * time.Minute, RequiresPvP: true},
	{ID: AbilityQuickDraw, UnlockLevel: 60, Cooldown: 3 * time.Minute},
	{ID: AbilityDeadlyAim, UnlockLevel: 75, Cooldown: 15 * time.Minute},
}

// AbilityByID looks up a catalog entry.
func AbilityByID(id AbilityID) (AbilitySpec, error) {
	if int(id) >= NumAbilities {
		return AbilitySpec{}, fmt.Errorf("unknown ability id %d", id)
	}
	return abilityCatalog[id], nil
}

// Abilities returns the full catalog in unlock order.
func Abilities() []AbilitySpec {
	out := make([]AbilitySpec, NumAbilities)
	copy(out, abilityCatalog[:])
	return out
}

// CheckUnlock gates an ability on the participant's level.
func CheckUnlock(spec AbilitySpec, level int) error {
	if level < spec.UnlockLevel {
		return fmt.Errorf("%w: %s unlocks at level %d (participant level %d)",
			ErrAbilityLocked, spec.ID, spec.UnlockLevel, level)
	}
	return nil
}

// CheckCooldown verifies now >= lastUsed + cooldown. The zero lastUsed
// means never used. An invocation exactly at the expiry instant is
// accepted. The atomic read-check-write against the shared cooldown
// store lives in the store implementation; this is the pure rule.
func CheckCooldown(spec AbilitySpec, lastUsed, now time.Time) error {
	if lastUsed.IsZero() {
		return nil
	}
	ready := lastUsed.Add(spec.Cooldown)
	if now.Before(ready) {
		return &CooldownError{Ability: spec.ID, Remaining: ready.Sub(now)}
	}
	return nil
}
