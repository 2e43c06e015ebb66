package engine

// EffectKind tags one secondary effect contributed by a suit count or an
// invoked ability. The outcome resolver consumes effects generically; no
// per-ability conditional chain exists outside this tagging.
type EffectKind uint8

const (
	EffectCritChance     EffectKind = iota // 0 — Spades channel
	EffectHeal                             // 1 — Hearts channel
	EffectRewardMult                       // 2 — Diamonds channel
	EffectMitigation                       // 3 — Clubs channel
	EffectRerollGrant                      // 4 — Reroll ability
	EffectRevealGrant                      // 5 — Peek ability
	EffectOrderOverride                    // 6 — Quick Draw ability
	EffectGuaranteedCrit                   // 7 — Deadly Aim ability
)

var effectNames = [8]string{
	"crit_chance", "heal", "reward_mult", "mitigation",
	"reroll_grant", "reveal_grant", "order_override", "guaranteed_crit",
}

func (k EffectKind) String() string {
	if int(k) < len(effectNames) {
		return effectNames[k]
	}
	return "unknown"
}

// Effect is one tagged effect variant in an outcome record.
type Effect struct {
	Kind      EffectKind
	Magnitude float64
}
