package engine

import "time"

// ActionRules holds per-action-kind tuning for a resolution session.
type ActionRules struct {
	Kind            ActionKind
	RedrawCycles    uint8         // base redraw cycles before Reroll grants
	DecisionTimeout time.Duration // 0 disables the auto-resolve timer
	TimeoutForfeit  bool          // forfeit on timeout instead of default hold
	BaseSuitWeight  float64       // pre-modifier weight per suit
	SuitBonusRates  [NumSuits]float64
}

// DefaultRules returns the standard tuning for an action kind. Duels
// forfeit the stalled side on timeout; solo kinds auto-submit the empty
// hold set instead.
func DefaultRules(kind ActionKind) ActionRules {
	r := ActionRules{
		Kind:            kind,
		RedrawCycles:    1,
		DecisionTimeout: 30 * time.Second,
		BaseSuitWeight:  1.0,
		SuitBonusRates: [NumSuits]float64{
			SuitSpades:   0.05, // +5% crit per spade
			SuitHearts:   2.0,  // +2 restoration per heart
			SuitDiamonds: 0.04, // +4% reward per diamond
			SuitClubs:    1.5,  // +1.5 mitigation per club
		},
	}
	if kind == KindDuel {
		r.TimeoutForfeit = true
	}
	return r
}
