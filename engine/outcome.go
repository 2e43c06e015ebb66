package engine

import "fmt"

// LegResult is one participant's share of a sealed outcome.
type LegResult struct {
	Hand       [HandSize]Card
	Rank       HandRank
	Multiplier float64
	SuitCounts [NumSuits]uint8
	Bonuses    SuitBonuses
	Effects    []Effect
	// Score is the graded payoff: multiplier × caller-supplied base
	// value, scaled by the Diamonds reward channel. The remaining
	// channels (crit, heal, mitigation) are reported for the calling
	// subsystem to apply in its own terms.
	Score     float64
	Order     uint8 // action sequencing slot; Quick Draw forces 0
	Forfeited bool
	Abilities []AbilityID
}

// Result is the engine-level outcome of a resolved session. The
// orchestration layer wraps it with identity, sequence number and
// pass-through modifier annotations to form the immutable OutcomeRecord.
type Result struct {
	Legs    [MaxLegs]LegResult
	NumLegs uint8
	// Winner is the winning leg index in a duel, or -1 for PvE sessions
	// and exact ties.
	Winner  int8
	Forfeit bool
}

// Resolve seals the session: the hand evaluator, suit-bonus calculator
// and ability effects run in that order for each leg, the session moves
// to Terminal, and further mutation is impossible. Deadly Aim is
// consumed here — armed state does not survive resolution.
func (s *State) Resolve(baseValues [MaxLegs]float64) (Result, error) {
	if s.Phase == PhaseTerminal {
		return Result{}, fmt.Errorf("%w: session already resolved", ErrWrongPhase)
	}
	if s.Phase != PhaseResolution {
		return Result{}, fmt.Errorf("%w: session is in %s, not resolution", ErrWrongPhase, s.Phase)
	}

	res := Result{NumLegs: s.NumLegs, Winner: -1}
	for i := uint8(0); i < s.NumLegs; i++ {
		l := &s.Legs[i]
		lr := LegResult{
			Hand:      l.Hand,
			Forfeited: l.Forfeited,
			Order:     i,
		}
		if l.Forfeited {
			res.Forfeit = true
			res.Legs[i] = lr
			continue
		}

		lr.Rank = Evaluate(l.Hand)
		lr.Multiplier = lr.Rank.Category.Multiplier()
		lr.SuitCounts = SuitCounts(l.Hand)
		lr.Bonuses = ComputeSuitBonuses(l.Hand, s.Rules.SuitBonusRates)

		lr.Effects = append(lr.Effects,
			Effect{Kind: EffectCritChance, Magnitude: lr.Bonuses.CritChance},
			Effect{Kind: EffectHeal, Magnitude: lr.Bonuses.Heal},
			Effect{Kind: EffectRewardMult, Magnitude: lr.Bonuses.RewardMult},
			Effect{Kind: EffectMitigation, Magnitude: lr.Bonuses.Mitigation},
		)

		for id := AbilityID(0); id < NumAbilities; id++ {
			if l.InvokedAbility(id) {
				lr.Abilities = append(lr.Abilities, id)
			}
		}
		if l.InvokedAbility(AbilityReroll) {
			lr.Effects = append(lr.Effects, Effect{Kind: EffectRerollGrant, Magnitude: 1})
		}
		if l.InvokedAbility(AbilityPeek) {
			lr.Effects = append(lr.Effects, Effect{Kind: EffectRevealGrant, Magnitude: 1})
		}
		if l.QuickDraw {
			lr.Order = 0
			lr.Effects = append(lr.Effects, Effect{Kind: EffectOrderOverride, Magnitude: 1})
		}
		if l.DeadlyAim {
			lr.Bonuses.CritChance = 1.0
			lr.Effects = append(lr.Effects, Effect{Kind: EffectGuaranteedCrit, Magnitude: 1})
			l.DeadlyAim = false
		}

		lr.Score = lr.Multiplier * baseValues[i] * (1 + lr.Bonuses.RewardMult)
		res.Legs[i] = lr
	}

	// Quick Draw pushes a leg to slot 0. Ordering must stay a
	// permutation: when both legs claim slot 0 (double Quick Draw, or a
	// forfeited leg 0 keeping its index slot), the leg that invoked
	// Quick Draw takes it, lower index breaking the tie.
	if s.NumLegs == MaxLegs && res.Legs[0].Order == res.Legs[1].Order {
		if s.Legs[1].QuickDraw && !s.Legs[0].QuickDraw {
			res.Legs[0].Order = 1
		} else {
			res.Legs[1].Order = 1
		}
	}

	if s.NumLegs == MaxLegs {
		res.Winner = duelWinner(&res)
	}

	s.Phase = PhaseTerminal
	return res, nil
}

// Invoked reports whether the ability appears in the leg result.
func (r *LegResult) Invoked(id AbilityID) bool {
	for _, a := range r.Abilities {
		if a == id {
			return true
		}
	}
	return false
}

// duelWinner compares the two legs: a forfeited leg loses outright,
// otherwise standard poker precedence decides, with -1 on an exact tie.
func duelWinner(res *Result) int8 {
	a, b := &res.Legs[0], &res.Legs[1]
	switch {
	case a.Forfeited && b.Forfeited:
		return -1
	case a.Forfeited:
		return 1
	case b.Forfeited:
		return 0
	}
	switch c := Compare(a.Rank, b.Rank); {
	case c > 0:
		return 0
	case c < 0:
		return 1
	}
	return -1
}
