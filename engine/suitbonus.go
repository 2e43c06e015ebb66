package engine

// Suit effect channels. Each suit in the final hand feeds exactly one
// channel; all four channels are computed for every hand.
//
//	Spades   → critical-hit probability
//	Hearts   → healing/restoration amount
//	Diamonds → currency/reward multiplier
//	Clubs    → defensive mitigation
type SuitBonuses struct {
	CritChance float64 // Spades, capped at 1.0
	Heal       float64 // Hearts
	RewardMult float64 // Diamonds
	Mitigation float64 // Clubs
}

// SuitCounts tallies the suits of the final 5-card hand.
func SuitCounts(hand [HandSize]Card) [NumSuits]uint8 {
	var counts [NumSuits]uint8
	for _, c := range hand {
		if s := c.Suit(); s < NumSuits {
			counts[s]++
		}
	}
	return counts
}

// ComputeSuitBonuses converts per-suit counts into channel magnitudes:
// effect(suit) = countOf(suit) * rates[suit]. Crit chance is clamped to
// [0, 1] since it is a probability; the other channels are open-ended.
func ComputeSuitBonuses(hand [HandSize]Card, rates [NumSuits]float64) SuitBonuses {
	counts := SuitCounts(hand)
	b := SuitBonuses{
		CritChance: float64(counts[SuitSpades]) * rates[SuitSpades],
		Heal:       float64(counts[SuitHearts]) * rates[SuitHearts],
		RewardMult: float64(counts[SuitDiamonds]) * rates[SuitDiamonds],
		Mitigation: float64(counts[SuitClubs]) * rates[SuitClubs],
	}
	if b.CritChance > 1.0 {
		b.CritChance = 1.0
	}
	return b
}
