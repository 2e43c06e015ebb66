package engine

import "sort"

// HandCategory is the canonical poker ranking of a 5-card hand.
type HandCategory uint8

const (
	HighCard      HandCategory = iota // 0
	Pair                              // 1
	TwoPair                           // 2
	ThreeOfAKind                      // 3
	Straight                          // 4
	Flush                             // 5
	FullHouse                         // 6
	FourOfAKind                       // 7
	StraightFlush                     // 8
	RoyalFlush                        // 9
)

var categoryNames = [10]string{
	"high_card", "pair", "two_pair", "three_of_a_kind", "straight",
	"flush", "full_house", "four_of_a_kind", "straight_flush", "royal_flush",
}

func (c HandCategory) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// categoryMultipliers is the fixed outcome multiplier per category,
// strictly monotonic with the category ordering.
var categoryMultipliers = [10]float64{
	1.0,  // HighCard
	1.25, // Pair
	1.5,  // TwoPair
	1.75, // ThreeOfAKind
	2.0,  // Straight
	2.25, // Flush
	2.5,  // FullHouse
	3.0,  // FourOfAKind
	4.0,  // StraightFlush
	5.0,  // RoyalFlush
}

// Multiplier returns the outcome multiplier for this category.
func (c HandCategory) Multiplier() float64 {
	if int(c) < len(categoryMultipliers) {
		return categoryMultipliers[c]
	}
	return 0
}

// HandRank is a fully ordered evaluation of a 5-card hand. TieBreak holds
// the constituent ranks in comparison order (group ranks first, then
// kickers descending); comparing two HandRanks of the same category walks
// TieBreak left to right per standard poker precedence.
type HandRank struct {
	Category HandCategory
	TieBreak [HandSize]uint8
}

// Evaluate ranks a 5-card hand. The Ace is high for straights and the
// royal flush, and additionally completes the low "wheel" straight
// A-2-3-4-5, where it ranks below the Two for tie-break purposes.
func Evaluate(hand [HandSize]Card) HandRank {
	var rankCount [15]uint8
	var suitCount [NumSuits]uint8
	for _, c := range hand {
		rankCount[c.Rank()]++
		suitCount[c.Suit()]++
	}

	flush := false
	for s := 0; s < NumSuits; s++ {
		if suitCount[s] == HandSize {
			flush = true
			break
		}
	}

	straightHigh := straightHighRank(&rankCount)
	straight := straightHigh != 0

	switch {
	case straight && flush && straightHigh == RankAce:
		return HandRank{Category: RoyalFlush, TieBreak: straightTieBreak(straightHigh)}
	case straight && flush:
		return HandRank{Category: StraightFlush, TieBreak: straightTieBreak(straightHigh)}
	case straight:
		return HandRank{Category: Straight, TieBreak: straightTieBreak(straightHigh)}
	}

	// Group ranks by multiplicity: quads, trips, pairs.
	var quads, trips uint8
	var pairs []uint8
	for r := RankAce; r >= RankTwo; r-- {
		switch rankCount[r] {
		case 4:
			quads = r
		case 3:
			trips = r
		case 2:
			pairs = append(pairs, r)
		}
	}

	switch {
	case quads != 0:
		return HandRank{Category: FourOfAKind, TieBreak: groupedTieBreak(hand, quads, 0)}
	case trips != 0 && len(pairs) == 1:
		return HandRank{Category: FullHouse, TieBreak: groupedTieBreak(hand, trips, pairs[0])}
	case flush:
		return HandRank{Category: Flush, TieBreak: kickerTieBreak(hand, nil)}
	case trips != 0:
		return HandRank{Category: ThreeOfAKind, TieBreak: groupedTieBreak(hand, trips, 0)}
	case len(pairs) == 2:
		return HandRank{Category: TwoPair, TieBreak: groupedTieBreak(hand, pairs[0], pairs[1])}
	case len(pairs) == 1:
		return HandRank{Category: Pair, TieBreak: groupedTieBreak(hand, pairs[0], 0)}
	}
	return HandRank{Category: HighCard, TieBreak: kickerTieBreak(hand, nil)}
}

// straightHighRank returns the high rank of a straight formed by the
// counted ranks, or 0 if none. The wheel A-2-3-4-5 reports high rank 5.
func straightHighRank(rankCount *[15]uint8) uint8 {
	for _, c := range rankCount {
		if c > 1 {
			return 0
		}
	}
	for high := RankAce; high >= RankSix; high-- {
		run := true
		for r := high - 4; r <= high; r++ {
			if rankCount[r] == 0 {
				run = false
				break
			}
		}
		if run {
			return high
		}
	}
	// Wheel: A,2,3,4,5 — ace plays low.
	if rankCount[RankAce] == 1 && rankCount[RankTwo] == 1 && rankCount[RankThree] == 1 &&
		rankCount[RankFour] == 1 && rankCount[RankFive] == 1 {
		return RankFive
	}
	return 0
}

// straightTieBreak lists the straight's ranks descending from its high
// card. For the wheel the ace counts as 1.
func straightTieBreak(high uint8) [HandSize]uint8 {
	var tb [HandSize]uint8
	for i := 0; i < HandSize; i++ {
		v := int(high) - i
		if v < int(RankTwo)-1 {
			v = 1 // wheel ace
		}
		tb[i] = uint8(v)
	}
	return tb
}

// kickerTieBreak lists all hand ranks descending, excluding any in skip.
func kickerTieBreak(hand [HandSize]Card, skip []uint8) [HandSize]uint8 {
	ranks := make([]uint8, 0, HandSize)
	for _, c := range hand {
		r := c.Rank()
		skipped := false
		for _, s := range skip {
			if r == s {
				skipped = true
				break
			}
		}
		if !skipped {
			ranks = append(ranks, r)
		}
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })
	var tb [HandSize]uint8
	copy(tb[:], ranks)
	return tb
}

// groupedTieBreak places the primary group rank first, the secondary
// group rank second (if any), then the remaining kickers descending.
func groupedTieBreak(hand [HandSize]Card, primary, secondary uint8) [HandSize]uint8 {
	var tb [HandSize]uint8
	n := 0
	tb[n] = primary
	n++
	skip := []uint8{primary}
	if secondary != 0 {
		tb[n] = secondary
		n++
		skip = append(skip, secondary)
	}
	kickers := kickerTieBreak(hand, skip)
	for i := 0; i < HandSize && n < HandSize; i++ {
		if kickers[i] == 0 {
			break
		}
		tb[n] = kickers[i]
		n++
	}
	return tb
}

// Compare orders two evaluated hands: negative when a < b, positive when
// a > b, zero on an exact tie. Category ordering first, then tie-break
// ranks left to right. Only meaningful for two-participant contests.
func Compare(a, b HandRank) int {
	if a.Category != b.Category {
		return int(a.Category) - int(b.Category)
	}
	for i := 0; i < HandSize; i++ {
		if a.TieBreak[i] != b.TieBreak[i] {
			return int(a.TieBreak[i]) - int(b.TieBreak[i])
		}
	}
	return 0
}
