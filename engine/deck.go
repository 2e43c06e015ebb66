package engine

import "fmt"

// minSuitWeight floors a suit's weight so hostile modifiers can bias a
// suit toward zero without ever removing its cards from the pool.
const minSuitWeight = 0.01

// WeightedDeck is a session-scoped 52-card pool with per-suit draw bias.
// Cards are drawn without replacement; the pool is never shared between
// sessions. The deck owns its RNG state so that a fixed seed reproduces
// the full draw sequence.
type WeightedDeck struct {
	cards     [DeckSize]Card
	weights   [DeckSize]float64
	remaining uint8
	rng       uint64
}

// SuitWeights combines a base weight with modifier magnitudes into one
// weight per suit. Weights below minSuitWeight are floored; relative
// magnitude is all that matters since draws normalize over the pool.
func SuitWeights(base float64, mods []SuitModifier) [NumSuits]float64 {
	var w [NumSuits]float64
	for s := 0; s < NumSuits; s++ {
		w[s] = base
	}
	for _, m := range mods {
		if m.Suit < NumSuits {
			w[m.Suit] += m.Magnitude
		}
	}
	for s := 0; s < NumSuits; s++ {
		if w[s] < minSuitWeight {
			w[s] = minSuitWeight
		}
	}
	return w
}

// NewDeck builds a full 52-card pool with the given per-suit weights.
// Seed 0 is coerced to 1 (xorshift cannot start at 0).
func NewDeck(seed uint64, suitWeights [NumSuits]float64) WeightedDeck {
	var d WeightedDeck
	d.rng = seed
	if d.rng == 0 {
		d.rng = 1
	}
	idx := 0
	for suit := uint8(0); suit < NumSuits; suit++ {
		w := suitWeights[suit]
		if w < minSuitWeight {
			w = minSuitWeight
		}
		for rank := RankTwo; rank <= RankAce; rank++ {
			d.cards[idx] = NewCard(suit, rank)
			d.weights[idx] = w
			idx++
		}
	}
	d.remaining = DeckSize
	return d
}

// Remaining returns how many cards are left in the pool.
func (d *WeightedDeck) Remaining() int { return int(d.remaining) }

// nextRand advances the xorshift64 state.
func (d *WeightedDeck) nextRand() uint64 {
	x := d.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	d.rng = x
	return x
}

// nextFloat returns a float64 in [0, 1) from the RNG.
func (d *WeightedDeck) nextFloat() float64 {
	return float64(d.nextRand()>>11) / (1 << 53)
}

// Draw removes and returns n cards without replacement, sampling each
// card with probability proportional to its suit weight among the cards
// still in the pool. Returns ErrDeckExhausted if n exceeds the pool.
func (d *WeightedDeck) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("draw count %d is negative", n)
	}
	if n > int(d.remaining) {
		return nil, fmt.Errorf("%w: requested %d with %d remaining", ErrDeckExhausted, n, d.remaining)
	}
	out := make([]Card, n)
	for i := 0; i < n; i++ {
		out[i] = d.drawOne()
	}
	return out, nil
}

// drawOne samples a single card by cumulative weight and swap-removes it.
func (d *WeightedDeck) drawOne() Card {
	total := 0.0
	for i := uint8(0); i < d.remaining; i++ {
		total += d.weights[i]
	}
	target := d.nextFloat() * total
	picked := d.remaining - 1
	cum := 0.0
	for i := uint8(0); i < d.remaining; i++ {
		cum += d.weights[i]
		if target < cum {
			picked = i
			break
		}
	}
	card := d.cards[picked]
	last := d.remaining - 1
	d.cards[picked] = d.cards[last]
	d.weights[picked] = d.weights[last]
	d.remaining = last
	return card
}
