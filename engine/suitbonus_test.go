package engine

import "testing"

// TestComputeSuitBonuses verifies all four channels compute from counts
// simultaneously.
func TestComputeSuitBonuses(t *testing.T) {
	rates := [NumSuits]float64{
		SuitSpades:   0.05,
		SuitHearts:   2.0,
		SuitDiamonds: 0.04,
		SuitClubs:    1.5,
	}
	// 2 spades, 1 heart, 1 diamond, 1 club.
	hand := h("AS", "KS", "QH", "JD", "TC")
	b := ComputeSuitBonuses(hand, rates)

	if b.CritChance != 0.10 {
		t.Errorf("CritChance = %v, want 0.10", b.CritChance)
	}
	if b.Heal != 2.0 {
		t.Errorf("Heal = %v, want 2.0", b.Heal)
	}
	if b.RewardMult != 0.04 {
		t.Errorf("RewardMult = %v, want 0.04", b.RewardMult)
	}
	if b.Mitigation != 1.5 {
		t.Errorf("Mitigation = %v, want 1.5", b.Mitigation)
	}
}

// TestSuitBonusAllOneSuit verifies a mono-suit hand scores only its own
// channel, with the others at zero.
func TestSuitBonusAllOneSuit(t *testing.T) {
	rates := DefaultRules(KindCombat).SuitBonusRates
	b := ComputeSuitBonuses(h("2H", "5H", "9H", "JH", "KH"), rates)
	if b.Heal != 5*rates[SuitHearts] {
		t.Errorf("Heal = %v, want %v", b.Heal, 5*rates[SuitHearts])
	}
	if b.CritChance != 0 || b.RewardMult != 0 || b.Mitigation != 0 {
		t.Errorf("non-heart channels nonzero: %+v", b)
	}
}

// TestCritChanceClamp verifies the Spades channel is clamped to 1.0.
func TestCritChanceClamp(t *testing.T) {
	rates := [NumSuits]float64{SuitSpades: 0.5}
	b := ComputeSuitBonuses(h("AS", "KS", "QS", "JS", "TS"), rates)
	if b.CritChance != 1.0 {
		t.Errorf("CritChance = %v, want clamp at 1.0", b.CritChance)
	}
}

// TestSuitCounts verifies tallying.
func TestSuitCounts(t *testing.T) {
	counts := SuitCounts(h("AS", "KS", "QS", "JD", "TC"))
	want := [NumSuits]uint8{SuitSpades: 3, SuitDiamonds: 1, SuitClubs: 1}
	if counts != want {
		t.Errorf("SuitCounts = %v, want %v", counts, want)
	}
}
