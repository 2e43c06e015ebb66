// Package engine implements the Deckhand action-resolution core: a
// weighted 52-card draw, one hold/discard/redraw protocol, poker-hand
// grading and suit bonuses for Desperado's Destiny.
//
// The package is a pure, self-contained state machine: no clocks, no
// goroutines, no I/O. Given a seed and the same submitted decisions it
// replays an identical session, which is what the audit and test paths
// rely on. Orchestration (timers, events, cooldown persistence) lives in
// internal/session.
package engine

import "fmt"

// Leg is one participant's hand pipeline within a session. PvE sessions
// run one leg; duels run two legs that evolve independently and join at
// Resolution.
type Leg struct {
	Hand        [HandSize]Card
	HoldMask    uint8 // bit i set = position i held for the pending redraw
	Committed   bool  // hold-set submitted for the current cycle
	Done        bool  // no further decision cycles for this leg
	Forfeited   bool
	RedrawsUsed uint8
	RedrawLimit uint8
	Invoked     uint8 // bitmask of invoked AbilityIDs
	DeadlyAim   bool  // armed guaranteed-crit, consumed at resolution
	QuickDraw   bool  // ordering override for the outcome record
}

// InvokedAbility reports whether the leg already invoked the ability.
func (l *Leg) InvokedAbility(id AbilityID) bool {
	return l.Invoked&(1<<uint8(id)) != 0
}

// State is the complete value state of one resolution session. Like the
// deck it embeds, it is freshly built per session; nothing is shared.
type State struct {
	Legs    [MaxLegs]Leg
	NumLegs uint8
	Deck    WeightedDeck
	Phase   Phase
	Rules   ActionRules
}

// NewState builds the session deck from the combined participant suit
// weights and deals the initial 5-card hand to each leg, leaving the
// session in Decision. numLegs must be 1 (PvE) or 2 (PvP).
func NewState(seed uint64, rules ActionRules, suitWeights [NumSuits]float64, numLegs int) (State, error) {
	if numLegs < 1 || numLegs > MaxLegs {
		return State{}, fmt.Errorf("numLegs %d out of range [1,%d]", numLegs, MaxLegs)
	}
	if rules.RedrawCycles == 0 {
		rules.RedrawCycles = 1
	}
	s := State{
		NumLegs: uint8(numLegs),
		Deck:    NewDeck(seed, suitWeights),
		Phase:   PhaseDraw,
		Rules:   rules,
	}
	for i := 0; i < numLegs; i++ {
		cards, err := s.Deck.Draw(HandSize)
		if err != nil {
			return State{}, err
		}
		copy(s.Legs[i].Hand[:], cards)
		s.Legs[i].RedrawLimit = rules.RedrawCycles
	}
	s.Phase = PhaseDecision
	return s, nil
}

// IsTerminal reports whether the session is sealed.
func (s *State) IsTerminal() bool { return s.Phase == PhaseTerminal }

// SubmitHold records a leg's hold-set for the current decision cycle.
// holds lists the hand positions (0–4) to keep; positions not listed are
// discarded and replaced when every open leg has committed. A leg that
// has already committed this cycle, or whose cycles are exhausted, gets
// ErrInvalidDecision — the phase is closed for it.
func (s *State) SubmitHold(leg int, holds []int) error {
	if s.Phase != PhaseDecision {
		return fmt.Errorf("%w: session is in %s", ErrWrongPhase, s.Phase)
	}
	if leg < 0 || leg >= int(s.NumLegs) {
		return fmt.Errorf("%w: leg %d out of range", ErrInvalidDecision, leg)
	}
	l := &s.Legs[leg]
	if l.Done || l.Forfeited {
		return fmt.Errorf("%w: decision phase closed for this participant", ErrInvalidDecision)
	}
	if l.Committed {
		return fmt.Errorf("%w: hold-set already committed this cycle", ErrInvalidDecision)
	}
	if len(holds) > HandSize {
		return fmt.Errorf("%w: hold-set size %d exceeds hand size", ErrInvalidDecision, len(holds))
	}
	var mask uint8
	for _, idx := range holds {
		if idx < 0 || idx >= HandSize {
			return fmt.Errorf("%w: hold index %d out of range [0,%d)", ErrInvalidDecision, idx, HandSize)
		}
		bit := uint8(1) << uint(idx)
		if mask&bit != 0 {
			return fmt.Errorf("%w: duplicate hold index %d", ErrInvalidDecision, idx)
		}
		mask |= bit
	}
	l.HoldMask = mask
	l.Committed = true

	if s.allOpenLegsCommitted() {
		return s.redraw()
	}
	return nil
}

// allOpenLegsCommitted reports whether every leg still owing a decision
// has committed its hold-set.
func (s *State) allOpenLegsCommitted() bool {
	for i := uint8(0); i < s.NumLegs; i++ {
		l := &s.Legs[i]
		if l.Done || l.Forfeited {
			continue
		}
		if !l.Committed {
			return false
		}
	}
	return true
}

// redraw replaces each committed leg's discarded positions from the
// session deck, leaving held positions untouched. Legs with cycles
// remaining re-enter Decision; otherwise the session moves to Resolution.
func (s *State) redraw() error {
	s.Phase = PhaseRedraw
	for i := uint8(0); i < s.NumLegs; i++ {
		l := &s.Legs[i]
		if l.Done || l.Forfeited || !l.Committed {
			continue
		}
		discards := 0
		for pos := 0; pos < HandSize; pos++ {
			if l.HoldMask&(1<<uint(pos)) == 0 {
				discards++
			}
		}
		fresh, err := s.Deck.Draw(discards)
		if err != nil {
			return err
		}
		next := 0
		for pos := 0; pos < HandSize; pos++ {
			if l.HoldMask&(1<<uint(pos)) == 0 {
				l.Hand[pos] = fresh[next]
				next++
			}
		}
		l.RedrawsUsed++
		l.Committed = false
		l.HoldMask = 0
		if l.RedrawsUsed >= l.RedrawLimit {
			l.Done = true
		}
	}
	for i := uint8(0); i < s.NumLegs; i++ {
		l := &s.Legs[i]
		if !l.Done && !l.Forfeited {
			s.Phase = PhaseDecision
			return nil
		}
	}
	s.Phase = PhaseResolution
	return nil
}

// GrantReroll applies the Reroll ability: one additional redraw cycle for
// the leg in the current session. Single-use; re-invocation fails with
// ErrAbilityAlreadyUsed. A leg whose cycles were exhausted is reopened as
// long as the session has not reached Resolution.
func (s *State) GrantReroll(leg int) error {
	if s.Phase != PhaseDecision && s.Phase != PhaseRedraw {
		return fmt.Errorf("%w: reroll requires an open decision window (session is in %s)", ErrWrongPhase, s.Phase)
	}
	if leg < 0 || leg >= int(s.NumLegs) {
		return fmt.Errorf("%w: leg %d out of range", ErrInvalidDecision, leg)
	}
	l := &s.Legs[leg]
	if l.InvokedAbility(AbilityReroll) {
		return ErrAbilityAlreadyUsed
	}
	if l.Forfeited {
		return fmt.Errorf("%w: participant has forfeited", ErrInvalidDecision)
	}
	l.RedrawLimit++
	l.Done = false
	l.Invoked |= 1 << uint8(AbilityReroll)
	return nil
}

// MarkInvoked records a non-reroll ability invocation on the leg and
// arms its session-local effect.
func (s *State) MarkInvoked(leg int, id AbilityID) error {
	if leg < 0 || leg >= int(s.NumLegs) {
		return fmt.Errorf("leg %d out of range", leg)
	}
	l := &s.Legs[leg]
	l.Invoked |= 1 << uint8(id)
	switch id {
	case AbilityQuickDraw:
		l.QuickDraw = true
	case AbilityDeadlyAim:
		l.DeadlyAim = true
	}
	return nil
}

// ForfeitLeg marks a leg forfeited (timeout or cancellation). When no leg
// remains open the session falls through to Resolution, where forfeited
// legs score nothing.
func (s *State) ForfeitLeg(leg int) error {
	if leg < 0 || leg >= int(s.NumLegs) {
		return fmt.Errorf("leg %d out of range", leg)
	}
	if s.Phase == PhaseTerminal {
		return fmt.Errorf("%w: session already terminal", ErrWrongPhase)
	}
	l := &s.Legs[leg]
	l.Forfeited = true
	l.Committed = false
	if s.Phase == PhaseDecision && s.allOpenLegsCommitted() {
		open := false
		for i := uint8(0); i < s.NumLegs; i++ {
			if !s.Legs[i].Done && !s.Legs[i].Forfeited {
				open = true
				break
			}
		}
		if !open {
			s.Phase = PhaseResolution
			return nil
		}
		return s.redraw()
	}
	return nil
}
