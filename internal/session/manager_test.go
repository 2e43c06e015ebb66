package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kc92/Desperado-s-Destiny-sub003/engine"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/cooldown"
)

func testManager() *Manager {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	m := NewManager(cooldown.NewMemoryStore(), log)
	// Timers are driven explicitly in tests that need them.
	for _, k := range []engine.ActionKind{engine.KindCombat, engine.KindCrime, engine.KindCraft, engine.KindContest, engine.KindDuel} {
		r := engine.DefaultRules(k)
		r.DecisionTimeout = 0
		m.SetRules(r)
	}
	return m
}

func soloContext(level int) ParticipantContext {
	return ParticipantContext{
		ID:        uuid.New(),
		Level:     level,
		BaseValue: 100,
	}
}

func seedPtr(s uint64) *uint64 { return &s }

func TestOpenAndResolveSolo(t *testing.T) {
	m := testManager()
	p := soloContext(10)

	id, err := m.Open(engine.KindCrime, []ParticipantContext{p}, seedPtr(42))
	require.NoError(t, err)

	_, err = m.Resolve(id)
	assert.ErrorIs(t, err, engine.ErrWrongPhase, "resolve before decision must fail")

	phase, err := m.SubmitDecision(id, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseTerminal, phase)

	rec, err := m.Resolve(id)
	require.NoError(t, err)
	require.Len(t, rec.Participants, 1)
	assert.Equal(t, p.ID, rec.Participants[0].ParticipantID)
	assert.Len(t, rec.Participants[0].Hand, engine.HandSize)
	assert.NotEmpty(t, rec.Participants[0].Category)
	assert.Equal(t, uint64(42), rec.Seed)

	// Idempotent: same record on repeat.
	again, err := m.Resolve(id)
	require.NoError(t, err)
	assert.Same(t, rec, again)
}

func TestResolveUnknownSession(t *testing.T) {
	m := testManager()
	_, err := m.Resolve(uuid.New())
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
}

func TestSubmitDecisionValidation(t *testing.T) {
	m := testManager()
	p := soloContext(10)
	id, err := m.Open(engine.KindCombat, []ParticipantContext{p}, seedPtr(7))
	require.NoError(t, err)

	_, err = m.SubmitDecision(id, p.ID, []int{0, 0})
	assert.ErrorIs(t, err, engine.ErrInvalidDecision)

	_, err = m.SubmitDecision(id, uuid.New(), nil)
	assert.ErrorIs(t, err, engine.ErrInvalidDecision, "unknown participant")

	_, err = m.SubmitDecision(uuid.New(), p.ID, nil)
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
}

func TestSequenceNumbersMonotonic(t *testing.T) {
	m := testManager()
	var prev uint64
	for i := 0; i < 5; i++ {
		p := soloContext(1)
		id, err := m.Open(engine.KindCraft, []ParticipantContext{p}, seedPtr(uint64(i+1)))
		require.NoError(t, err)
		_, err = m.SubmitDecision(id, p.ID, []int{0, 1, 2, 3, 4})
		require.NoError(t, err)
		rec, err := m.Resolve(id)
		require.NoError(t, err)
		assert.Greater(t, rec.Seq, prev, "sequence must increase")
		prev = rec.Seq
	}
}

func TestDuelBuffersAndReveals(t *testing.T) {
	m := testManager()
	a, b := soloContext(10), soloContext(10)

	var mu sync.Mutex
	var events []Event
	m.BroadcastFn = func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}

	id, err := m.Open(engine.KindDuel, []ParticipantContext{a, b}, seedPtr(99))
	require.NoError(t, err)

	phase, err := m.SubmitDecision(id, a.ID, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseDecision, phase, "first commit is buffered")

	_, err = m.Resolve(id)
	assert.ErrorIs(t, err, engine.ErrWrongPhase)

	phase, err = m.SubmitDecision(id, b.ID, []int{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseTerminal, phase)

	rec, err := m.Resolve(id)
	require.NoError(t, err)
	require.Len(t, rec.Participants, 2)

	// Pre-resolution events never carry hand data.
	mu.Lock()
	defer mu.Unlock()
	for _, ev := range events {
		if ev.Type != EventSessionResolved {
			assert.Nil(t, ev.Outcome, "event %s leaked outcome", ev.Type)
			assert.Nil(t, ev.Peek, "event %s leaked peek data", ev.Type)
		}
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() *OutcomeRecord {
		m := testManager()
		p := ParticipantContext{
			ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			Level:     20,
			BaseValue: 50,
			Modifiers: []engine.SuitModifier{{Suit: engine.SuitDiamonds, Magnitude: 0.4}},
		}
		id, err := m.Open(engine.KindCrime, []ParticipantContext{p}, seedPtr(777))
		require.NoError(t, err)
		_, err = m.SubmitDecision(id, p.ID, []int{1, 3})
		require.NoError(t, err)
		rec, err := m.Resolve(id)
		require.NoError(t, err)
		return rec
	}
	r1, r2 := run(), run()
	assert.Equal(t, r1.Participants[0].Hand, r2.Participants[0].Hand)
	assert.Equal(t, r1.Participants[0].Category, r2.Participants[0].Category)
	assert.Equal(t, r1.Participants[0].Score, r2.Participants[0].Score)
	assert.Equal(t, r1.Participants[0].Bonuses, r2.Participants[0].Bonuses)
}

func TestInvokeAbilityGates(t *testing.T) {
	m := testManager()
	p := soloContext(29) // below every unlock
	id, err := m.Open(engine.KindCombat, []ParticipantContext{p}, seedPtr(5))
	require.NoError(t, err)

	_, err = m.InvokeAbility(id, p.ID, engine.AbilityReroll)
	assert.ErrorIs(t, err, engine.ErrAbilityLocked)

	_, err = m.InvokeAbility(id, p.ID, engine.AbilityID(42))
	assert.Error(t, err)
}

func TestRerollOncePerSession(t *testing.T) {
	m := testManager()
	p := soloContext(30)
	id, err := m.Open(engine.KindCombat, []ParticipantContext{p}, seedPtr(6))
	require.NoError(t, err)

	_, err = m.InvokeAbility(id, p.ID, engine.AbilityReroll)
	require.NoError(t, err)

	_, err = m.InvokeAbility(id, p.ID, engine.AbilityReroll)
	assert.ErrorIs(t, err, engine.ErrAbilityAlreadyUsed)

	// The granted cycle: two decision rounds before terminal.
	phase, err := m.SubmitDecision(id, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseDecision, phase)
	phase, err = m.SubmitDecision(id, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseTerminal, phase)

	rec, err := m.Resolve(id)
	require.NoError(t, err)
	assert.Contains(t, rec.Participants[0].Abilities, "reroll")
}

func TestAbilityCooldownAcrossSessions(t *testing.T) {
	m := testManager()
	clock := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	p := soloContext(80)
	open := func(seed uint64) uuid.UUID {
		id, err := m.Open(engine.KindCombat, []ParticipantContext{p}, seedPtr(seed))
		require.NoError(t, err)
		return id
	}

	id1 := open(1)
	_, err := m.InvokeAbility(id1, p.ID, engine.AbilityDeadlyAim)
	require.NoError(t, err)

	// A fresh session a minute later: still on cooldown.
	clock = clock.Add(time.Minute)
	id2 := open(2)
	_, err = m.InvokeAbility(id2, p.ID, engine.AbilityDeadlyAim)
	require.ErrorIs(t, err, engine.ErrAbilityOnCooldown)
	var ce *engine.CooldownError
	require.ErrorAs(t, err, &ce)
	spec, _ := engine.AbilityByID(engine.AbilityDeadlyAim)
	assert.Equal(t, spec.Cooldown-time.Minute, ce.Remaining)

	// Exactly at expiry: accepted.
	clock = clock.Add(spec.Cooldown - time.Minute)
	_, err = m.InvokeAbility(id2, p.ID, engine.AbilityDeadlyAim)
	assert.NoError(t, err)
}

func TestPeekRequiresOpponent(t *testing.T) {
	m := testManager()
	p := soloContext(50)
	id, err := m.Open(engine.KindCrime, []ParticipantContext{p}, seedPtr(3))
	require.NoError(t, err)

	_, err = m.InvokeAbility(id, p.ID, engine.AbilityPeek)
	assert.ErrorIs(t, err, engine.ErrAbilityInvalidContext)

	// The rejected invocation must not burn the cooldown.
	a, b := soloContext(50), soloContext(1)
	did, err := m.Open(engine.KindDuel, []ParticipantContext{a, b}, seedPtr(4))
	require.NoError(t, err)
	_, err = m.InvokeAbility(did, a.ID, engine.AbilityPeek)
	assert.NoError(t, err)
}

func TestPeekDeliversPrivately(t *testing.T) {
	m := testManager()
	a, b := soloContext(50), soloContext(1)

	private := make(map[uuid.UUID][]Event)
	m.BroadcastToParticipantFn = func(pid uuid.UUID, ev Event) {
		private[pid] = append(private[pid], ev)
	}

	id, err := m.Open(engine.KindDuel, []ParticipantContext{a, b}, seedPtr(14))
	require.NoError(t, err)

	view, err := m.InvokeAbility(id, a.ID, engine.AbilityPeek)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, b.ID, view.OpponentID)
	assert.Len(t, view.Hand, engine.HandSize)
	assert.False(t, view.Committed)

	require.Len(t, private[a.ID], 1)
	assert.Equal(t, EventPrivatePeek, private[a.ID][0].Type)
	assert.Empty(t, private[b.ID], "peeked participant must not be notified with hand data")

	rec := finishDuel(t, m, id, a, b)
	assert.Contains(t, rec.Participants[0].Abilities, "peek")
}

func finishDuel(t *testing.T, m *Manager, id uuid.UUID, a, b ParticipantContext) *OutcomeRecord {
	t.Helper()
	_, err := m.SubmitDecision(id, a.ID, []int{0, 1, 2, 3, 4})
	require.NoError(t, err)
	_, err = m.SubmitDecision(id, b.ID, []int{0, 1, 2, 3, 4})
	require.NoError(t, err)
	rec, err := m.Resolve(id)
	require.NoError(t, err)
	return rec
}

func TestQuickDrawOrdering(t *testing.T) {
	m := testManager()
	a, b := soloContext(1), soloContext(60)
	id, err := m.Open(engine.KindDuel, []ParticipantContext{a, b}, seedPtr(21))
	require.NoError(t, err)

	_, err = m.InvokeAbility(id, b.ID, engine.AbilityQuickDraw)
	require.NoError(t, err)

	rec := finishDuel(t, m, id, a, b)
	assert.Equal(t, 0, rec.Participants[1].Order)
	assert.Equal(t, 1, rec.Participants[0].Order)
}

func TestCancelForcesForfeit(t *testing.T) {
	m := testManager()
	p := soloContext(10)
	id, err := m.Open(engine.KindCrime, []ParticipantContext{p}, seedPtr(31))
	require.NoError(t, err)

	rec, err := m.Cancel(id, "fled the scene")
	require.NoError(t, err)
	assert.True(t, rec.Cancelled)
	assert.True(t, rec.Forfeit)
	assert.Equal(t, "fled the scene", rec.CancelReason)
	assert.True(t, rec.Participants[0].Forfeited)

	// Resolve after cancel returns the same sealed record.
	again, err := m.Resolve(id)
	require.NoError(t, err)
	assert.Same(t, rec, again)
}

func TestDecisionTimeoutSolo(t *testing.T) {
	m := testManager()
	r := engine.DefaultRules(engine.KindCrime)
	r.DecisionTimeout = 20 * time.Millisecond
	m.SetRules(r)

	p := soloContext(10)
	id, err := m.Open(engine.KindCrime, []ParticipantContext{p}, seedPtr(61))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec, err := m.Resolve(id)
		return err == nil && rec.TimedOut
	}, time.Second, 5*time.Millisecond, "stalled session should auto-resolve with the default hold")

	rec, _ := m.Resolve(id)
	assert.False(t, rec.Forfeit, "solo timeout degrades to the default decision, not forfeit")
	assert.Len(t, rec.Participants[0].Hand, engine.HandSize)
}

func TestDecisionTimeoutDuelForfeits(t *testing.T) {
	m := testManager()
	r := engine.DefaultRules(engine.KindDuel)
	r.DecisionTimeout = 20 * time.Millisecond
	m.SetRules(r)

	a, b := soloContext(10), soloContext(10)
	id, err := m.Open(engine.KindDuel, []ParticipantContext{a, b}, seedPtr(62))
	require.NoError(t, err)

	_, err = m.SubmitDecision(id, a.ID, []int{0, 1, 2, 3, 4})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec, err := m.Resolve(id)
		return err == nil && rec.TimedOut
	}, time.Second, 5*time.Millisecond)

	rec, _ := m.Resolve(id)
	assert.True(t, rec.Forfeit)
	assert.Equal(t, a.ID, rec.WinnerID, "committed side wins the forfeit")
	assert.True(t, rec.Participants[1].Forfeited)
}

func TestDecisionTimeoutMultiCycle(t *testing.T) {
	m := testManager()
	r := engine.DefaultRules(engine.KindCrime)
	r.RedrawCycles = 2
	r.DecisionTimeout = 20 * time.Millisecond
	m.SetRules(r)

	p := soloContext(10)
	id, err := m.Open(engine.KindCrime, []ParticipantContext{p}, seedPtr(71))
	require.NoError(t, err)

	// The first timeout consumes only one cycle; the re-entered
	// decision window must get a fresh timer or the session stalls.
	require.Eventually(t, func() bool {
		rec, err := m.Resolve(id)
		return err == nil && rec.TimedOut
	}, 2*time.Second, 5*time.Millisecond, "each decision cycle must re-arm the timer")
}

func TestDecisionTimerRearmsAfterRedrawCycle(t *testing.T) {
	m := testManager()
	r := engine.DefaultRules(engine.KindCrime)
	r.RedrawCycles = 2
	r.DecisionTimeout = 20 * time.Millisecond
	m.SetRules(r)

	p := soloContext(10)
	id, err := m.Open(engine.KindCrime, []ParticipantContext{p}, seedPtr(72))
	require.NoError(t, err)

	// Submitting the first cycle returns to Decision without a phase
	// delta; stalling the second cycle must still time out.
	phase, err := m.SubmitDecision(id, p.ID, []int{0, 1, 2})
	require.NoError(t, err)
	require.Equal(t, engine.PhaseDecision, phase)

	require.Eventually(t, func() bool {
		rec, err := m.Resolve(id)
		return err == nil && rec.TimedOut
	}, 2*time.Second, 5*time.Millisecond)
}

func TestOpenDefaultSeedUnpredictable(t *testing.T) {
	m := testManager()
	seeds := make(map[uint64]bool)
	for i := 0; i < 4; i++ {
		p := soloContext(1)
		id, err := m.Open(engine.KindCraft, []ParticipantContext{p}, nil)
		require.NoError(t, err)
		_, err = m.SubmitDecision(id, p.ID, []int{0, 1, 2, 3, 4})
		require.NoError(t, err)
		rec, err := m.Resolve(id)
		require.NoError(t, err)
		assert.NotZero(t, rec.Seed)
		seeds[rec.Seed] = true
	}
	assert.Len(t, seeds, 4, "default seeds must not repeat")
}

func TestPassThroughModifiers(t *testing.T) {
	m := testManager()
	p := soloContext(10)
	p.PassThrough = map[string]float64{"reputation_price_shift": -0.12, "corruption_odds": 0.05}

	id, err := m.Open(engine.KindCrime, []ParticipantContext{p}, seedPtr(81))
	require.NoError(t, err)
	_, err = m.SubmitDecision(id, p.ID, []int{0, 1, 2, 3, 4})
	require.NoError(t, err)

	rec, err := m.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, p.PassThrough, rec.Participants[0].Modifiers, "collaborator modifiers pass through unrecomputed")
}
