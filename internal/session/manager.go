// Package session orchestrates resolution sessions around the pure
// engine core: identity, decision buffering, timeouts, ability cooldown
// persistence and event delivery.
package session

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kc92/Desperado-s-Destiny-sub003/engine"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/cache"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/cooldown"
	"github.com/kc92/Desperado-s-Destiny-sub003/internal/database"
)

// Session is one live resolution session. Its mutex guards the engine
// state; unrelated sessions never contend — each owns its deck and leg
// state outright.
type Session struct {
	ID       uuid.UUID
	Kind     engine.ActionKind
	Seed     uint64
	Contexts []ParticipantContext

	mu      sync.Mutex
	state   engine.State
	timer   *time.Timer
	outcome *OutcomeRecord
}

// Manager owns the session registry and the engine-facing contract
// consumed by collaborator systems (combat, crime, crafting, duels).
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	cooldowns cooldown.Store
	log       *logrus.Logger
	seq       atomic.Uint64
	rules     map[engine.ActionKind]engine.ActionRules
	now       func() time.Time

	// BroadcastFn delivers public events (spectators, activity feeds).
	BroadcastFn func(Event)
	// BroadcastToParticipantFn delivers private events; the Peek reveal
	// goes only through here.
	BroadcastToParticipantFn func(uuid.UUID, Event)
}

// NewManager creates a manager backed by the given cooldown store.
func NewManager(store cooldown.Store, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	m := &Manager{
		sessions:  make(map[uuid.UUID]*Session),
		cooldowns: store,
		log:       log,
		rules:     make(map[engine.ActionKind]engine.ActionRules),
		now:       time.Now,
	}
	for _, k := range []engine.ActionKind{engine.KindCombat, engine.KindCrime, engine.KindCraft, engine.KindContest, engine.KindDuel} {
		m.rules[k] = engine.DefaultRules(k)
	}
	return m
}

// SetRules overrides the tuning for one action kind.
func (m *Manager) SetRules(r engine.ActionRules) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[r.Kind] = r
}

// Open creates a resolution session for the given action kind and deals
// the initial hands. seed nil means a fresh unpredictable seed; tests
// and replays pass an explicit one.
func (m *Manager) Open(kind engine.ActionKind, participants []ParticipantContext, seed *uint64) (uuid.UUID, error) {
	if len(participants) < 1 || len(participants) > engine.MaxLegs {
		return uuid.Nil, fmt.Errorf("participant count %d out of range [1,%d]", len(participants), engine.MaxLegs)
	}

	m.mu.Lock()
	rules := m.rules[kind]
	m.mu.Unlock()

	s := randomSeed()
	if seed != nil {
		s = *seed
	}

	var mods []engine.SuitModifier
	for _, p := range participants {
		mods = append(mods, p.Modifiers...)
	}
	weights := engine.SuitWeights(rules.BaseSuitWeight, mods)

	state, err := engine.NewState(s, rules, weights, len(participants))
	if err != nil {
		return uuid.Nil, err
	}

	sess := &Session{
		ID:       uuid.New(),
		Kind:     kind,
		Seed:     s,
		Contexts: append([]ParticipantContext(nil), participants...),
		state:    state,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"kind":    kind.String(),
		"legs":    len(participants),
	}).Info("session opened")

	sess.mu.Lock()
	m.scheduleTimeout(sess, rules)
	sess.mu.Unlock()

	m.emit(Event{Type: EventPhaseChanged, SessionID: sess.ID, Phase: engine.PhaseDecision.String()})
	return sess.ID, nil
}

// randomSeed draws 8 bytes from the system CSPRNG. Sessions opened
// without an explicit seed must not be predictable from open time.
func randomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// lookup returns the session and the participant's leg index.
func (m *Manager) lookup(sessionID, participantID uuid.UUID) (*Session, int, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, 0, engine.ErrSessionNotFound
	}
	for i, p := range sess.Contexts {
		if p.ID == participantID {
			return sess, i, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: participant %s not in session", engine.ErrInvalidDecision, participantID)
}

// SubmitDecision records a participant's hold-set. In a duel the first
// commit is buffered; nothing is revealed until both legs commit and the
// redraw runs. Returns the session phase after the submission.
func (m *Manager) SubmitDecision(sessionID, participantID uuid.UUID, holdIndices []int) (engine.Phase, error) {
	sess, leg, err := m.lookup(sessionID, participantID)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	before := sess.state.Phase
	cycles := redrawCycles(&sess.state)
	if err := sess.state.SubmitHold(leg, holdIndices); err != nil {
		return sess.state.Phase, err
	}

	m.log.WithFields(logrus.Fields{
		"session":     sess.ID,
		"participant": participantID,
		"held":        len(holdIndices),
	}).Debug("decision committed")

	m.afterTransitionLocked(sess, before, cycles)
	return sess.state.Phase, nil
}

// InvokeAbility gates, cooldown-checks and applies one special ability.
// Cooldowns are per participant and survive across sessions; the check
// and the timestamp write are a single atomic step against the store.
func (m *Manager) InvokeAbility(sessionID, participantID uuid.UUID, ability engine.AbilityID) (*PeekView, error) {
	sess, leg, err := m.lookup(sessionID, participantID)
	if err != nil {
		return nil, err
	}
	spec, err := engine.AbilityByID(ability)
	if err != nil {
		return nil, err
	}
	ctx := sess.Contexts[leg]
	if err := engine.CheckUnlock(spec, ctx.Level); err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state.IsTerminal() || sess.state.Phase == engine.PhaseResolution {
		return nil, fmt.Errorf("%w: session is in %s", engine.ErrWrongPhase, sess.state.Phase)
	}
	if spec.RequiresPvP && sess.state.NumLegs < 2 {
		return nil, fmt.Errorf("%w: %s requires an opponent", engine.ErrAbilityInvalidContext, spec.ID)
	}
	if sess.state.Legs[leg].InvokedAbility(ability) {
		return nil, engine.ErrAbilityAlreadyUsed
	}

	now := m.now()
	remaining, err := m.cooldowns.Acquire(context.Background(), participantID, ability, spec.Cooldown, now)
	if err != nil {
		return nil, fmt.Errorf("cooldown store: %w", err)
	}
	if remaining > 0 {
		return nil, &engine.CooldownError{Ability: ability, Remaining: remaining}
	}

	var peek *PeekView
	switch ability {
	case engine.AbilityReroll:
		if err := sess.state.GrantReroll(leg); err != nil {
			m.releaseCooldown(participantID, ability)
			return nil, err
		}
	case engine.AbilityPeek:
		if err := sess.state.MarkInvoked(leg, ability); err != nil {
			m.releaseCooldown(participantID, ability)
			return nil, err
		}
		peek = m.buildPeekViewLocked(sess, leg)
	default:
		if err := sess.state.MarkInvoked(leg, ability); err != nil {
			m.releaseCooldown(participantID, ability)
			return nil, err
		}
	}

	m.log.WithFields(logrus.Fields{
		"session":     sess.ID,
		"participant": participantID,
		"ability":     ability.String(),
	}).Info("ability invoked")

	// Public event carries the ability and invoker only.
	m.emit(Event{Type: EventAbilityInvoked, SessionID: sess.ID, Participant: participantID, Ability: ability.String()})
	if peek != nil && m.BroadcastToParticipantFn != nil {
		m.BroadcastToParticipantFn(participantID, Event{
			Type:        EventPrivatePeek,
			SessionID:   sess.ID,
			Participant: participantID,
			Ability:     ability.String(),
			Peek:        peek,
		})
	}
	return peek, nil
}

// buildPeekViewLocked snapshots the opponent leg for the Peek reveal.
func (m *Manager) buildPeekViewLocked(sess *Session, leg int) *PeekView {
	opp := 1 - leg
	ol := &sess.state.Legs[opp]
	view := &PeekView{
		OpponentID: sess.Contexts[opp].ID,
		Committed:  ol.Committed,
	}
	for _, c := range ol.Hand {
		view.Hand = append(view.Hand, c.String())
	}
	if ol.Committed {
		for pos := 0; pos < engine.HandSize; pos++ {
			if ol.HoldMask&(1<<uint(pos)) != 0 {
				view.HeldPositions = append(view.HeldPositions, pos)
			}
		}
	}
	return view
}

func (m *Manager) releaseCooldown(participantID uuid.UUID, ability engine.AbilityID) {
	if err := m.cooldowns.Release(context.Background(), participantID, ability); err != nil {
		m.log.WithError(err).Warn("failed to release cooldown after rejected invocation")
	}
}

// Resolve returns the sealed outcome record. Idempotent once Terminal:
// repeated calls return the same record. Before the session reaches
// Resolution it fails with ErrWrongPhase.
func (m *Manager) Resolve(sessionID uuid.UUID) (*OutcomeRecord, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, engine.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.outcome != nil {
		return sess.outcome, nil
	}
	return nil, fmt.Errorf("%w: session is in %s", engine.ErrWrongPhase, sess.state.Phase)
}

// Cancel forces the session Terminal with a forfeit-style record.
func (m *Manager) Cancel(sessionID uuid.UUID, reason string) (*OutcomeRecord, error) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, engine.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.outcome != nil {
		return sess.outcome, nil
	}
	for leg := 0; leg < int(sess.state.NumLegs); leg++ {
		if err := sess.state.ForfeitLeg(leg); err != nil {
			return nil, err
		}
	}
	m.sealLocked(sess, func(rec *OutcomeRecord) {
		rec.Cancelled = true
		rec.CancelReason = reason
	})
	return sess.outcome, nil
}

// Discard drops a terminal session from the registry. The outcome
// record and cooldown state are all that persist.
func (m *Manager) Discard(sessionID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// redrawCycles sums the redraws taken across legs. A redraw that lands
// the session back in Decision keeps the phase unchanged, so the cycle
// count is what distinguishes a fresh decision window from no progress.
func redrawCycles(s *engine.State) uint32 {
	var n uint32
	for i := uint8(0); i < s.NumLegs; i++ {
		n += uint32(s.Legs[i].RedrawsUsed)
	}
	return n
}

// afterTransitionLocked reacts to engine progress driven by a decision:
// seals the session once the engine reached Resolution, and re-arms the
// timer for every fresh decision window — including a redraw cycle that
// returns to Decision without a phase delta.
func (m *Manager) afterTransitionLocked(sess *Session, before engine.Phase, prevCycles uint32) {
	after := sess.state.Phase
	if after == engine.PhaseResolution {
		m.sealLocked(sess, nil)
		return
	}
	if after == before && redrawCycles(&sess.state) == prevCycles {
		return
	}
	m.emit(Event{Type: EventPhaseChanged, SessionID: sess.ID, Phase: after.String()})
	if after == engine.PhaseDecision {
		m.mu.Lock()
		rules := m.rules[sess.Kind]
		m.mu.Unlock()
		m.scheduleTimeout(sess, rules)
	}
}

// sealLocked runs the outcome resolver, assigns the monotonic sequence
// number, publishes and persists the record, and stops the timer.
// Caller holds sess.mu.
func (m *Manager) sealLocked(sess *Session, mutate func(*OutcomeRecord)) {
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}

	var baseValues [engine.MaxLegs]float64
	for i, p := range sess.Contexts {
		baseValues[i] = p.BaseValue
	}
	res, err := sess.state.Resolve(baseValues)
	if err != nil {
		m.log.WithError(err).WithField("session", sess.ID).Error("resolution failed")
		return
	}

	rec := buildRecord(sess.ID, sess.Seed, sess.Kind, sess.Contexts, res, m.seq.Add(1), m.now())
	if mutate != nil {
		mutate(rec)
	}
	sess.outcome = rec

	m.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"seq":     rec.Seq,
		"forfeit": rec.Forfeit,
	}).Info("session resolved")

	m.emit(Event{Type: EventSessionResolved, SessionID: sess.ID, Phase: engine.PhaseTerminal.String(), Outcome: rec})

	if cache.Rdb != nil {
		go func(r OutcomeRecord) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := cache.QueueOutcome(ctx, r); err != nil {
				m.log.WithError(err).WithField("session", r.SessionID).Error("failed to queue outcome record")
			}
		}(*rec)
	}
	database.StoreOutcomeRecordAsync(m.log, sess.ID.String(), rec.Seq, rec)
}

// scheduleTimeout (re)arms the decision timer. Caller holds sess.mu.
func (m *Manager) scheduleTimeout(sess *Session, rules engine.ActionRules) {
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	if rules.DecisionTimeout <= 0 {
		return
	}
	sess.timer = time.AfterFunc(rules.DecisionTimeout, func() {
		m.handleTimeout(sess, rules)
	})
}

// handleTimeout auto-resolves a stalled decision phase: solo sessions
// submit the default empty hold (discard all), duels forfeit the
// stalled side. Timeout is not an error — the record simply notes it.
func (m *Manager) handleTimeout(sess *Session, rules engine.ActionRules) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.outcome != nil || sess.state.Phase != engine.PhaseDecision {
		return
	}

	m.log.WithField("session", sess.ID).Warn("decision timed out, auto-resolving")

	before := sess.state.Phase
	cycles := redrawCycles(&sess.state)
	for leg := 0; leg < int(sess.state.NumLegs); leg++ {
		l := &sess.state.Legs[leg]
		if l.Committed || l.Done || l.Forfeited {
			continue
		}
		if rules.TimeoutForfeit {
			if err := sess.state.ForfeitLeg(leg); err != nil {
				m.log.WithError(err).WithField("session", sess.ID).Error("timeout forfeit failed")
			}
		} else {
			if err := sess.state.SubmitHold(leg, nil); err != nil {
				m.log.WithError(err).WithField("session", sess.ID).Error("timeout default hold failed")
			}
		}
	}
	if sess.state.Phase == engine.PhaseResolution {
		m.sealLocked(sess, func(rec *OutcomeRecord) { rec.TimedOut = true })
		return
	}
	m.afterTransitionLocked(sess, before, cycles)
}

// emit broadcasts a public event through the callback and mirrors it to
// the Redis channel when configured.
func (m *Manager) emit(ev Event) {
	if m.BroadcastFn != nil {
		m.BroadcastFn(ev)
	}
	if cache.Rdb != nil {
		rec := cache.SessionEventRecord{
			SessionID: ev.SessionID,
			EventType: string(ev.Type),
			Timestamp: m.now().UnixMilli(),
		}
		if ev.Phase != "" {
			rec.Payload = map[string]interface{}{"phase": ev.Phase}
		}
		if ev.Ability != "" {
			if rec.Payload == nil {
				rec.Payload = map[string]interface{}{}
			}
			rec.Payload["ability"] = ev.Ability
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := cache.PublishSessionEvent(ctx, rec); err != nil {
				m.log.WithError(err).Error("failed to publish session event")
			}
		}()
	}
}
