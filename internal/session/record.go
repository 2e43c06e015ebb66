package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/kc92/Desperado-s-Destiny-sub003/engine"
)

// ParticipantContext is the external input snapshot taken at session
// open. The engine never queries collaborator systems; skill levels,
// unlocks and numeric modifiers arrive pre-computed here.
type ParticipantContext struct {
	ID    uuid.UUID
	Level int
	// Modifiers bias the session deck's suit weights (skill, gear,
	// corruption odds shifts — already computed upstream).
	Modifiers []engine.SuitModifier
	// BaseValue is the action's raw stake: damage, crime payout, craft
	// threshold. The hand multiplier scales it.
	BaseValue float64
	// PassThrough carries collaborator modifiers the outcome record
	// must surface without recomputing (e.g. reputation price effects).
	PassThrough map[string]float64
}

// EffectRecord is the serialized form of one tagged effect.
type EffectRecord struct {
	Kind      string  `json:"kind"`
	Magnitude float64 `json:"magnitude"`
}

// ParticipantOutcome is one participant's share of a sealed record.
type ParticipantOutcome struct {
	ParticipantID uuid.UUID          `json:"participantId"`
	Hand          []string           `json:"hand"`
	Category      string             `json:"category,omitempty"`
	Multiplier    float64            `json:"multiplier"`
	Score         float64            `json:"score"`
	SuitCounts    map[string]int     `json:"suitCounts,omitempty"`
	Bonuses       engine.SuitBonuses `json:"bonuses"`
	Effects       []EffectRecord     `json:"effects,omitempty"`
	Abilities     []string           `json:"abilities,omitempty"`
	Order         int                `json:"order"`
	Forfeited     bool               `json:"forfeited,omitempty"`
	Modifiers     map[string]float64 `json:"modifiers,omitempty"`
}

// OutcomeRecord is the immutable result of one resolution session,
// created once at Resolution and never mutated. Seq increases
// monotonically across all sessions of this manager for audit ordering.
type OutcomeRecord struct {
	SessionID    uuid.UUID            `json:"sessionId"`
	Seq          uint64               `json:"seq"`
	Kind         string               `json:"kind"`
	Seed         uint64               `json:"seed"`
	Participants []ParticipantOutcome `json:"participants"`
	WinnerID     uuid.UUID            `json:"winnerId,omitempty"`
	Forfeit      bool                 `json:"forfeit,omitempty"`
	TimedOut     bool                 `json:"timedOut,omitempty"`
	Cancelled    bool                 `json:"cancelled,omitempty"`
	CancelReason string               `json:"cancelReason,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// buildRecord converts an engine result into the serialized record.
func buildRecord(id uuid.UUID, seed uint64, kind engine.ActionKind, contexts []ParticipantContext, res engine.Result, seq uint64, now time.Time) *OutcomeRecord {
	rec := &OutcomeRecord{
		SessionID: id,
		Seq:       seq,
		Kind:      kind.String(),
		Seed:      seed,
		Forfeit:   res.Forfeit,
		CreatedAt: now,
	}
	suitKeys := [engine.NumSuits]string{
		engine.SuitSpades:   "spades",
		engine.SuitHearts:   "hearts",
		engine.SuitDiamonds: "diamonds",
		engine.SuitClubs:    "clubs",
	}
	for i := uint8(0); i < res.NumLegs; i++ {
		lr := res.Legs[i]
		po := ParticipantOutcome{
			ParticipantID: contexts[i].ID,
			Multiplier:    lr.Multiplier,
			Score:         lr.Score,
			Bonuses:       lr.Bonuses,
			Order:         int(lr.Order),
			Forfeited:     lr.Forfeited,
			Modifiers:     contexts[i].PassThrough,
		}
		for _, c := range lr.Hand {
			po.Hand = append(po.Hand, c.String())
		}
		if !lr.Forfeited {
			po.Category = lr.Rank.Category.String()
			po.SuitCounts = make(map[string]int, engine.NumSuits)
			for s := uint8(0); s < engine.NumSuits; s++ {
				if lr.SuitCounts[s] > 0 {
					po.SuitCounts[suitKeys[s]] = int(lr.SuitCounts[s])
				}
			}
			for _, e := range lr.Effects {
				po.Effects = append(po.Effects, EffectRecord{Kind: e.Kind.String(), Magnitude: e.Magnitude})
			}
			for _, a := range lr.Abilities {
				po.Abilities = append(po.Abilities, a.String())
			}
		}
		rec.Participants = append(rec.Participants, po)
	}
	if res.Winner >= 0 && int(res.Winner) < len(contexts) {
		rec.WinnerID = contexts[res.Winner].ID
	}
	return rec
}
