package session

import (
	"github.com/google/uuid"
)

// EventType represents the type of a session event delivered to realtime
// consumers.
type EventType string

const (
	EventPhaseChanged    EventType = "session_phase_changed" // Public: phase transition, no hand data.
	EventAbilityInvoked  EventType = "ability_invoked"       // Public: ability name and invoker only.
	EventSessionResolved EventType = "session_resolved"      // Public: the sealed outcome record.
	EventPrivatePeek     EventType = "private_peek_reveal"   // Private: opponent view, peeking participant only.
)

// Event is the structure broadcast on session progress. Pre-resolution
// events carry only the minimal data needed to render progress — never
// hand contents. The one exception is the Peek reveal, which goes
// exclusively to the peeking participant.
type Event struct {
	Type        EventType      `json:"type"`
	SessionID   uuid.UUID      `json:"sessionId"`
	Phase       string         `json:"phase,omitempty"`
	Participant uuid.UUID      `json:"participant,omitempty"`
	Ability     string         `json:"ability,omitempty"`
	Outcome     *OutcomeRecord `json:"outcome,omitempty"`
	Peek        *PeekView      `json:"peek,omitempty"`
}

// PeekView is the opponent snapshot granted by the Peek ability: the
// current hand and, if the opponent has already committed this cycle,
// which positions they held.
type PeekView struct {
	OpponentID    uuid.UUID `json:"opponentId"`
	Hand          []string  `json:"hand"`
	Committed     bool      `json:"committed"`
	HeldPositions []int     `json:"heldPositions,omitempty"`
}
