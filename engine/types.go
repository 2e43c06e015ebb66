package engine

// Suit constants — packed into upper 4 bits of Card.
const (
	SuitSpades   uint8 = 0
	SuitHearts   uint8 = 1
	SuitDiamonds uint8 = 2
	SuitClubs    uint8 = 3

	NumSuits = 4
)

// Rank constants — packed into lower 4 bits of Card.
// Poker values: Two=2 … Ten=10, Jack=11, Queen=12, King=13, Ace=14.
const (
	RankTwo   uint8 = 2
	RankThree uint8 = 3
	RankFour  uint8 = 4
	RankFive  uint8 = 5
	RankSix   uint8 = 6
	RankSeven uint8 = 7
	RankEight uint8 = 8
	RankNine  uint8 = 9
	RankTen   uint8 = 10
	RankJack  uint8 = 11
	RankQueen uint8 = 12
	RankKing  uint8 = 13
	RankAce   uint8 = 14
)

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// EmptyCard represents the absence of a card.
const EmptyCard Card = 0xFF

// NewCard constructs a Card from suit and rank.
func NewCard(suit, rank uint8) Card {
	return Card((suit << 4) | (rank & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() uint8 { return uint8(c) >> 4 }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() uint8 { return uint8(c) & 0x0F }

var suitNames = [NumSuits]string{"S", "H", "D", "C"}
var rankNames = [15]string{
	"", "", "2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K", "A",
}

// String returns a two-character card code like "AS" or "TD".
func (c Card) String() string {
	if c == EmptyCard {
		return "--"
	}
	r, s := c.Rank(), c.Suit()
	if r < RankTwo || r > RankAce || s >= NumSuits {
		return "??"
	}
	return rankNames[r] + suitNames[s]
}

const (
	// HandSize is the fixed number of cards in a resolution hand.
	HandSize = 5
	// DeckSize is the logical pool size for one session.
	DeckSize = 52
	// MaxLegs is the maximum number of participant pipelines per session.
	MaxLegs = 2
)

// Phase identifies the current step of a resolution session.
type Phase uint8

const (
	PhaseDraw       Phase = iota // 0 — dealing the initial hand
	PhaseDecision                // 1 — awaiting hold-set submissions
	PhaseRedraw                  // 2 — replacing discarded positions
	PhaseResolution              // 3 — hand scored, outcome being sealed
	PhaseTerminal                // 4 — immutable
)

func (p Phase) String() string {
	switch p {
	case PhaseDraw:
		return "draw"
	case PhaseDecision:
		return "decision"
	case PhaseRedraw:
		return "redraw"
	case PhaseResolution:
		return "resolution"
	case PhaseTerminal:
		return "terminal"
	}
	return "unknown"
}

// ActionKind classifies the player action a session resolves.
type ActionKind uint8

const (
	KindCombat  ActionKind = iota // 0
	KindCrime                     // 1
	KindCraft                     // 2
	KindContest                   // 3 — generic skill contest
	KindDuel                      // 4 — two-participant PvP
)

func (k ActionKind) String() string {
	switch k {
	case KindCombat:
		return "combat"
	case KindCrime:
		return "crime"
	case KindCraft:
		return "craft"
	case KindContest:
		return "contest"
	case KindDuel:
		return "duel"
	}
	return "unknown"
}

// SuitModifier shifts the draw-probability mass of one suit. Magnitude is
// added to the suit's base weight before normalization; collaborator
// systems (skills, corruption, gear) compute these ahead of session open.
type SuitModifier struct {
	Suit      uint8
	Magnitude float64
}
