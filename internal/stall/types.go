// Package stall implements the Stalling & Partner-Request state machine
// (C6): the should-stall evaluation procedure, the per-bot stall/active
// state machine, request fulfillment via the piece-equivalence table, and
// move-biasing geometry toward a teammate's outstanding request. Grounded
// on the teacher's acquire/SetOption/run engine-interaction pattern, with
// the decision logic kept pure and dependency-injected (the caller
// supplies evaluation probes) so it can be tested without a live engine.
package stall

import "github.com/notnil/chess"

// Entity enumerates the four independently-clocked participants named in
// spec.md §4.6.1's diagonal-time rule. Only Bot1, Partner, and Bot2 run the
// automated decision cycle; Human is a clock participant only.
type Entity int

const (
	Human Entity = iota
	Partner
	Bot1
	Bot2
)

func (e Entity) String() string {
	switch e {
	case Human:
		return "human"
	case Partner:
		return "partner"
	case Bot1:
		return "bot1"
	case Bot2:
		return "bot2"
	default:
		return "unknown"
	}
}

// Diagonal returns the entity this one's clock is compared against for the
// "up on time" rule (spec.md §4.6.1): Bot1 vs Partner, Partner vs Bot1,
// Bot2 vs Human. Human has no diagonal of its own (it never auto-stalls).
func (e Entity) Diagonal() (Entity, bool) {
	switch e {
	case Bot1:
		return Partner, true
	case Partner:
		return Bot1, true
	case Bot2:
		return Human, true
	default:
		return Human, false
	}
}

// Teammate returns the entity this one sends partner-requests to and
// receives fulfilling captures from (spec.md §4.6.3): Bot1<->Bot2,
// Partner<->Human.
func (e Entity) Teammate() (Entity, bool) {
	switch e {
	case Bot1:
		return Bot2, true
	case Bot2:
		return Bot1, true
	case Partner:
		return Human, true
	default:
		return Partner, false
	}
}

// Scenario names the case a should-stall decision matched (spec.md
// §4.6.1/§4.6.2).
type Scenario int

const (
	ScenarioNone Scenario = iota
	ScenarioForcesMate
	ScenarioSavesFromMate
	ScenarioLostToWinning
	ScenarioMated
)

func (s Scenario) String() string {
	switch s {
	case ScenarioForcesMate:
		return "forces_mate"
	case ScenarioSavesFromMate:
		return "saves_from_mate"
	case ScenarioLostToWinning:
		return "lost_to_winning"
	case ScenarioMated:
		return "mated"
	default:
		return "none"
	}
}

// Reason records why a bot entered Sitting, used by the state machine to
// decide whether a partner-request accompanies the transition (spec.md
// §4.6.2: no request is sent for {mated, player_command}).
type Reason int

const (
	ReasonNone Reason = iota
	ReasonForcesMate
	ReasonSavesFromMate
	ReasonLostToWinning
	ReasonMated
	ReasonPlayerCommand
)

func reasonFromScenario(s Scenario) Reason {
	switch s {
	case ScenarioForcesMate:
		return ReasonForcesMate
	case ScenarioSavesFromMate:
		return ReasonSavesFromMate
	case ScenarioLostToWinning:
		return ReasonLostToWinning
	case ScenarioMated:
		return ReasonMated
	default:
		return ReasonNone
	}
}

// suppressesRequest reports whether entering Sitting for this reason sends
// no outbound partner-request (spec.md §4.6.2).
func (r Reason) suppressesRequest() bool {
	return r == ReasonMated || r == ReasonPlayerCommand
}

// Status is the two-state stall machine of spec.md §4.6.2.
type Status int

const (
	StatusActive Status = iota
	StatusSitting
)

// IterationOrder is the fixed p,n,b,r,q probe order of spec.md §4.6.1 step
// 6.
var IterationOrder = []chess.PieceType{chess.Pawn, chess.Knight, chess.Bishop, chess.Rook, chess.Queen}

// Fulfillers is the request-equivalence table of spec.md §4.6.3: which
// captured piece types satisfy a request for a given piece type.
var Fulfillers = map[chess.PieceType]map[chess.PieceType]bool{
	chess.Pawn:   {chess.Pawn: true, chess.Bishop: true, chess.Queen: true},
	chess.Knight: {chess.Knight: true},
	chess.Bishop: {chess.Bishop: true, chess.Queen: true},
	chess.Rook:   {chess.Rook: true, chess.Queen: true},
	chess.Queen:  {chess.Queen: true},
}

// DefaultProbabilities pins spec.md §4.6.1's stall-probability table
// verbatim. It is the only table EvaluateShouldStall reads; no config
// setting overrides it.
var DefaultProbabilities = map[chess.PieceType]map[Scenario]float64{
	chess.Pawn:   {ScenarioForcesMate: 0.98, ScenarioSavesFromMate: 0.90, ScenarioLostToWinning: 0.60},
	chess.Knight: {ScenarioForcesMate: 0.95, ScenarioSavesFromMate: 0.70, ScenarioLostToWinning: 0.50},
	chess.Bishop: {ScenarioForcesMate: 0.95, ScenarioSavesFromMate: 0.70, ScenarioLostToWinning: 0.50},
	chess.Rook:   {ScenarioForcesMate: 0.95, ScenarioSavesFromMate: 0.33},
	chess.Queen:  {ScenarioForcesMate: 0.95, ScenarioSavesFromMate: 0.25},
}

// Request is a pending partner-request directed at the entity that holds
// it, describing what the requesting teammate needs (spec.md §3).
type Request struct {
	Piece       chess.PieceType
	Reason      Reason
	RequestedBy Entity
}

// BotState is one bot's stall-machine state (spec.md §4.6.2).
type BotState struct {
	Entity        Entity
	Status        Status
	StallPiece    chess.PieceType
	Reason        Reason
	PlayerInduced bool
	ForcedToGo    bool
	Inbound       *Request
}

// Decision is the outcome of one should-stall evaluation (spec.md §4.6.1).
type Decision struct {
	Piece        chess.PieceType
	Scenario     Scenario
	ShouldStall  bool
	MateDistance *int
}
