package stall

import (
	"fmt"
	"sync"

	"github.com/notnil/chess"
	"go.uber.org/zap"
)

// Machine tracks per-bot stall state for Bot1, Partner, and Bot2 (spec.md
// §4.6.2) and the request/fulfillment bookkeeping of §4.6.3. All methods
// are safe for concurrent use, though spec.md §5's cooperative
// single-thread-of-logic model means a single controller goroutine is the
// only real caller.
type Machine struct {
	logger *zap.Logger

	mu     sync.Mutex
	states map[Entity]*BotState
}

// New builds a Machine with Bot1, Partner, and Bot2 all Active.
func New(logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Machine{
		logger: logger,
		states: make(map[Entity]*BotState),
	}
	for _, e := range []Entity{Bot1, Partner, Bot2} {
		m.states[e] = &BotState{Entity: e, Status: StatusActive}
	}
	return m
}

// State returns a copy of the bot's current state.
func (m *Machine) State(e Entity) BotState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.states[e]
}

// Stall transitions e from Active to Sitting per a should-stall decision,
// sending a teammate partner-request unless the reason suppresses it
// (spec.md §4.6.2). Returns the chat lines to emit.
func (m *Machine) Stall(e Entity, piece chess.PieceType, scenario Scenario) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.states[e]
	reason := reasonFromScenario(scenario)
	s.Status = StatusSitting
	s.Reason = reason
	s.PlayerInduced = false
	s.StallPiece = piece

	lines := []string{scenarioChatLine(dropPieceToken(piece), scenario)}

	if !reason.suppressesRequest() {
		if teammate, ok := e.Teammate(); ok {
			if target, exists := m.states[teammate]; exists {
				target.Inbound = &Request{Piece: piece, Reason: reason, RequestedBy: e}
			}
			m.logger.Info("partner request sent",
				zap.String("from", e.String()),
				zap.String("to", teammate.String()),
				zap.String("scenario", scenario.String()),
			)
		}
	}
	return lines
}

// Fulfill notifies the machine that capturer captured capturedPiece; every
// Sitting bot whose outstanding request was directed at capturer, and
// whose requested piece is satisfied by the equivalence table, transitions
// back to Active with a "Thanks :)" chat line (spec.md §4.6.2/§4.6.3). A
// bot capturing a matching piece for itself does not fulfill its own
// request (callers never pass their own entity as capturer for their own
// request since Teammate() only matches the other side).
func (m *Machine) Fulfill(capturer Entity, capturedPiece chess.PieceType) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var chat []string
	for _, s := range m.states {
		if s.Status != StatusSitting || s.Reason.suppressesRequest() {
			continue
		}
		teammate, ok := s.Entity.Teammate()
		if !ok || teammate != capturer {
			continue
		}
		if !Fulfillers[s.StallPiece][capturedPiece] {
			continue
		}
		s.Status = StatusActive
		s.Reason = ReasonNone
		if target, exists := m.states[teammate]; exists {
			target.Inbound = nil
		}
		chat = append(chat, "Thanks :)")
		m.logger.Info("partner request fulfilled",
			zap.String("bot", s.Entity.String()),
			zap.String("by", capturer.String()),
		)
	}
	return chat
}

// TimeAbandon transitions e out of Sitting when it is no longer up on
// time, unless the stall was player-induced (spec.md §4.6.2: "cannot exit
// except by player Go"). Returns chat lines, empty if no transition
// occurred.
func (m *Machine) TimeAbandon(e Entity, upOnTime bool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.states[e]
	if s.Status != StatusSitting || s.PlayerInduced || upOnTime {
		return nil
	}
	s.Status = StatusActive
	s.Reason = ReasonNone
	return []string{"I go"}
}

// PlayerSit forces e into Sitting under direct player command (spec.md
// §4.6.2: only a human Go can exit this state).
func (m *Machine) PlayerSit(e Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.states[e]
	s.Status = StatusSitting
	s.Reason = ReasonPlayerCommand
	s.PlayerInduced = true
}

// PlayerGo forces e out of Sitting under direct player command and latches
// forced_to_go for one turn to prevent immediate re-stall (spec.md
// §4.6.2). Returns chat lines.
func (m *Machine) PlayerGo(e Entity) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.states[e]
	wasSitting := s.Status == StatusSitting
	s.Status = StatusActive
	s.Reason = ReasonNone
	s.PlayerInduced = false
	s.ForcedToGo = true
	if wasSitting {
		return []string{"I go"}
	}
	return nil
}

// ConsumeForcedToGo reports and clears the one-turn forced_to_go latch.
func (m *Machine) ConsumeForcedToGo(e Entity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.states[e]
	v := s.ForcedToGo
	s.ForcedToGo = false
	return v
}

// InboundRequest returns e's pending partner-request, if any, for
// move-biasing to consult (spec.md §4.6.4).
func (m *Machine) InboundRequest(e Entity) *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.states[e].Inbound; r != nil {
		cp := *r
		return &cp
	}
	return nil
}

func dropPieceToken(t chess.PieceType) string {
	switch t {
	case chess.Queen:
		return "Q"
	case chess.Rook:
		return "R"
	case chess.Bishop:
		return "B"
	case chess.Knight:
		return "N"
	case chess.Pawn:
		return "P"
	default:
		return "?"
	}
}

func scenarioChatLine(pieceToken string, scenario Scenario) string {
	switch scenario {
	case ScenarioForcesMate:
		return fmt.Sprintf("%s mates in N", pieceToken)
	case ScenarioSavesFromMate:
		return fmt.Sprintf("%s helps me survive", pieceToken)
	case ScenarioLostToWinning:
		return fmt.Sprintf("%s saves my position", pieceToken)
	case ScenarioMated:
		return "I am mated"
	default:
		return ""
	}
}

// InboundChatDelay is the observed delay before emitting "I will try." on
// an inbound request (spec.md §4.6.5: "a delayed 'I will try.' is emitted
// 1-2s later"). Exposed as a var, not a const, so tests can override it.
var InboundChatDelay = struct{ MinMS, MaxMS int }{MinMS: 1000, MaxMS: 2000}
