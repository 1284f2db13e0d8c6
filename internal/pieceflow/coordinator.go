// Package pieceflow implements the Piece-Flow Coordinator (C4) of spec.md
// §4.4: on every non-drop capture applied to either board, deliver one unit
// of the captured piece type to the same-color holdings pool on the other
// board. Grounded on spec.md's own Design Note calling for explicit
// message passing between the two boards, in the idiom of the
// event/channel pattern seen in other_examples'
// f2ff2aee_BrownNPC-chess-api (a Match type broadcasting move events).
package pieceflow

import (
	"fmt"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/shoxrux/bughouse-orchestrator/internal/boardstate"
	"github.com/shoxrux/bughouse-orchestrator/internal/orcherr"
)

// BoardID names one of the two boards a Coordinator tracks.
type BoardID int

const (
	BoardA BoardID = iota
	BoardB
)

func (b BoardID) other() BoardID {
	if b == BoardA {
		return BoardB
	}
	return BoardA
}

func (b BoardID) String() string {
	if b == BoardA {
		return "A"
	}
	return "B"
}

// Coordinator tracks, per board, the last processed ply index, so that
// re-delivery of a move already seen is a no-op rather than a duplicate
// credit (spec.md §4.4: "last processed move index per board so duplicate
// application is impossible").
type Coordinator struct {
	logger *zap.Logger

	boards        map[BoardID]*boardstate.Board
	lastProcessed map[BoardID]int
}

// New builds a Coordinator over the two boards it will observe.
func New(boardA, boardB *boardstate.Board, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		logger: logger,
		boards: map[BoardID]*boardstate.Board{
			BoardA: boardA,
			BoardB: boardB,
		},
		lastProcessed: map[BoardID]int{BoardA: 0, BoardB: 0},
	}
}

// ObserveMove inspects the board's move history up through its latest ply
// and delivers any newly-seen capture to the other board's holdings. It is
// idempotent: calling it twice after the same move is applied delivers
// nothing the second time.
func (c *Coordinator) ObserveMove(board BoardID) error {
	b, ok := c.boards[board]
	if !ok {
		return orcherr.New(orcherr.KindLogicInvariantViolation, fmt.Sprintf("unknown board %v", board))
	}
	history := b.History()
	last := c.lastProcessed[board]
	if last > len(history) {
		return orcherr.New(orcherr.KindLogicInvariantViolation, "processed index ahead of history length")
	}

	for _, mv := range history[last:] {
		if mv.IsCapture() {
			c.deliver(board, mv)
		}
	}
	c.lastProcessed[board] = len(history)
	return nil
}

func (c *Coordinator) deliver(fromBoard BoardID, mv boardstate.Move) {
	capturedColor := capturedPieceColor(mv)
	dest := c.boards[fromBoard.other()]
	dest.HoldingsAdd(capturedColor, mv.Captured)
	c.logger.Info("piece delivered",
		zap.String("from_board", fromBoard.String()),
		zap.String("to_board", fromBoard.other().String()),
		zap.Stringer("piece", mv.Captured),
		zap.Stringer("color", capturedColor),
	)
}

// capturedPieceColor determines which color's army the captured piece
// belonged to: the piece taken always belongs to whoever did not make the
// move. Derived from the mover recorded on the move itself rather than ply
// parity, since parity only holds for a board that began at the standard
// White-to-move position — a join-position/FEN-seeded board starting
// Black-to-move would otherwise have captured colors flipped. Captured
// pieces never change color (spec.md §4.4).
func capturedPieceColor(mv boardstate.Move) chess.Color {
	return mv.Mover.Other()
}
