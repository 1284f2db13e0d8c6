package controller

import (
	"github.com/notnil/chess"

	"github.com/shoxrux/bughouse-orchestrator/internal/boardstate"
	"github.com/shoxrux/bughouse-orchestrator/internal/pieceflow"
	"github.com/shoxrux/bughouse-orchestrator/internal/stall"
)

// The controller propagates each committed move synchronously in a fixed
// order (coordinator delivery, then request fulfillment, then persistence;
// see afterMoveLocked) by calling those steps directly. The event types
// below describe those steps as values; the controller does not construct
// or dispatch them.

// MoveApplied describes a move that has committed to a board.
type MoveApplied struct {
	Board pieceflow.BoardID
	Move  boardstate.Move
}

// CaptureDelivered describes the piece-flow coordinator crediting a
// captured piece to the other board's holdings.
type CaptureDelivered struct {
	ToBoard pieceflow.BoardID
	Color   chess.Color
	Piece   chess.PieceType
}

// RequestFulfilled describes a capture satisfying a teammate's
// outstanding partner-request.
type RequestFulfilled struct {
	Bot  stall.Entity
	Chat []string
}

// Status is the Game status enum of spec.md §3.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusPlayerWon
	StatusPlayerLost
	StatusPartnerWon
	StatusPartnerLost
	StatusDraw
	StatusFinished
)

func (s Status) Terminal() bool {
	return s != StatusNotStarted && s != StatusInProgress
}

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusPlayerWon:
		return "player_won"
	case StatusPlayerLost:
		return "player_lost"
	case StatusPartnerWon:
		return "partner_won"
	case StatusPartnerLost:
		return "partner_lost"
	case StatusDraw:
		return "draw"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}
