package pieceflow

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/shoxrux/bughouse-orchestrator/internal/boardstate"
)

func TestObserveMoveDeliversCaptureToOtherBoard(t *testing.T) {
	boardA := boardstate.NewBoard(chess.White)
	boardB := boardstate.NewBoard(chess.White)
	c := New(boardA, boardB, nil)

	_, err := boardA.ApplyNormal(chess.E2, chess.E4, chess.NoPieceType)
	require.NoError(t, err)
	_, err = boardA.ApplyNormal(chess.D7, chess.D5, chess.NoPieceType)
	require.NoError(t, err)
	_, err = boardA.ApplyNormal(chess.E4, chess.D5, chess.NoPieceType) // White captures Black pawn, ply 3
	require.NoError(t, err)

	require.NoError(t, c.ObserveMove(BoardA))

	// The captured piece belonged to Black and lands in Black's holdings
	// on board B.
	require.Equal(t, 1, boardB.HoldingsCount(chess.Black, chess.Pawn))
	require.Equal(t, 0, boardA.HoldingsCount(chess.Black, chess.Pawn))
}

func TestObserveMoveIsIdempotent(t *testing.T) {
	boardA := boardstate.NewBoard(chess.White)
	boardB := boardstate.NewBoard(chess.White)
	c := New(boardA, boardB, nil)

	_, err := boardA.ApplyNormal(chess.E2, chess.E4, chess.NoPieceType)
	require.NoError(t, err)
	_, err = boardA.ApplyNormal(chess.D7, chess.D5, chess.NoPieceType)
	require.NoError(t, err)
	_, err = boardA.ApplyNormal(chess.E4, chess.D5, chess.NoPieceType)
	require.NoError(t, err)

	require.NoError(t, c.ObserveMove(BoardA))
	require.NoError(t, c.ObserveMove(BoardA))

	require.Equal(t, 1, boardB.HoldingsCount(chess.Black, chess.Pawn))
}

func TestObserveMoveDeliversByMoverNotPlyParity(t *testing.T) {
	// A join-position board seeded Black-to-move: ply 1 is made by Black, so
	// delivery must key off each move's recorded mover, not odd/even ply
	// parity (which would assume ply 1 is always White's).
	boardA, err := boardstate.ParseFENWithHoldings("4k3/8/4p3/8/8/2B5/8/4K3 b - - 0 1", chess.Black)
	require.NoError(t, err)
	boardB := boardstate.NewBoard(chess.Black)
	c := New(boardA, boardB, nil)

	mv, err := boardA.ApplyNormal(chess.E6, chess.E5, chess.NoPieceType) // ply 1, Black, no capture
	require.NoError(t, err)
	require.False(t, mv.IsCapture())

	mv2, err := boardA.ApplyNormal(chess.C3, chess.E5, chess.NoPieceType) // ply 2, White bishop captures Black pawn
	require.NoError(t, err)
	require.True(t, mv2.IsCapture())

	require.NoError(t, c.ObserveMove(BoardA))

	// The captured pawn belonged to Black, even though ply 2 is even (the
	// ply-parity formula would have assigned it to White).
	require.Equal(t, 1, boardB.HoldingsCount(chess.Black, chess.Pawn))
	require.Equal(t, 0, boardB.HoldingsCount(chess.White, chess.Pawn))
}

func TestObserveMoveIgnoresNonCaptures(t *testing.T) {
	boardA := boardstate.NewBoard(chess.White)
	boardB := boardstate.NewBoard(chess.White)
	c := New(boardA, boardB, nil)

	_, err := boardA.ApplyNormal(chess.E2, chess.E4, chess.NoPieceType)
	require.NoError(t, err)
	require.NoError(t, c.ObserveMove(BoardA))

	for _, p := range boardstate.DroppablePieces {
		require.Equal(t, 0, boardB.HoldingsCount(chess.White, p))
		require.Equal(t, 0, boardB.HoldingsCount(chess.Black, p))
	}
}
