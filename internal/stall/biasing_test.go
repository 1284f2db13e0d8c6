package stall

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/shoxrux/bughouse-orchestrator/internal/boardstate"
)

func parseTestBoard(t *testing.T, fen string) *boardstate.Board {
	t.Helper()
	b, err := boardstate.ParseFENWithHoldings(fen, chess.White)
	require.NoError(t, err)
	return b
}

func TestSearchMoveCandidatesFindsKnightReachingTarget(t *testing.T) {
	b := parseTestBoard(t, "8/8/8/8/8/3n4/8/4N2K w - - 0 1")

	candidates := SearchMoveCandidates(b, chess.White, chess.Knight)
	require.Contains(t, candidates, "e1d3")
}

func TestSearchMoveCandidatesEmptyWhenNoTargets(t *testing.T) {
	b := parseTestBoard(t, "8/8/8/8/8/8/8/4K3 w - - 0 1")
	require.Empty(t, SearchMoveCandidates(b, chess.White, chess.Queen))
}

func TestRookCandidateBlockedByInterveningPiece(t *testing.T) {
	// A white rook on a1, a black queen (fulfills a rook request) on a8,
	// blocked by a white pawn on a4: the rook cannot reach a8.
	b := parseTestBoard(t, "q7/8/8/8/P7/8/8/R6K w - - 0 1")
	candidates := SearchMoveCandidates(b, chess.White, chess.Rook)
	require.NotContains(t, candidates, "a1a8")
}

func TestManhattanDistance(t *testing.T) {
	require.Equal(t, 0, ManhattanDistance(chess.E4, chess.E4))
	require.Equal(t, 2, ManhattanDistance(chess.E4, chess.E6))
}
