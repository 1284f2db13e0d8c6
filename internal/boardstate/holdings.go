package boardstate

import "github.com/notnil/chess"

// DroppablePieces is the fixed order Q,R,B,N,P used throughout spec.md for
// holdings enumeration and bughouse-FEN encoding (§3, §4.3).
var DroppablePieces = []chess.PieceType{chess.Queen, chess.Rook, chess.Bishop, chess.Knight, chess.Pawn}

// Holdings is the piece pool for one color on one board: a mapping
// {pawn, knight, bishop, rook, queen} -> non-negative count. Kings are
// never held (spec.md §3).
type Holdings map[chess.PieceType]int

func newHoldings() Holdings {
	h := make(Holdings, len(DroppablePieces))
	for _, p := range DroppablePieces {
		h[p] = 0
	}
	return h
}

// Count returns the held count for piece, 0 if absent or if piece is a king
// (kings are never tracked).
func (h Holdings) Count(piece chess.PieceType) int {
	return h[piece]
}

// Clone returns an independent copy, used by the stalling state machine to
// build hypothetical holdings for should-stall probes (spec.md §4.6.1)
// without mutating the board's real holdings.
func (h Holdings) Clone() Holdings {
	out := make(Holdings, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// WithAdded returns a clone with one extra unit of piece, used to build the
// hypothetical holdings probed in the should-stall evaluation (spec.md
// §4.6.1 step 5/6).
func (h Holdings) WithAdded(piece chess.PieceType) Holdings {
	out := h.Clone()
	out[piece]++
	return out
}
