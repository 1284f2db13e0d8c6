package stall

import (
	"github.com/notnil/chess"

	"github.com/shoxrux/bughouse-orchestrator/internal/boardstate"
)

// fileOf/rankOf/squareAt use the same a1=0, rank-major square numbering as
// boardstate's FEN helpers.
func fileOf(sq chess.Square) int { return int(sq) % 8 }
func rankOf(sq chess.Square) int { return int(sq) / 8 }
func squareAt(file, rank int) chess.Square { return chess.Square(rank*8 + file) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func signInt(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// FulfillingTargets enumerates opponent-held squares whose occupant would
// satisfy a request for requested, per the equivalence table of spec.md
// §4.6.3.
func FulfillingTargets(board *boardstate.Board, mover chess.Color, requested chess.PieceType) []chess.Square {
	opponent := mover.Other()
	fulfillSet := Fulfillers[requested]
	var targets []chess.Square
	for sq := chess.Square(0); sq < 64; sq++ {
		p, ok := board.PieceAt(sq)
		if !ok || p.Color() != opponent || !fulfillSet[p.Type()] {
			continue
		}
		targets = append(targets, sq)
	}
	return targets
}

// SearchMoveCandidates returns UCI "from+to" strings for every own-side
// piece that can geometrically reach a target square holding a fulfilling
// piece (spec.md §4.6.4 step 2: "Build the set of from->to candidates and
// pass them to the engine as searchmoves").
func SearchMoveCandidates(board *boardstate.Board, mover chess.Color, requested chess.PieceType) []string {
	targets := FulfillingTargets(board, mover, requested)
	if len(targets) == 0 {
		return nil
	}

	var out []string
	for sq := chess.Square(0); sq < 64; sq++ {
		p, ok := board.PieceAt(sq)
		if !ok || p.Color() != mover {
			continue
		}
		for _, t := range targets {
			if reaches(board, sq, t, p.Type()) {
				out = append(out, sq.String()+t.String())
			}
		}
	}
	return out
}

// reaches reports whether the piece of type pt standing on from can
// geometrically move to to, given the current occupancy of board (used
// only to clear sliding paths; destination occupancy by the target piece
// is expected and not itself a blocker).
func reaches(board *boardstate.Board, from, to chess.Square, pt chess.PieceType) bool {
	df := fileOf(to) - fileOf(from)
	dr := rankOf(to) - rankOf(from)

	switch pt {
	case chess.Knight:
		return (absInt(df) == 1 && absInt(dr) == 2) || (absInt(df) == 2 && absInt(dr) == 1)
	case chess.King:
		return (df != 0 || dr != 0) && absInt(df) <= 1 && absInt(dr) <= 1
	case chess.Pawn:
		mover, ok := board.PieceAt(from)
		if !ok {
			return false
		}
		dir := 1
		if mover.Color() == chess.Black {
			dir = -1
		}
		return absInt(df) == 1 && dr == dir
	case chess.Bishop:
		return df != 0 && absInt(df) == absInt(dr) && clearPath(board, from, to)
	case chess.Rook:
		return (df == 0) != (dr == 0) && clearPath(board, from, to)
	case chess.Queen:
		return (df != 0 || dr != 0) && (df == 0 || dr == 0 || absInt(df) == absInt(dr)) && clearPath(board, from, to)
	default:
		return false
	}
}

// clearPath reports whether every square strictly between from and to is
// empty, assuming the two squares lie on a shared rank, file, or diagonal.
func clearPath(board *boardstate.Board, from, to chess.Square) bool {
	stepF := signInt(fileOf(to) - fileOf(from))
	stepR := signInt(rankOf(to) - rankOf(from))
	f, r := fileOf(from)+stepF, rankOf(from)+stepR
	for f != fileOf(to) || r != rankOf(to) {
		if _, occupied := board.PieceAt(squareAt(f, r)); occupied {
			return false
		}
		f += stepF
		r += stepR
	}
	return true
}

// ManhattanDistance is the proximity-strategy distance metric of spec.md
// §4.6.4 step 3's proximity biasing mode.
func ManhattanDistance(from, to chess.Square) int {
	return absInt(fileOf(from)-fileOf(to)) + absInt(rankOf(from)-rankOf(to))
}
