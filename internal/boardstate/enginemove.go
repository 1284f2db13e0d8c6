package boardstate

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/shoxrux/bughouse-orchestrator/internal/orcherr"
)

// ParseEngineMove applies a move string in the notation the engine returns
// (spec.md §6: "e2e4" / "e7e8q" for normal moves, "P@e4" for drops) to b,
// on behalf of side. It dispatches to ApplyNormal or ApplyDrop depending
// on whether the string contains the drop separator '@'.
func ParseEngineMove(b *Board, side chess.Color, move string) (Move, error) {
	if len(move) == 0 {
		return Move{}, orcherr.New(orcherr.KindProtocolParseError, "empty engine move")
	}

	if idx := indexByte(move, '@'); idx >= 0 {
		if idx != 1 {
			return Move{}, orcherr.New(orcherr.KindProtocolParseError, fmt.Sprintf("malformed drop notation %q", move))
		}
		piece := pieceFromDropLetter(move[0])
		if piece == chess.NoPieceType {
			return Move{}, orcherr.New(orcherr.KindProtocolParseError, fmt.Sprintf("unknown drop piece letter in %q", move))
		}
		sq, err := parseSquare(move[idx+1:])
		if err != nil {
			return Move{}, err
		}
		return b.ApplyDrop(sq, piece, side)
	}

	if len(move) < 4 {
		return Move{}, orcherr.New(orcherr.KindProtocolParseError, fmt.Sprintf("malformed move notation %q", move))
	}
	from, err := parseSquare(move[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := parseSquare(move[2:4])
	if err != nil {
		return Move{}, err
	}
	promo := chess.NoPieceType
	if len(move) == 5 {
		promo = promoFromLetter(move[4])
	}
	return b.ApplyNormal(from, to, promo)
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// ParseSquare parses a two-character algebraic square (e.g. "e4") into a
// chess.Square. Exposed for callers that need to inspect a raw engine move
// string's destination without applying it (spec.md §4.6.4 move-biasing).
func ParseSquare(s string) (chess.Square, error) {
	return parseSquare(s)
}

func parseSquare(s string) (chess.Square, error) {
	if len(s) != 2 {
		return 0, orcherr.New(orcherr.KindProtocolParseError, fmt.Sprintf("malformed square %q", s))
	}
	file := s[0] - 'a'
	rank := s[1] - '1'
	if file > 7 || rank > 7 {
		return 0, orcherr.New(orcherr.KindProtocolParseError, fmt.Sprintf("square out of range %q", s))
	}
	return chess.Square(int(rank)*8 + int(file)), nil
}

func pieceFromDropLetter(c byte) chess.PieceType {
	switch c {
	case 'Q':
		return chess.Queen
	case 'R':
		return chess.Rook
	case 'B':
		return chess.Bishop
	case 'N':
		return chess.Knight
	case 'P':
		return chess.Pawn
	default:
		return chess.NoPieceType
	}
}

func promoFromLetter(c byte) chess.PieceType {
	switch c {
	case 'q':
		return chess.Queen
	case 'r':
		return chess.Rook
	case 'b':
		return chess.Bishop
	case 'n':
		return chess.Knight
	default:
		return chess.NoPieceType
	}
}
