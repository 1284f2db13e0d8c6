package boardstate

import "github.com/notnil/chess"

// Kind distinguishes the two Move variants of spec.md §3.
type Kind int

const (
	KindNormal Kind = iota
	KindDrop
)

// Move is the sum type described in spec.md §3: a Normal move (from/to,
// optional promotion, optional captured piece derived at apply time) or a
// Drop (to-square, dropped piece type, dropped piece color).
type Move struct {
	Kind  Kind
	Ply   int
	Mover chess.Color // color that made this move, Normal or Drop alike

	// Normal fields.
	From      chess.Square
	To        chess.Square
	Promotion chess.PieceType // chess.NoPieceType when absent
	Captured  chess.PieceType // chess.NoPieceType when the move was not a capture

	// Drop fields.
	DropPiece chess.PieceType
	DropColor chess.Color
}

// IsCapture reports whether a Normal move captured a piece. Drops never
// capture (spec.md §3).
func (m Move) IsCapture() bool {
	return m.Kind == KindNormal && m.Captured != chess.NoPieceType
}

// UCI renders the move in the notation spec.md §6 specifies: "e2e4" /
// "e7e8q" for normal moves (with optional promotion suffix), "P@e4" for
// drops (piece letter, @, target square).
func (m Move) UCI() string {
	switch m.Kind {
	case KindDrop:
		return string(dropPieceLetter(m.DropPiece)) + "@" + m.To.String()
	default:
		s := m.From.String() + m.To.String()
		if m.Promotion != chess.NoPieceType {
			s += string(promoLetter(m.Promotion))
		}
		return s
	}
}

func dropPieceLetter(t chess.PieceType) byte {
	switch t {
	case chess.Queen:
		return 'Q'
	case chess.Rook:
		return 'R'
	case chess.Bishop:
		return 'B'
	case chess.Knight:
		return 'N'
	case chess.Pawn:
		return 'P'
	default:
		return '?'
	}
}

func promoLetter(t chess.PieceType) byte {
	switch t {
	case chess.Queen:
		return 'q'
	case chess.Rook:
		return 'r'
	case chess.Bishop:
		return 'b'
	case chess.Knight:
		return 'n'
	default:
		return 0
	}
}
