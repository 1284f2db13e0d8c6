package boardstate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/notnil/chess"
)

// piecePlacementFEN serializes the 8x8 grid (queried via getPiece, square
// numbering a1=0 .. h8=63, rank-major a1..h1 then a2..h2 ...) into the
// placement field of a FEN string.
func piecePlacementFEN(getPiece func(chess.Square) chess.Piece) string {
	ranks := make([]string, 8)
	for rankIdx := 7; rankIdx >= 0; rankIdx-- {
		var sb strings.Builder
		empty := 0
		for fileIdx := 0; fileIdx < 8; fileIdx++ {
			sq := chess.Square(rankIdx*8 + fileIdx)
			p := getPiece(sq)
			if p == chess.NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteRune(pieceFENChar(p))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		ranks[7-rankIdx] = sb.String()
	}
	return strings.Join(ranks, "/")
}

func pieceFENChar(p chess.Piece) rune {
	var ch rune
	switch p.Type() {
	case chess.King:
		ch = 'k'
	case chess.Queen:
		ch = 'q'
	case chess.Rook:
		ch = 'r'
	case chess.Bishop:
		ch = 'b'
	case chess.Knight:
		ch = 'n'
	case chess.Pawn:
		ch = 'p'
	}
	if p.Color() == chess.White {
		return unicode.ToUpper(ch)
	}
	return ch
}

func pieceFor(t chess.PieceType, c chess.Color) chess.Piece {
	if c == chess.White {
		switch t {
		case chess.King:
			return chess.WhiteKing
		case chess.Queen:
			return chess.WhiteQueen
		case chess.Rook:
			return chess.WhiteRook
		case chess.Bishop:
			return chess.WhiteBishop
		case chess.Knight:
			return chess.WhiteKnight
		case chess.Pawn:
			return chess.WhitePawn
		}
	} else {
		switch t {
		case chess.King:
			return chess.BlackKing
		case chess.Queen:
			return chess.BlackQueen
		case chess.Rook:
			return chess.BlackRook
		case chess.Bishop:
			return chess.BlackBishop
		case chess.Knight:
			return chess.BlackKnight
		case chess.Pawn:
			return chess.BlackPawn
		}
	}
	return chess.NoPiece
}

// holdingsBracket renders the "[H]" segment described in spec.md's
// GLOSSARY and §4.3: white-held pieces uppercase in order Q,R,B,N,P, then
// black-held pieces lowercase in the same order.
func holdingsBracket(white, black Holdings) string {
	var sb strings.Builder
	for _, p := range DroppablePieces {
		for i := 0; i < white.Count(p); i++ {
			sb.WriteRune(pieceFENChar(pieceFor(p, chess.White)))
		}
	}
	for _, p := range DroppablePieces {
		for i := 0; i < black.Count(p); i++ {
			sb.WriteRune(pieceFENChar(pieceFor(p, chess.Black)))
		}
	}
	return sb.String()
}

// parseHoldingsBracket parses the "[H]" segment back into white/black
// Holdings maps.
func parseHoldingsBracket(h string) (white, black Holdings, err error) {
	white, black = newHoldings(), newHoldings()
	for _, r := range h {
		t, color, ok := pieceTypeFromFENChar(r)
		if !ok {
			return nil, nil, fmt.Errorf("invalid holdings character %q", r)
		}
		if color == chess.White {
			white[t]++
		} else {
			black[t]++
		}
	}
	return white, black, nil
}

func pieceTypeFromFENChar(r rune) (chess.PieceType, chess.Color, bool) {
	color := chess.White
	lower := unicode.ToLower(r)
	if r == lower {
		color = chess.Black
	}
	switch lower {
	case 'q':
		return chess.Queen, color, true
	case 'r':
		return chess.Rook, color, true
	case 'b':
		return chess.Bishop, color, true
	case 'n':
		return chess.Knight, color, true
	case 'p':
		return chess.Pawn, color, true
	default:
		return chess.NoPieceType, color, false
	}
}

// splitBughouseFEN separates a bughouse-extended FEN "<placement>[H] <turn>
// <castling> <ep> <half> <full>" into its plain-FEN equivalent and the raw
// holdings bracket contents.
func splitBughouseFEN(fen string) (plainFEN string, holdingsRaw string, err error) {
	open := strings.IndexByte(fen, '[')
	if open < 0 {
		return fen, "", nil
	}
	close := strings.IndexByte(fen, ']')
	if close < 0 || close < open {
		return "", "", fmt.Errorf("unterminated holdings bracket in %q", fen)
	}
	plainFEN = fen[:open] + fen[close+1:]
	holdingsRaw = fen[open+1 : close]
	return strings.Join(strings.Fields(plainFEN), " "), holdingsRaw, nil
}
