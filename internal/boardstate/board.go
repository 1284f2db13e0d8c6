// Package boardstate implements the Position Model (C3) of spec.md §4.3:
// one chessboard plus its two holdings pools, backed by
// github.com/notnil/chess for standard-chess legality/outcome detection and
// extended with bughouse-FEN drop support the upstream library does not
// model. Grounded on the teacher's direct use of notnil/chess for position
// tracking, generalized to the bughouse drop rules.
package boardstate

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/shoxrux/bughouse-orchestrator/internal/orcherr"
)

// Board is one of the two boards in a bughouse game: a standard-chess
// position (owned by game) plus a holdings pool per color (spec.md §3).
type Board struct {
	Declared chess.Color // which color this struct labels the board as, for logging only

	game     *chess.Game
	holdings map[chess.Color]Holdings
	history  []Move
}

// NewBoard starts a fresh board at the standard starting position with
// empty holdings for both colors.
func NewBoard(declared chess.Color) *Board {
	return &Board{
		Declared: declared,
		game:     chess.NewGame(),
		holdings: map[chess.Color]Holdings{
			chess.White: newHoldings(),
			chess.Black: newHoldings(),
		},
	}
}

// Game exposes the underlying notnil/chess game, used by the controller for
// the true-checkmate verification probe (spec.md §4.5: temporary
// queen-drop + re-query).
func (b *Board) Game() *chess.Game {
	return b.game
}

// SideToMove returns the color on move.
func (b *Board) SideToMove() chess.Color {
	return b.game.Position().Turn()
}

// PieceAt returns the piece occupying sq, and false if the square is empty.
func (b *Board) PieceAt(sq chess.Square) (chess.Piece, bool) {
	p := b.game.Position().Board().Piece(sq)
	if p == chess.NoPiece {
		return chess.NoPiece, false
	}
	return p, true
}

// History returns the move log applied to this board, in ply order.
func (b *Board) History() []Move {
	return b.history
}

// HoldingsCount returns color's held count of piece.
func (b *Board) HoldingsCount(color chess.Color, piece chess.PieceType) int {
	return b.holdings[color].Count(piece)
}

// HoldingsAdd credits color with one more piece, the effect of a capture
// delivered across boards by the piece-flow coordinator (spec.md §4.4).
func (b *Board) HoldingsAdd(color chess.Color, piece chess.PieceType) {
	b.holdings[color][piece]++
}

// HoldingsRemove debits color's holding of piece by one. Returns false,
// without mutating anything, if color holds none of piece — spec.md §4.3
// specifies this is silent, never an error, since the caller is expected to
// have checked IsDropLegal first.
func (b *Board) HoldingsRemove(color chess.Color, piece chess.PieceType) bool {
	if b.holdings[color][piece] <= 0 {
		return false
	}
	b.holdings[color][piece]--
	return true
}

// ApplyNormal applies a standard chess move (optionally a promotion),
// delegating legality to notnil/chess. The captured piece type (if any) is
// recorded on the returned Move before the move is applied, for the
// piece-flow coordinator to consume.
func (b *Board) ApplyNormal(from, to chess.Square, promo chess.PieceType) (Move, error) {
	mover := b.SideToMove()

	var captured chess.PieceType
	if p, ok := b.PieceAt(to); ok {
		captured = p.Type()
	} else {
		captured = chess.NoPieceType
	}

	var match *chess.Move
	for _, m := range b.game.ValidMoves() {
		if m.S1() != from || m.S2() != to {
			continue
		}
		if promo != chess.NoPieceType && m.Promo() != promo {
			continue
		}
		match = m
		break
	}
	if match == nil {
		return Move{}, orcherr.New(orcherr.KindIllegalAction, fmt.Sprintf("no legal move %s%s", from, to))
	}

	// An en passant capture lands on an empty square, so the target-square
	// occupant check above sees nothing there; the captured pawn is the
	// standing one notnil/chess removed to satisfy the rule.
	if match.HasTag(chess.EnPassant) {
		captured = chess.Pawn
	}

	if err := b.game.Move(match); err != nil {
		return Move{}, orcherr.Wrap(orcherr.KindIllegalAction, "apply normal move", err)
	}

	mv := Move{
		Kind:      KindNormal,
		Ply:       len(b.history) + 1,
		Mover:     mover,
		From:      from,
		To:        to,
		Promotion: promo,
		Captured:  captured,
	}
	b.history = append(b.history, mv)
	return mv, nil
}

// IsDropLegal reports whether color may drop piece onto sq right now:
// the square must be empty, piece must not be a king, pawns may not drop on
// the first or last rank, color must hold at least one of piece, and the
// drop must not leave color's own king in check (spec.md §4.3).
func (b *Board) IsDropLegal(sq chess.Square, piece chess.PieceType, color chess.Color) bool {
	if piece == chess.King || piece == chess.NoPieceType {
		return false
	}
	if _, occupied := b.PieceAt(sq); occupied {
		return false
	}
	if piece == chess.Pawn {
		rank := sq.Rank()
		if rank == chess.Rank1 || rank == chess.Rank8 {
			return false
		}
	}
	if b.holdings[color].Count(piece) <= 0 {
		return false
	}

	probeFEN := b.buildFENForCheckProbe(sq, piece, color)
	fn, err := chess.FEN(probeFEN)
	if err != nil {
		return false
	}
	probe := chess.NewGame(fn)
	return !probe.Position().InCheck()
}

// ApplyDrop places piece from color's holdings onto sq. The underlying
// notnil/chess Game has no drop-move API, so the position is rebuilt via an
// explicit FEN round-trip (spec.md §4.3 Design Note: "the position model
// must tolerate this and maintain the grid directly when the standard-chess
// mover refuses").
func (b *Board) ApplyDrop(sq chess.Square, piece chess.PieceType, color chess.Color) (Move, error) {
	if !b.IsDropLegal(sq, piece, color) {
		return Move{}, orcherr.New(orcherr.KindIllegalAction, fmt.Sprintf("illegal drop %s@%s", piece, sq))
	}
	if !b.HoldingsRemove(color, piece) {
		return Move{}, orcherr.New(orcherr.KindIllegalAction, "holdings exhausted")
	}

	newFEN := b.buildFENAfterDrop(sq, piece, color)
	fn, err := chess.FEN(newFEN)
	if err != nil {
		b.HoldingsAdd(color, piece) // roll back the debit
		return Move{}, orcherr.Wrap(orcherr.KindLogicInvariantViolation, "rebuild position after drop", err)
	}
	b.game = chess.NewGame(fn)

	mv := Move{
		Kind:      KindDrop,
		Ply:       len(b.history) + 1,
		Mover:     color,
		To:        sq,
		DropPiece: piece,
		DropColor: color,
	}
	b.history = append(b.history, mv)
	return mv, nil
}

// IsCheckmate delegates to notnil/chess's own outcome detection. The
// caller (controller) is responsible for the true-checkmate re-verification
// of spec.md §4.5, since a holding side may be able to interpose or capture
// via a drop that notnil/chess cannot itself see.
func (b *Board) IsCheckmate() bool {
	return b.game.Method() == chess.Checkmate
}

// IsStalemate reports true stalemate: notnil/chess sees no legal standard
// move AND the side to move has no legal drop anywhere on the board. A
// position that notnil/chess calls stalemate but where the side to move
// holds a piece droppable without leaving itself in check is not actually
// stalemate in bughouse (Open Question resolved in SPEC_FULL.md §7).
func (b *Board) IsStalemate() bool {
	if b.game.Method() != chess.Stalemate {
		return false
	}
	turn := b.SideToMove()
	for _, piece := range DroppablePieces {
		if b.holdings[turn].Count(piece) <= 0 {
			continue
		}
		for sq := chess.Square(0); sq < 64; sq++ {
			if b.IsDropLegal(sq, piece, turn) {
				return false
			}
		}
	}
	return true
}

// FENWithHoldings renders the bughouse-extended FEN: the standard FEN
// placement field, a "[H]" bracket listing holdings (white pieces
// uppercase then black pieces lowercase, both in Q,R,B,N,P order), then the
// remaining standard FEN fields (spec.md §3 GLOSSARY, §4.3).
func (b *Board) FENWithHoldings() string {
	fields := strings.Fields(b.game.FEN())
	bracket := holdingsBracket(b.holdings[chess.White], b.holdings[chess.Black])
	fields[0] = fields[0] + "[" + bracket + "]"
	return strings.Join(fields, " ")
}

// ParseFENWithHoldings reconstructs a Board from a bughouse-extended FEN
// produced by FENWithHoldings. declared labels which side of the match this
// board represents.
func ParseFENWithHoldings(s string, declared chess.Color) (*Board, error) {
	plainFEN, holdingsRaw, err := splitBughouseFEN(s)
	if err != nil {
		return nil, orcherr.Wrap(orcherr.KindProtocolParseError, "split bughouse fen", err)
	}
	fn, err := chess.FEN(plainFEN)
	if err != nil {
		return nil, orcherr.Wrap(orcherr.KindProtocolParseError, "parse fen", err)
	}
	white, black, err := parseHoldingsBracket(holdingsRaw)
	if err != nil {
		return nil, orcherr.Wrap(orcherr.KindProtocolParseError, "parse holdings", err)
	}
	return &Board{
		Declared: declared,
		game:     chess.NewGame(fn),
		holdings: map[chess.Color]Holdings{chess.White: white, chess.Black: black},
	}, nil
}

// buildFENAfterDrop splices piece into sq, flips the side to move, clears
// en passant, and advances the move counters — the FEN a drop produces.
func (b *Board) buildFENAfterDrop(sq chess.Square, piece chess.PieceType, color chess.Color) string {
	return b.spliceFEN(sq, piece, color, true)
}

// buildFENForCheckProbe splices piece into sq without flipping the side to
// move, so the resulting position can be queried for "is color's own king
// now in check" (IsDropLegal's self-check test).
func (b *Board) buildFENForCheckProbe(sq chess.Square, piece chess.PieceType, color chess.Color) string {
	return b.spliceFEN(sq, piece, color, false)
}

func (b *Board) spliceFEN(sq chess.Square, piece chess.PieceType, color chess.Color, flipTurn bool) string {
	placement := piecePlacementFEN(func(s chess.Square) chess.Piece {
		if s == sq {
			return pieceFor(piece, color)
		}
		p := b.game.Position().Board().Piece(s)
		return p
	})

	fields := strings.Fields(b.game.FEN())
	fields[0] = placement
	if flipTurn {
		if fields[1] == "w" {
			fields[1] = "b"
		} else {
			fields[1] = "w"
			fields[5] = incrementFullmove(fields[5])
		}
		fields[3] = "-" // a drop can never create an en passant target
		fields[4] = "0" // halfmove clock resets (drops are irreversible like a capture)
	}
	return strings.Join(fields, " ")
}

func incrementFullmove(s string) string {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return s
	}
	return fmt.Sprintf("%d", n+1)
}
