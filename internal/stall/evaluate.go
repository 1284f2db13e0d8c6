package stall

import (
	"github.com/notnil/chess"

	"github.com/shoxrux/bughouse-orchestrator/internal/orcherr"
)

// Eval is a normalized evaluation from the evaluated side's own
// perspective: positive Centipawns favors that side; MateIn, when
// non-nil, is positive when that side delivers mate and negative when it
// is mated (spec.md §4.6.1 step 2).
type Eval struct {
	Centipawns int
	MateIn     *int
}

// NormalizeCentipawns converts a raw White-relative centipawn score into a
// value from sideToMove's own perspective: "Centipawn scores flip sign
// when White is to move (because UCI centipawns are White-relative)"
// (spec.md §4.6.1 step 2).
func NormalizeCentipawns(rawWhiteRelative int, sideToMove chess.Color) int {
	if sideToMove == chess.White {
		return -rawWhiteRelative
	}
	return rawWhiteRelative
}

// ApplyLongMateCutoff re-expresses any mate score with |distance| > 5 as a
// ±5000 centipawn value signaling "winning" rather than "forced mate"
// (spec.md §4.6.1 step 3; Open Question resolved in SPEC_FULL.md §7: this
// runs before any lost_to_winning comparison, so the ±300/±200 band never
// spuriously triggers on a long-mate score).
func ApplyLongMateCutoff(e Eval) Eval {
	if e.MateIn == nil {
		return e
	}
	d := *e.MateIn
	if d > 5 || d < -5 {
		cp := 5000
		if d < 0 {
			cp = -5000
		}
		return Eval{Centipawns: cp}
	}
	return e
}

// Prober evaluates the position as it would be with one more unit of
// piece in our holdings, without mutating real board state (spec.md
// §4.6.1 steps 5/6).
type Prober func(piece chess.PieceType) (Eval, error)

// Roller draws a uniform(0,1) sample; injectable so tests can pin the
// outcome of spec.md §4.6.1 step 7's probabilistic gate.
type Roller func() float64

// EvaluateShouldStall runs the should-stall procedure of spec.md §4.6.1
// against the already-computed current evaluation, probing hypothetical
// holdings via probe as needed. Returns nil, nil when no stall scenario
// applies.
func EvaluateShouldStall(current Eval, upOnTime bool, probe Prober, roll Roller) (*Decision, error) {
	current = ApplyLongMateCutoff(current)

	// Step 4: never sit on a line where we are already mating soon.
	if current.MateIn != nil && *current.MateIn > 0 && *current.MateIn <= 5 {
		return nil, nil
	}

	// Step 5: mate-in-1 special case. If nothing we could hold would save
	// it, the only move left is to sit on "mated" (subject to being up on
	// time). If something would save it, fall through to step 6's general
	// iteration, which will independently discover that piece's
	// saves_from_mate scenario.
	if current.MateIn != nil && *current.MateIn == -1 {
		saveable, err := anyPieceSaves(probe)
		if err != nil {
			return nil, err
		}
		if !saveable {
			return &Decision{Piece: chess.Queen, Scenario: ScenarioMated, ShouldStall: upOnTime}, nil
		}
	}

	for _, piece := range IterationOrder {
		hyp, err := probe(piece)
		if err != nil {
			return nil, orcherr.Wrap(orcherr.KindEvaluationFailure, "probe hypothetical holdings", err)
		}
		hyp = ApplyLongMateCutoff(hyp)

		scenario, ok := classify(current, hyp, piece)
		if !ok {
			continue
		}

		prob := DefaultProbabilities[piece][scenario]
		dec := &Decision{Piece: piece, Scenario: scenario, MateDistance: hyp.MateIn}
		// Saving a literal mate-in-1 is always 100% (spec.md §4.6.1: "Saving
		// from a literal mate-in-1 is always 100% (subject to being up on
		// time)").
		if current.MateIn != nil && *current.MateIn == -1 && scenario == ScenarioSavesFromMate {
			dec.ShouldStall = upOnTime
		} else {
			dec.ShouldStall = upOnTime && roll() < prob
		}
		return dec, nil
	}
	return nil, nil
}

func anyPieceSaves(probe Prober) (bool, error) {
	for _, piece := range IterationOrder {
		hyp, err := probe(piece)
		if err != nil {
			return false, orcherr.Wrap(orcherr.KindEvaluationFailure, "probe hypothetical holdings", err)
		}
		hyp = ApplyLongMateCutoff(hyp)
		if hyp.MateIn == nil || *hyp.MateIn >= 0 {
			return true, nil
		}
	}
	return false, nil
}

func classify(current, hyp Eval, piece chess.PieceType) (Scenario, bool) {
	currentlyWeMate := current.MateIn != nil && *current.MateIn > 0
	currentlyMatingUs := current.MateIn != nil && *current.MateIn < 0
	hypWeMate := hyp.MateIn != nil && *hyp.MateIn > 0
	hypNotMatingUs := hyp.MateIn == nil || *hyp.MateIn >= 0

	if !currentlyWeMate && hypWeMate {
		return ScenarioForcesMate, true
	}
	if currentlyMatingUs && hypNotMatingUs {
		return ScenarioSavesFromMate, true
	}
	if piece == chess.Pawn || piece == chess.Knight || piece == chess.Bishop {
		if current.MateIn == nil && hyp.MateIn == nil &&
			current.Centipawns < -300 && hyp.Centipawns > 200 {
			return ScenarioLostToWinning, true
		}
	}
	return ScenarioNone, false
}
