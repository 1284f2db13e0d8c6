package stall

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"
)

func mateIn(n int) Eval {
	d := n
	return Eval{MateIn: &d}
}

func TestNeverStallWhenMatingSoon(t *testing.T) {
	dec, err := EvaluateShouldStall(mateIn(3), true, func(chess.PieceType) (Eval, error) {
		t.Fatal("should not probe when already mating within cutoff")
		return Eval{}, nil
	}, func() float64 { return 0 })
	require.NoError(t, err)
	require.Nil(t, dec)
}

func TestLongMateCutoffTreatedAsWinningNotMate(t *testing.T) {
	// mate in 6 exceeds the cutoff of 5 and becomes +5000 cp, which must
	// not itself trigger lost_to_winning (needs < -300 currently).
	dec, err := EvaluateShouldStall(mateIn(6), true, func(chess.PieceType) (Eval, error) {
		return Eval{Centipawns: 400}, nil
	}, func() float64 { return 0 })
	require.NoError(t, err)
	require.Nil(t, dec)
}

func TestMateInFiveBoundaryStillNoStall(t *testing.T) {
	dec, err := EvaluateShouldStall(mateIn(5), true, func(chess.PieceType) (Eval, error) {
		return Eval{Centipawns: 0}, nil
	}, func() float64 { return 0 })
	require.NoError(t, err)
	require.Nil(t, dec)
}

func TestForcesMateDetected(t *testing.T) {
	current := Eval{Centipawns: -50}
	dec, err := EvaluateShouldStall(current, true, func(p chess.PieceType) (Eval, error) {
		if p == chess.Knight {
			m := 3
			return Eval{MateIn: &m}, nil
		}
		return Eval{Centipawns: -50}, nil
	}, func() float64 { return 0 })
	require.NoError(t, err)
	require.NotNil(t, dec)
	require.Equal(t, chess.Knight, dec.Piece)
	require.Equal(t, ScenarioForcesMate, dec.Scenario)
	require.True(t, dec.ShouldStall)
}

func TestForcesMateNotTriggeredAboveProbabilityRoll(t *testing.T) {
	current := Eval{Centipawns: -50}
	dec, err := EvaluateShouldStall(current, true, func(p chess.PieceType) (Eval, error) {
		if p == chess.Pawn {
			m := 2
			return Eval{MateIn: &m}, nil
		}
		return Eval{Centipawns: -50}, nil
	}, func() float64 { return 0.99 }) // pawn forces_mate probability is 0.98
	require.NoError(t, err)
	require.NotNil(t, dec)
	require.False(t, dec.ShouldStall)
}

func TestMatedInOneUnsaveableReturnsMatedScenario(t *testing.T) {
	current := mateIn(-1)
	dec, err := EvaluateShouldStall(current, true, func(chess.PieceType) (Eval, error) {
		m := -1
		return Eval{MateIn: &m}, nil // nothing saves it
	}, func() float64 { return 0 })
	require.NoError(t, err)
	require.NotNil(t, dec)
	require.Equal(t, ScenarioMated, dec.Scenario)
	require.Equal(t, chess.Queen, dec.Piece)
	require.True(t, dec.ShouldStall)
}

func TestMatedInOneSaveableAlwaysStalls(t *testing.T) {
	current := mateIn(-1)
	dec, err := EvaluateShouldStall(current, true, func(p chess.PieceType) (Eval, error) {
		if p == chess.Rook {
			return Eval{Centipawns: 10}, nil // removes the mate entirely
		}
		m := -1
		return Eval{MateIn: &m}, nil
	}, func() float64 { return 0.999 })
	require.NoError(t, err)
	require.NotNil(t, dec)
	require.Equal(t, chess.Rook, dec.Piece)
	require.Equal(t, ScenarioSavesFromMate, dec.Scenario)
	require.True(t, dec.ShouldStall) // always 100% per spec, regardless of roll
}

func TestLostToWinningOnlyForMinorsAndPawns(t *testing.T) {
	current := Eval{Centipawns: -400}
	dec, err := EvaluateShouldStall(current, true, func(p chess.PieceType) (Eval, error) {
		if p == chess.Pawn {
			return Eval{Centipawns: 250}, nil
		}
		return Eval{Centipawns: -400}, nil
	}, func() float64 { return 0 })
	require.NoError(t, err)
	require.NotNil(t, dec)
	require.Equal(t, chess.Pawn, dec.Piece)
	require.Equal(t, ScenarioLostToWinning, dec.Scenario)
}

func TestNotUpOnTimeNeverStalls(t *testing.T) {
	current := Eval{Centipawns: -50}
	dec, err := EvaluateShouldStall(current, false, func(p chess.PieceType) (Eval, error) {
		if p == chess.Knight {
			m := 3
			return Eval{MateIn: &m}, nil
		}
		return Eval{Centipawns: -50}, nil
	}, func() float64 { return 0 })
	require.NoError(t, err)
	require.NotNil(t, dec)
	require.False(t, dec.ShouldStall)
}
