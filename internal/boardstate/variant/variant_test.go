package variant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"
)

func TestWriteRoyalPiece(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "variants.ini")

	name, err := Write(path, RoyalPiece, chess.Queen)
	require.NoError(t, err)
	require.Equal(t, "ghost_royal_queen", name)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "queenRoyal = true")
}

func TestWriteHighValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "variants.ini")

	name, err := Write(path, HighValue, chess.Knight)
	require.NoError(t, err)
	require.Equal(t, "ghost_highvalue_knight", name)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "knightValue = 99999")
}

func TestWriteBaselineReverts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "variants.ini")

	require.NoError(t, WriteBaseline(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), Baseline)
}
