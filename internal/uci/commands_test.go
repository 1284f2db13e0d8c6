package uci

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNoMove(t *testing.T) {
	assert.True(t, isNoMove("0000"))
	assert.True(t, isNoMove("(none)"))
	assert.False(t, isNoMove("e2e4"))
}

func TestParseBestMove(t *testing.T) {
	parsed, ok := parseBestMove("bestmove e2e4 ponder e7e5")
	require.True(t, ok)
	assert.Equal(t, "e2e4", parsed.Move)
	assert.Equal(t, "e7e5", parsed.Ponder)
	assert.False(t, parsed.None)

	parsed, ok = parseBestMove("bestmove 0000")
	require.True(t, ok)
	assert.True(t, parsed.None)

	_, ok = parseBestMove("info depth 1")
	assert.False(t, ok)
}

func TestParseInfoLineCentipawn(t *testing.T) {
	parsed, ok := parseInfoLine("info depth 12 score cp 34 nodes 10000 time 120 pv e2e4 e7e5")
	require.True(t, ok)
	require.NotNil(t, parsed.CentipawnP)
	assert.Equal(t, 34, *parsed.CentipawnP)
	assert.Nil(t, parsed.MateP)
	assert.Equal(t, 12, parsed.Depth)
	assert.Equal(t, uint64(10000), parsed.Nodes)
	assert.Equal(t, []string{"e2e4", "e7e5"}, parsed.PV)
}

func TestParseInfoLineMate(t *testing.T) {
	parsed, ok := parseInfoLine("info depth 8 score mate -3 nodes 500 time 10")
	require.True(t, ok)
	require.NotNil(t, parsed.MateP)
	assert.Equal(t, -3, *parsed.MateP)
	assert.Nil(t, parsed.CentipawnP)
}

func TestCmdBuilders(t *testing.T) {
	assert.Equal(t, "uci", cmdUCI())
	assert.Equal(t, "isready", cmdIsReady())
	assert.Equal(t, "setoption name UCI_Variant value bughouse", cmdSetOption("UCI_Variant", "bughouse"))
	assert.Equal(t, "position fen startpos moves e2e4", cmdPosition("startpos", []string{"e2e4"}))
	assert.Equal(t, "position fen startpos", cmdPosition("startpos", nil))
	assert.Equal(t, "go movetime 500", cmdGoMoveTime(500, nil))
	assert.Equal(t, "go movetime 500 searchmoves e2e4 d2d4", cmdGoMoveTime(500, []string{"e2e4", "d2d4"}))
	assert.Equal(t, "go depth 12", cmdGoDepth(12))
	assert.Equal(t, "stop", cmdStop())
	assert.Equal(t, "quit", cmdQuit())
}
