package controller

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/shoxrux/bughouse-orchestrator/internal/boardstate"
	"github.com/shoxrux/bughouse-orchestrator/internal/enginepool"
	"github.com/shoxrux/bughouse-orchestrator/internal/stall"
	"github.com/shoxrux/bughouse-orchestrator/internal/uci"
)

// fakeEngineScript answers uci/isready/setoption/position/stop/quit
// minimally and, on any "go", always replies with bestmove 0000 (no move),
// since the controller-level tests here exercise state transitions and
// persistence rather than real chess replies.
const fakeEngineScript = `
while read -r line; do
  case "$line" in
    uci) echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) echo "info depth 12 score cp 0"; echo "bestmove 0000" ;;
    stop) echo "bestmove 0000" ;;
    quit) exit 0 ;;
  esac
done
`

func fakeSpawner(t *testing.T) enginepool.Spawner {
	t.Helper()
	return func(name string) (*uci.Transport, error) {
		return uci.New(name, "/bin/sh", []string{"-c", fakeEngineScript}, nil)
	}
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	pool := enginepool.New(enginepool.Config{Capacity: 3}, fakeSpawner(t), nil)
	t.Cleanup(pool.Shutdown)
	return New("game-1", chess.White, pool, Config{ThinkTimeMs: 10, EvalDepth: 4}, nil)
}

func TestInitializeAcquiresThreeHandlesAndStartsInProgress(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Initialize(context.Background()))
	require.Equal(t, StatusInProgress, c.Status())
}

func TestStartNoOpWhenHumanIsWhite(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, chess.White, c.boardA.SideToMove())
}

func TestResignSetsPlayerLost(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Initialize(context.Background()))
	c.Resign()
	require.Equal(t, StatusPlayerLost, c.Status())
}

func TestPauseResumeToggle(t *testing.T) {
	c := newTestController(t)
	c.Pause()
	require.True(t, c.paused)
	c.Resume()
	require.False(t, c.paused)
}

func TestSendSitThenGoOnPartner(t *testing.T) {
	c := newTestController(t)
	c.SendSitCommand()
	require.Equal(t, stall.StatusSitting, c.stallM.State(stall.Partner).Status)

	chat := c.SendGoCommand()
	require.Equal(t, []string{"I go"}, chat)
	require.Equal(t, stall.StatusActive, c.stallM.State(stall.Partner).Status)
}

func TestMakePlayerMoveAppliesAndPersists(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Initialize(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.MakePlayerMove(ctx, chess.E2, chess.E4, chess.NoPieceType))

	history := c.boardA.History()
	require.Len(t, history, 1)
	require.Equal(t, "e2e4", history[0].UCI())

	rec, ok, err := c.gameStore.Get("game-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, rec.FENBoardA, "4P3")
}

// forcingEngineScript answers the handshake and, on any "go", always
// replies with a bishop move that lands on the fulfilling target square
// set up by TestTryForcingLineMove (spec.md §4.6.4 step 3).
const forcingEngineScript = `
while read -r line; do
  case "$line" in
    uci) echo "uciok" ;;
    isready) echo "readyok" ;;
    setoption*) : ;;
    position*) : ;;
    "go "*) echo "bestmove a1d4" ;;
    stop) echo "bestmove a1d4" ;;
    quit) exit 0 ;;
  esac
done
`

func TestTryForcingLineMoveAppliesVariantOverrideAndReverts(t *testing.T) {
	c := newTestController(t)
	c.cfg.VariantPath = filepath.Join(t.TempDir(), "variants.ini")

	// White bishop on a1, black bishop on d4 (fulfills a bishop request
	// per the equivalence table), diagonal clear between them.
	b, err := boardstate.ParseFENWithHoldings("7k/8/8/8/3b4/8/8/B6K w - - 0 1", chess.White)
	require.NoError(t, err)

	tr, err := uci.New("fake-bias", "/bin/sh", []string{"-c", forcingEngineScript}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(200 * time.Millisecond) })
	h := &enginepool.Handle{Transport: tr}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	moveStr, ok := c.tryForcingLineMove(ctx, b, h, chess.White, &stall.Request{Piece: chess.Bishop})
	require.True(t, ok)
	require.Equal(t, "a1d4", moveStr)

	content, err := os.ReadFile(c.cfg.VariantPath)
	require.NoError(t, err)
	require.Contains(t, string(content), "parent = bughouse")
	require.NotContains(t, string(content), "ghost_royal_bishop")
}

func TestFormatAnnotationTranslatesMateAndCentipawns(t *testing.T) {
	mateIn3 := 3
	require.Equal(t, "White mates in 3", formatAnnotation(uci.Evaluation{Score: uci.Score{Mate: &mateIn3}}, chess.White))

	mateInNeg2 := -2
	require.Equal(t, "Black mates in 2", formatAnnotation(uci.Evaluation{Score: uci.Score{Mate: &mateInNeg2}}, chess.White))

	cp := 34
	require.Equal(t, "+3 decipawns", formatAnnotation(uci.Evaluation{Score: uci.Score{Centipawns: &cp}}, chess.White))

	negCp := -120
	require.Equal(t, "-12 decipawns", formatAnnotation(uci.Evaluation{Score: uci.Score{Centipawns: &negCp}}, chess.White))
}

func TestAnnotateMovePersistsEvaluation(t *testing.T) {
	c := newTestController(t)
	require.NoError(t, c.Initialize(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.MakePlayerMove(ctx, chess.E2, chess.E4, chess.NoPieceType))

	recs, err := c.moveStore.List("game-1", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotEmpty(t, recs[0].Annotation)
}

func TestTryForcingLineMoveFalseWhenNoVariantPathConfigured(t *testing.T) {
	c := newTestController(t)
	b, err := boardstate.ParseFENWithHoldings("7k/8/8/8/3b4/8/8/B6K w - - 0 1", chess.White)
	require.NoError(t, err)

	tr, err := uci.New("fake-bias", "/bin/sh", []string{"-c", forcingEngineScript}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(200 * time.Millisecond) })
	h := &enginepool.Handle{Transport: tr}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, ok := c.tryForcingLineMove(ctx, b, h, chess.White, &stall.Request{Piece: chess.Bishop})
	require.False(t, ok)
}
