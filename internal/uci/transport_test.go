package uci

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeEngineScript is a minimal shell-based stand-in for a UCI engine: it
// answers the handshake and always replies with a fixed best move, so the
// Transport's line-correlation logic can be exercised without a real
// chess engine binary installed on the test host.
const fakeEngineScript = `
while read -r line; do
  case "$line" in
    uci) echo "id name fake"; echo "uciok" ;;
    isready) echo "readyok" ;;
    position*) : ;;
    "go "*) echo "info depth 12 score cp 25 nodes 100 time 5 pv e2e4"; echo "bestmove e2e4 ponder e7e5" ;;
    stop) echo "bestmove e2e4" ;;
    quit) exit 0 ;;
  esac
done
`

func newFakeTransport(t *testing.T) *Transport {
	t.Helper()
	tr, err := New("fake", "/bin/sh", []string{"-c", fakeEngineScript}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(200 * time.Millisecond) })
	return tr
}

func TestTransportInitialize(t *testing.T) {
	tr := newFakeTransport(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tr.Initialize(ctx))
}

func TestTransportBestMove(t *testing.T) {
	tr := newFakeTransport(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tr.Initialize(ctx))
	require.NoError(t, tr.SetPosition(ctx, "startpos", nil))

	bm, err := tr.BestMove(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, "e2e4", bm.Move)
	require.Equal(t, "e7e5", bm.Ponder)
	require.False(t, bm.None)
}

func TestTransportEvaluation(t *testing.T) {
	tr := newFakeTransport(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tr.Initialize(ctx))
	require.NoError(t, tr.SetPosition(ctx, "startpos", nil))

	eval, err := tr.Evaluation(ctx, 12)
	require.NoError(t, err)
	require.NotNil(t, eval.Score.Centipawns)
	require.Equal(t, 25, *eval.Score.Centipawns)
}

// unresponsiveEngineScript never answers isready, so any request that
// needs to synchronize on readyok will starve until the caller's context
// deadline fires.
const unresponsiveEngineScript = `
while read -r line; do
  case "$line" in
    uci) echo "uciok" ;;
    quit) exit 0 ;;
  esac
done
`

func TestTransportDeadAfterTimeout(t *testing.T) {
	tr, err := New("fake-unresponsive", "/bin/sh", []string{"-c", unresponsiveEngineScript}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(200 * time.Millisecond) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// setoption's trailing synchronization on isready/readyok never arrives,
	// so the transport should mark itself dead on context deadline.
	_ = tr.SetOptions(ctx, map[string]string{"UCI_Variant": "bughouse"})
	require.True(t, tr.Dead())
}
