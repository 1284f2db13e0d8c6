// Package uci implements the client side of the UCI protocol: one
// Transport per engine subprocess, line-buffered, with command
// correlation by trigger substring (uciok / readyok / bestmove), per
// spec.md §4.1. It deliberately does not wrap github.com/notnil/chess/uci
// (see DESIGN.md): that library only exposes a blocking Run(cmds...)
// call, which cannot express searchmoves-restricted queries or raw info
// streaming that the stalling state machine (§4.6.4) needs.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shoxrux/bughouse-orchestrator/internal/orcherr"
)

// Score is the normalized result of an evaluation query, kept verbatim in
// the conventions spec.md §4.1 calls out: centipawn scores are White-
// relative, mate scores are side-to-move-relative.
type Score struct {
	// Mate is non-nil when the engine reported "score mate N".
	Mate *int
	// Centipawns is non-nil when the engine reported "score cp N".
	Centipawns *int
}

// Evaluation is the outcome of Transport.Evaluation.
type Evaluation struct {
	Depth int
	Score Score
	Nodes uint64
	PV    []string
}

// BestMove is the outcome of Transport.BestMove / BestMoveWithSearchMoves.
type BestMove struct {
	// Move is engine move notation (e2e4, e7e8q, or a drop like P@e4 for
	// variant-aware engines). Empty when None is true.
	Move   string
	Ponder string
	// None is true when the engine returned 0000 or (none): no move.
	None bool
}

// Transport owns one UCI engine subprocess. Exactly one request may be
// outstanding at a time; callers must await a response before issuing the
// next command (spec.md §4.1 concurrency contract). Transport is safe for
// concurrent use in the sense that concurrent callers serialize through
// the internal mutex, but the design intent is one owner at a time via
// the engine pool.
type Transport struct {
	name   string
	path   string
	args   []string
	logger *zap.Logger

	mu  sync.Mutex // serializes request/response cycles
	cmd *exec.Cmd

	stdin  io.WriteCloser
	lines  chan string
	closed chan struct{}

	deadMu sync.Mutex
	dead   bool
}

// New starts the engine subprocess but does not perform the UCI handshake;
// call Initialize for that.
func New(name, path string, args []string, logger *zap.Logger) (*Transport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, orcherr.Wrap(orcherr.KindTransportFailure, "stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, orcherr.Wrap(orcherr.KindTransportFailure, "stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, orcherr.Wrap(orcherr.KindTransportFailure, "stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, orcherr.Wrap(orcherr.KindTransportFailure, "start engine process", err)
	}

	t := &Transport{
		name:   name,
		path:   path,
		args:   args,
		logger: logger.With(zap.String("engine", name)),
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan string, 256),
		closed: make(chan struct{}),
	}

	go t.readLoop(stdout)
	go t.readErrLoop(stderr)

	return t, nil
}

func (t *Transport) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		t.logger.Debug("engine stdout", zap.String("line", line))
		select {
		case t.lines <- line:
		case <-t.closed:
			return
		}
	}
	t.markDead(fmt.Errorf("engine stdout closed"))
}

func (t *Transport) readErrLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		t.logger.Warn("engine stderr", zap.String("line", scanner.Text()))
	}
}

func (t *Transport) markDead(cause error) {
	t.deadMu.Lock()
	defer t.deadMu.Unlock()
	if !t.dead {
		t.dead = true
		t.logger.Warn("transport marked dead", zap.Error(cause))
	}
}

// Dead reports whether this transport has suffered a fatal transport
// failure and must be retired by the pool.
func (t *Transport) Dead() bool {
	t.deadMu.Lock()
	defer t.deadMu.Unlock()
	return t.dead
}

func (t *Transport) send(line string) error {
	t.logger.Debug("engine stdin", zap.String("line", line))
	if _, err := fmt.Fprintln(t.stdin, line); err != nil {
		t.markDead(err)
		return orcherr.Wrap(orcherr.KindTransportFailure, "write to engine stdin", err)
	}
	return nil
}

// awaitTrigger reads lines until one contains trigger as a substring,
// or ctx is done, or the process dies. collect, if non-nil, is invoked for
// every line seen (including the triggering one).
func (t *Transport) awaitTrigger(ctx context.Context, trigger string, collect func(line string)) (string, error) {
	for {
		select {
		case line, ok := <-t.lines:
			if !ok {
				t.markDead(fmt.Errorf("engine line channel closed"))
				return "", orcherr.New(orcherr.KindTransportFailure, "engine stdout closed while awaiting "+trigger)
			}
			if collect != nil {
				collect(line)
			}
			if strings.Contains(line, trigger) {
				return line, nil
			}
		case <-ctx.Done():
			t.markDead(ctx.Err())
			return "", orcherr.Wrap(orcherr.KindTransportFailure, "timed out awaiting "+trigger, ctx.Err())
		case <-t.closed:
			return "", orcherr.New(orcherr.KindTransportFailure, "transport closed while awaiting "+trigger)
		}
	}
}

func (t *Transport) guardDead() error {
	if t.Dead() {
		return orcherr.New(orcherr.KindTransportFailure, "transport is dead")
	}
	return nil
}

// Initialize performs the uci / uciok / isready / readyok handshake.
func (t *Transport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guardDead(); err != nil {
		return err
	}
	if err := t.send(cmdUCI()); err != nil {
		return err
	}
	if _, err := t.awaitTrigger(ctx, "uciok", nil); err != nil {
		return err
	}
	return t.isReadyLocked(ctx)
}

func (t *Transport) isReadyLocked(ctx context.Context) error {
	if err := t.send(cmdIsReady()); err != nil {
		return err
	}
	_, err := t.awaitTrigger(ctx, "readyok", nil)
	return err
}

// SetOptions emits "setoption name N value V" for each entry, then
// synchronizes with isready/readyok per spec.md §4.1. Map iteration order
// is non-deterministic, which is fine: UCI options are independent.
func (t *Transport) SetOptions(ctx context.Context, opts map[string]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guardDead(); err != nil {
		return err
	}
	for name, value := range opts {
		if err := t.send(cmdSetOption(name, value)); err != nil {
			return err
		}
	}
	return t.isReadyLocked(ctx)
}

// SetPosition emits "position fen F [moves ...]" then synchronizes.
func (t *Transport) SetPosition(ctx context.Context, fen string, moves []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guardDead(); err != nil {
		return err
	}
	if err := t.send(cmdPosition(fen, moves)); err != nil {
		return err
	}
	return t.isReadyLocked(ctx)
}

// BestMove emits "go movetime T" and waits for bestmove.
func (t *Transport) BestMove(ctx context.Context, timeMs int) (BestMove, error) {
	return t.bestMove(ctx, timeMs, nil)
}

// BestMoveWithSearchMoves emits "go movetime T searchmoves ..." to restrict
// the search root to candidates, per spec.md §4.1.
func (t *Transport) BestMoveWithSearchMoves(ctx context.Context, timeMs int, candidates []string) (BestMove, error) {
	return t.bestMove(ctx, timeMs, candidates)
}

func (t *Transport) bestMove(ctx context.Context, timeMs int, candidates []string) (BestMove, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guardDead(); err != nil {
		return BestMove{}, err
	}
	if err := t.send(cmdGoMoveTime(timeMs, candidates)); err != nil {
		return BestMove{}, err
	}
	line, err := t.awaitTrigger(ctx, "bestmove", nil)
	if err != nil {
		return BestMove{}, err
	}
	parsed, ok := parseBestMove(line)
	if !ok {
		return BestMove{}, orcherr.New(orcherr.KindProtocolParseError, "malformed bestmove line: "+line)
	}
	return BestMove{Move: parsed.Move, Ponder: parsed.Ponder, None: parsed.None}, nil
}

// Evaluation emits "go depth D", retains the last info line seen before
// bestmove, and returns its derived score (spec.md §4.1).
func (t *Transport) Evaluation(ctx context.Context, depth int) (Evaluation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guardDead(); err != nil {
		return Evaluation{}, err
	}
	if err := t.send(cmdGoDepth(depth)); err != nil {
		return Evaluation{}, err
	}

	var last infoLine
	haveInfo := false
	collect := func(line string) {
		if parsed, ok := parseInfoLine(line); ok {
			if parsed.CentipawnP != nil || parsed.MateP != nil {
				last = parsed
				haveInfo = true
			}
		}
	}
	if _, err := t.awaitTrigger(ctx, "bestmove", collect); err != nil {
		return Evaluation{}, err
	}
	if !haveInfo {
		return Evaluation{}, orcherr.New(orcherr.KindEvaluationFailure, "no info score seen before bestmove")
	}
	return Evaluation{
		Depth: last.Depth,
		Score: Score{Mate: last.MateP, Centipawns: last.CentipawnP},
		Nodes: last.Nodes,
		PV:    last.PV,
	}, nil
}

// Stop emits "stop" and consumes the resulting bestmove.
func (t *Transport) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guardDead(); err != nil {
		return err
	}
	if err := t.send(cmdStop()); err != nil {
		return err
	}
	_, err := t.awaitTrigger(ctx, "bestmove", nil)
	return err
}

// Shutdown emits "quit", waits up to grace for the process to exit, then
// forcibly terminates it. Safe to call on an already-dead transport.
func (t *Transport) Shutdown(grace time.Duration) error {
	t.mu.Lock()
	_ = t.send(cmdQuit())
	t.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case err := <-done:
		close(t.closed)
		return err
	case <-time.After(grace):
		_ = t.cmd.Process.Kill()
		err := <-done
		close(t.closed)
		return err
	}
}

// Name returns the transport's engine identity label, the same label
// attached to its log lines.
func (t *Transport) Name() string { return t.name }
