package controller

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/shoxrux/bughouse-orchestrator/internal/boardstate"
	"github.com/shoxrux/bughouse-orchestrator/internal/boardstate/variant"
	"github.com/shoxrux/bughouse-orchestrator/internal/enginepool"
	"github.com/shoxrux/bughouse-orchestrator/internal/orcherr"
	"github.com/shoxrux/bughouse-orchestrator/internal/pieceflow"
	"github.com/shoxrux/bughouse-orchestrator/internal/stall"
	"github.com/shoxrux/bughouse-orchestrator/internal/store"
	"github.com/shoxrux/bughouse-orchestrator/internal/uci"
)

// Config bundles the tunables a Controller needs beyond the shared engine
// pool: per-bot think time, evaluation depth, the variant file path, and
// each clock's initial allowance.
type Config struct {
	ThinkTimeMs    int // default 1000
	EvalDepth      int // default 12
	VariantPath    string
	ClockAllowance time.Duration // default 5m
	LoopDelay      time.Duration // default 150ms, spec.md §4.5 "short delay"

	// BiasStrategy picks which of spec.md §4.6.4 step 3's three
	// interchangeable forcing-line modes the controller drives when
	// searchmoves-restriction alone doesn't produce a request-oriented
	// move. Defaults to variant.RoyalPiece.
	BiasStrategy variant.Strategy
}

// Controller is the Game Controller (C5) of spec.md §4.5.
type Controller struct {
	logger *zap.Logger
	cfg    Config
	pool   *enginepool.Pool

	gameID     string
	humanColor chess.Color

	mu      sync.Mutex
	boardA  *boardstate.Board // human vs Bot1
	boardB  *boardstate.Board // Partner vs Bot2
	coord   *pieceflow.Coordinator
	stallM  *stall.Machine
	clocks  *ClockSet
	handles map[stall.Entity]*enginepool.Handle
	status  Status
	paused  bool

	moveStore store.MoveLogStore
	gameStore store.GameRecordStore
	chatStore store.ChatLogStore
}

// New builds a Controller in status NotStarted, both boards at the
// standard starting position. Board A's declared color is humanColor;
// board B's Partner plays the opposite color, per the standard bughouse
// convention of partners sitting on opposite colors.
func New(gameID string, humanColor chess.Color, pool *enginepool.Pool, cfg Config, logger *zap.Logger) *Controller {
	return newWithBoards(gameID, humanColor, pool, cfg, logger,
		boardstate.NewBoard(humanColor), boardstate.NewBoard(humanColor.Other()))
}

// NewFromPosition builds a Controller seeded at explicit bughouse-extended
// FEN positions for both boards rather than the standard starting
// position — the control-plane's "join position" operation (spec.md §6),
// for attaching to a game already mid-flight.
func NewFromPosition(gameID string, humanColor chess.Color, pool *enginepool.Pool, cfg Config, logger *zap.Logger, fenBoardA, fenBoardB string) (*Controller, error) {
	boardA, err := boardstate.ParseFENWithHoldings(fenBoardA, humanColor)
	if err != nil {
		return nil, orcherr.Wrap(orcherr.KindProtocolParseError, "parse board A position", err)
	}
	boardB, err := boardstate.ParseFENWithHoldings(fenBoardB, humanColor.Other())
	if err != nil {
		return nil, orcherr.Wrap(orcherr.KindProtocolParseError, "parse board B position", err)
	}
	return newWithBoards(gameID, humanColor, pool, cfg, logger, boardA, boardB), nil
}

func newWithBoards(gameID string, humanColor chess.Color, pool *enginepool.Pool, cfg Config, logger *zap.Logger, boardA, boardB *boardstate.Board) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ThinkTimeMs <= 0 {
		cfg.ThinkTimeMs = 1000
	}
	if cfg.EvalDepth <= 0 {
		cfg.EvalDepth = 12
	}
	if cfg.ClockAllowance <= 0 {
		cfg.ClockAllowance = 5 * time.Minute
	}
	if cfg.LoopDelay <= 0 {
		cfg.LoopDelay = 150 * time.Millisecond
	}

	return &Controller{
		logger:     logger.With(zap.String("game_id", gameID)),
		cfg:        cfg,
		pool:       pool,
		gameID:     gameID,
		humanColor: humanColor,
		boardA:     boardA,
		boardB:     boardB,
		coord:      pieceflow.New(boardA, boardB, logger),
		stallM:     stall.New(logger),
		clocks:     NewClockSet(cfg.ClockAllowance),
		handles:    make(map[stall.Entity]*enginepool.Handle),
		status:     StatusNotStarted,
		moveStore:  store.NewInMemoryMoveLogStore(),
		gameStore:  store.NewInMemoryGameRecordStore(),
		chatStore:  store.NewInMemoryChatLogStore(),
	}
}

type seat struct {
	board pieceflow.BoardID
	color chess.Color
}

func (c *Controller) seatOf(e stall.Entity) seat {
	switch e {
	case stall.Bot1:
		return seat{board: pieceflow.BoardA, color: c.humanColor.Other()}
	case stall.Partner:
		return seat{board: pieceflow.BoardB, color: c.humanColor.Other()}
	case stall.Bot2:
		return seat{board: pieceflow.BoardB, color: c.humanColor}
	default: // Human
		return seat{board: pieceflow.BoardA, color: c.humanColor}
	}
}

func (c *Controller) boardFor(id pieceflow.BoardID) *boardstate.Board {
	if id == pieceflow.BoardA {
		return c.boardA
	}
	return c.boardB
}

// Initialize acquires and configures all three engines with the bughouse
// variant option, then transitions to InProgress (spec.md §4.5).
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range []stall.Entity{stall.Bot1, stall.Partner, stall.Bot2} {
		h, err := c.pool.Acquire(ctx)
		if err != nil {
			return err
		}
		if err := h.Transport.Initialize(ctx); err != nil {
			c.pool.Retire(h, err)
			return err
		}
		opts := map[string]string{"UCI_Variant": variant.Baseline}
		if c.cfg.VariantPath != "" {
			if err := variant.WriteBaseline(c.cfg.VariantPath); err == nil {
				opts["VariantPath"] = c.cfg.VariantPath
			}
		}
		if err := h.Transport.SetOptions(ctx, opts); err != nil {
			c.pool.Retire(h, err)
			return err
		}
		c.handles[e] = h
	}

	c.status = StatusInProgress
	c.clocks.Of(stall.Human).Start()
	c.clocks.Of(stall.Partner).Start()
	c.clocks.Of(stall.Bot1).Start()
	c.clocks.Of(stall.Bot2).Start()
	c.persistGameRecord()
	return nil
}

// Start kicks off play: if the human plays Black, Bot1 moves first on
// board A (spec.md §4.5).
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	humanIsBlack := c.humanColor == chess.Black
	c.mu.Unlock()
	if humanIsBlack {
		return c.botReply(ctx, stall.Bot1)
	}
	return nil
}

// MakePlayerMove applies a normal move for the human on board A, then
// invokes Bot1's reply (spec.md §4.5).
func (c *Controller) MakePlayerMove(ctx context.Context, from, to chess.Square, promo chess.PieceType) error {
	c.mu.Lock()
	if c.status != StatusInProgress {
		c.mu.Unlock()
		return orcherr.New(orcherr.KindIllegalAction, "game not in progress")
	}
	if c.boardA.SideToMove() != c.humanColor {
		c.mu.Unlock()
		return orcherr.New(orcherr.KindIllegalAction, "not human's turn")
	}
	mv, err := c.boardA.ApplyNormal(from, to, promo)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.afterMoveLocked(pieceflow.BoardA, stall.Human, mv)
	c.mu.Unlock()
	c.annotateMove(ctx, pieceflow.BoardA, mv)

	if err := c.checkTermination(ctx, pieceflow.BoardA); err != nil {
		return err
	}
	return c.botReply(ctx, stall.Bot1)
}

// DropPiece applies a drop for the human on board A, then invokes Bot1's
// reply.
func (c *Controller) DropPiece(ctx context.Context, sq chess.Square, piece chess.PieceType) error {
	c.mu.Lock()
	if c.status != StatusInProgress {
		c.mu.Unlock()
		return orcherr.New(orcherr.KindIllegalAction, "game not in progress")
	}
	if c.boardA.SideToMove() != c.humanColor {
		c.mu.Unlock()
		return orcherr.New(orcherr.KindIllegalAction, "not human's turn")
	}
	mv, err := c.boardA.ApplyDrop(sq, piece, c.humanColor)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.afterMoveLocked(pieceflow.BoardA, stall.Human, mv)
	c.mu.Unlock()
	c.annotateMove(ctx, pieceflow.BoardA, mv)

	if err := c.checkTermination(ctx, pieceflow.BoardA); err != nil {
		return err
	}
	return c.botReply(ctx, stall.Bot1)
}

// afterMoveLocked runs the coordinator/fulfillment/persistence steps common
// to every applied move. Caller holds c.mu.
func (c *Controller) afterMoveLocked(board pieceflow.BoardID, mover stall.Entity, mv boardstate.Move) {
	_ = c.coord.ObserveMove(board)
	if mv.IsCapture() {
		c.stallM.Fulfill(mover, mv.Captured)
	}
	c.persistMoveLocked(board, mv)
	c.persistGameRecordLocked()
}

func (c *Controller) persistMoveLocked(board pieceflow.BoardID, mv boardstate.Move) {
	boardID := 1
	if board == pieceflow.BoardB {
		boardID = 2
	}
	b := c.boardFor(board)
	_ = c.moveStore.Append(store.MoveRecord{
		GameID:  c.gameID,
		BoardID: boardID,
		Ply:     mv.Ply,
		UCI:     mv.UCI(),
		FEN:     b.FENWithHoldings(),
	})
}

func (c *Controller) persistGameRecord() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persistGameRecordLocked()
}

func (c *Controller) persistGameRecordLocked() {
	_ = c.gameStore.Upsert(store.GameRecord{
		GameID:    c.gameID,
		FENBoardA: c.boardA.FENWithHoldings(),
		FENBoardB: c.boardB.FENWithHoldings(),
		Status:    c.status.String(),
	})
}

// Pause suspends the partner-board loop between iterations.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume lets the partner-board loop continue.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

// Resign sets PlayerLost and freezes the partner loop.
func (c *Controller) Resign() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusPlayerLost
	c.persistGameRecordLocked()
}

// SendGoCommand issues a player Go to Partner (spec.md §4.6.2).
func (c *Controller) SendGoCommand() []string {
	return c.stallM.PlayerGo(stall.Partner)
}

// SendSitCommand issues a player Sit to Partner (spec.md §4.6.2).
func (c *Controller) SendSitCommand() {
	c.stallM.PlayerSit(stall.Partner)
}

// Status returns the current game status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) checkTermination(ctx context.Context, board pieceflow.BoardID) error {
	b := c.boardFor(board)
	if !b.IsCheckmate() {
		return nil
	}
	mated := b.SideToMove()
	mateEntity, handleColor := c.handleForBoardColor(board, mated)
	h := c.handles[mateEntity]
	if h == nil {
		return nil
	}
	isTrue, err := c.verifyTrueCheckmate(ctx, b, h, handleColor)
	if err != nil {
		return err
	}
	if !isTrue {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if board == pieceflow.BoardA {
		if mated == c.humanColor {
			c.status = StatusPlayerLost
		} else {
			c.status = StatusPlayerWon
		}
	} else {
		if mated == c.boardFor(pieceflow.BoardB).Declared {
			c.status = StatusPartnerLost
		} else {
			c.status = StatusPartnerWon
		}
	}
	c.persistGameRecordLocked()
	return nil
}

func (c *Controller) handleForBoardColor(board pieceflow.BoardID, color chess.Color) (stall.Entity, chess.Color) {
	for _, e := range []stall.Entity{stall.Bot1, stall.Partner, stall.Bot2} {
		s := c.seatOf(e)
		if s.board == board && s.color == color {
			return e, color
		}
	}
	return stall.Bot1, color
}

// verifyTrueCheckmate implements spec.md §4.5's true-checkmate policy:
// temporarily add a queen to the mated side's holdings and re-query the
// engine; a legal reply means it was not really terminal.
func (c *Controller) verifyTrueCheckmate(ctx context.Context, b *boardstate.Board, h *enginepool.Handle, matedColor chess.Color) (bool, error) {
	b.HoldingsAdd(matedColor, chess.Queen)
	defer func() {
		// HoldingsRemove silently no-ops only if count is already zero,
		// which cannot happen here since we just added one.
		b.HoldingsRemove(matedColor, chess.Queen)
	}()

	if err := h.Transport.SetPosition(ctx, b.FENWithHoldings(), nil); err != nil {
		return false, err
	}
	bm, err := h.Transport.BestMove(ctx, 500)
	if err != nil {
		return false, err
	}
	return bm.None, nil
}

// botReply drives one bot's move on whichever board it sits on, running
// the full decision cycle (spec.md §4.6). Human moves never invoke this
// directly for Partner/Bot2; those are driven by the background loop.
func (c *Controller) botReply(ctx context.Context, e stall.Entity) error {
	c.mu.Lock()
	if c.status != StatusInProgress {
		c.mu.Unlock()
		return nil
	}
	s := c.seatOf(e)
	b := c.boardFor(s.board)
	if b.SideToMove() != s.color {
		c.mu.Unlock()
		return nil
	}
	h := c.handles[e]
	c.mu.Unlock()
	if h == nil {
		return orcherr.New(orcherr.KindPoolExhausted, "no handle for "+e.String())
	}

	return c.runDecisionCycle(ctx, e, s, b, h)
}

// runDecisionCycle executes spec.md §4.6's decision cycle for one bot:
// should-stall evaluation, then (if not stalling) ordinary or
// request-biased move selection.
func (c *Controller) runDecisionCycle(ctx context.Context, e stall.Entity, s seat, b *boardstate.Board, h *enginepool.Handle) error {
	if c.stallM.ConsumeForcedToGo(e) {
		return c.playOrdinaryMove(ctx, e, s, b, h)
	}

	current, err := c.currentEval(ctx, b, h, s.color)
	if err != nil {
		return err
	}

	upOnTime := c.clocks.UpOnTime(e)
	probe := func(piece chess.PieceType) (stall.Eval, error) {
		return c.hypotheticalEval(ctx, b, h, s.color, piece)
	}
	decision, err := stall.EvaluateShouldStall(current, upOnTime, probe, rand.Float64)
	if err != nil {
		return err
	}
	if decision != nil && decision.ShouldStall {
		chat := c.stallM.Stall(e, decision.Piece, decision.Scenario)
		c.appendChat(e, chat)
		if teammate, ok := e.Teammate(); ok {
			if req := c.stallM.InboundRequest(teammate); req != nil {
				c.scheduleWillTryChat(teammate)
			}
		}
		return nil // sitting: no move applied, clock keeps draining
	}

	if req := c.stallM.InboundRequest(e); req != nil {
		// Step 1: a position already mating in <=5 is played straight, the
		// request is ignored (spec.md §4.6.4).
		if current.MateIn != nil && *current.MateIn > 0 && *current.MateIn <= 5 {
			return c.playOrdinaryMove(ctx, e, s, b, h)
		}
		return c.playBiasedMove(ctx, e, s, b, h, req)
	}
	return c.playOrdinaryMove(ctx, e, s, b, h)
}

func (c *Controller) playOrdinaryMove(ctx context.Context, e stall.Entity, s seat, b *boardstate.Board, h *enginepool.Handle) error {
	if err := h.Transport.SetPosition(ctx, b.FENWithHoldings(), nil); err != nil {
		return err
	}
	bm, err := h.Transport.BestMove(ctx, c.cfg.ThinkTimeMs)
	if err != nil {
		return err
	}
	if bm.None {
		c.logger.Warn("engine returned no move", zap.String("entity", e.String()))
		return nil
	}
	return c.applyEngineMove(ctx, e, s, b, bm.Move)
}

// playBiasedMove drives spec.md §4.6.4's move-selection order for a bot
// with a pending inbound request that isn't already covered by step 1's
// mate-in-<=5 exemption: try a searchmoves-restricted query over
// geometrically reachable fulfilling captures (step 2), fall back to the
// forcing-line biasing mode (step 3), and finally the ordinary best move
// (step 4).
func (c *Controller) playBiasedMove(ctx context.Context, e stall.Entity, s seat, b *boardstate.Board, h *enginepool.Handle, req *stall.Request) error {
	candidates := stall.SearchMoveCandidates(b, s.color, req.Piece)
	if len(candidates) > 0 {
		if err := h.Transport.SetPosition(ctx, b.FENWithHoldings(), nil); err != nil {
			return err
		}
		bm, err := h.Transport.BestMoveWithSearchMoves(ctx, c.cfg.ThinkTimeMs, candidates)
		if err == nil && !bm.None {
			return c.applyEngineMove(ctx, e, s, b, bm.Move)
		}
	}

	if moveStr, ok := c.tryForcingLineMove(ctx, b, h, s.color, req); ok {
		return c.applyEngineMove(ctx, e, s, b, moveStr)
	}

	return c.playOrdinaryMove(ctx, e, s, b, h)
}

// tryForcingLineMove implements spec.md §4.6.4 step 3: temporarily load a
// variant file biasing the engine toward request.Piece (the royal-piece or
// high-value strategy, per cfg.BiasStrategy) and query a best move under
// it. The variant override is always reverted to the baseline bughouse
// configuration before returning, on every exit path (spec.md §4.6.4:
// "the transient variant/options are reverted ... after the move is
// selected"; §9 Design Note: "the controller must guarantee a reset on
// every exit path"). Returns ok=false, with the override already reverted,
// if no variant path is configured, the strategy is Proximity (which adds
// nothing beyond step 2's searchmoves restriction: no variant swap and no
// multi-PV selection), or the
// resulting move doesn't actually land on a fulfilling target square.
func (c *Controller) tryForcingLineMove(ctx context.Context, b *boardstate.Board, h *enginepool.Handle, mover chess.Color, req *stall.Request) (string, bool) {
	if c.cfg.VariantPath == "" || c.cfg.BiasStrategy == variant.Proximity {
		return "", false
	}

	targets := stall.FulfillingTargets(b, mover, req.Piece)
	if len(targets) == 0 {
		return "", false
	}

	variantName, err := variant.Write(c.cfg.VariantPath, c.cfg.BiasStrategy, req.Piece)
	if err != nil {
		c.logger.Warn("forcing-line variant write failed", zap.Error(err))
		return "", false
	}
	defer func() {
		if err := variant.WriteBaseline(c.cfg.VariantPath); err != nil {
			c.logger.Warn("forcing-line variant revert (file) failed", zap.Error(err))
		}
		if err := h.Transport.SetOptions(ctx, map[string]string{"UCI_Variant": variant.Baseline}); err != nil {
			c.logger.Warn("forcing-line variant revert (engine) failed", zap.Error(err))
		}
	}()

	if err := h.Transport.SetOptions(ctx, map[string]string{"UCI_Variant": variantName, "VariantPath": c.cfg.VariantPath}); err != nil {
		c.logger.Warn("forcing-line variant activation failed", zap.Error(err))
		return "", false
	}
	if err := h.Transport.SetPosition(ctx, b.FENWithHoldings(), nil); err != nil {
		return "", false
	}
	bm, err := h.Transport.BestMove(ctx, c.cfg.ThinkTimeMs)
	if err != nil || bm.None {
		return "", false
	}

	dest, ok := destinationSquare(bm.Move)
	if !ok || !squareIn(targets, dest) {
		return "", false
	}
	return bm.Move, true
}

// destinationSquare extracts the target square from a normal-move UCI
// string ("e2e4", "e7e8q"); drop notation ("P@e4") never captures so it
// never counts as request-oriented here.
func destinationSquare(moveStr string) (chess.Square, bool) {
	if len(moveStr) < 4 || strings.ContainsRune(moveStr, '@') {
		return 0, false
	}
	sq, err := boardstate.ParseSquare(moveStr[2:4])
	if err != nil {
		return 0, false
	}
	return sq, true
}

func squareIn(list []chess.Square, sq chess.Square) bool {
	for _, s := range list {
		if s == sq {
			return true
		}
	}
	return false
}

func (c *Controller) applyEngineMove(ctx context.Context, e stall.Entity, s seat, b *boardstate.Board, moveStr string) error {
	mv, err := boardstate.ParseEngineMove(b, s.color, moveStr)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.afterMoveLocked(s.board, e, mv)
	c.mu.Unlock()
	c.annotateMove(ctx, s.board, mv)

	return c.checkTermination(ctx, s.board)
}

func (c *Controller) currentEval(ctx context.Context, b *boardstate.Board, h *enginepool.Handle, side chess.Color) (stall.Eval, error) {
	if err := h.Transport.SetPosition(ctx, b.FENWithHoldings(), nil); err != nil {
		return stall.Eval{}, err
	}
	ev, err := h.Transport.Evaluation(ctx, c.cfg.EvalDepth)
	if err != nil {
		return stall.Eval{}, orcherr.Wrap(orcherr.KindEvaluationFailure, "current evaluation", err)
	}
	return normalizeScore(ev, side), nil
}

func (c *Controller) hypotheticalEval(ctx context.Context, b *boardstate.Board, h *enginepool.Handle, side chess.Color, piece chess.PieceType) (stall.Eval, error) {
	b.HoldingsAdd(side, piece)
	defer b.HoldingsRemove(side, piece)

	if err := h.Transport.SetPosition(ctx, b.FENWithHoldings(), nil); err != nil {
		return stall.Eval{}, err
	}
	ev, err := h.Transport.Evaluation(ctx, c.cfg.EvalDepth)
	if err != nil {
		return stall.Eval{}, orcherr.Wrap(orcherr.KindEvaluationFailure, "hypothetical evaluation", err)
	}
	// Concurrency/ordering rule (spec.md §5): the engine is left with an
	// altered position after a hypothetical probe; re-issue set_position
	// with real holdings before any move selection uses this handle.
	return normalizeScore(ev, side), nil
}

// annotateMove implements spec.md §4.5's evaluation-annotation policy: after
// a move is committed, query a depth-12 evaluation of the resulting
// position and persist it translated into a side-relative "White/Black
// mates in N" statement or a signed decipawn number. Best-effort: a failure
// here is logged and never surfaces to the caller, since the move itself
// already committed successfully.
func (c *Controller) annotateMove(ctx context.Context, board pieceflow.BoardID, mv boardstate.Move) {
	c.mu.Lock()
	h := c.annotationHandleLocked(board)
	if h == nil {
		c.mu.Unlock()
		return
	}
	b := c.boardFor(board)
	fen := b.FENWithHoldings()
	sideToMove := b.SideToMove()
	boardID := 1
	if board == pieceflow.BoardB {
		boardID = 2
	}
	c.mu.Unlock()

	if err := h.Transport.SetPosition(ctx, fen, nil); err != nil {
		c.logger.Warn("evaluation-annotation set_position failed", zap.Error(err))
		return
	}
	ev, err := h.Transport.Evaluation(ctx, c.cfg.EvalDepth)
	if err != nil {
		c.logger.Warn("evaluation-annotation query failed", zap.Error(err))
		return
	}

	annotation := formatAnnotation(ev, sideToMove)
	_ = c.moveStore.UpdateAnnotation(c.gameID, boardID, mv.Ply, annotation)
	c.logger.Info("move annotated",
		zap.Int("board", boardID),
		zap.Int("ply", mv.Ply),
		zap.String("annotation", annotation),
	)
}

// annotationHandleLocked picks the engine handle used to evaluate board's
// resulting position: Bot1's for board A, Bot2's for board B. Either bot's
// idle engine can evaluate any position regardless of whose move it was;
// the spec names no particular engine for this query. Caller holds c.mu.
func (c *Controller) annotationHandleLocked(board pieceflow.BoardID) *enginepool.Handle {
	if board == pieceflow.BoardA {
		return c.handles[stall.Bot1]
	}
	return c.handles[stall.Bot2]
}

// formatAnnotation renders spec.md §4.5's evaluation-annotation policy: a
// side-to-move-relative mate score becomes "White mates in N" / "Black
// mates in N", and a White-relative centipawn score becomes a signed
// decipawn number.
func formatAnnotation(ev uci.Evaluation, sideToMove chess.Color) string {
	if ev.Score.Mate != nil {
		n := *ev.Score.Mate
		mater, dist := sideToMove, n
		if n < 0 {
			mater, dist = sideToMove.Other(), -n
		}
		name := "White"
		if mater == chess.Black {
			name = "Black"
		}
		return fmt.Sprintf("%s mates in %d", name, dist)
	}
	cp := 0
	if ev.Score.Centipawns != nil {
		cp = *ev.Score.Centipawns
	}
	return fmt.Sprintf("%+d decipawns", cp/10)
}

func normalizeScore(ev uci.Evaluation, side chess.Color) stall.Eval {
	if ev.Score.Mate != nil {
		return stall.Eval{MateIn: ev.Score.Mate}
	}
	cp := 0
	if ev.Score.Centipawns != nil {
		cp = stall.NormalizeCentipawns(*ev.Score.Centipawns, side)
	}
	return stall.Eval{Centipawns: cp}
}
