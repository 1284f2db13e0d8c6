// Package apiserver exposes the control-plane surface of spec.md §6 over
// Gin, grounded on the teacher's single moveHandler: bind JSON, validate,
// call into domain logic, map errors to status codes, respond JSON.
package apiserver

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/shoxrux/bughouse-orchestrator/internal/controller"
	"github.com/shoxrux/bughouse-orchestrator/internal/enginepool"
	"github.com/shoxrux/bughouse-orchestrator/internal/orcherr"
)

// Server owns the Gin engine and the registry of in-flight games. One
// Server serves arbitrarily many concurrent games, each with its own
// Controller pulling handles from the shared pool (spec.md §5).
type Server struct {
	logger *zap.Logger
	pool   *enginepool.Pool
	cfg    controller.Config

	mu    sync.Mutex
	games map[string]*controller.Controller
}

// New builds a Server and wires its routes onto a fresh Gin engine with
// the teacher's cors.Default() middleware.
func New(pool *enginepool.Pool, cfg controller.Config, logger *zap.Logger) (*Server, *gin.Engine) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger: logger,
		pool:   pool,
		cfg:    cfg,
		games:  make(map[string]*controller.Controller),
	}

	router := gin.Default()
	router.Use(cors.Default())

	router.POST("/games", s.createGame)
	router.POST("/games/join", s.joinPosition)
	router.GET("/games", s.listGames)
	router.GET("/games/:id", s.gameStatus)
	router.POST("/games/:id/move", s.applyMove)
	router.POST("/games/:id/drop", s.applyDrop)
	router.POST("/games/:id/pause", s.pauseGame)
	router.POST("/games/:id/resume", s.resumeGame)
	router.POST("/games/:id/resign", s.resignGame)
	router.POST("/games/:id/go", s.sendGo)
	router.POST("/games/:id/sit", s.sendSit)
	router.POST("/position/move", s.requestEngineMove)

	return s, router
}

type createGameRequest struct {
	HumanColor string `json:"human_color" binding:"required,oneof=white black"`
}

type createGameResponse struct {
	GameID string `json:"game_id"`
}

func (s *Server) createGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	humanColor := chess.White
	if req.HumanColor == "black" {
		humanColor = chess.Black
	}

	gameID := uuid.NewString()
	ctrl := controller.New(gameID, humanColor, s.pool, s.cfg, s.logger)

	s.mu.Lock()
	s.games[gameID] = ctrl
	s.mu.Unlock()

	ctx := c.Request.Context()
	if err := ctrl.Initialize(ctx); err != nil {
		s.respondErr(c, err)
		return
	}
	if err := ctrl.Start(ctx); err != nil {
		s.respondErr(c, err)
		return
	}
	// The partner loop outlives this HTTP request; it runs until the game
	// reaches a terminal status, not until the response is written.
	go ctrl.RunPartnerLoop(context.Background())

	c.JSON(http.StatusCreated, createGameResponse{GameID: gameID})
}

type joinPositionRequest struct {
	HumanColor string `json:"human_color" binding:"required,oneof=white black"`
	FENBoardA  string `json:"fen_board_a" binding:"required"`
	FENBoardB  string `json:"fen_board_b" binding:"required"`
}

// joinPosition implements spec.md §6's "join position" operation: attach a
// new Controller to a game already mid-flight, seeded at the given
// bughouse-extended FENs rather than the standard starting position.
func (s *Server) joinPosition(c *gin.Context) {
	var req joinPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	humanColor := chess.White
	if req.HumanColor == "black" {
		humanColor = chess.Black
	}

	gameID := uuid.NewString()
	ctrl, err := controller.NewFromPosition(gameID, humanColor, s.pool, s.cfg, s.logger, req.FENBoardA, req.FENBoardB)
	if err != nil {
		s.respondErr(c, err)
		return
	}

	s.mu.Lock()
	s.games[gameID] = ctrl
	s.mu.Unlock()

	ctx := c.Request.Context()
	if err := ctrl.Initialize(ctx); err != nil {
		s.respondErr(c, err)
		return
	}
	go ctrl.RunPartnerLoop(context.Background())

	c.JSON(http.StatusCreated, createGameResponse{GameID: gameID})
}

type positionMoveRequest struct {
	FEN         string `json:"fen" binding:"required"`
	ThinkTimeMs int    `json:"think_time_ms"`
}

type positionMoveResponse struct {
	Move string `json:"move"`
}

// requestEngineMove implements spec.md §6's "request engine move for
// position" operation: a read-only analysis query against an arbitrary
// bughouse-extended FEN using a transiently acquired pool handle, without
// any game or persisted state involved.
func (s *Server) requestEngineMove(c *gin.Context) {
	var req positionMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	thinkTime := req.ThinkTimeMs
	if thinkTime <= 0 {
		thinkTime = s.cfg.ThinkTimeMs
	}

	ctx := c.Request.Context()
	h, err := s.pool.Acquire(ctx)
	if err != nil {
		s.respondErr(c, err)
		return
	}

	if err := h.Transport.SetPosition(ctx, req.FEN, nil); err != nil {
		s.pool.Retire(h, err)
		s.respondErr(c, err)
		return
	}
	bm, err := h.Transport.BestMove(ctx, thinkTime)
	if err != nil {
		s.pool.Retire(h, err)
		s.respondErr(c, err)
		return
	}
	s.pool.Release(h)

	if bm.None {
		c.JSON(http.StatusOK, positionMoveResponse{})
		return
	}
	c.JSON(http.StatusOK, positionMoveResponse{Move: bm.Move})
}

func (s *Server) listGames(c *gin.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"games": ids})
}

func (s *Server) gameStatus(c *gin.Context) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": ctrl.Status()})
}

type moveRequest struct {
	From      string `json:"from" binding:"required"`
	To        string `json:"to" binding:"required"`
	Promotion string `json:"promotion"`
}

func (s *Server) applyMove(c *gin.Context) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	from, err := parseSquare(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from square"})
		return
	}
	to, err := parseSquare(req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to square"})
		return
	}
	promo := promoPieceType(req.Promotion)

	if err := ctrl.MakePlayerMove(c.Request.Context(), from, to, promo); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": ctrl.Status()})
}

type dropRequest struct {
	Square string `json:"square" binding:"required"`
	Piece  string `json:"piece" binding:"required"`
}

func (s *Server) applyDrop(c *gin.Context) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	var req dropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	sq, err := parseSquare(req.Square)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid square"})
		return
	}
	piece := promoPieceType(req.Piece)
	if piece == chess.NoPieceType {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid piece"})
		return
	}

	if err := ctrl.DropPiece(c.Request.Context(), sq, piece); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": ctrl.Status()})
}

func (s *Server) pauseGame(c *gin.Context) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	ctrl.Pause()
	c.JSON(http.StatusOK, gin.H{"status": ctrl.Status()})
}

func (s *Server) resumeGame(c *gin.Context) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	ctrl.Resume()
	c.JSON(http.StatusOK, gin.H{"status": ctrl.Status()})
}

func (s *Server) resignGame(c *gin.Context) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	ctrl.Resign()
	c.JSON(http.StatusOK, gin.H{"status": ctrl.Status()})
}

func (s *Server) sendGo(c *gin.Context) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	chat := ctrl.SendGoCommand()
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

func (s *Server) sendSit(c *gin.Context) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	ctrl.SendSitCommand()
	c.JSON(http.StatusOK, gin.H{"status": ctrl.Status()})
}

func (s *Server) lookup(gameID string) (*controller.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, ok := s.games[gameID]
	return ctrl, ok
}

// respondErr maps the orcherr taxonomy onto HTTP status codes, the same
// kind of mapping the teacher's moveHandler does for illegal moves.
func (s *Server) respondErr(c *gin.Context, err error) {
	kind, ok := orcherr.KindOf(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	switch kind {
	case orcherr.KindIllegalAction:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case orcherr.KindPoolExhausted:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case orcherr.KindTransportFailure:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case orcherr.KindProtocolParseError, orcherr.KindEvaluationFailure:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func promoPieceType(letter string) chess.PieceType {
	switch letter {
	case "q", "Q":
		return chess.Queen
	case "r", "R":
		return chess.Rook
	case "b", "B":
		return chess.Bishop
	case "n", "N":
		return chess.Knight
	case "p", "P":
		return chess.Pawn
	default:
		return chess.NoPieceType
	}
}

func parseSquare(s string) (chess.Square, error) {
	if len(s) != 2 {
		return 0, orcherr.New(orcherr.KindProtocolParseError, "malformed square "+s)
	}
	file := s[0] - 'a'
	rank := s[1] - '1'
	if file > 7 || rank > 7 {
		return 0, orcherr.New(orcherr.KindProtocolParseError, "square out of range "+s)
	}
	return chess.Square(int(rank)*8 + int(file)), nil
}
