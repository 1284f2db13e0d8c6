package apiserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shoxrux/bughouse-orchestrator/internal/controller"
	"github.com/shoxrux/bughouse-orchestrator/internal/enginepool"
	"github.com/shoxrux/bughouse-orchestrator/internal/uci"
)

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

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	pool := enginepool.New(enginepool.Config{Capacity: 3}, func(name string) (*uci.Transport, error) {
		return uci.New(name, "/bin/sh", []string{"-c", fakeEngineScript}, nil)
	}, nil)
	t.Cleanup(pool.Shutdown)
	_, router := New(pool, controller.Config{ThinkTimeMs: 10, EvalDepth: 4}, nil)
	return router
}

func TestCreateGameReturnsGameID(t *testing.T) {
	router := newTestServer(t)

	body, _ := json.Marshal(createGameRequest{HumanColor: "white"})
	req := httptest.NewRequest(http.MethodPost, "/games", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp createGameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.GameID)
}

func TestCreateGameRejectsInvalidColor(t *testing.T) {
	router := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"human_color": "purple"})
	req := httptest.NewRequest(http.MethodPost, "/games", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGameStatusNotFound(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/games/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinPositionSeedsGameAtGivenFEN(t *testing.T) {
	router := newTestServer(t)

	body, _ := json.Marshal(joinPositionRequest{
		HumanColor: "white",
		FENBoardA:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR[] w KQkq - 0 1",
		FENBoardB:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR[] w KQkq - 0 1",
	})
	req := httptest.NewRequest(http.MethodPost, "/games/join", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp createGameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.GameID)
}

func TestJoinPositionRejectsMalformedFEN(t *testing.T) {
	router := newTestServer(t)

	body, _ := json.Marshal(joinPositionRequest{
		HumanColor: "white",
		FENBoardA:  "not-a-fen",
		FENBoardB:  "not-a-fen",
	})
	req := httptest.NewRequest(http.MethodPost, "/games/join", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRequestEngineMoveForPosition(t *testing.T) {
	router := newTestServer(t)

	body, _ := json.Marshal(positionMoveRequest{FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR[] w KQkq - 0 1"})
	req := httptest.NewRequest(http.MethodPost, "/position/move", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp positionMoveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
}

func TestApplyMoveAgainstCreatedGame(t *testing.T) {
	router := newTestServer(t)

	createBody, _ := json.Marshal(createGameRequest{HumanColor: "white"})
	createReq := httptest.NewRequest(http.MethodPost, "/games", bytes.NewReader(createBody))
	createReq.Header.Set("Content-Type", "application/json")
	createRec := httptest.NewRecorder()
	router.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var created createGameResponse
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))

	moveBody, _ := json.Marshal(moveRequest{From: "e2", To: "e4"})
	moveReq := httptest.NewRequest(http.MethodPost, "/games/"+created.GameID+"/move", bytes.NewReader(moveBody))
	moveReq.Header.Set("Content-Type", "application/json")
	moveRec := httptest.NewRecorder()
	router.ServeHTTP(moveRec, moveReq)

	require.Equal(t, http.StatusOK, moveRec.Code)
}
