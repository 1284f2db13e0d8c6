package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMoveLogStoreFiltersByBoard(t *testing.T) {
	s := NewInMemoryMoveLogStore()
	require.NoError(t, s.Append(MoveRecord{GameID: "g1", BoardID: 1, Ply: 1, UCI: "e2e4", Timestamp: time.Unix(0, 0)}))
	require.NoError(t, s.Append(MoveRecord{GameID: "g1", BoardID: 2, Ply: 1, UCI: "d2d4", Timestamp: time.Unix(0, 0)}))

	boardOne, err := s.List("g1", 1)
	require.NoError(t, err)
	require.Len(t, boardOne, 1)
	require.Equal(t, "e2e4", boardOne[0].UCI)
}

func TestGameRecordStoreUpsert(t *testing.T) {
	s := NewInMemoryGameRecordStore()
	require.NoError(t, s.Upsert(GameRecord{GameID: "g1", Status: "InProgress"}))
	require.NoError(t, s.Upsert(GameRecord{GameID: "g1", Status: "PlayerWon"}))

	rec, ok, err := s.Get("g1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "PlayerWon", rec.Status)
}

func TestChatLogStoreAppendsInOrder(t *testing.T) {
	s := NewInMemoryChatLogStore()
	require.NoError(t, s.Append(ChatRecord{GameID: "g1", Speaker: "bot1", Text: "I go"}))
	require.NoError(t, s.Append(ChatRecord{GameID: "g1", Speaker: "bot1", Text: "Thanks :)"}))

	lines, err := s.List("g1")
	require.NoError(t, err)
	require.Equal(t, []string{"I go", "Thanks :)"}, []string{lines[0].Text, lines[1].Text})
}
