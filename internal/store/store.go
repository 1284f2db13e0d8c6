// Package store defines the persisted-state contract of spec.md §6: an
// append-only move log keyed by game-id and board-id, a game record
// holding both FENs/turn/status/result/timestamps, and a chat log keyed by
// game-id and time. A real relay/database is out of scope (spec.md §1);
// these interfaces are the seam it would plug into, matching the
// teacher's own pattern of small single-purpose storage interfaces backed
// here by in-memory implementations for tests and local runs.
package store

import (
	"sync"
	"time"
)

// MoveRecord is one entry in the append-only move log.
type MoveRecord struct {
	GameID     string
	BoardID    int // 1 or 2
	Ply        int
	UCI        string
	FEN        string // bughouse-extended FEN after the move
	Annotation string // spec.md §4.5 evaluation-annotation policy, set after Append via UpdateAnnotation
	Timestamp  time.Time
}

// GameRecord is the authoritative summary row for one game.
type GameRecord struct {
	GameID    string
	FENBoardA string
	FENBoardB string
	Turn      string // "player" or "partner", whichever board/side acts next
	Status    string
	Result    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatRecord is one emitted chat line.
type ChatRecord struct {
	GameID    string
	Speaker   string
	Text      string
	Timestamp time.Time
}

// MoveLogStore appends and lists the per-game, per-board move log.
type MoveLogStore interface {
	Append(rec MoveRecord) error
	List(gameID string, boardID int) ([]MoveRecord, error)

	// UpdateAnnotation attaches the evaluation-annotation policy's translated
	// string (spec.md §4.5) to the move already appended for (gameID,
	// boardID, ply). A no-op if that record isn't found.
	UpdateAnnotation(gameID string, boardID, ply int, annotation string) error
}

// GameRecordStore tracks one summary row per game.
type GameRecordStore interface {
	Upsert(rec GameRecord) error
	Get(gameID string) (GameRecord, bool, error)
	List() ([]GameRecord, error)
}

// ChatLogStore appends and lists chat lines for a game.
type ChatLogStore interface {
	Append(rec ChatRecord) error
	List(gameID string) ([]ChatRecord, error)
}

// InMemoryMoveLogStore is a process-local MoveLogStore.
type InMemoryMoveLogStore struct {
	mu      sync.Mutex
	records map[string][]MoveRecord // keyed by gameID
}

func NewInMemoryMoveLogStore() *InMemoryMoveLogStore {
	return &InMemoryMoveLogStore{records: make(map[string][]MoveRecord)}
}

func (s *InMemoryMoveLogStore) Append(rec MoveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.GameID] = append(s.records[rec.GameID], rec)
	return nil
}

func (s *InMemoryMoveLogStore) UpdateAnnotation(gameID string, boardID, ply int, annotation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records[gameID] {
		if r.BoardID == boardID && r.Ply == ply {
			s.records[gameID][i].Annotation = annotation
			break
		}
	}
	return nil
}

func (s *InMemoryMoveLogStore) List(gameID string, boardID int) ([]MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []MoveRecord
	for _, r := range s.records[gameID] {
		if r.BoardID == boardID {
			out = append(out, r)
		}
	}
	return out, nil
}

// InMemoryGameRecordStore is a process-local GameRecordStore.
type InMemoryGameRecordStore struct {
	mu      sync.Mutex
	records map[string]GameRecord
}

func NewInMemoryGameRecordStore() *InMemoryGameRecordStore {
	return &InMemoryGameRecordStore{records: make(map[string]GameRecord)}
}

func (s *InMemoryGameRecordStore) Upsert(rec GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.GameID] = rec
	return nil
}

func (s *InMemoryGameRecordStore) Get(gameID string) (GameRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[gameID]
	return rec, ok, nil
}

func (s *InMemoryGameRecordStore) List() ([]GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GameRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

// InMemoryChatLogStore is a process-local ChatLogStore.
type InMemoryChatLogStore struct {
	mu      sync.Mutex
	records map[string][]ChatRecord
}

func NewInMemoryChatLogStore() *InMemoryChatLogStore {
	return &InMemoryChatLogStore{records: make(map[string][]ChatRecord)}
}

func (s *InMemoryChatLogStore) Append(rec ChatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.GameID] = append(s.records[rec.GameID], rec)
	return nil
}

func (s *InMemoryChatLogStore) List(gameID string) ([]ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatRecord, len(s.records[gameID]))
	copy(out, s.records[gameID])
	return out, nil
}
