package memory

import (
	"context"
	"sync"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
)

// Store keeps completed games and player stats in process memory. It is the
// default backend and the one tests run against.
type Store struct {
	mu    sync.RWMutex
	games map[string]domain.GameRecord
	stats map[string]*domain.PlayerStats
}

func NewStore() *Store {
	return &Store{
		games: make(map[string]domain.GameRecord),
		stats: make(map[string]*domain.PlayerStats),
	}
}

func (s *Store) SaveCompletedGame(_ context.Context, record domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[record.SessionID] = record
	return nil
}

func (s *Store) UpsertPlayerOutcome(_ context.Context, playerID string, outcome domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[playerID]
	if !ok {
		st = &domain.PlayerStats{PlayerID: playerID}
		s.stats[playerID] = st
	}
	st.Apply(outcome)
	return nil
}

func (s *Store) Game(sessionID string) (domain.GameRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.games[sessionID]
	return rec, ok
}

// Stats returns a copy of the player's counters, zero valued if unknown.
func (s *Store) Stats(playerID string) domain.PlayerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.stats[playerID]; ok {
		return *st
	}
	return domain.PlayerStats{PlayerID: playerID}
}

func (s *Store) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
