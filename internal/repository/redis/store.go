package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
)

const (
	gameKeyPrefix  = "game:"
	statsKeyPrefix = "stats:"

	fieldGamesPlayed = "games_played"
	fieldWins        = "wins"
	fieldLosses      = "losses"
	fieldDraws       = "draws"
)

func gameKey(sessionID string) string { return gameKeyPrefix + sessionID }
func statsKey(playerID string) string { return statsKeyPrefix + playerID }

// Store keeps completed games as JSON strings and player stats as hashes.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) SaveCompletedGame(ctx context.Context, record domain.GameRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal game record: %w", err)
	}
	if err := s.client.Set(ctx, gameKey(record.SessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save game %s: %w", record.SessionID, err)
	}
	return nil
}

func (s *Store) UpsertPlayerOutcome(ctx context.Context, playerID string, outcome domain.Outcome) error {
	var field string
	switch outcome {
	case domain.OutcomeWin:
		field = fieldWins
	case domain.OutcomeLoss:
		field = fieldLosses
	case domain.OutcomeDraw:
		field = fieldDraws
	default:
		return fmt.Errorf("unknown outcome %q", outcome)
	}

	key := statsKey(playerID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, fieldGamesPlayed, 1)
		pipe.HIncrBy(ctx, key, field, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update stats for %s: %w", playerID, err)
	}
	return nil
}

// Game returns false when no record exists for the session.
func (s *Store) Game(ctx context.Context, sessionID string) (domain.GameRecord, bool, error) {
	var record domain.GameRecord
	data, err := s.client.Get(ctx, gameKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return record, false, nil
	}
	if err != nil {
		return record, false, fmt.Errorf("failed to load game %s: %w", sessionID, err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, false, fmt.Errorf("failed to decode game %s: %w", sessionID, err)
	}
	return record, true, nil
}

func (s *Store) Stats(ctx context.Context, playerID string) (domain.PlayerStats, error) {
	stats := domain.PlayerStats{PlayerID: playerID}
	fields, err := s.client.HGetAll(ctx, statsKey(playerID)).Result()
	if err != nil {
		return stats, fmt.Errorf("failed to load stats for %s: %w", playerID, err)
	}
	stats.GamesPlayed, _ = strconv.Atoi(fields[fieldGamesPlayed])
	stats.Wins, _ = strconv.Atoi(fields[fieldWins])
	stats.Losses, _ = strconv.Atoi(fields[fieldLosses])
	stats.Draws, _ = strconv.Atoi(fields[fieldDraws])
	return stats, nil
}
