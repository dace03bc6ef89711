package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
)

type GameRepo struct {
	DB *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{DB: db}
}

// SaveCompletedGame upserts on session_id so a retried write leaves a single row.
func (r *GameRepo) SaveCompletedGame(ctx context.Context, record domain.GameRecord) error {
	boardJSON, err := json.Marshal(record.Board)
	if err != nil {
		return fmt.Errorf("failed to marshal board state: %w", err)
	}

	query := `
	INSERT INTO completed_games (session_id, player1, player2, winner, is_draw, reason, total_moves, duration_seconds, started_at, ended_at, board_state)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (session_id) DO UPDATE SET
		winner = EXCLUDED.winner,
		is_draw = EXCLUDED.is_draw,
		reason = EXCLUDED.reason,
		total_moves = EXCLUDED.total_moves,
		duration_seconds = EXCLUDED.duration_seconds,
		ended_at = EXCLUDED.ended_at,
		board_state = EXCLUDED.board_state;
	`

	var winner sql.NullString
	if record.Winner != "" {
		winner = sql.NullString{String: record.Winner, Valid: true}
	}

	_, err = r.DB.ExecContext(ctx, query,
		record.SessionID,
		record.Player1,
		record.Player2,
		winner,
		record.IsDraw,
		record.Reason,
		record.Moves,
		int(record.Duration().Seconds()),
		record.StartedAt,
		record.EndedAt,
		boardJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game record: %w", err)
	}
	return nil
}

func (r *GameRepo) UpsertPlayerOutcome(ctx context.Context, playerID string, outcome domain.Outcome) error {
	query := `
	INSERT INTO player_stats (player_id, games_played, wins, losses, draws)
	VALUES ($1, 1,
		CASE WHEN $2::text = 'win' THEN 1 ELSE 0 END,
		CASE WHEN $2::text = 'loss' THEN 1 ELSE 0 END,
		CASE WHEN $2::text = 'draw' THEN 1 ELSE 0 END)
	ON CONFLICT (player_id) DO UPDATE SET
		games_played = player_stats.games_played + 1,
		wins = player_stats.wins + EXCLUDED.wins,
		losses = player_stats.losses + EXCLUDED.losses,
		draws = player_stats.draws + EXCLUDED.draws,
		updated_at = NOW();
	`
	if _, err := r.DB.ExecContext(ctx, query, playerID, string(outcome)); err != nil {
		return fmt.Errorf("failed to update player stats: %w", err)
	}
	return nil
}
