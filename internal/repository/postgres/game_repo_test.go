package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
)

func newMockRepo(t *testing.T) (*GameRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewGameRepo(db), mock
}

func TestSaveCompletedGameUpsertsBySession(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := domain.GameRecord{
		SessionID: "s-1",
		Player1:   "alice",
		Player2:   "bob",
		Winner:    "alice",
		Reason:    domain.ReasonConnectFour,
		Moves:     7,
		StartedAt: start,
		EndedAt:   start.Add(time.Minute),
	}

	mock.ExpectExec(`(?s)INSERT INTO completed_games .* ON CONFLICT \(session_id\) DO UPDATE`).
		WithArgs("s-1", "alice", "bob", "alice", false, domain.ReasonConnectFour, 7, 60, start, start.Add(time.Minute), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveCompletedGame(context.Background(), rec))
}

func TestSaveCompletedGameDrawHasNoWinner(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := domain.GameRecord{SessionID: "s-2", Player1: "alice", Player2: "bob", IsDraw: true, Reason: domain.ReasonDraw, Moves: 42}

	mock.ExpectExec(`INSERT INTO completed_games`).
		WithArgs("s-2", "alice", "bob", nil, true, domain.ReasonDraw, 42, 0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveCompletedGame(context.Background(), rec))
}

func TestUpsertPlayerOutcome(t *testing.T) {
	repo, mock := newMockRepo(t)

	for _, outcome := range []domain.Outcome{domain.OutcomeWin, domain.OutcomeLoss, domain.OutcomeDraw} {
		mock.ExpectExec(`(?s)INSERT INTO player_stats .*` +
			`CASE WHEN \$2::text = 'win' THEN 1 ELSE 0 END,\s*` +
			`CASE WHEN \$2::text = 'loss' THEN 1 ELSE 0 END,\s*` +
			`CASE WHEN \$2::text = 'draw' THEN 1 ELSE 0 END\)\s*` +
			`ON CONFLICT \(player_id\) DO UPDATE SET\s*games_played = player_stats.games_played \+ 1`).
			WithArgs("alice", string(outcome)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpsertPlayerOutcome(context.Background(), "alice", outcome))
	}
}

func TestRepoWrapsDriverErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	down := errors.New("connection refused")

	mock.ExpectExec(`INSERT INTO completed_games`).WillReturnError(down)
	err := repo.SaveCompletedGame(context.Background(), domain.GameRecord{SessionID: "s-3"})
	assert.ErrorIs(t, err, down)

	mock.ExpectExec(`INSERT INTO player_stats`).WillReturnError(down)
	err = repo.UpsertPlayerOutcome(context.Background(), "alice", domain.OutcomeWin)
	assert.ErrorIs(t, err, down)
}
