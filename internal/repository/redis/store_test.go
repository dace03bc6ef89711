package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(mr.Addr(), "", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestSaveCompletedGame(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	board := domain.NewBoard()
	board[domain.Rows-1][0] = domain.Player1
	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := domain.GameRecord{
		SessionID: "s-1",
		Player1:   "alice",
		Player2:   domain.BotPlayerID,
		Winner:    "alice",
		Reason:    domain.ReasonConnectFour,
		Moves:     7,
		StartedAt: started,
		EndedAt:   started.Add(time.Minute),
		Board:     board,
	}

	require.NoError(t, store.SaveCompletedGame(ctx, rec))
	require.NoError(t, store.SaveCompletedGame(ctx, rec))
	assert.True(t, mr.Exists("game:s-1"))

	got, ok, err := store.Game(ctx, "s-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.Winner, got.Winner)
	assert.Equal(t, rec.Board, got.Board)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))

	_, ok, err = store.Game(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertPlayerOutcome(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertPlayerOutcome(ctx, "alice", domain.OutcomeWin))
	require.NoError(t, store.UpsertPlayerOutcome(ctx, "alice", domain.OutcomeLoss))
	require.NoError(t, store.UpsertPlayerOutcome(ctx, "alice", domain.OutcomeWin))
	assert.Error(t, store.UpsertPlayerOutcome(ctx, "alice", domain.Outcome("abandoned")))

	stats, err := store.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerStats{PlayerID: "alice", GamesPlayed: 3, Wins: 2, Losses: 1}, stats)
	assert.Equal(t, "2", mr.HGet("stats:alice", "wins"))

	empty, err := store.Stats(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerStats{PlayerID: "nobody"}, empty)
}

func TestNewClientFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(addr, "", zap.NewNop())
	assert.Error(t, err)
}
