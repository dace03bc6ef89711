package game

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/analytics"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/schedule"
)

type fakeRecorder struct {
	mu      sync.Mutex
	records []domain.GameRecord
}

func (f *fakeRecorder) Record(record domain.GameRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
}

func (f *fakeRecorder) all() []domain.GameRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.GameRecord(nil), f.records...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (f *fakePublisher) Publish(event analytics.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	sched     *schedule.Scheduler
	mock      *clock.Mock
	recorder  *fakeRecorder
	publisher *fakePublisher
	reg       *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock := clock.NewMock()
	sched := schedule.New(mock, zap.NewNop())
	t.Cleanup(func() { sched.Shutdown() })

	f := &fixture{
		sched:     sched,
		mock:      mock,
		recorder:  &fakeRecorder{},
		publisher: &fakePublisher{},
	}
	f.reg = NewRegistry(sched, f.recorder, f.publisher, zap.NewNop(), WithBotDepth(2))
	return f
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)

	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", "bob")
		assert.NotEmpty(t, s.ID())
		assert.Equal(t, domain.Player1, s.Turn())
		assert.Equal(t, domain.StatusActive, s.Status())
		assert.Equal(t, 0, s.MoveCount())
		assert.Equal(t, domain.NewBoard(), s.Board())
		assert.False(t, s.IsBotGame())
		assert.Equal(t, f.mock.Now(), s.StartedAt())

		for _, p := range []string{"alice", "bob"} {
			got, ok := f.reg.GetActiveSessionFor(p)
			require.True(t, ok)
			assert.Same(t, s, got)
		}
		_, ok := f.reg.GetActiveSessionFor("carol")
		assert.False(t, ok)

		got, ok := f.reg.Get(s.ID())
		require.True(t, ok)
		assert.Same(t, s, got)
		assert.Equal(t, 1, f.reg.ActiveCount())
	})
	assert.Equal(t, []string{analytics.EventGameStarted}, f.publisher.types())
}

func TestCreateBotSession(t *testing.T) {
	f := newFixture(t)

	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", domain.BotPlayerID)
		assert.True(t, s.IsBotGame())
		assert.False(t, s.BotToMove())
		assert.Equal(t, []string{"alice"}, s.HumanPlayers())

		_, ok := f.reg.GetActiveSessionFor(domain.BotPlayerID)
		assert.False(t, ok)
	})
}

func TestApplyMoveAlternatesTurns(t *testing.T) {
	f := newFixture(t)

	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", "bob")

		res, err := f.reg.ApplyMove(s.ID(), 3, "alice")
		require.NoError(t, err)
		assert.Equal(t, domain.Rows-1, res.Row)
		assert.Equal(t, 3, res.Col)
		assert.Equal(t, domain.Player1, res.Player)
		assert.Equal(t, domain.Player2, res.NextTurn)
		assert.False(t, res.Over)
		assert.Equal(t, domain.Player1, res.Board[domain.Rows-1][3])

		res, err = f.reg.ApplyMove(s.ID(), 3, "bob")
		require.NoError(t, err)
		assert.Equal(t, domain.Rows-2, res.Row)
		assert.Equal(t, domain.Player1, res.NextTurn)
		assert.Equal(t, 2, s.MoveCount())
	})
}

func TestApplyMoveRejections(t *testing.T) {
	f := newFixture(t)

	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", "bob")

		_, err := f.reg.ApplyMove("missing", 0, "alice")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		_, err = f.reg.ApplyMove(s.ID(), 0, "bob")
		assert.ErrorIs(t, err, domain.ErrNotYourTurn)

		_, err = f.reg.ApplyMove(s.ID(), 0, "mallory")
		assert.ErrorIs(t, err, domain.ErrNotYourTurn)

		for _, col := range []int{-1, domain.Columns} {
			_, err = f.reg.ApplyMove(s.ID(), col, "alice")
			assert.ErrorIs(t, err, domain.ErrInvalidColumn)
		}

		// fill column 0 without a vertical four
		seq := []string{"alice", "bob", "alice", "bob", "alice", "bob"}
		for i, p := range seq {
			_, err = f.reg.ApplyMove(s.ID(), 0, p)
			require.NoError(t, err, "move %d", i)
		}
		_, err = f.reg.ApplyMove(s.ID(), 0, "alice")
		assert.ErrorIs(t, err, domain.ErrInvalidColumn)

		// rejected moves leave the session untouched
		assert.Equal(t, 6, s.MoveCount())
		assert.Equal(t, domain.Player1, s.Turn())
	})
}

func TestBottomRowWinEndsSession(t *testing.T) {
	f := newFixture(t)

	var id string
	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", "bob")
		id = s.ID()

		for col := 0; col < 3; col++ {
			_, err := f.reg.ApplyMove(id, col, "alice")
			require.NoError(t, err)
			_, err = f.reg.ApplyMove(id, 6, "bob")
			require.NoError(t, err)
		}

		res, err := f.reg.ApplyMove(id, 3, "alice")
		require.NoError(t, err)
		assert.True(t, res.Over)
		assert.Equal(t, "alice", res.Winner)
		assert.False(t, res.IsDraw)
		assert.Equal(t, domain.ReasonConnectFour, res.Reason)
		assert.True(t, domain.CheckWin(res.Board, res.Row, res.Col, domain.Player1))

		assert.Equal(t, domain.StatusOver, s.Status())
		assert.Equal(t, 0, f.reg.ActiveCount())
		_, ok := f.reg.GetActiveSessionFor("alice")
		assert.False(t, ok)

		_, err = f.reg.ApplyMove(id, 4, "bob")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	records := f.recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].SessionID)
	assert.Equal(t, "alice", records[0].Winner)
	assert.Equal(t, 7, records[0].Moves)
	assert.Equal(t, map[string]domain.Outcome{
		"alice": domain.OutcomeWin,
		"bob":   domain.OutcomeLoss,
	}, records[0].Outcomes())

	types := f.publisher.types()
	assert.Equal(t, analytics.EventGameEnded, types[len(types)-1])
	assert.Equal(t, analytics.EventMoveMade, types[len(types)-2])
}

// drawBoard is a full board with no run of four.
func drawBoard() domain.Board {
	var b domain.Board
	for r := 0; r < domain.Rows; r++ {
		for c := 0; c < domain.Columns; c++ {
			if (r+c/2)%2 == 0 {
				b[r][c] = domain.Player1
			} else {
				b[r][c] = domain.Player2
			}
		}
	}
	return b
}

func TestFillingMoveIsDraw(t *testing.T) {
	f := newFixture(t)

	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", "bob")
		s.board = drawBoard()
		s.board[0][6] = domain.Empty
		s.turn = domain.Player2
		s.moveCount = domain.Rows*domain.Columns - 1

		res, err := f.reg.ApplyMove(s.ID(), 6, "bob")
		require.NoError(t, err)
		assert.True(t, res.Over)
		assert.True(t, res.IsDraw)
		assert.Empty(t, res.Winner)
		assert.Equal(t, domain.ReasonDraw, res.Reason)
	})

	records := f.recorder.all()
	require.Len(t, records, 1)
	assert.True(t, records[0].IsDraw)
	assert.Equal(t, map[string]domain.Outcome{
		"alice": domain.OutcomeDraw,
		"bob":   domain.OutcomeDraw,
	}, records[0].Outcomes())
}

func TestEndSessionTwice(t *testing.T) {
	f := newFixture(t)

	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", "bob")
		require.NoError(t, f.reg.EndSession(s, "bob", false))
		assert.Equal(t, "bob", s.Winner())
		assert.Equal(t, domain.ReasonConnectFour, s.Reason())
		assert.Equal(t, f.mock.Now(), s.EndedAt())

		assert.ErrorIs(t, f.reg.EndSession(s, "alice", false), domain.ErrAlreadyOver)
		assert.Equal(t, "bob", s.Winner())
	})
	assert.Len(t, f.recorder.all(), 1)
}

func TestForfeit(t *testing.T) {
	f := newFixture(t)

	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", "bob")
		assert.ErrorIs(t, f.reg.Forfeit(s, "mallory"), domain.ErrUnknownPlayer)
		assert.True(t, s.IsActive())

		require.NoError(t, f.reg.Forfeit(s, "alice"))
		assert.Equal(t, "bob", s.Winner())
		assert.Equal(t, domain.ReasonForfeit, s.Reason())
		assert.False(t, s.IsDraw())
	})
}

func TestScheduleBotTurn(t *testing.T) {
	f := newFixture(t)

	var s *GameSession
	results := make(chan *MoveResult, 1)
	f.sched.Do(func() {
		s = f.reg.CreateSession("alice", domain.BotPlayerID)
		_, err := f.reg.ApplyMove(s.ID(), 0, "alice")
		require.NoError(t, err)
		require.True(t, s.BotToMove())

		f.reg.ScheduleBotTurn(s, 500*time.Millisecond, func(res *MoveResult) {
			results <- res
		})
	})

	f.mock.Add(499 * time.Millisecond)
	assert.Empty(t, results)

	f.mock.Add(time.Millisecond)
	var res *MoveResult
	require.Eventually(t, func() bool {
		select {
		case res = <-results:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	assert.Equal(t, domain.Player2, res.Player)
	assert.Equal(t, domain.BotPlayerID, res.PlayerID)
	assert.Equal(t, domain.Player1, res.NextTurn)

	f.sched.Do(func() {
		assert.Equal(t, 2, s.MoveCount())
		assert.Equal(t, domain.Player1, s.Turn())
	})
	assert.Contains(t, f.publisher.types(), analytics.EventBotMove)
}

func TestScheduleBotTurnSkippedWhenHumanToMove(t *testing.T) {
	f := newFixture(t)

	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", domain.BotPlayerID)
		f.reg.ScheduleBotTurn(s, time.Second, nil)
	})
	assert.Equal(t, 0, f.sched.Pending())
}

func TestEndingSessionCancelsBotTurn(t *testing.T) {
	f := newFixture(t)

	fired := false
	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", domain.BotPlayerID)
		_, err := f.reg.ApplyMove(s.ID(), 0, "alice")
		require.NoError(t, err)
		f.reg.ScheduleBotTurn(s, time.Second, func(*MoveResult) { fired = true })
		require.Equal(t, 1, f.sched.Pending())

		require.NoError(t, f.reg.Forfeit(s, "alice"))
		assert.Equal(t, 0, f.sched.Pending())
	})

	f.mock.Add(time.Minute)
	time.Sleep(10 * time.Millisecond)
	f.sched.Do(func() { assert.False(t, fired) })
}

func TestBotWinRecordsLossForHuman(t *testing.T) {
	f := newFixture(t)

	done := make(chan *MoveResult, 1)
	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", domain.BotPlayerID)
		for _, row := range []int{5, 4, 3} {
			s.board[row][6] = domain.Player2
		}
		s.board[5][0] = domain.Player1
		s.board[5][1] = domain.Player1
		s.board[4][0] = domain.Player1
		s.turn = domain.Player2
		s.moveCount = 6

		f.reg.ScheduleBotTurn(s, time.Second, func(res *MoveResult) { done <- res })
	})

	f.mock.Add(time.Second)
	var res *MoveResult
	require.Eventually(t, func() bool {
		select {
		case res = <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	assert.True(t, res.Over)
	assert.Equal(t, 6, res.Col)
	assert.Equal(t, domain.BotPlayerID, res.Winner)

	records := f.recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, map[string]domain.Outcome{"alice": domain.OutcomeLoss}, records[0].Outcomes())
}

func TestRegistryShutdown(t *testing.T) {
	f := newFixture(t)

	f.sched.Do(func() {
		s := f.reg.CreateSession("alice", domain.BotPlayerID)
		_, err := f.reg.ApplyMove(s.ID(), 0, "alice")
		require.NoError(t, err)
		f.reg.ScheduleBotTurn(s, time.Second, nil)
		f.reg.CreateSession("bob", "carol")

		f.reg.Shutdown()
		assert.Equal(t, 0, f.reg.ActiveCount())
		_, ok := f.reg.GetActiveSessionFor("bob")
		assert.False(t, ok)
	})
	assert.Equal(t, 0, f.sched.Pending())
	assert.Empty(t, f.recorder.all())
}
