// Package dispatch routes player intents to matchmaking, sessions and
// connections, all inside one scheduler context.
package dispatch

import (
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/analytics"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/schedule"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/service/connection"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/service/game"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/service/matchmaking"
)

const (
	DefaultBotDelayMin = 500 * time.Millisecond
	DefaultBotDelayMax = 1000 * time.Millisecond
)

type Config struct {
	QueueTimeout time.Duration
	Grace        time.Duration
	BotDelayMin  time.Duration
	BotDelayMax  time.Duration
	BotDepth     int
}

type Stats struct {
	ActiveSessions   int `json:"activeSessions"`
	QueuedPlayers    int `json:"queuedPlayers"`
	BoundConnections int `json:"boundConnections"`
	PendingTimers    int `json:"pendingTimers"`
}

type Dispatcher struct {
	sched    *schedule.Scheduler
	notifier domain.Notifier
	log      *zap.Logger

	queue    *matchmaking.Queue
	sessions *game.Registry
	conns    *connection.Registry

	botDelay func() time.Duration
}

type Option func(*Dispatcher)

// WithBotDelay replaces the random bot reply delay.
func WithBotDelay(delay func() time.Duration) Option {
	return func(d *Dispatcher) {
		d.botDelay = delay
	}
}

func New(sched *schedule.Scheduler, notifier domain.Notifier, recorder game.Recorder, publisher analytics.Publisher, logger *zap.Logger, cfg Config, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	var gameOpts []game.Option
	if cfg.BotDepth > 0 {
		gameOpts = append(gameOpts, game.WithBotDepth(cfg.BotDepth))
	}
	sessions := game.NewRegistry(sched, recorder, publisher, logger, gameOpts...)

	d := &Dispatcher{
		sched:    sched,
		notifier: notifier,
		log:      logger.With(zap.String("component", "dispatch")),
		queue:    matchmaking.NewQueue(sched, cfg.QueueTimeout, logger),
		sessions: sessions,
		conns:    connection.NewRegistry(sched, sessions, notifier, cfg.Grace, logger),
		botDelay: randomDelay(cfg.BotDelayMin, cfg.BotDelayMax),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// randomDelay draws uniformly from [minDelay, maxDelay).
func randomDelay(minDelay, maxDelay time.Duration) func() time.Duration {
	if minDelay <= 0 {
		minDelay = DefaultBotDelayMin
	}
	if maxDelay <= 0 {
		maxDelay = DefaultBotDelayMax
	}
	return func() time.Duration {
		if maxDelay <= minDelay {
			return minDelay
		}
		return minDelay + time.Duration(rand.Int63n(int64(maxDelay-minDelay)))
	}
}

// JoinQueue handles a join intent. A player with an active session is
// reconnected to it instead of queued.
func (d *Dispatcher) JoinQueue(connectionID, playerID string) {
	d.sched.Do(func() {
		if err := d.joinQueue(connectionID, playerID); err != nil {
			d.fail(connectionID, err)
		}
	})
}

func (d *Dispatcher) joinQueue(connectionID, playerID string) error {
	if playerID == "" || domain.IsBot(playerID) {
		return domain.ErrInvalidPlayerID
	}
	if owner, ok := d.conns.PlayerFor(connectionID); ok && owner != playerID {
		return domain.ErrConnectionBound
	}

	if _, active := d.sessions.GetActiveSessionFor(playerID); active {
		_, err := d.conns.Reconnect(playerID, connectionID)
		return err
	}

	d.conns.CancelGrace(playerID)
	if err := d.conns.Bind(playerID, connectionID); err != nil {
		return err
	}

	if entry, ok := d.queue.DequeueMatch(playerID); ok {
		d.startMatch(entry.PlayerID, playerID)
		return nil
	}

	if err := d.queue.Enqueue(playerID, connectionID, d.onQueueTimeout); err != nil {
		return err
	}
	d.notifier.Send(connectionID, domain.WaitingForOpponent{})
	return nil
}

// the waiting player moves first
func (d *Dispatcher) startMatch(waiting, joining string) {
	s := d.sessions.CreateSession(waiting, joining)
	d.announce(s)
}

func (d *Dispatcher) onQueueTimeout(entry matchmaking.Entry) {
	if _, active := d.sessions.GetActiveSessionFor(entry.PlayerID); active {
		return
	}

	s := d.sessions.CreateSession(entry.PlayerID, domain.BotPlayerID)
	if _, bound := d.conns.ConnectionFor(entry.PlayerID); !bound {
		d.notifier.Send(entry.ConnectionID, gameStart(s))
		d.notifier.Send(entry.ConnectionID, domain.PlayerNumber{Number: domain.Player1})
		return
	}
	d.announce(s)
}

func (d *Dispatcher) announce(s *game.GameSession) {
	start := gameStart(s)
	for _, p := range s.HumanPlayers() {
		number, _ := s.PlayerNumber(p)
		d.conns.Notify(p, start)
		d.conns.Notify(p, domain.PlayerNumber{Number: number})
	}
}

func gameStart(s *game.GameSession) domain.GameStart {
	return domain.GameStart{
		SessionID: s.ID(),
		Player1:   s.Player1(),
		Player2:   s.Player2(),
		Board:     s.Board(),
		Turn:      s.Turn(),
	}
}

// MakeMove handles a move intent from connectionID.
func (d *Dispatcher) MakeMove(connectionID, sessionID string, column int, playerID string) {
	d.sched.Do(func() {
		if err := d.makeMove(connectionID, sessionID, column, playerID); err != nil {
			d.fail(connectionID, err)
		}
	})
}

func (d *Dispatcher) makeMove(connectionID, sessionID string, column int, playerID string) error {
	if bound, ok := d.conns.PlayerFor(connectionID); !ok || bound != playerID {
		return domain.ErrUnknownPlayer
	}

	s, ok := d.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	result, err := d.sessions.ApplyMove(sessionID, column, playerID)
	if err != nil {
		return err
	}
	d.broadcast(s, result)

	if !result.Over && s.BotToMove() {
		d.sessions.ScheduleBotTurn(s, d.botDelay(), func(botResult *game.MoveResult) {
			d.broadcast(s, botResult)
		})
	}
	return nil
}

func (d *Dispatcher) broadcast(s *game.GameSession, result *game.MoveResult) {
	humans := s.HumanPlayers()

	move := domain.MoveMade{
		Row:    result.Row,
		Col:    result.Col,
		Player: result.Player,
		Board:  result.Board,
	}
	for _, p := range humans {
		d.conns.Notify(p, move)
	}

	if !result.Over {
		for _, p := range humans {
			d.conns.Notify(p, domain.TurnChange{Turn: result.NextTurn})
		}
		return
	}

	over := domain.GameOver{
		Winner: result.Winner,
		IsDraw: result.IsDraw,
		Board:  result.Board,
		Reason: result.Reason,
	}
	for _, p := range humans {
		d.conns.Notify(p, over)
		d.conns.CancelGrace(p)
	}
}

// Disconnect handles a closed connection.
func (d *Dispatcher) Disconnect(connectionID string) {
	d.sched.Do(func() {
		if playerID, ok := d.conns.PlayerFor(connectionID); ok {
			d.queue.Remove(playerID)
		}
		d.conns.HandleDisconnect(connectionID)
	})
}

func (d *Dispatcher) fail(connectionID string, err error) {
	var domainErr domain.Error
	if !errors.As(err, &domainErr) {
		d.log.Error("[DISPATCH] Unexpected error", zap.String("connection", connectionID), zap.Error(err))
	} else {
		d.log.Debug("[DISPATCH] Intent rejected", zap.String("connection", connectionID), zap.Error(err))
	}
	d.notifier.Send(connectionID, domain.ErrorEvent{Message: err.Error()})
}

func (d *Dispatcher) Stats() Stats {
	var stats Stats
	d.sched.Do(func() {
		stats = Stats{
			ActiveSessions:   d.sessions.ActiveCount(),
			QueuedPlayers:    d.queue.Len(),
			BoundConnections: d.conns.Len(),
		}
	})
	stats.PendingTimers = d.sched.Pending()
	return stats
}

// Shutdown cancels every armed timer and clears all tables.
func (d *Dispatcher) Shutdown() {
	d.sched.Do(func() {
		d.queue.Shutdown()
		d.sessions.Shutdown()
		d.conns.Shutdown()
	})
	d.sched.Shutdown()
	d.log.Info("[DISPATCH] Shut down")
}
