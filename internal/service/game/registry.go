package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/analytics"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/metrics"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/schedule"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/service/bot"
	"github.com/iamasit07/4-in-a-row/gamecore/pkg/uid"
)

// Recorder receives every concluded game. It must not block.
type Recorder interface {
	Record(record domain.GameRecord)
}

// MoveResult describes an accepted move and the state it left behind.
type MoveResult struct {
	SessionID string
	Row       int
	Col       int
	Player    domain.PlayerID
	PlayerID  string
	Board     domain.Board

	Over     bool
	Winner   string
	IsDraw   bool
	Reason   string
	NextTurn domain.PlayerID
}

// Registry owns the active sessions. It is not safe for concurrent use;
// every call runs inside the scheduler's context.
type Registry struct {
	sched     *schedule.Scheduler
	recorder  Recorder
	publisher analytics.Publisher
	log       *zap.Logger
	botDepth  int

	sessions map[string]*GameSession // sessionID → session
	byPlayer map[string]string       // playerID → sessionID, humans only
}

type Option func(*Registry)

func WithBotDepth(depth int) Option {
	return func(r *Registry) {
		r.botDepth = depth
	}
}

func NewRegistry(sched *schedule.Scheduler, recorder Recorder, publisher analytics.Publisher, logger *zap.Logger, opts ...Option) *Registry {
	if publisher == nil {
		publisher = analytics.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		sched:     sched,
		recorder:  recorder,
		publisher: publisher,
		log:       logger.With(zap.String("component", "session")),
		botDepth:  bot.MINIMAX_DEPTH,
		sessions:  make(map[string]*GameSession),
		byPlayer:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateSession starts a game with player1 to move. A bot opponent is
// attached when player2 is the bot identity.
func (r *Registry) CreateSession(player1, player2 string) *GameSession {
	s := newGameSession(uid.GenerateSessionID(), player1, player2, r.sched.Now())
	if domain.IsBot(player2) {
		s.bot = bot.New(domain.Player2, bot.WithDepth(r.botDepth))
	}

	r.sessions[s.id] = s
	for _, p := range s.HumanPlayers() {
		r.byPlayer[p] = s.id
	}

	matchType := "pvp"
	if s.IsBotGame() {
		matchType = "bot"
	}
	metrics.SessionsCreated.WithLabelValues(matchType).Inc()
	metrics.ActiveSessions.Set(float64(len(r.sessions)))

	r.publisher.Publish(analytics.Event{
		Type:      analytics.EventGameStarted,
		SessionID: s.id,
		Timestamp: s.startedAt,
		Payload: map[string]any{
			"player1":   player1,
			"player2":   player2,
			"matchType": matchType,
		},
	})

	r.log.Info("[SESSION] Created session",
		zap.String("session", s.id),
		zap.String("player1", player1),
		zap.String("player2", player2))
	return s
}

func (r *Registry) Get(sessionID string) (*GameSession, bool) {
	s, ok := r.sessions[sessionID]
	return s, ok
}

// GetActiveSessionFor returns the one active session playerID takes part in.
func (r *Registry) GetActiveSessionFor(playerID string) (*GameSession, bool) {
	sessionID, ok := r.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[sessionID]
	if !ok || !s.IsActive() {
		return nil, false
	}
	return s, true
}

func (r *Registry) ActiveCount() int {
	return len(r.sessions)
}

// ApplyMove validates and plays requestingPlayer's disc in column. A winning
// or filling move ends the session before returning.
func (r *Registry) ApplyMove(sessionID string, column int, requestingPlayer string) (*MoveResult, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, r.rejected(domain.ErrSessionNotFound)
	}
	return r.applyMove(s, column, requestingPlayer)
}

func (r *Registry) applyMove(s *GameSession, column int, requestingPlayer string) (*MoveResult, error) {
	if !s.IsActive() {
		return nil, r.rejected(domain.ErrAlreadyOver)
	}

	number, ok := s.PlayerNumber(requestingPlayer)
	if !ok {
		return nil, r.rejected(domain.ErrNotYourTurn)
	}

	row, err := s.place(column, number)
	if err != nil {
		return nil, r.rejected(err)
	}
	metrics.MovesApplied.Inc()

	eventType := analytics.EventMoveMade
	if domain.IsBot(requestingPlayer) {
		eventType = analytics.EventBotMove
	}
	r.publisher.Publish(analytics.Event{
		Type:      eventType,
		SessionID: s.id,
		Timestamp: r.sched.Now(),
		Payload: map[string]any{
			"player":     requestingPlayer,
			"column":     column,
			"row":        row,
			"moveNumber": s.moveCount,
		},
	})

	result := &MoveResult{
		SessionID: s.id,
		Row:       row,
		Col:       column,
		Player:    number,
		PlayerID:  requestingPlayer,
		Board:     s.board,
	}

	switch {
	case domain.CheckWin(s.board, row, column, number):
		r.end(s, requestingPlayer, false, domain.ReasonConnectFour)
	case domain.IsBoardFull(s.board):
		r.end(s, "", true, domain.ReasonDraw)
	default:
		s.advanceTurn()
		result.NextTurn = s.turn
		return result, nil
	}

	result.Over = true
	result.Winner = s.winner
	result.IsDraw = s.isDraw
	result.Reason = s.reason
	return result, nil
}

func (r *Registry) rejected(err error) error {
	metrics.MovesRejected.WithLabelValues(err.Error()).Inc()
	return err
}

// EndSession concludes s, hands its record to the recorder and evicts it.
// Ending a session twice returns ErrAlreadyOver.
func (r *Registry) EndSession(s *GameSession, winner string, isDraw bool) error {
	reason := domain.ReasonConnectFour
	if isDraw {
		reason = domain.ReasonDraw
	}
	return r.end(s, winner, isDraw, reason)
}

// Forfeit ends s with the opponent of absentPlayer as winner.
func (r *Registry) Forfeit(s *GameSession, absentPlayer string) error {
	opponent := s.Opponent(absentPlayer)
	if opponent == "" {
		return domain.ErrUnknownPlayer
	}
	return r.end(s, opponent, false, domain.ReasonForfeit)
}

func (r *Registry) end(s *GameSession, winner string, isDraw bool, reason string) error {
	if current, ok := r.sessions[s.id]; !ok || current != s || !s.IsActive() {
		r.log.Error("[SESSION] Session ended twice",
			zap.String("session", s.id),
			zap.Stack("stack"))
		return domain.ErrAlreadyOver
	}

	s.botTimer.Stop()
	s.finish(winner, isDraw, reason, r.sched.Now())

	record := s.record()
	if r.recorder != nil {
		r.recorder.Record(record)
	}

	r.publisher.Publish(analytics.Event{
		Type:      analytics.EventGameEnded,
		SessionID: s.id,
		Timestamp: s.endedAt,
		Payload: map[string]any{
			"winner":          winner,
			"isDraw":          isDraw,
			"reason":          reason,
			"moves":           s.moveCount,
			"durationSeconds": int(record.Duration().Seconds()),
		},
	})

	r.evict(s)
	metrics.GamesCompleted.WithLabelValues(reason).Inc()

	r.log.Info("[SESSION] Session ended",
		zap.String("session", s.id),
		zap.String("winner", winner),
		zap.Bool("draw", isDraw),
		zap.String("reason", reason),
		zap.Int("moves", s.moveCount))
	return nil
}

func (r *Registry) evict(s *GameSession) {
	delete(r.sessions, s.id)
	for _, p := range s.HumanPlayers() {
		if r.byPlayer[p] == s.id {
			delete(r.byPlayer, p)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

// ScheduleBotTurn arms the bot's reply for s. When the timer fires the
// session must still be registered, active and waiting on the bot;
// otherwise the turn is dropped. onMove receives the applied move.
func (r *Registry) ScheduleBotTurn(s *GameSession, delay time.Duration, onMove func(*MoveResult)) {
	if !s.BotToMove() {
		return
	}

	s.botTimer.Stop()
	s.botTimer = r.sched.AfterFunc(delay, func() {
		if current, ok := r.sessions[s.id]; !ok || current != s || !s.BotToMove() {
			return
		}

		started := time.Now()
		column := s.bot.GetBestMove(s.board)
		metrics.BotThinkSeconds.Observe(time.Since(started).Seconds())

		result, err := r.applyMove(s, column, s.PlayerAt(s.bot.Player()))
		if err != nil {
			r.log.Error("[BOT] Bot move rejected",
				zap.String("session", s.id),
				zap.Int("column", column),
				zap.Error(err))
			return
		}

		r.log.Debug("[BOT] Bot moved",
			zap.String("session", s.id),
			zap.Int("column", column),
			zap.Duration("think", time.Since(started)))

		if onMove != nil {
			onMove(result)
		}
	})
}

// Shutdown cancels pending bot turns and clears the tables. Sessions still
// in progress are dropped without a record.
func (r *Registry) Shutdown() {
	for _, s := range r.sessions {
		s.botTimer.Stop()
	}
	if n := len(r.sessions); n > 0 {
		r.log.Info("[SESSION] Dropping active sessions on shutdown", zap.Int("count", n))
	}
	r.sessions = make(map[string]*GameSession)
	r.byPlayer = make(map[string]string)
	metrics.ActiveSessions.Set(0)
}
