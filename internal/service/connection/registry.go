package connection

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/metrics"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/schedule"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/service/game"
)

const DefaultGrace = 30 * time.Second

// Registry maps players to connections one to one and holds the reconnect
// window of players who dropped out of an active session. It is not safe
// for concurrent use; every call runs inside the scheduler's context.
type Registry struct {
	sched    *schedule.Scheduler
	sessions *game.Registry
	notifier domain.Notifier
	grace    time.Duration
	log      *zap.Logger

	byPlayer map[string]string // playerID → connectionID
	byConn   map[string]string // connectionID → playerID
	graces   map[string]*schedule.Timer
}

func NewRegistry(sched *schedule.Scheduler, sessions *game.Registry, notifier domain.Notifier, grace time.Duration, logger *zap.Logger) *Registry {
	if grace <= 0 {
		grace = DefaultGrace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sched:    sched,
		sessions: sessions,
		notifier: notifier,
		grace:    grace,
		log:      logger.With(zap.String("component", "connection")),
		byPlayer: make(map[string]string),
		byConn:   make(map[string]string),
		graces:   make(map[string]*schedule.Timer),
	}
}

// Bind associates playerID with connectionID. A player bound elsewhere
// loses its previous connection record.
func (r *Registry) Bind(playerID, connectionID string) error {
	if owner, ok := r.byConn[connectionID]; ok && owner != playerID {
		return domain.ErrConnectionBound
	}

	if previous, ok := r.byPlayer[playerID]; ok && previous != connectionID {
		delete(r.byConn, previous)
		r.log.Info("[CONNECTION] Replacing connection",
			zap.String("player", playerID),
			zap.String("previous", previous),
			zap.String("connection", connectionID))
	}

	r.byPlayer[playerID] = connectionID
	r.byConn[connectionID] = playerID
	metrics.BoundConnections.Set(float64(len(r.byConn)))
	return nil
}

func (r *Registry) PlayerFor(connectionID string) (string, bool) {
	playerID, ok := r.byConn[connectionID]
	return playerID, ok
}

func (r *Registry) ConnectionFor(playerID string) (string, bool) {
	connectionID, ok := r.byPlayer[playerID]
	return connectionID, ok
}

func (r *Registry) Len() int {
	return len(r.byConn)
}

// Notify sends event to the player's current connection, if any.
func (r *Registry) Notify(playerID string, event domain.Event) {
	if connectionID, ok := r.byPlayer[playerID]; ok {
		r.notifier.Send(connectionID, event)
	}
}

// HandleDisconnect unbinds connectionID. When its player is in an active
// session the reconnect window opens and the opponent is told. It returns
// the player that owned the connection.
func (r *Registry) HandleDisconnect(connectionID string) (string, bool) {
	playerID, ok := r.byConn[connectionID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connectionID)
	if r.byPlayer[playerID] == connectionID {
		delete(r.byPlayer, playerID)
	}
	metrics.BoundConnections.Set(float64(len(r.byConn)))

	session, active := r.sessions.GetActiveSessionFor(playerID)
	if !active {
		r.log.Info("[CONNECTION] Player disconnected", zap.String("player", playerID))
		return playerID, true
	}

	r.armGrace(playerID)
	r.log.Info("[CONNECTION] Player disconnected from active session",
		zap.String("player", playerID),
		zap.String("session", session.ID()),
		zap.Duration("grace", r.grace))

	r.Notify(session.Opponent(playerID), domain.OpponentDisconnected{
		Message: fmt.Sprintf("Opponent disconnected. They have %d seconds to reconnect.", int(r.grace.Seconds())),
	})
	return playerID, true
}

func (r *Registry) armGrace(playerID string) {
	if _, armed := r.graces[playerID]; armed {
		return
	}

	var timer *schedule.Timer
	timer = r.sched.AfterFunc(r.grace, func() {
		r.expire(playerID, timer)
	})
	r.graces[playerID] = timer
}

func (r *Registry) expire(playerID string, timer *schedule.Timer) {
	if r.graces[playerID] != timer {
		return
	}
	delete(r.graces, playerID)

	if _, back := r.byPlayer[playerID]; back {
		return
	}
	session, active := r.sessions.GetActiveSessionFor(playerID)
	if !active {
		return
	}

	opponent := session.Opponent(playerID)
	if err := r.sessions.Forfeit(session, playerID); err != nil {
		r.log.Error("[CONNECTION] Forfeit failed",
			zap.String("player", playerID),
			zap.String("session", session.ID()),
			zap.Error(err))
		return
	}
	metrics.GraceExpired.Inc()

	r.log.Info("[CONNECTION] Reconnect window expired, opponent wins",
		zap.String("player", playerID),
		zap.String("winner", opponent),
		zap.String("session", session.ID()))

	r.Notify(opponent, domain.GameOver{
		Winner: opponent,
		IsDraw: false,
		Board:  session.Board(),
		Reason: session.Reason(),
	})
}

// Reconnect restores playerID's active session on connectionID and sends
// the unchanged session state to it.
func (r *Registry) Reconnect(playerID, connectionID string) (*game.GameSession, error) {
	session, active := r.sessions.GetActiveSessionFor(playerID)
	if !active {
		return nil, domain.ErrSessionNotFound
	}
	if err := r.Bind(playerID, connectionID); err != nil {
		return nil, err
	}
	r.CancelGrace(playerID)

	number, _ := session.PlayerNumber(playerID)
	r.notifier.Send(connectionID, domain.GameRejoined{
		SessionID:    session.ID(),
		Board:        session.Board(),
		Turn:         session.Turn(),
		Player1:      session.Player1(),
		Player2:      session.Player2(),
		PlayerNumber: number,
	})

	r.log.Info("[CONNECTION] Player reconnected",
		zap.String("player", playerID),
		zap.String("session", session.ID()))
	return session, nil
}

// CancelGrace closes playerID's reconnect window, if open.
func (r *Registry) CancelGrace(playerID string) bool {
	timer, ok := r.graces[playerID]
	if !ok {
		return false
	}
	delete(r.graces, playerID)
	timer.Stop()
	return true
}

func (r *Registry) GraceArmed(playerID string) bool {
	_, ok := r.graces[playerID]
	return ok
}

// Shutdown cancels every reconnect window and forgets all bindings.
func (r *Registry) Shutdown() {
	for _, timer := range r.graces {
		timer.Stop()
	}
	r.graces = make(map[string]*schedule.Timer)
	r.byPlayer = make(map[string]string)
	r.byConn = make(map[string]string)
	metrics.BoundConnections.Set(0)
}
