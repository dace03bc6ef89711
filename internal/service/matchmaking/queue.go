package matchmaking

import (
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/metrics"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/schedule"
)

const DefaultTimeout = 10 * time.Second

// Entry is one waiting player.
type Entry struct {
	PlayerID     string
	ConnectionID string
	EnqueuedAt   time.Time

	timer *schedule.Timer
}

// Queue holds players waiting for an opponent in insertion order. It is not
// safe for concurrent use; callers run it inside the scheduler's context.
type Queue struct {
	sched   *schedule.Scheduler
	timeout time.Duration
	log     *zap.Logger

	entries  []*Entry
	byPlayer map[string]*Entry
}

func NewQueue(sched *schedule.Scheduler, timeout time.Duration, logger *zap.Logger) *Queue {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		sched:    sched,
		timeout:  timeout,
		log:      logger.With(zap.String("component", "matchmaking")),
		byPlayer: make(map[string]*Entry),
	}
}

// Enqueue adds the player and arms its timeout. When the timeout fires the
// entry is removed first and onTimeout is called with it.
func (q *Queue) Enqueue(playerID, connectionID string, onTimeout func(Entry)) error {
	if _, exists := q.byPlayer[playerID]; exists {
		return domain.ErrAlreadyQueued
	}

	entry := &Entry{
		PlayerID:     playerID,
		ConnectionID: connectionID,
		EnqueuedAt:   q.sched.Now(),
	}
	entry.timer = q.sched.AfterFunc(q.timeout, func() {
		q.expire(entry, onTimeout)
	})

	q.entries = append(q.entries, entry)
	q.byPlayer[playerID] = entry
	metrics.QueueSize.Set(float64(len(q.entries)))

	q.log.Info("[MATCHMAKING] Player queued",
		zap.String("player", playerID),
		zap.Duration("timeout", q.timeout))
	return nil
}

func (q *Queue) expire(entry *Entry, onTimeout func(Entry)) {
	if current, ok := q.byPlayer[entry.PlayerID]; !ok || current != entry {
		return
	}
	q.delete(entry)
	metrics.QueueTimeouts.Inc()

	q.log.Info("[MATCHMAKING] Queue timeout, falling back to bot",
		zap.String("player", entry.PlayerID),
		zap.Duration("waited", q.sched.Now().Sub(entry.EnqueuedAt)))

	if onTimeout != nil {
		onTimeout(*entry)
	}
}

// DequeueMatch removes and returns the earliest entry that does not belong
// to excludingPlayerID. Its timeout is cancelled before returning.
func (q *Queue) DequeueMatch(excludingPlayerID string) (Entry, bool) {
	entry, found := lo.Find(q.entries, func(e *Entry) bool {
		return e.PlayerID != excludingPlayerID
	})
	if !found {
		return Entry{}, false
	}

	entry.timer.Stop()
	q.delete(entry)

	q.log.Info("[MATCHMAKING] Match found",
		zap.String("waiting", entry.PlayerID),
		zap.String("joining", excludingPlayerID))
	return *entry, true
}

// Remove cancels the player's timeout and drops the entry. Absent players
// are ignored.
func (q *Queue) Remove(playerID string) bool {
	entry, ok := q.byPlayer[playerID]
	if !ok {
		return false
	}
	entry.timer.Stop()
	q.delete(entry)

	q.log.Info("[MATCHMAKING] Player left queue", zap.String("player", playerID))
	return true
}

func (q *Queue) delete(entry *Entry) {
	delete(q.byPlayer, entry.PlayerID)
	q.entries = lo.Without(q.entries, entry)
	metrics.QueueSize.Set(float64(len(q.entries)))
}

func (q *Queue) Contains(playerID string) bool {
	_, ok := q.byPlayer[playerID]
	return ok
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Entries returns a snapshot in insertion order.
func (q *Queue) Entries() []Entry {
	return lo.Map(q.entries, func(e *Entry, _ int) Entry {
		return *e
	})
}

// Shutdown cancels every timeout and empties the queue.
func (q *Queue) Shutdown() {
	for _, entry := range q.entries {
		entry.timer.Stop()
	}
	q.entries = nil
	q.byPlayer = make(map[string]*Entry)
	metrics.QueueSize.Set(0)
}
