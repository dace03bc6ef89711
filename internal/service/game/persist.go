package game

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/metrics"
)

// Store is the persistence collaborator for concluded games. Writes may be
// repeated for the same session.
type Store interface {
	SaveCompletedGame(ctx context.Context, record domain.GameRecord) error
	UpsertPlayerOutcome(ctx context.Context, playerID string, outcome domain.Outcome) error
}

const (
	defaultPersistWorkers  = 8
	defaultPersistRetries  = 3
	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
	defaultAttemptTimeout  = 5 * time.Second
)

// AsyncRecorder writes game records on a worker pool so game processing
// never waits on the store. Failed writes are retried with exponential
// backoff, then logged and counted.
type AsyncRecorder struct {
	store Store
	pool  *ants.Pool
	log   *zap.Logger

	workers         int
	retries         uint64
	initialInterval time.Duration
	maxInterval     time.Duration
	attemptTimeout  time.Duration
}

type RecorderOption func(*AsyncRecorder)

func WithWorkers(n int) RecorderOption {
	return func(r *AsyncRecorder) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithRetries(n int) RecorderOption {
	return func(r *AsyncRecorder) {
		if n >= 0 {
			r.retries = uint64(n)
		}
	}
}

func WithBackoff(initial, maxInterval time.Duration) RecorderOption {
	return func(r *AsyncRecorder) {
		r.initialInterval = initial
		r.maxInterval = maxInterval
	}
}

func WithAttemptTimeout(d time.Duration) RecorderOption {
	return func(r *AsyncRecorder) {
		r.attemptTimeout = d
	}
}

func NewAsyncRecorder(store Store, logger *zap.Logger, opts ...RecorderOption) (*AsyncRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &AsyncRecorder{
		store:           store,
		log:             logger.With(zap.String("component", "persistence")),
		workers:         defaultPersistWorkers,
		retries:         defaultPersistRetries,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		attemptTimeout:  defaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	// Submit must never wait for a worker: Record runs inside game processing.
	pool, err := ants.NewPool(r.workers,
		ants.WithNonblocking(true),
		ants.WithExpiryDuration(60*time.Second),
		ants.WithPanicHandler(func(p any) {
			r.log.Error("[GAME] Persistence worker panicked", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pool init failed: %w", err)
	}
	r.pool = pool
	return r, nil
}

// Record schedules the write of record and the outcome of each human
// player. It returns immediately.
func (r *AsyncRecorder) Record(record domain.GameRecord) {
	job := func() { r.persist(record) }
	if err := r.pool.Submit(job); err != nil {
		r.log.Warn("[GAME] Worker pool rejected job, saving on a fresh goroutine",
			zap.String("session", record.SessionID),
			zap.Error(err))
		go job()
	}
}

func (r *AsyncRecorder) persist(record domain.GameRecord) {
	err := r.retry("save_game", func(ctx context.Context) error {
		return r.store.SaveCompletedGame(ctx, record)
	}, zap.String("session", record.SessionID))
	if err == nil {
		r.log.Info("[GAME] Game saved successfully", zap.String("session", record.SessionID))
	}

	for playerID, outcome := range record.Outcomes() {
		r.retry("upsert_outcome", func(ctx context.Context) error {
			return r.store.UpsertPlayerOutcome(ctx, playerID, outcome)
		}, zap.String("session", record.SessionID), zap.String("player", playerID))
	}
}

// retry runs fn under the backoff policy. A final failure is logged with
// fields and counted.
func (r *AsyncRecorder) retry(operation string, fn func(ctx context.Context) error, fields ...zap.Field) error {
	policy := backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(r.initialInterval),
			backoff.WithMaxInterval(r.maxInterval),
		),
		r.retries,
	)

	attempt := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), r.attemptTimeout)
		defer cancel()
		return fn(ctx)
	}

	err := backoff.RetryNotify(attempt, policy, func(err error, next time.Duration) {
		r.log.Warn("[GAME] Retrying persistence write", append(fields,
			zap.String("operation", operation),
			zap.Duration("next", next),
			zap.Error(err))...)
	})
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(operation).Inc()
		r.log.Error("[GAME] Persistence write failed", append(fields,
			zap.String("operation", operation),
			zap.Error(err))...)
	}
	return err
}

// Close waits up to timeout for in-flight writes.
func (r *AsyncRecorder) Close(timeout time.Duration) error {
	return r.pool.ReleaseTimeout(timeout)
}
