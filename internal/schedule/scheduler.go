// Package schedule provides the single processing context shared by the
// matchmaking queue, the session registry and the connection registry.
//
// Inbound work runs through Do and every timer callback runs under the same
// lock, so at most one of them executes at any time. Timers are explicit
// handles: once Stop returns, the callback is guaranteed not to run, even if
// the underlying clock already fired and the callback is waiting for the lock.
package schedule

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

type Scheduler struct {
	clock clock.Clock
	log   *zap.Logger

	// mu is the processing context itself.
	mu sync.Mutex

	// tmu protects timers and closed; it is never held while running callbacks.
	tmu    sync.Mutex
	timers map[*Timer]struct{}
	closed bool
}

// Timer is a cancellable handle for a scheduled callback.
type Timer struct {
	s     *Scheduler
	inner *clock.Timer
	done  bool // fired or stopped
}

func New(clk clock.Clock, logger *zap.Logger) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clock:  clk,
		log:    logger,
		timers: make(map[*Timer]struct{}),
	}
}

func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Do runs fn with exclusive access to the shared tables. fn must not call Do.
func (s *Scheduler) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run(fn)
}

// AfterFunc arms fn to run inside the processing context after d. It may be
// called from within Do or from a timer callback. After Shutdown it returns
// a handle that never fires.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) *Timer {
	t := &Timer{s: s}

	s.tmu.Lock()
	if s.closed {
		t.done = true
		s.tmu.Unlock()
		return t
	}
	s.timers[t] = struct{}{}
	s.tmu.Unlock()

	inner := s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.claim(t) {
			return
		}
		s.run(fn)
	})

	s.tmu.Lock()
	t.inner = inner
	s.tmu.Unlock()
	return t
}

// claim marks t as fired. It fails if t was stopped in the meantime.
func (s *Scheduler) claim(t *Timer) bool {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	delete(s.timers, t)
	return true
}

func (s *Scheduler) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("[SCHEDULE] Recovered from panic",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
}

// Stop cancels the timer. It reports false if the timer already fired or
// was stopped before. Stopping a nil handle is a no-op.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	s := t.s

	s.tmu.Lock()
	if t.done {
		s.tmu.Unlock()
		return false
	}
	t.done = true
	delete(s.timers, t)
	inner := t.inner
	s.tmu.Unlock()

	if inner != nil {
		inner.Stop()
	}
	return true
}

// Active reports whether the timer is still armed.
func (t *Timer) Active() bool {
	if t == nil {
		return false
	}
	t.s.tmu.Lock()
	defer t.s.tmu.Unlock()
	return !t.done
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	return len(s.timers)
}

// Shutdown stops every armed timer and refuses new ones. It returns how
// many timers were drained.
func (s *Scheduler) Shutdown() int {
	s.tmu.Lock()
	s.closed = true
	armed := make([]*Timer, 0, len(s.timers))
	for t := range s.timers {
		armed = append(armed, t)
	}
	s.tmu.Unlock()

	drained := 0
	for _, t := range armed {
		if t.Stop() {
			drained++
		}
	}
	if drained > 0 {
		s.log.Info("[SCHEDULE] Drained armed timers", zap.Int("count", drained))
	}
	return drained
}
