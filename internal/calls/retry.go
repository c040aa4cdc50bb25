package calls

import (
	"context"
	"sync"
	"time"
)

// RetryDelay is the fixed wait before a no-answer lead is dialed again.
const RetryDelay = 120 * time.Second

// RetryScheduler arranges for a lead to be dialed again after delay.
// Every Schedule call yields exactly one retry; there is no coalescing and no cancellation.
type RetryScheduler interface {
	Schedule(ctx context.Context, identity string, delay time.Duration) error
}

// TimerScheduler runs retries in-process with time.AfterFunc.
// Pending retries are lost if the process exits.
type TimerScheduler struct {
	fire func(identity string)

	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

func NewTimerScheduler(fire func(identity string)) *TimerScheduler {
	return &TimerScheduler{fire: fire, timers: make(map[*time.Timer]struct{})}
}

func (s *TimerScheduler) Schedule(_ context.Context, identity string, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSchedulerStopped
	}

	// The callback takes s.mu, so t is assigned before it can run.
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		s.fire(identity)
	})
	s.timers[t] = struct{}{}
	return nil
}

// Pending reports timers that have not fired yet.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels pending timers and rejects further scheduling.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for t := range s.timers {
		t.Stop()
		delete(s.timers, t)
	}
}
