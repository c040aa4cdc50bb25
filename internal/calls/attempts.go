package calls

import "sync"

// MaxAttempts is the ceiling of outbound dispatches per lead identity.
const MaxAttempts = 2

// AttemptTracker counts outbound dispatch attempts per lead identity.
// Identities are raw strings; no normalization is applied. Entries are never removed.
type AttemptTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewAttemptTracker() *AttemptTracker {
	return &AttemptTracker{counts: make(map[string]int)}
}

// Attempts returns the number of recorded attempts (0 for unseen identities).
func (t *AttemptTracker) Attempts(identity string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[identity]
}

func (t *AttemptTracker) Record(identity string) {
	t.mu.Lock()
	t.counts[identity]++
	t.mu.Unlock()
}

// TryAcquire records an attempt unless ceiling is already reached.
// It returns the attempt number now in effect; ok=false leaves the count untouched.
func (t *AttemptTracker) TryAcquire(identity string, ceiling int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.counts[identity]
	if n >= ceiling {
		return n, false
	}
	n++
	t.counts[identity] = n
	return n, true
}
