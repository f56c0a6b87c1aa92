package turnrunner

import (
	"context"
	"sync"
	"time"
)

// sessionLocks serializes turns for the same session id (spec §5
// "per-session ordering"), implemented as lock-striped per-key
// semaphores rather than one global mutex, so unrelated sessions never
// contend with each other.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]chan struct{})}
}

// acquire blocks until the session's slot is free, ctx is done, or wait
// elapses, whichever comes first. release must be called exactly once
// on success.
func (s *sessionLocks) acquire(ctx context.Context, sessionID string, wait time.Duration) (release func(), ok bool) {
	ch := s.chanFor(sessionID)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, true
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

func (s *sessionLocks) chanFor(sessionID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[sessionID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[sessionID] = ch
	}
	return ch
}
