package identity

import "github.com/SiameseJames22/2DWORLD/internal/domain"

// WatchAuth subscribes to authentication-state changes. The listener fires
// immediately with the current account (nil when signed out) and again on
// every sign-in, sign-out, and credential refresh. The returned function
// removes the subscription.
func (s *Session) WatchAuth(listener func(*domain.Account)) func() {
	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = listener
	current := s.snapshotLocked()
	s.mu.Unlock()

	listener(current)

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// notify fans the current account out to every watcher, outside the lock.
func (s *Session) notify() {
	s.mu.Lock()
	current := s.snapshotLocked()
	listeners := make([]func(*domain.Account), 0, len(s.watchers))
	for _, fn := range s.watchers {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(current)
	}
}

// snapshotLocked copies the current account. Callers must hold mu.
func (s *Session) snapshotLocked() *domain.Account {
	if s.creds == nil {
		return nil
	}
	a := s.creds.Account
	return &a
}
