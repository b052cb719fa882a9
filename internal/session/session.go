package session

import (
	"sync"
	"time"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/scheduler"
	"github.com/marque-app/marque/internal/state"
	"github.com/marque-app/marque/internal/store"
)

// Session is the server-side stand-in for one client view: the shared
// list, its reconciler, and its mutation coordinator, all bound to one
// session token. Closing the session stops the reconciler exactly
// once; in-flight store calls run to completion and their results land
// through guarded list methods that stay safe after teardown.
type Session struct {
	Token       string
	List        *state.List
	Reconciler  *scheduler.Reconciler
	Coordinator *Coordinator

	mu        sync.Mutex
	lastSeen  time.Time
	closeOnce sync.Once
}

// newSession assembles the session without starting its reconciler.
// The first reconciliation pass fetches from the store, so the caller
// starts it outside any shared lock.
func newSession(token string, resolver auth.Resolver, st store.Store, log logger.Logger, interval time.Duration) *Session {
	list := state.NewList()
	return &Session{
		Token:       token,
		List:        list,
		Reconciler:  scheduler.NewReconciler(token, resolver, st, list, log, interval),
		Coordinator: NewCoordinator(token, resolver, st, list, log),
		lastSeen:    time.Now(),
	}
}

// Touch records session activity for idle expiry.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()
}

// LastSeen returns the time of the last activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSeen
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.Reconciler.Stop()
	})
}
