package session

import (
	"context"
	"sync"
	"time"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/store"
)

const (
	// DefaultIdleTTL is how long a session may stay unused before the
	// sweeper closes it.
	DefaultIdleTTL = 10 * time.Minute
	// DefaultSweepInterval is how often idle sessions are collected.
	DefaultSweepInterval = time.Minute
)

// Manager owns the live sessions, one per session token. Sessions are
// created lazily on first use and closed either explicitly or by the
// idle sweeper, so an abandoned view never leaks its polling loop.
type Manager struct {
	resolver auth.Resolver
	store    store.Store
	logger   logger.Logger

	syncInterval  time.Duration
	idleTTL       time.Duration
	sweepInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	baseCtx  context.Context

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager. Zero durations fall back to
// the defaults.
func NewManager(resolver auth.Resolver, st store.Store, log logger.Logger, syncInterval, idleTTL, sweepInterval time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &Manager{
		resolver:      resolver,
		store:         st,
		logger:        log,
		syncInterval:  syncInterval,
		idleTTL:       idleTTL,
		sweepInterval: sweepInterval,
		sessions:      make(map[string]*Session),
		baseCtx:       context.Background(),
		stopCh:        make(chan struct{}),
	}
}

// Start begins the idle sweep loop. ctx bounds the lifetime of every
// session's reconciler as well.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.baseCtx = ctx
	m.mu.Unlock()

	ticker := time.NewTicker(m.sweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the sweep loop and closes every session.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })

	m.mu.Lock()
	defer m.mu.Unlock()

	for token, s := range m.sessions {
		s.Close()
		delete(m.sessions, token)
	}
}

// Acquire returns the live session for the token, creating and
// starting it on first use. The caller must have authenticated the
// token already; the reconciler re-resolves it on every pass anyway.
func (m *Manager) Acquire(token string) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[token]; ok {
		s.Touch()
		m.mu.Unlock()
		return s
	}

	s := newSession(token, m.resolver, m.store, m.logger, m.syncInterval)
	m.sessions[token] = s
	count := len(m.sessions)
	ctx := m.baseCtx
	m.mu.Unlock()

	// The first pass fetches from the store. It runs outside the lock
	// so a slow backend stalls only this caller, never other sessions.
	s.Reconciler.Start(ctx)

	m.logger.Info("session started",
		logger.Int("sessions", count))
	return s
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// sweep closes sessions idle for longer than the TTL. A closed
// session's in-flight calls finish harmlessly; the next request with
// the same token simply starts a fresh session.
func (m *Manager) sweep() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for token, s := range m.sessions {
		if now.Sub(s.LastSeen()) < m.idleTTL {
			continue
		}
		s.Close()
		delete(m.sessions, token)
		m.logger.Info("idle session closed",
			logger.Duration("idle", now.Sub(s.LastSeen())),
			logger.Int("sessions", len(m.sessions)))
	}
}
