package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/state"
	"github.com/marque-app/marque/internal/store"
)

// Status is the sync state surfaced to the presentation layer. It is
// passive: a failed pass never interrupts the user or rolls back the
// visible list.
type Status string

const (
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
)

// DefaultInterval is the reconciliation polling interval.
const DefaultInterval = 2 * time.Second

// Reconciler keeps a session's visible list eventually consistent with
// the authoritative store without a push channel. On every tick it
// fetches the full owned snapshot and replaces the list wholesale when
// the id-sets diverge; an unchanged set leaves the list untouched so
// in-flight optimistic entries are not clobbered gratuitously.
//
// The loop goroutine runs the passes one at a time: a tick arriving
// while a pass is still in flight is absorbed by the ticker, never
// queued behind it.
type Reconciler struct {
	token    string
	resolver auth.Resolver
	store    store.Store
	list     *state.List
	logger   logger.Logger
	interval time.Duration

	mu     sync.RWMutex
	status Status

	trigger  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewReconciler creates a reconciler for one session token. interval
// falls back to DefaultInterval when zero.
func NewReconciler(
	token string,
	resolver auth.Resolver,
	st store.Store,
	list *state.List,
	log logger.Logger,
	interval time.Duration,
) *Reconciler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reconciler{
		token:    token,
		resolver: resolver,
		store:    st,
		list:     list,
		logger:   log,
		interval: interval,
		status:   StatusSyncing,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start runs one pass immediately, then keeps reconciling on the
// interval until Stop is called or ctx is cancelled. A failed pass is
// not an error here: it surfaces as StatusError and the next tick
// recovers.
func (r *Reconciler) Start(ctx context.Context) {
	r.Reconcile(ctx)

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Reconcile(ctx)
			case <-r.trigger:
				r.Reconcile(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop. It is safe to call more than once and after the
// loop already exited; no further fetches happen once it returns.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Trigger requests an immediate pass without waiting for the next
// tick. It never blocks; a pass already pending absorbs the request.
func (r *Reconciler) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Status returns the current sync status.
func (r *Reconciler) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.status
}

func (r *Reconciler) setStatus(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = s
}

// Reconcile performs a single pass. Identity or fetch failures leave
// the previous list displayed (fail-soft) and only flip the status.
func (r *Reconciler) Reconcile(ctx context.Context) {
	r.setStatus(StatusSyncing)

	// A slow fetch must not stall the loop past the next tick.
	ctx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	identity, err := r.resolver.Resolve(ctx, r.token)
	if err != nil {
		r.logger.Debug("reconcile pass skipped, no resolvable identity",
			logger.Error(err))
		r.setStatus(StatusError)
		return
	}

	fetched, err := r.store.List(ctx, identity.UserID)
	if err != nil {
		r.logger.Warn("reconcile fetch failed, keeping previous list",
			logger.String("owner", identity.UserID),
			logger.Error(err))
		r.setStatus(StatusError)
		return
	}

	if changed := r.applySnapshot(fetched); changed {
		r.logger.Info("reconciled bookmark list",
			logger.String("owner", identity.UserID),
			logger.Int("count", len(fetched)))
	}

	r.list.MarkSynced(time.Now())
	r.setStatus(StatusSynced)
}

// applySnapshot replaces the list when the fetched id-set differs from
// the displayed one. Comparison is by identifiers only, so a remote
// in-place field edit would go undetected; with no edit operation in
// the system this cannot occur today.
func (r *Reconciler) applySnapshot(fetched []*domain.Bookmark) bool {
	current := r.list.IDSet()
	if len(fetched) == len(current) {
		same := true
		for _, b := range fetched {
			if _, ok := current[b.ID]; !ok {
				same = false
				break
			}
		}
		if same {
			return false
		}
	}

	r.list.Replace(fetched)
	return true
}
