package session

import (
	"context"
	"sync"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/state"
	"github.com/marque-app/marque/internal/store"
)

// Coordinator executes user-initiated create/delete against the
// authoritative store and applies the optimistic local effects, so the
// visible list reflects the action before the next reconciliation
// tick confirms it.
//
// Deletes go through a two-step confirmation (request, then confirm or
// cancel) mirroring the UI contract, and at most one delete may be in
// flight per bookmark id.
type Coordinator struct {
	token    string
	resolver auth.Resolver
	store    store.Store
	list     *state.List
	logger   logger.Logger

	mu       sync.Mutex
	staged   map[string]struct{} // delete requested, awaiting confirmation
	inflight map[string]struct{} // delete call running against the store
}

// NewCoordinator creates a coordinator bound to one session token and
// its shared list.
func NewCoordinator(token string, resolver auth.Resolver, st store.Store, list *state.List, log logger.Logger) *Coordinator {
	return &Coordinator{
		token:    token,
		resolver: resolver,
		store:    st,
		list:     list,
		logger:   log,
		staged:   make(map[string]struct{}),
		inflight: make(map[string]struct{}),
	}
}

// Create validates the input, inserts the bookmark scoped to the
// resolved identity, and puts the finalized row at the head of the
// list unless a concurrent reconciliation pass already pulled it in.
// Invalid input never reaches the store.
func (c *Coordinator) Create(ctx context.Context, in domain.CreateInput) (*domain.Bookmark, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	identity, err := c.resolver.Resolve(ctx, c.token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	created, err := c.store.Insert(ctx, identity.UserID, in)
	if err != nil {
		c.logger.Warn("bookmark insert failed",
			logger.String("owner", identity.UserID),
			logger.Error(err))
		return nil, err
	}

	if !c.list.InsertHead(created) {
		c.logger.Debug("created bookmark already present, reconciliation won the race",
			logger.String("bookmark_id", created.ID))
	}
	return created, nil
}

// RequestDelete stages a delete for confirmation and returns the
// targeted entry. Placeholder entries are never a valid target: they
// have no store id to delete yet.
func (c *Coordinator) RequestDelete(id string) (*domain.Bookmark, error) {
	bookmark, ok := c.list.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if bookmark.IsPlaceholder() {
		return nil, domain.ErrPlaceholder
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inflight[id]; busy {
		return nil, domain.ErrDeleteInFlight
	}
	c.staged[id] = struct{}{}
	return bookmark, nil
}

// CancelDelete unstages a previously requested delete.
func (c *Coordinator) CancelDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.staged, id)
}

// ConfirmDelete executes a staged delete. On store failure the entry
// stays in the list and the error is returned for the caller to
// surface; there is no automatic retry. On success the entry is
// removed locally right away - the removal is a guarded no-op if a
// reconciliation pass got there first, and the next pass is the
// convergence backstop either way.
func (c *Coordinator) ConfirmDelete(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, busy := c.inflight[id]; busy {
		c.mu.Unlock()
		return domain.ErrDeleteInFlight
	}
	if _, ok := c.staged[id]; !ok {
		c.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(c.staged, id)
	c.inflight[id] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
	}()

	identity, err := c.resolver.Resolve(ctx, c.token)
	if err != nil {
		return domain.ErrUnauthorized
	}

	if err := c.store.Delete(ctx, identity.UserID, id); err != nil {
		c.logger.Warn("bookmark delete failed",
			logger.String("owner", identity.UserID),
			logger.String("bookmark_id", id),
			logger.Error(err))
		return err
	}

	c.list.Remove(id)
	return nil
}
