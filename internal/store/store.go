package store

import (
	"context"

	"github.com/marque-app/marque/internal/domain"
)

// Store is the authoritative bookmark store, consumed at the interface
// boundary only. Every operation is scoped to an owner; even when the
// backing service enforces its own access rules, implementations must
// filter by owner themselves (defense-in-depth).
//
// Failed calls return *domain.StoreError and are never retried here;
// the next reconciliation tick or the next user action is the retry.
type Store interface {
	// List returns all bookmarks owned by owner, newest first.
	List(ctx context.Context, owner string) ([]*domain.Bookmark, error)

	// Insert creates a bookmark for owner. The store assigns the id
	// and created_at of the returned row.
	Insert(ctx context.Context, owner string, in domain.CreateInput) (*domain.Bookmark, error)

	// Delete removes the bookmark with the given id, scoped to both
	// the id and the owner.
	Delete(ctx context.Context, owner, id string) error
}
