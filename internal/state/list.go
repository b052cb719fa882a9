package state

import (
	"sync"
	"time"

	"github.com/marque-app/marque/internal/domain"
)

// List is the single shared mutable resource of a session: the
// bookmarks currently visible to the user. It holds an immutable
// slice that is replaced wholesale on every write, so readers keep a
// consistent snapshot without copying and an unchanged list stays
// reference-equal across reads.
//
// Writers are the session's Coordinator and Reconciler only.
type List struct {
	mu        sync.RWMutex
	bookmarks []*domain.Bookmark
	lastSync  time.Time
}

// NewList creates an empty list.
func NewList() *List {
	return &List{bookmarks: []*domain.Bookmark{}}
}

// Snapshot returns the current slice. Callers must treat it as
// read-only. Two calls with no write in between return the same slice.
func (l *List) Snapshot() []*domain.Bookmark {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.bookmarks
}

// Replace substitutes the entire list with the fetched snapshot.
// The slice is copied and sorted newest-first so the caller's slice
// stays untouched and the sort invariant holds regardless of what the
// store returned.
func (l *List) Replace(bookmarks []*domain.Bookmark) {
	next := make([]*domain.Bookmark, len(bookmarks))
	copy(next, bookmarks)
	domain.SortNewestFirst(next)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.bookmarks = next
}

// InsertHead prepends a confirmed bookmark. It reports false without
// mutating when an entry with the same id is already present - the
// guard against a reconciliation pass that already pulled in the row.
func (l *List) InsertHead(b *domain.Bookmark) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.bookmarks {
		if existing.ID == b.ID {
			return false
		}
	}

	next := make([]*domain.Bookmark, 0, len(l.bookmarks)+1)
	next = append(next, b)
	next = append(next, l.bookmarks...)
	l.bookmarks = next
	return true
}

// Remove drops the entry with the given id, if present.
func (l *List) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, b := range l.bookmarks {
		if b.ID != id {
			continue
		}
		next := make([]*domain.Bookmark, 0, len(l.bookmarks)-1)
		next = append(next, l.bookmarks[:i]...)
		next = append(next, l.bookmarks[i+1:]...)
		l.bookmarks = next
		return true
	}
	return false
}

// Get returns the entry with the given id.
func (l *List) Get(id string) (*domain.Bookmark, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, b := range l.bookmarks {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// IDSet returns the identifiers of the visible entries. Reconciliation
// compares id-sets only; field-level changes are invisible to it.
func (l *List) IDSet() map[string]struct{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make(map[string]struct{}, len(l.bookmarks))
	for _, b := range l.bookmarks {
		ids[b.ID] = struct{}{}
	}
	return ids
}

// Len returns the number of visible entries.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.bookmarks)
}

// MarkSynced records the time of the last successful reconciliation.
func (l *List) MarkSynced(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastSync = t
}

// LastSync returns the time of the last successful reconciliation,
// zero if none has completed yet.
func (l *List) LastSync() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.lastSync
}
