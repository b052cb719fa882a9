package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempIDPrefix marks locally generated placeholder identifiers.
// A placeholder stands in for a bookmark until the store confirms
// the insert and assigns the real id.
const TempIDPrefix = "temp-"

// Bookmark is a saved URL owned by a single user.
// Rows are never edited in place; they are created once and deleted.
type Bookmark struct {
	// ID is assigned by the authoritative store on insert.
	// Until then a placeholder id (temp- prefix) stands in for it.
	ID string `json:"id"`

	// OwnerID is the identity the bookmark is scoped to.
	// The store enforces the access boundary; we carry it for
	// defense-in-depth filtering on every call.
	OwnerID string `json:"owner"`

	Title string `json:"title"`
	URL   string `json:"url"`

	// CreatedAt is assigned by the store at insertion and is the
	// sole sort key (newest first).
	CreatedAt time.Time `json:"created_at"`
}

// IsPlaceholder reports whether the bookmark still carries a local
// placeholder id. Placeholder entries are never the target of delete
// or any other remote-keyed operation.
func (b *Bookmark) IsPlaceholder() bool {
	return strings.HasPrefix(b.ID, TempIDPrefix)
}

// NewTempID returns a fresh placeholder identifier.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// SortNewestFirst orders bookmarks by created_at descending.
// Ties are broken by id so the order is deterministic.
func SortNewestFirst(bookmarks []*Bookmark) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		if bookmarks[i].CreatedAt.Equal(bookmarks[j].CreatedAt) {
			return bookmarks[i].ID < bookmarks[j].ID
		}
		return bookmarks[i].CreatedAt.After(bookmarks[j].CreatedAt)
	})
}
