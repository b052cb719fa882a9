package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark row keys
	KeyPrefixBookmark = "marque:bookmark:"
	// KeyPrefixOwner is the prefix for per-owner bookmark id sets
	KeyPrefixOwner = "marque:owner:"
)

// BookmarkKey returns the Redis key for a bookmark row
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// OwnerSetKey returns the Redis key for the set of bookmark ids
// owned by the given user
func OwnerSetKey(owner string) string {
	return KeyPrefixOwner + owner + ":bookmarks"
}
