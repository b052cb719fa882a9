package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marque-app/marque/internal/domain"
)

// Store keeps bookmark rows in Redis: one JSON value per bookmark plus
// a per-owner set of ids. It backs the self-hosted deployment and
// implements the same authoritative-store contract as the hosted one.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis-backed bookmark store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// List returns all bookmarks owned by owner, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]*domain.Bookmark, error) {
	ids, err := s.client.SMembers(ctx, OwnerSetKey(owner)).Result()
	if err != nil {
		return nil, domain.NewStoreError("list", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		bookmark, err := s.get(ctx, id)
		if err != nil {
			// Row expired or unreadable: drop the dangling set member.
			_ = s.client.SRem(ctx, OwnerSetKey(owner), id).Err()
			continue
		}
		if bookmark.OwnerID != owner {
			continue
		}
		bookmarks = append(bookmarks, bookmark)
	}

	domain.SortNewestFirst(bookmarks)
	return bookmarks, nil
}

// Insert creates a bookmark for owner, assigning its id and timestamp.
func (s *Store) Insert(ctx context.Context, owner string, in domain.CreateInput) (*domain.Bookmark, error) {
	bookmark := &domain.Bookmark{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Title:     in.Title,
		URL:       in.URL,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(bookmark)
	if err != nil {
		return nil, domain.NewStoreError("insert", fmt.Errorf("failed to marshal bookmark: %w", err))
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, BookmarkKey(bookmark.ID), data, 0)
	pipe.SAdd(ctx, OwnerSetKey(owner), bookmark.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, domain.NewStoreError("insert", err)
	}

	return bookmark, nil
}

// Delete removes the bookmark, scoped to both id and owner. Removing
// an id that is not in the owner's set is a no-op, matching the
// affected-zero-rows behavior of the hosted store.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	removed, err := s.client.SRem(ctx, OwnerSetKey(owner), id).Result()
	if err != nil {
		return domain.NewStoreError("delete", err)
	}
	if removed == 0 {
		// Not owned by this user (or already gone): nothing to delete.
		return nil
	}

	if err := s.client.Del(ctx, BookmarkKey(id)).Err(); err != nil {
		return domain.NewStoreError("delete", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, id string) (*domain.Bookmark, error) {
	data, err := s.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("bookmark not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	var bookmark domain.Bookmark
	if err := json.Unmarshal(data, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}

	return &bookmark, nil
}
