package supabase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/domain"
)

const bookmarksTable = "bookmarks"

// Store talks to the hosted Supabase deployment: bookmark rows live in
// a postgres table guarded by row-level security, identities come from
// Supabase auth. Row-level security already scopes every query to its
// owner; we still filter by user_id explicitly on each call.
type Store struct {
	client *supabase.Client
}

// New creates a store against the given Supabase project. The service
// role key is expected so owner scoping is enforced by our filters,
// not by the key's permissions.
func New(apiURL, apiKey string) (*Store, error) {
	client, err := supabase.NewClient(apiURL, apiKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

// row mirrors the bookmarks table schema.
type row struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (r row) toDomain() *domain.Bookmark {
	return &domain.Bookmark{
		ID:        r.ID,
		OwnerID:   r.UserID,
		Title:     r.Title,
		URL:       r.URL,
		CreatedAt: r.CreatedAt,
	}
}

// List returns all bookmarks owned by owner, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]*domain.Bookmark, error) {
	data, _, err := s.client.From(bookmarksTable).
		Select("*", "", false).
		Eq("user_id", owner).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, domain.NewStoreError("list", err)
	}

	var rows []row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, domain.NewStoreError("list", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(rows))
	for _, r := range rows {
		bookmarks = append(bookmarks, r.toDomain())
	}
	return bookmarks, nil
}

// Insert creates a bookmark for owner. Postgres assigns the id and
// created_at; the finalized row is returned.
func (s *Store) Insert(ctx context.Context, owner string, in domain.CreateInput) (*domain.Bookmark, error) {
	payload := row{UserID: owner, Title: in.Title, URL: in.URL}

	data, _, err := s.client.From(bookmarksTable).
		Insert(payload, false, "", "representation", "").
		Single().
		Execute()
	if err != nil {
		return nil, domain.NewStoreError("insert", err)
	}

	var created row
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, domain.NewStoreError("insert", err)
	}
	return created.toDomain(), nil
}

// Delete removes the bookmark scoped to both id and owner.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	_, _, err := s.client.From(bookmarksTable).
		Delete("", "").
		Eq("id", id).
		Eq("user_id", owner).
		Execute()
	if err != nil {
		return domain.NewStoreError("delete", err)
	}
	return nil
}

// Resolver resolves session tokens through Supabase auth.
type Resolver struct {
	client *supabase.Client
}

// NewResolver shares the store's client for identity resolution.
func (s *Store) NewResolver() *Resolver {
	return &Resolver{client: s.client}
}

// Resolve asks Supabase auth for the user behind the access token.
func (r *Resolver) Resolve(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	user, err := r.client.Auth.WithToken(token).GetUser()
	if err != nil || user == nil {
		return nil, domain.ErrUnauthorized
	}

	return &auth.Identity{UserID: user.ID.String(), Email: user.Email}, nil
}
