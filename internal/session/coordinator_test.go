package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/state"
)

type fakeResolver struct {
	identity *auth.Identity
	err      error
}

func (f *fakeResolver) Resolve(ctx context.Context, token string) (*auth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeStore struct {
	mu          sync.Mutex
	rows        []*domain.Bookmark
	nextID      string
	insertErr   error
	deleteErr   error
	insertCalls int
	deleteCalls int
	deleteGate  chan struct{} // when set, Delete blocks until it is closed
	listGate    chan struct{} // when set, the next List call blocks until it is closed
	listCalls   int
}

func (f *fakeStore) List(ctx context.Context, owner string) ([]*domain.Bookmark, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.listGate
	f.listGate = nil
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := make([]*domain.Bookmark, len(f.rows))
	copy(snapshot, f.rows)
	return snapshot, nil
}

func (f *fakeStore) Insert(ctx context.Context, owner string, in domain.CreateInput) (*domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	created := &domain.Bookmark{
		ID:        f.nextID,
		OwnerID:   owner,
		Title:     in.Title,
		URL:       in.URL,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.rows = append(f.rows, created)
	return created, nil
}

func (f *fakeStore) Delete(ctx context.Context, owner, id string) error {
	f.mu.Lock()
	gate := f.deleteGate
	f.deleteCalls++
	err := f.deleteErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

func okResolver() *fakeResolver {
	return &fakeResolver{identity: &auth.Identity{UserID: "user-1"}}
}

func newTestCoordinator(st *fakeStore, resolver auth.Resolver, list *state.List) *Coordinator {
	return NewCoordinator("token", resolver, st, list, logger.New("error", false))
}

func confirmed(id string) *domain.Bookmark {
	return &domain.Bookmark{ID: id, OwnerID: "user-1", Title: id, URL: "https://example.com/" + id, CreatedAt: time.Now()}
}

func TestCreatePutsFinalizedRowAtHead(t *testing.T) {
	st := &fakeStore{nextID: "abc123"}
	list := state.NewList()
	c := newTestCoordinator(st, okResolver(), list)

	created, err := c.Create(context.Background(), domain.CreateInput{Title: "Docs", URL: "https://example.com/docs"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != "abc123" {
		t.Errorf("expected store-assigned id, got %q", created.ID)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected store-assigned created_at")
	}

	snap := list.Snapshot()
	if len(snap) != 1 || snap[0].ID != "abc123" {
		t.Fatalf("expected created entry at head, got %+v", snap)
	}
}

func TestCreateInvalidTitleNeverReachesStore(t *testing.T) {
	st := &fakeStore{nextID: "abc123"}
	list := state.NewList()
	c := newTestCoordinator(st, okResolver(), list)

	_, err := c.Create(context.Background(), domain.CreateInput{Title: "", URL: "https://example.com"})

	verr := &domain.ValidationError{}
	if !errors.As(err, &verr) || verr.Field != "title" {
		t.Fatalf("expected validation error on title, got %v", err)
	}
	if st.insertCalls != 0 {
		t.Error("invalid input must not reach the store")
	}
	if list.Len() != 0 {
		t.Error("list must stay unchanged on validation failure")
	}
}

func TestCreateUnauthorized(t *testing.T) {
	st := &fakeStore{nextID: "abc123"}
	list := state.NewList()
	c := newTestCoordinator(st, &fakeResolver{err: domain.ErrUnauthorized}, list)

	_, err := c.Create(context.Background(), domain.CreateInput{Title: "Docs", URL: "https://example.com"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if st.insertCalls != 0 {
		t.Error("no store call may happen without an identity")
	}
}

func TestCreateStoreFailureLeavesListUnchanged(t *testing.T) {
	st := &fakeStore{insertErr: domain.NewStoreError("insert", errors.New("boom"))}
	list := state.NewList()
	c := newTestCoordinator(st, okResolver(), list)

	_, err := c.Create(context.Background(), domain.CreateInput{Title: "Docs", URL: "https://example.com"})

	serr := &domain.StoreError{}
	if !errors.As(err, &serr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if list.Len() != 0 {
		t.Error("failed insert must not touch the list")
	}
}

func TestCreateDuplicateIDGuard(t *testing.T) {
	st := &fakeStore{nextID: "abc123"}
	list := state.NewList()
	// A reconciliation pass already pulled the row in.
	list.Replace([]*domain.Bookmark{confirmed("abc123")})
	c := newTestCoordinator(st, okResolver(), list)

	if _, err := c.Create(context.Background(), domain.CreateInput{Title: "Docs", URL: "https://example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	count := 0
	for _, b := range list.Snapshot() {
		if b.ID == "abc123" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one entry for abc123, got %d", count)
	}
}

func TestDeleteFlow(t *testing.T) {
	st := &fakeStore{}
	list := state.NewList()
	list.Replace([]*domain.Bookmark{confirmed("abc123")})
	c := newTestCoordinator(st, okResolver(), list)

	staged, err := c.RequestDelete("abc123")
	if err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}
	if staged.ID != "abc123" {
		t.Errorf("unexpected staged entry %+v", staged)
	}

	if err := c.ConfirmDelete(context.Background(), "abc123"); err != nil {
		t.Fatalf("ConfirmDelete failed: %v", err)
	}
	if _, ok := list.Get("abc123"); ok {
		t.Error("entry still visible after confirmed delete")
	}
}

func TestDeleteTargetsMustExistAndBeConfirmedRows(t *testing.T) {
	st := &fakeStore{}
	list := state.NewList()
	temp := domain.NewTempID()
	list.Replace([]*domain.Bookmark{{ID: temp, OwnerID: "user-1", Title: "pending", URL: "https://example.com", CreatedAt: time.Now()}})
	c := newTestCoordinator(st, okResolver(), list)

	if _, err := c.RequestDelete("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
	if _, err := c.RequestDelete(temp); !errors.Is(err, domain.ErrPlaceholder) {
		t.Errorf("expected ErrPlaceholder for temp id, got %v", err)
	}
	if err := c.ConfirmDelete(context.Background(), "abc123"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unstaged confirm, got %v", err)
	}
}

func TestCancelDeleteUnstages(t *testing.T) {
	st := &fakeStore{}
	list := state.NewList()
	list.Replace([]*domain.Bookmark{confirmed("abc123")})
	c := newTestCoordinator(st, okResolver(), list)

	if _, err := c.RequestDelete("abc123"); err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}
	c.CancelDelete("abc123")

	if err := c.ConfirmDelete(context.Background(), "abc123"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected cancelled delete to be unconfirmable, got %v", err)
	}
	if st.deleteCalls != 0 {
		t.Error("cancelled delete must not reach the store")
	}
}

func TestDeleteStoreFailureKeepsEntry(t *testing.T) {
	st := &fakeStore{deleteErr: domain.NewStoreError("delete", errors.New("boom"))}
	list := state.NewList()
	list.Replace([]*domain.Bookmark{confirmed("abc123")})
	c := newTestCoordinator(st, okResolver(), list)

	if _, err := c.RequestDelete("abc123"); err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}
	err := c.ConfirmDelete(context.Background(), "abc123")

	serr := &domain.StoreError{}
	if !errors.As(err, &serr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if _, ok := list.Get("abc123"); !ok {
		t.Error("entry must be kept when the delete fails")
	}
}

func TestDeleteReentrantSuppression(t *testing.T) {
	gate := make(chan struct{})
	st := &fakeStore{deleteGate: gate}
	list := state.NewList()
	list.Replace([]*domain.Bookmark{confirmed("abc123")})
	c := newTestCoordinator(st, okResolver(), list)

	if _, err := c.RequestDelete("abc123"); err != nil {
		t.Fatalf("RequestDelete failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.ConfirmDelete(context.Background(), "abc123") }()

	// Wait for the delete call to be in flight.
	deadline := time.Now().Add(time.Second)
	for {
		st.mu.Lock()
		calls := st.deleteCalls
		st.mu.Unlock()
		if calls > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("delete call never started")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := c.RequestDelete("abc123"); !errors.Is(err, domain.ErrDeleteInFlight) {
		t.Errorf("expected re-entrant request to be suppressed, got %v", err)
	}
	if err := c.ConfirmDelete(context.Background(), "abc123"); !errors.Is(err, domain.ErrDeleteInFlight) {
		t.Errorf("expected re-entrant confirm to be suppressed, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if st.deleteCalls != 1 {
		t.Errorf("expected exactly one store delete, got %d", st.deleteCalls)
	}
}
