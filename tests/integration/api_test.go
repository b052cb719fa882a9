package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/routes"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/session"
)

const goodToken = "good-token"

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, token string) (*auth.Identity, error) {
	if token != goodToken {
		return nil, domain.ErrUnauthorized
	}
	return &auth.Identity{UserID: "user-1", Email: "user@example.com"}, nil
}

// fakeStore is safe for concurrent use: each session's reconciler
// polls it from its own goroutine while handlers mutate it.
type fakeStore struct {
	mu     sync.Mutex
	rows   []*domain.Bookmark
	nextID int
}

func (f *fakeStore) List(_ context.Context, owner string) ([]*domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*domain.Bookmark, 0, len(f.rows))
	for _, b := range f.rows {
		if b.OwnerID == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, owner string, in domain.CreateInput) (*domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	b := &domain.Bookmark{
		ID:        fmt.Sprintf("id-%d", f.nextID),
		OwnerID:   owner,
		Title:     in.Title,
		URL:       in.URL,
		CreatedAt: time.Now().UTC(),
	}
	f.rows = append(f.rows, b)
	return b, nil
}

func (f *fakeStore) Delete(_ context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, b := range f.rows {
		if b.ID == id && b.OwnerID == owner {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) seed(owner, id, title, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rows = append(f.rows, &domain.Bookmark{
		ID:        id,
		OwnerID:   owner,
		Title:     title,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	})
}

type testAPI struct {
	router   chi.Router
	store    *fakeStore
	sessions *session.Manager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	log := logger.New("error", false)
	st := &fakeStore{}
	resolver := fakeResolver{}

	// A long sync interval keeps the background poller out of the way;
	// the initial reconciliation still runs when the session starts.
	sessions := session.NewManager(resolver, st, log, time.Hour, time.Hour, time.Hour)
	t.Cleanup(sessions.Stop)

	d := deps.Deps{
		Logger:    log,
		StartTime: time.Now(),
		TimeNow:   time.Now,
		Resolver:  resolver,
		Store:     st,
		Sessions:  sessions,
	}

	r := chi.NewRouter()
	routes.RegisterAll(r, d)

	return &testAPI{router: r, store: st, sessions: sessions}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid response body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func (a *testAPI) list(t *testing.T) []*domain.Bookmark {
	t.Helper()

	code, env := a.do(t, http.MethodGet, "/api/bookmarks", goodToken, "")
	if code != http.StatusOK {
		t.Fatalf("GET /api/bookmarks = %d, want 200 (error: %s)", code, env.Error)
	}

	var resp struct {
		Bookmarks []*domain.Bookmark `json:"bookmarks"`
	}
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	return resp.Bookmarks
}

func TestListRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodGet, "/api/bookmarks", "", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated GET = %d, want 401", code)
	}
	if env.Error != "Unauthorized" {
		t.Fatalf("error = %q, want Unauthorized", env.Error)
	}

	code, _ = api.do(t, http.MethodGet, "/api/bookmarks", "bad-token", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("bad-token GET = %d, want 401", code)
	}
}

func TestListReturnsSeededRows(t *testing.T) {
	api := newTestAPI(t)
	api.store.seed("user-1", "abc123", "Docs", "https://example.com/docs")
	api.store.seed("user-2", "other1", "Not mine", "https://example.com/other")

	bookmarks := api.list(t)
	if len(bookmarks) != 1 {
		t.Fatalf("got %d bookmarks, want 1: %+v", len(bookmarks), bookmarks)
	}
	if bookmarks[0].ID != "abc123" {
		t.Fatalf("bookmark id = %q, want abc123", bookmarks[0].ID)
	}
}

func TestCreateBookmark(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodPost, "/api/bookmarks", goodToken,
		`{"title":"Docs","url":"https://example.com/docs"}`)
	if code != http.StatusCreated {
		t.Fatalf("POST create = %d, want 201 (error: %s)", code, env.Error)
	}

	var created domain.Bookmark
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("failed to decode created bookmark: %v", err)
	}
	if created.ID == "" || created.IsPlaceholder() {
		t.Fatalf("created bookmark has id %q, want finalized id", created.ID)
	}

	bookmarks := api.list(t)
	if len(bookmarks) != 1 || bookmarks[0].ID != created.ID {
		t.Fatalf("list after create = %+v, want the created row", bookmarks)
	}
}

func TestCreateValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty title", `{"title":"","url":"https://example.com"}`},
		{"missing url", `{"title":"Docs"}`},
		{"malformed url", `{"title":"Docs","url":"not a url"}`},
		{"overlong title", fmt.Sprintf(`{"title":%q,"url":"https://example.com"}`, strings.Repeat("x", 201))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := api.do(t, http.MethodPost, "/api/bookmarks", goodToken, tt.body)
			if code != http.StatusBadRequest {
				t.Fatalf("POST = %d, want 400", code)
			}
			if env.Error == "" {
				t.Fatal("expected an error message in the envelope")
			}
		})
	}

	if n := len(api.list(t)); n != 0 {
		t.Fatalf("list has %d entries after rejected creates, want 0", n)
	}
}

func TestDeleteFlow(t *testing.T) {
	api := newTestAPI(t)
	api.store.seed("user-1", "abc123", "Docs", "https://example.com/docs")

	// Stage
	code, env := api.do(t, http.MethodPost, "/api/bookmarks/abc123/delete", goodToken, "")
	if code != http.StatusOK {
		t.Fatalf("request delete = %d, want 200 (error: %s)", code, env.Error)
	}
	var staged map[string]string
	if err := json.Unmarshal(env.Data, &staged); err != nil {
		t.Fatalf("failed to decode staged response: %v", err)
	}
	if staged["id"] != "abc123" || staged["title"] != "Docs" {
		t.Fatalf("staged = %v, want id abc123 / title Docs", staged)
	}

	// Confirm
	code, env = api.do(t, http.MethodPost, "/api/bookmarks/abc123/delete/confirm", goodToken, "")
	if code != http.StatusOK {
		t.Fatalf("confirm delete = %d, want 200 (error: %s)", code, env.Error)
	}

	if n := len(api.list(t)); n != 0 {
		t.Fatalf("list has %d entries after delete, want 0", n)
	}
	if rows, _ := api.store.List(context.Background(), "user-1"); len(rows) != 0 {
		t.Fatalf("store still has %d rows", len(rows))
	}
}

func TestDeleteCancel(t *testing.T) {
	api := newTestAPI(t)
	api.store.seed("user-1", "abc123", "Docs", "https://example.com/docs")

	if code, _ := api.do(t, http.MethodPost, "/api/bookmarks/abc123/delete", goodToken, ""); code != http.StatusOK {
		t.Fatalf("request delete = %d, want 200", code)
	}
	if code, _ := api.do(t, http.MethodPost, "/api/bookmarks/abc123/delete/cancel", goodToken, ""); code != http.StatusOK {
		t.Fatalf("cancel delete = %d, want 200", code)
	}

	// Confirming after cancel must fail: nothing is staged anymore.
	code, _ := api.do(t, http.MethodPost, "/api/bookmarks/abc123/delete/confirm", goodToken, "")
	if code != http.StatusNotFound {
		t.Fatalf("confirm after cancel = %d, want 404", code)
	}

	if n := len(api.list(t)); n != 1 {
		t.Fatalf("list has %d entries after cancelled delete, want 1", n)
	}
}

func TestDeleteUnknownBookmark(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodPost, "/api/bookmarks/nope/delete", goodToken, "")
	if code != http.StatusNotFound {
		t.Fatalf("delete unknown = %d, want 404 (error: %s)", code, env.Error)
	}
}

func TestTriggerSync(t *testing.T) {
	api := newTestAPI(t)
	api.store.seed("user-1", "abc123", "Docs", "https://example.com/docs")

	// Establish the session, then change the backend behind its back.
	if n := len(api.list(t)); n != 1 {
		t.Fatalf("initial list has %d entries, want 1", n)
	}
	api.store.seed("user-1", "def456", "More", "https://example.com/more")

	code, env := api.do(t, http.MethodPost, "/api/sync", goodToken, "")
	if code != http.StatusAccepted {
		t.Fatalf("POST /api/sync = %d, want 202 (error: %s)", code, env.Error)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(api.list(t)) == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("list never converged to the new backend row")
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/healthz = %d, want 200", rec.Code)
	}
}
