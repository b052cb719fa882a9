package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/mw"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/session"
)

type listResponse struct {
	Bookmarks  []*domain.Bookmark `json:"bookmarks"`
	SyncStatus string             `json:"sync_status"`
	LastSync   *time.Time         `json:"last_sync,omitempty"`
}

// acquire binds the request to its live session. Authenticate ran
// before us, so the token is present and already resolved once.
func acquire(d deps.Deps, r *http.Request) *session.Session {
	return d.Sessions.Acquire(mw.TokenFromContext(r.Context()))
}

// ListBookmarks returns the visible list with its sync status.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := acquire(d, r)

		resp := listResponse{
			Bookmarks:  s.List.Snapshot(),
			SyncStatus: string(s.Reconciler.Status()),
		}
		if last := s.List.LastSync(); !last.IsZero() {
			resp.LastSync = &last
		}
		writeData(w, http.StatusOK, resp)
	}
}

// CreateBookmark validates and inserts a bookmark, returning the
// finalized row the store assigned.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.CreateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		s := acquire(d, r)
		created, err := s.Coordinator.Create(r.Context(), in)
		if err != nil {
			writeFailure(w, err)
			return
		}

		d.Logger.Info("bookmark created",
			logger.String("bookmark_id", created.ID))
		writeData(w, http.StatusCreated, created)
	}
}

// RequestDelete stages a delete for confirmation and echoes the
// targeted entry so the client can render the confirmation prompt.
func RequestDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := acquire(d, r)

		staged, err := s.Coordinator.RequestDelete(chi.URLParam(r, "id"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeData(w, http.StatusOK, map[string]string{"id": staged.ID, "title": staged.Title})
	}
}

// ConfirmDelete executes a staged delete. On success the next
// reconciliation pass is triggered right away so other resources of
// the same user converge without waiting a full interval.
func ConfirmDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := acquire(d, r)
		id := chi.URLParam(r, "id")

		if err := s.Coordinator.ConfirmDelete(r.Context(), id); err != nil {
			writeFailure(w, err)
			return
		}

		d.Logger.Info("bookmark deleted",
			logger.String("bookmark_id", id))
		s.Reconciler.Trigger()
		writeData(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

// CancelDelete unstages a previously requested delete.
func CancelDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := acquire(d, r)
		s.Coordinator.CancelDelete(chi.URLParam(r, "id"))
		writeData(w, http.StatusOK, map[string]bool{"cancelled": true})
	}
}
