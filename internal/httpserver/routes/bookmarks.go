package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/handlers"
	"github.com/marque-app/marque/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	limited := mw.RateLimit(mw.RateLimitConfig{
		Burst:              10,
		RefillPerKeyPerMin: 60,
		MaxEntries:         10000,
		SweepInterval:      time.Minute,
		IdleTTL:            15 * time.Minute,
		TrustProxy:         d.TrustProxy,
	})

	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Use(mw.Authenticate(d.Resolver, d.Logger))

		r.Get("/", handlers.ListBookmarks(d))

		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/", handlers.CreateBookmark(d))
			r.Post("/{id}/delete", handlers.RequestDelete(d))
			r.Post("/{id}/delete/confirm", handlers.ConfirmDelete(d))
			r.Post("/{id}/delete/cancel", handlers.CancelDelete(d))
		})
	})
}
