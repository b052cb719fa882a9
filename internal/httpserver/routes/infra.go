package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/handlers"
)

func init() { Register(registerInfra) }

func registerInfra(r chi.Router, d deps.Deps) {
	r.Get("/api/healthz", handlers.Healthz(d))
	r.Get("/api/readyz", handlers.Readyz(d))
	r.Get("/api/infra", handlers.Infra(d))
}
