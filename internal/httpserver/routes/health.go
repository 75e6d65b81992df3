package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chs/internal/httpserver/handlers"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/health-check", handlers.HealthCheck(d))
	r.Get("/infra", handlers.Infra(d))
}
