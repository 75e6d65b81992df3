package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chs/internal/httpserver/handlers"
)

func init() { Register(registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	r.Get("/services", handlers.ListServices(d))
	r.Post("/services", handlers.UpsertServices(d))
	r.Delete("/services/{subdomain}", handlers.DeleteService(d))
	// An empty subdomain segment is answered with 400 rather than 404/405.
	r.Delete("/services/", handlers.DeleteService(d))
	r.Delete("/services", handlers.DeleteService(d))
}
