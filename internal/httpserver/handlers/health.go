package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/chs/internal/httpserver/deps"
)

// HealthCheck answers authenticated probes from discovery clients.
func HealthCheck(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Message: "OK"})
	}
}
