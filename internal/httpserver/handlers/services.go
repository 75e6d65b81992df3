package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chs/internal/domain"
	"github.com/MrSnakeDoc/chs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chs/internal/logger"
)

const internalError = "Internal Server Error"

// ListServices returns every stored row. In dry-run mode the list is always empty.
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := d.Registry.List(r.Context())
		if err != nil {
			d.Logger.Error("failed to list services", logger.Error(err))
			writeError(w, http.StatusInternalServerError, internalError)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// UpsertServices validates a batch, upserts it and regenerates handler files.
func UpsertServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r, d.MaxBodyBytes)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "request body required")
			return
		}

		batch, err := domain.ParseBatch(body)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, verr.Message)
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if _, err := d.Registry.Apply(r.Context(), batch); err != nil {
			d.Logger.Error("failed to apply services",
				logger.String("host_ip", batch.HostIP),
				logger.Int("services", len(batch.Services)),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, internalError)
			return
		}

		writeSuccess(w)
	}
}

// DeleteService removes one subdomain. Unknown subdomains still succeed.
func DeleteService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subdomain := strings.TrimSpace(chi.URLParam(r, "subdomain"))
		if subdomain == "" {
			writeError(w, http.StatusBadRequest, "subdomain required")
			return
		}

		if err := d.Registry.Remove(r.Context(), subdomain); err != nil {
			d.Logger.Error("failed to delete service",
				logger.String("subdomain", subdomain),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, internalError)
			return
		}

		writeSuccess(w)
	}
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
