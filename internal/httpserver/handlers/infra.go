package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/chs/internal/httpserver/deps"
)

type componentStatus struct {
	OK    bool   `json:"ok"`
	Mode  string `json:"mode,omitempty"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode          string                     `json:"mode"`
	Version       string                     `json:"version,omitempty"`
	Commit        string                     `json:"commit,omitempty"`
	BuildDate     string                     `json:"build_date,omitempty"`
	GoVersion     string                     `json:"go_version,omitempty"`
	UptimeSeconds float64                    `json:"uptime_seconds"`
	Components    map[string]componentStatus `json:"components"`
}

// Infra reports the state of the store, the handler output and notifications.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		mode := "live"
		if d.DryRun {
			mode = "dry-run"
		}

		components := map[string]componentStatus{
			"store":         ping(ctx, d.Store, mode),
			"notifications": notificationStatus(ctx, d.Notifier),
			"handlers": {
				OK:   true,
				Mode: mode,
				Path: d.HandlersDir,
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:          mode,
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: time.Since(d.StartTime).Seconds(),
			Components:    components,
		})
	}
}

func ping(ctx context.Context, p deps.Pinger, mode string) componentStatus {
	if p == nil {
		return componentStatus{OK: false, Mode: mode, Error: "not initialized"}
	}
	if err := p.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: mode, Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: mode}
}

func notificationStatus(ctx context.Context, p deps.Pinger) componentStatus {
	if p == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	return ping(ctx, p, "redis")
}
