package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/marque-app/marque/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: time.Since(start).Seconds(),
		})
	}
}

type readyzResponse struct {
	Ready bool `json:"ready"`
}

func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready: true,
		})
	}
}

type componentStatus struct {
	OK       bool   `json:"ok"`
	Sessions *int   `json:"sessions,omitempty"`
	Backend  string `json:"backend,omitempty"`
	Error    string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the health of the store backend and the live session
// pool. The reconcilers keep sessions usable while the store flaps, so
// a failing backend degrades the report rather than the endpoint.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		sessions := d.Sessions.Count()
		components := map[string]componentStatus{
			"sessions": {
				OK:       true,
				Sessions: &sessions,
			},
			"store": checkStore(d),
		}

		mode := "nominal"
		if !components["store"].OK {
			mode = "degraded"
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			Mode:       mode,
			Components: components,
		})
	}
}

func checkStore(d deps.Deps) componentStatus {
	status := componentStatus{OK: true, Backend: d.StoreBackend}

	// Only the redis backend is probeable without an identity; the
	// hosted backend's reachability shows up through sync statuses.
	if d.RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := d.RedisClient.Ping(ctx).Err(); err != nil {
			status.OK = false
			status.Error = "redis unreachable"
		}
	}
	return status
}
