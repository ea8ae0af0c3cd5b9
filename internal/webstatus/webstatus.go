// Package webstatus serves the bot's health and status endpoints.
package webstatus

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Stats supplies the live numbers for GET /status. Nil funcs report zero.
type Stats struct {
	Sessions     func() int
	NotifiedSize func() int
	LastTick     func() time.Time
}

type statusResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Sessions      int    `json:"sessions"`
	NotifiedTasks int    `json:"notified_tasks"`
	LastTickAt    string `json:"last_tick_at,omitempty"`
}

func NewHandler(stats Stats) http.Handler {
	started := time.Now()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		resp := statusResponse{
			Status:        "running",
			UptimeSeconds: int64(time.Since(started).Seconds()),
		}
		if stats.Sessions != nil {
			resp.Sessions = stats.Sessions()
		}
		if stats.NotifiedSize != nil {
			resp.NotifiedTasks = stats.NotifiedSize()
		}
		if stats.LastTick != nil {
			if tick := stats.LastTick(); !tick.IsZero() {
				resp.LastTickAt = tick.UTC().Format(time.RFC3339)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	return r
}
