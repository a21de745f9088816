package app

import (
	"encoding/json"
	"net/http"
	"time"

	middle "watchpost/internals/middleware"
	"watchpost/internals/modules/audit"
	"watchpost/internals/modules/incident"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/notification"
	"watchpost/internals/modules/report"
	"watchpost/internals/modules/result"
	"watchpost/internals/modules/statuspage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/health", c.health)

	// Public, unauthenticated status page feeds.
	r.Mount("/status", statuspage.PublicRoutes(c.pageHandler))

	r.Route("/api/v1", func(v1 chi.Router) {
		// Check results come from the probe executors, which carry no
		// workspace header.
		v1.Mount("/results", result.Routes(c.resultHandler))

		v1.Group(func(ws chi.Router) {
			ws.Use(middle.Workspace)

			ws.Mount("/monitors", monitor.Routes(c.monitorHandler))
			ws.Mount("/channels", notification.Routes(c.notifHandler))
			ws.Mount("/incidents", incident.Routes(c.incidentHandler))
			ws.Mount("/reports", report.Routes(c.reportHandler))
			ws.Mount("/pages", statuspage.Routes(c.pageHandler))
			ws.Mount("/audit", audit.Routes(c.auditHandler))
		})
	})

	return r
}

func (c *Container) health(w http.ResponseWriter, r *http.Request) {
	if err := c.DB.Ping(r.Context()); err != nil {
		http.Error(w, "db unreachable", http.StatusServiceUnavailable)
		return
	}

	failures := c.Coordinator.Failures()
	state := "ok"
	if failures > 0 {
		state = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":              state,
		"transition_failures": failures,
	})
}
