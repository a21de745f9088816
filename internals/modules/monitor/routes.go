package monitor

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateMonitor)
	r.Get("/", h.GetAllMonitors)
	r.Get("/{monitorID}", h.GetMonitor)
	r.Put("/{monitorID}", h.UpdateMonitor)
	r.Patch("/{monitorID}", h.SetActive)

	return r
}
