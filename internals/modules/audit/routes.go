package audit

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{monitorID}", h.ListByMonitor)

	return r
}
