package report

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateReport)
	r.Get("/", h.ListReports)
	r.Get("/{reportID}", h.GetReport)
	r.Post("/{reportID}/updates", h.AddUpdate)
	r.Post("/maintenance", h.ScheduleMaintenance)
	r.Get("/maintenance", h.ListMaintenance)

	return r
}
