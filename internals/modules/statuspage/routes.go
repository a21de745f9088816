package statuspage

import "github.com/go-chi/chi/v5"

// Routes is the workspace-scoped management surface.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreatePage)
	r.Get("/", h.GetAllPages)
	r.Put("/{pageID}", h.UpdatePage)
	r.Delete("/{pageID}", h.DeletePage)

	return r
}

// PublicRoutes serves the unauthenticated feed.
func PublicRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{slug}", h.Feed)

	return r
}
