package notification

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateChannel)
	r.Get("/", h.GetAllChannels)
	r.Get("/{channelID}", h.GetChannel)
	r.Put("/{channelID}", h.UpdateChannel)
	r.Delete("/{channelID}", h.DeleteChannel)
	r.Post("/{channelID}/test", h.TestChannel)

	return r
}
