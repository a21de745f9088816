package audit

import (
	"net/http"
	"strconv"
	"time"

	"watchpost/pkg/apperror"
	"watchpost/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Handler serves the event timeline for dashboards. Read-only: entries
// only enter through the recorder.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{
		repo: repo,
	}
}

type EntryResponse struct {
	ID       string            `json:"id"`
	Kind     string            `json:"kind"`
	Metadata map[string]string `json:"metadata,omitempty"`
	At       time.Time         `json:"at"`
}

// /audit/{monitorID}?limit=50
func (h *Handler) ListByMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	limit := int32(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil && v > 0 && v <= 500 {
			limit = int32(v)
		}
	}

	entries, err := h.repo.ListByMonitor(ctx, monitorID, limit)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, EntryResponse{
			ID:       entries[i].ID.String(),
			Kind:     string(entries[i].Kind),
			Metadata: entries[i].Metadata,
			At:       entries[i].At,
		})
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", out)
}
