package statuspage

import (
	"encoding/json"
	"net/http"

	middle "watchpost/internals/middleware"
	"watchpost/pkg/apperror"
	"watchpost/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req CreatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}
	monitors, err := parseUUIDs(req.Monitors)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	pageID, err := h.service.CreatePage(ctx, CreatePageCmd{
		WorkspaceID: workspaceID,
		Slug:        req.Slug,
		Name:        req.Name,
		Monitors:    monitors,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, reqID, "status page created", pageID)
}

func (h *Handler) GetAllPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	pages, err := h.service.GetAllPages(ctx, workspaceID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]PageResponse, 0, len(pages))
	for i := range pages {
		out = append(out, toPageResponse(&pages[i]))
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", out)
}

func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	pageID, err := uuid.Parse(chi.URLParam(r, "pageID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid page id")
		return
	}

	var req UpdatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}
	monitors, err := parseUUIDs(req.Monitors)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	err = h.service.UpdatePage(ctx, workspaceID, pageID, UpdatePageCmd{
		Name:     req.Name,
		Monitors: monitors,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "status page updated", nil)
}

func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	pageID, err := uuid.Parse(chi.URLParam(r, "pageID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid page id")
		return
	}

	if err := h.service.DeletePage(ctx, workspaceID, pageID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "status page deleted", nil)
}

// Feed is the public, unauthenticated endpoint behind status.<domain>.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	slug := chi.URLParam(r, "slug")
	if slug == "" {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "missing slug")
		return
	}

	doc, err := h.service.Feed(ctx, slug)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func parseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
