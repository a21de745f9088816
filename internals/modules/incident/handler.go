package incident

import (
	"encoding/json"
	"net/http"
	"strconv"

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

// /incidents?open=true&offset=0&limit=20
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	openOnly := r.URL.Query().Get("open") == "true"
	limit := parseQueryInt(r, "limit", 20)
	offset := parseQueryInt(r, "offset", 0)

	incidents, err := h.service.ListIncidents(ctx, workspaceID, openOnly, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]IncidentResponse, 0, len(incidents))
	for i := range incidents {
		out = append(out, toIncidentResponse(&incidents[i]))
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", ListIncidentsResponse{
		WorkspaceID: workspaceID.String(),
		Limit:       limit,
		Offset:      offset,
		Incidents:   out,
	})
}

func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	inc, err := h.service.GetIncident(ctx, workspaceID, incidentID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "incident retrieved", toIncidentResponse(&inc))
}

func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	var req AcknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	if err := h.service.Acknowledge(ctx, workspaceID, incidentID, req.Actor); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "incident acknowledged", nil)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	if err := h.service.ResolveManual(ctx, workspaceID, incidentID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "incident resolved", nil)
}

func (h *Handler) AttachScreenshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	incidentID, err := uuid.Parse(chi.URLParam(r, "incidentID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid incident id")
		return
	}

	var req AttachScreenshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	if err := h.service.AttachScreenshot(ctx, workspaceID, incidentID, req.URL); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "screenshot attached", nil)
}

func parseQueryInt(r *http.Request, key string, def int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 0 {
		return def
	}
	return int32(v)
}
