package monitor

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

func (h *Handler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req CreateMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	mID, err := h.service.CreateMonitor(ctx, CreateMonitorCmd{
		WorkspaceID:     workspaceID,
		Name:            req.Name,
		JobType:         JobType(req.JobType),
		Url:             req.Url,
		Regions:         fromRegionStrings(req.Regions),
		Assertions:      fromAssertionBodies(req.Assertions),
		DegradedAfterMs: req.DegradedAfterMs,
		TimeoutMs:       req.TimeoutMs,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, reqID, "monitor created", mID)
}

func (h *Handler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	mon, err := h.service.GetMonitor(ctx, workspaceID, monitorID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "monitor retrieved", toMonitorResponse(&mon))
}

// /monitors?offset=0&limit=20
func (h *Handler) GetAllMonitors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	limit := parseQueryInt(r, "limit", 20)
	offset := parseQueryInt(r, "offset", 0)

	monitors, err := h.service.GetAllMonitors(ctx, workspaceID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	m := make([]MonitorResponse, 0, len(monitors))
	for i := range monitors {
		m = append(m, toMonitorResponse(&monitors[i]))
	}

	resp := ListMonitorsResponse{
		WorkspaceID: workspaceID.String(),
		Limit:       limit,
		Offset:      offset,
		Monitors:    m,
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", resp)
}

func (h *Handler) UpdateMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	var req UpdateMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	err = h.service.UpdateMonitor(ctx, workspaceID, monitorID, UpdateMonitorCmd{
		Name:            req.Name,
		Url:             req.Url,
		Regions:         fromRegionStrings(req.Regions),
		Assertions:      fromAssertionBodies(req.Assertions),
		DegradedAfterMs: req.DegradedAfterMs,
		TimeoutMs:       req.TimeoutMs,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "monitor updated", nil)
}

// Patch : /monitors/{monitorID}
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	if err := h.service.SetActive(ctx, workspaceID, monitorID, *req.Active); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "monitor state updated", nil)
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
