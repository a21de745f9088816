package report

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

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req CreateReportRequest
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

	reportID, err := h.service.CreateReport(ctx, CreateReportCmd{
		WorkspaceID: workspaceID,
		Title:       req.Title,
		Status:      Status(req.Status),
		Message:     req.Message,
		Monitors:    monitors,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, reqID, "report created", reportID)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	reportID, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid report id")
		return
	}

	rep, err := h.service.GetReport(ctx, workspaceID, reportID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "report retrieved", toReportResponse(&rep))
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	limit := parseQueryInt(r, "limit", 20)
	offset := parseQueryInt(r, "offset", 0)

	reports, err := h.service.ListReports(ctx, workspaceID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, toReportResponse(&reports[i]))
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", ListReportsResponse{
		WorkspaceID: workspaceID.String(),
		Limit:       limit,
		Offset:      offset,
		Reports:     out,
	})
}

func (h *Handler) AddUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	reportID, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid report id")
		return
	}

	var req AddUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	err = h.service.AddUpdate(ctx, workspaceID, reportID, AddUpdateCmd{
		Status:  Status(req.Status),
		Message: req.Message,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "update posted", nil)
}

func (h *Handler) ScheduleMaintenance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req ScheduleMaintenanceRequest
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

	windowID, err := h.service.ScheduleMaintenance(ctx, CreateMaintenanceCmd{
		WorkspaceID: workspaceID,
		Title:       req.Title,
		Message:     req.Message,
		Monitors:    monitors,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, reqID, "maintenance scheduled", windowID)
}

func (h *Handler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	windows, err := h.service.ListMaintenance(ctx, workspaceID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]MaintenanceResponse, 0, len(windows))
	for i := range windows {
		out = append(out, toMaintenanceResponse(&windows[i]))
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", out)
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
