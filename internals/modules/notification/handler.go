package notification

import (
	"encoding/json"
	"net/http"

	middle "watchpost/internals/middleware"
	"watchpost/internals/modules/notification/provider"
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

func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	kind, err := provider.ParseKind(req.Kind)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}
	monitors, err := parseUUIDs(req.Monitors)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	chID, err := h.service.CreateChannel(ctx, CreateChannelCmd{
		WorkspaceID: workspaceID,
		Kind:        kind,
		Name:        req.Name,
		Config:      req.Config,
		Monitors:    monitors,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, reqID, "channel created", chID)
}

func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	channelID, err := uuid.Parse(chi.URLParam(r, "channelID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid channel id")
		return
	}

	ch, err := h.service.GetChannel(ctx, workspaceID, channelID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "channel retrieved", toChannelResponse(&ch))
}

func (h *Handler) GetAllChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	channels, err := h.service.GetAllChannels(ctx, workspaceID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out := make([]ChannelResponse, 0, len(channels))
	for i := range channels {
		out = append(out, toChannelResponse(&channels[i]))
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", ListChannelsResponse{
		WorkspaceID: workspaceID.String(),
		Channels:    out,
	})
}

func (h *Handler) UpdateChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	channelID, err := uuid.Parse(chi.URLParam(r, "channelID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid channel id")
		return
	}

	var req UpdateChannelRequest
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

	err = h.service.UpdateChannel(ctx, workspaceID, channelID, UpdateChannelCmd{
		Name:     req.Name,
		Config:   req.Config,
		Monitors: monitors,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "channel updated", nil)
}

func (h *Handler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	channelID, err := uuid.Parse(chi.URLParam(r, "channelID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid channel id")
		return
	}

	if err := h.service.DeleteChannel(ctx, workspaceID, channelID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "channel deleted", nil)
}

// Post : /channels/{channelID}/test
func (h *Handler) TestChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	workspaceID, ok := middle.WorkspaceFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}
	channelID, err := uuid.Parse(chi.URLParam(r, "channelID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid channel id")
		return
	}

	if err := h.service.TestChannel(ctx, workspaceID, channelID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "test notification delivered", nil)
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
