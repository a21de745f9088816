package result

import (
	"encoding/json"
	"net/http"

	"watchpost/pkg/apperror"
	"watchpost/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// Handler is the HTTP ingestion path for check executors that cannot
// reach the broker. Accepted results are queued, not processed inline.
type Handler struct {
	processor *Processor
	validator *validator.Validate
}

func NewHandler(processor *Processor, validator *validator.Validate) *Handler {
	return &Handler{
		processor: processor,
		validator: validator,
	}
}

func (h *Handler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req SubmitResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	res, err := req.toCheckResult()
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	h.processor.Submit(res)
	utils.WriteJSON[any](w, http.StatusAccepted, reqID, "result accepted", nil)
}
