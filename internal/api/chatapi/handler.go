package chatapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/logger"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Chat handles POST /chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid json body", err)
		return
	}

	ctx = logger.AddFields(ctx, zap.String("dataset_id", req.DatasetID))

	resp, err := h.usecase.Chat(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrDatasetNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrNotIndexed) || errors.Is(err, entity.ErrLLMNotConfigured):
		h.respondError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, entity.ErrUpstream):
		h.respondError(ctx, w, http.StatusBadGateway, "upstream dependency error", err)
	case errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidDocType):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
