package datasetapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/formatter"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/logger"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	datasets DatasetUsecase
	insights InsightsUsecase
	rag      RagUsecase
	formats  *formatter.Factory
	cfg      config.IngestConfig
}

func NewHandler(
	datasets DatasetUsecase,
	insights InsightsUsecase,
	rag RagUsecase,
	formats *formatter.Factory,
	cfg config.IngestConfig,
) *Handler {
	return &Handler{
		datasets: datasets,
		insights: insights,
		rag:      rag,
		formats:  formats,
		cfg:      cfg,
	}
}

// Upload handles POST /datasets/upload
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDataset")

	maxBytes := h.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		ctxzap.Warn(ctx, "no file provided", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "a csv file is required in the \"file\" field", err)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read uploaded file", err)
		return
	}

	delimiter := r.FormValue("delimiter")

	ctxzap.Info(ctx, "uploading dataset",
		zap.String("filename", header.Filename),
		zap.Int("size_bytes", len(raw)),
	)

	meta, err := h.datasets.Upload(ctx, header.Filename, delimiter, raw)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "dataset uploaded successfully", zap.String("dataset_id", meta.DatasetID))
	response.Created(w, meta)
}

// List handles GET /datasets
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListDatasets")

	summaries, err := h.datasets.List(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "datasets listed successfully", zap.Int("count", len(summaries)))
	response.Success(w, map[string]any{"datasets": summaries})
}

// Get handles GET /datasets/{dataset_id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "GetDataset")

	meta, err := h.datasets.Get(ctx, datasetID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, meta)
}

// Schema handles GET /datasets/{dataset_id}/schema
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "GetSchema")

	schema, err := h.datasets.Schema(ctx, datasetID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, schema)
}

// Preview handles GET /datasets/{dataset_id}/preview
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "PreviewDataset")

	var limit *int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(ctx, w, http.StatusBadRequest, "limit must be an integer", err)
			return
		}
		limit = &parsed
	}

	preview, err := h.datasets.Preview(ctx, datasetID, limit)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, preview)
}

// Query handles POST /datasets/{dataset_id}/query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "QueryDataset")

	var req entity.DatasetQueryRequest
	if !h.decodeBody(ctx, w, r, &req) {
		return
	}

	resp, err := h.datasets.Query(ctx, datasetID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// Delete handles DELETE /datasets/{dataset_id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "DeleteDataset")

	ctxzap.Info(ctx, "deleting dataset")

	if err := h.datasets.Delete(ctx, datasetID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	// Drop any hot insights entry so a recreated dataset never sees stale data.
	h.insights.Invalidate(datasetID)

	ctxzap.Info(ctx, "dataset deleted successfully")
	response.Success(w, map[string]string{"status": "deleted"})
}

// Insights handles POST /datasets/{dataset_id}/insights
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "ComputeInsights")

	var req entity.InsightsRequest
	if !h.decodeBody(ctx, w, r, &req) {
		return
	}

	result, err := h.insights.Compute(ctx, datasetID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, result)
}

// SuggestCharts handles POST /datasets/{dataset_id}/charts/suggest
func (h *Handler) SuggestCharts(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "SuggestCharts")

	var req entity.ChartsSuggestRequest
	if !h.decodeBody(ctx, w, r, &req) {
		return
	}

	resp, err := h.insights.SuggestCharts(ctx, datasetID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// Report handles POST /datasets/{dataset_id}/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "GetReport")

	report, err := h.insights.Report(ctx, datasetID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, report)
}

// ExportReport handles GET /datasets/{dataset_id}/report/export
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "ExportReport")

	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(entity.FormatMarkdown)
	}

	fmtr, err := h.formats.Create(entity.ResultFormat(format))
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "unsupported export format", err)
		return
	}

	report, err := h.insights.Report(ctx, datasetID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	meta, err := h.datasets.Get(ctx, datasetID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	body, err := fmtr.Format("Dataset Report: "+meta.Filename, report.ReportMarkdown)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to render report", err)
		return
	}

	filename := fmt.Sprintf("report_%s%s", datasetID, fmtr.FileExtension())
	ctxzap.Info(ctx, "report exported", zap.String("format", format), zap.Int("size_bytes", len(body)))

	w.Header().Set("Content-Type", fmtr.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Index handles POST /datasets/{dataset_id}/index
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "IndexDataset")

	var req entity.DatasetIndexRequest
	if !h.decodeBody(ctx, w, r, &req) {
		return
	}

	ctxzap.Info(ctx, "indexing dataset", zap.Bool("reindex", req.Reindex))

	resp, err := h.rag.Index(ctx, datasetID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "dataset indexed successfully",
		zap.Int("nb_docs", resp.NbDocs),
		zap.Int64("duration_ms", resp.DurationMs),
	)
	response.Success(w, resp)
}

// Search handles POST /datasets/{dataset_id}/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, datasetID := h.actionContext(r, "SearchDataset")

	var req entity.DatasetSearchRequest
	if !h.decodeBody(ctx, w, r, &req) {
		return
	}

	resp, err := h.rag.Search(ctx, datasetID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// Helper methods

func (h *Handler) actionContext(r *http.Request, action string) (context.Context, string) {
	datasetID := chi.URLParam(r, "dataset_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("dataset_id", datasetID),
		zap.String("action", action),
	)
	return ctx, datasetID
}

// decodeBody parses an optional JSON request body. An empty body leaves the
// destination at its zero value.
func (h *Handler) decodeBody(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid json body", err)
		return false
	}
	return true
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
	case errors.Is(err, entity.ErrDatasetNotFound) || errors.Is(err, entity.ErrInsightsNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrFileTooLarge):
		h.respondError(ctx, w, http.StatusRequestEntityTooLarge, "file too large", err)
	case errors.Is(err, entity.ErrNotIndexed) || errors.Is(err, entity.ErrLLMNotConfigured):
		h.respondError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, entity.ErrUpstream):
		h.respondError(ctx, w, http.StatusBadGateway, "upstream dependency error", err)
	case errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidFilename),
		errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrUnknownColumn),
		errors.Is(err, entity.ErrInvalidDocType),
		errors.Is(err, entity.ErrMissingHeader),
		errors.Is(err, entity.ErrInvalidColumnName),
		errors.Is(err, entity.ErrEmptyDataset),
		errors.Is(err, entity.ErrIngestFailed):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
