// Package dataset implements upload, listing, schema, preview, query and
// deletion of datasets.
package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/ingest"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/validator"
	"github.com/Ziad-epi/ai-data-copilot/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const defaultPreviewLimit = 10

// DatasetUsecase implements dataset lifecycle business logic.
type DatasetUsecase struct {
	store      repository.Store
	ingestor   *ingest.Ingestor
	deindexer  Deindexer
	collection string
	cfg        config.IngestConfig
	logger     *zap.Logger
}

func NewUsecase(
	store repository.Store,
	ingestor *ingest.Ingestor,
	deindexer Deindexer,
	collection string,
	cfg config.IngestConfig,
	logger *zap.Logger,
) *DatasetUsecase {
	return &DatasetUsecase{
		store:      store,
		ingestor:   ingestor,
		deindexer:  deindexer,
		collection: collection,
		cfg:        cfg,
		logger:     logger,
	}
}

// Upload ingests a CSV upload and persists raw bytes plus metadata. An empty
// delimiter means "detect"; a non-empty one must be a single character and
// bypasses sniffing. The raw copy is rolled back when metadata persistence
// fails, so a dataset is either fully present or absent.
func (uc *DatasetUsecase) Upload(ctx context.Context, filename, delimiter string, raw []byte) (*entity.DatasetMetadata, error) {
	if err := validator.ValidateUploadFilename(filename); err != nil {
		return nil, err
	}
	if err := validator.ValidateDelimiter(delimiter); err != nil {
		return nil, err
	}
	if int64(len(raw)) > uc.cfg.MaxUploadMB<<20 {
		return nil, fmt.Errorf("%w: upload exceeds %d MB", entity.ErrFileTooLarge, uc.cfg.MaxUploadMB)
	}

	datasetID := uuid.New().String()
	meta, err := uc.ingestor.Ingest(raw, datasetID, filename, delimiter, time.Now())
	if err != nil {
		return nil, err
	}

	if err := uc.store.SaveRaw(ctx, datasetID, raw); err != nil {
		return nil, fmt.Errorf("save raw dataset: %w", err)
	}
	if err := uc.store.SaveMetadata(ctx, meta); err != nil {
		uc.store.DeleteDataset(ctx, datasetID)
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	ctxzap.Info(ctx, "dataset uploaded",
		zap.String("dataset_id", datasetID),
		zap.String("filename", filename),
		zap.Int("nb_rows", meta.NbRows),
		zap.Int("nb_columns", meta.NbColumns),
		zap.Int("warnings", len(meta.Warnings)),
	)
	return meta, nil
}

// List returns all datasets, newest first.
func (uc *DatasetUsecase) List(ctx context.Context) ([]entity.DatasetSummary, error) {
	metas, err := uc.store.ListMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}

	summaries := make([]entity.DatasetSummary, 0, len(metas))
	for _, meta := range metas {
		summaries = append(summaries, entity.DatasetSummary{
			DatasetID: meta.DatasetID,
			CreatedAt: meta.CreatedAt,
			Filename:  meta.Filename,
			NbRows:    meta.NbRows,
			NbColumns: meta.NbColumns,
		})
	}
	return summaries, nil
}

// Get returns the full metadata of one dataset.
func (uc *DatasetUsecase) Get(ctx context.Context, datasetID string) (*entity.DatasetMetadata, error) {
	if err := validator.ValidateDatasetID(datasetID); err != nil {
		return nil, err
	}
	return uc.store.GetMetadata(ctx, datasetID)
}

// Schema returns the inferred schema projection of the metadata.
func (uc *DatasetUsecase) Schema(ctx context.Context, datasetID string) (*entity.DatasetSchema, error) {
	meta, err := uc.Get(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return &entity.DatasetSchema{
		DatasetID:             meta.DatasetID,
		Columns:               meta.Columns,
		Dtypes:                meta.Dtypes,
		MissingValuesCount:    meta.MissingValuesCount,
		NumericColumnsSummary: meta.NumericColumnsSummary,
		TopValues:             meta.TopValues,
		InferredPrimaryKey:    meta.InferredPrimaryKey,
		Warnings:              meta.Warnings,
	}, nil
}

// Preview returns the typed head of the dataset.
func (uc *DatasetUsecase) Preview(ctx context.Context, datasetID string, limit *int) (*entity.DatasetPreview, error) {
	meta, err := uc.Get(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	resolved, err := validator.ClampLimit(limit, defaultPreviewLimit, uc.cfg.PreviewMaxRows)
	if err != nil {
		return nil, err
	}

	raw, err := uc.store.ReadRaw(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	frame, err := ingest.ReadFrame(raw, meta.Delimiter, resolved)
	if err != nil {
		return nil, err
	}

	return &entity.DatasetPreview{
		DatasetID: datasetID,
		Columns:   frame.Columns,
		Rows:      ingest.Records(frame.Columns, frame.Rows, meta.Dtypes),
		Limit:     resolved,
	}, nil
}

// Query selects columns and rows with equality filters. Filters compare
// against the typed cell value, so numeric filters match numeric cells.
func (uc *DatasetUsecase) Query(ctx context.Context, datasetID string, req *entity.DatasetQueryRequest) (*entity.DatasetQueryResponse, error) {
	meta, err := uc.Get(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	limit, err := validator.ClampLimit(req.Limit, uc.cfg.QueryMaxRows, uc.cfg.QueryMaxRows)
	if err != nil {
		return nil, err
	}

	columns := req.Columns
	if len(columns) == 0 {
		columns = meta.Columns
	}
	for _, col := range columns {
		if !containsColumn(meta.Columns, col) {
			return nil, fmt.Errorf("%w: %q", entity.ErrUnknownColumn, col)
		}
	}
	for col := range req.Filters {
		if !containsColumn(meta.Columns, col) {
			return nil, fmt.Errorf("%w: filter column %q", entity.ErrUnknownColumn, col)
		}
	}

	raw, err := uc.store.ReadRaw(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	frame, err := ingest.ReadFrame(raw, meta.Delimiter, 0)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	for _, row := range frame.Rows {
		if !matchesFilters(frame, row, req.Filters, meta.Dtypes) {
			continue
		}
		record := make(map[string]any, len(columns))
		for _, col := range columns {
			idx := frame.ColumnIndex(col)
			record[col] = ingest.TypedValue(row[idx], meta.Dtypes[col])
		}
		rows = append(rows, record)
		if len(rows) == limit {
			break
		}
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	return &entity.DatasetQueryResponse{
		DatasetID: datasetID,
		Columns:   columns,
		Rows:      rows,
	}, nil
}

// Delete removes the dataset's artifacts and, best effort, its vectors.
func (uc *DatasetUsecase) Delete(ctx context.Context, datasetID string) error {
	if err := validator.ValidateDatasetID(datasetID); err != nil {
		return err
	}
	if err := uc.store.DeleteDataset(ctx, datasetID); err != nil {
		return err
	}

	if err := uc.deindexer.DeleteDataset(ctx, uc.collection, datasetID); err != nil {
		// Artifacts are already gone; orphaned vectors are unreachable
		// because retrieval requires index metadata.
		ctxzap.Warn(ctx, "failed to delete dataset vectors",
			zap.String("dataset_id", datasetID), zap.Error(err))
	}

	ctxzap.Info(ctx, "dataset deleted", zap.String("dataset_id", datasetID))
	return nil
}

func containsColumn(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}

// matchesFilters applies equality filters. Numbers compare numerically so a
// JSON filter value 2 matches the cell "2" of an int64 column.
func matchesFilters(frame *entity.Frame, row []entity.Cell, filters map[string]any, dtypes map[string]string) bool {
	for col, want := range filters {
		idx := frame.ColumnIndex(col)
		if idx < 0 {
			return false
		}
		got := ingest.TypedValue(row[idx], dtypes[col])
		if !looselyEqual(got, want) {
			return false
		}
	}
	return true
}

func looselyEqual(got, want any) bool {
	if got == nil || want == nil {
		return got == nil && want == nil
	}
	if gf, ok := asFloat(got); ok {
		if wf, ok := asFloat(want); ok {
			return gf == wf
		}
		return false
	}
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
