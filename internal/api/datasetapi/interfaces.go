package datasetapi

import (
	"context"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

type DatasetUsecase interface {
	Upload(ctx context.Context, filename, delimiter string, raw []byte) (*entity.DatasetMetadata, error)
	List(ctx context.Context) ([]entity.DatasetSummary, error)
	Get(ctx context.Context, datasetID string) (*entity.DatasetMetadata, error)
	Schema(ctx context.Context, datasetID string) (*entity.DatasetSchema, error)
	Preview(ctx context.Context, datasetID string, limit *int) (*entity.DatasetPreview, error)
	Query(ctx context.Context, datasetID string, req *entity.DatasetQueryRequest) (*entity.DatasetQueryResponse, error)
	Delete(ctx context.Context, datasetID string) error
}

type InsightsUsecase interface {
	Compute(ctx context.Context, datasetID string, req *entity.InsightsRequest) (*entity.InsightsResult, error)
	SuggestCharts(ctx context.Context, datasetID string, req *entity.ChartsSuggestRequest) (*entity.ChartsSuggestResponse, error)
	Report(ctx context.Context, datasetID string) (*entity.ReportResponse, error)
	Invalidate(datasetID string)
}

type RagUsecase interface {
	Index(ctx context.Context, datasetID string, req *entity.DatasetIndexRequest) (*entity.DatasetIndexResponse, error)
	Search(ctx context.Context, datasetID string, req *entity.DatasetSearchRequest) (*entity.DatasetSearchResponse, error)
}
