// Package repository persists dataset artifacts: raw CSV bytes, metadata,
// cached insights and index metadata. Two backends exist, filesystem and
// Postgres; raw bytes always live on disk so re-reads can stream.
package repository

import (
	"context"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

// Store is the artifact persistence interface the use cases depend on.
type Store interface {
	SaveRaw(ctx context.Context, datasetID string, raw []byte) error
	ReadRaw(ctx context.Context, datasetID string) ([]byte, error)

	SaveMetadata(ctx context.Context, meta *entity.DatasetMetadata) error
	GetMetadata(ctx context.Context, datasetID string) (*entity.DatasetMetadata, error)
	ListMetadata(ctx context.Context) ([]*entity.DatasetMetadata, error)

	SaveInsights(ctx context.Context, insights *entity.InsightsResult) error
	GetInsights(ctx context.Context, datasetID string) (*entity.InsightsResult, error)

	SaveReport(ctx context.Context, datasetID string, markdown []byte) error

	SaveIndexMetadata(ctx context.Context, meta *entity.IndexMetadata) error
	GetIndexMetadata(ctx context.Context, datasetID string) (*entity.IndexMetadata, error)
	DeleteIndexMetadata(ctx context.Context, datasetID string) error

	DeleteDataset(ctx context.Context, datasetID string) error
}
