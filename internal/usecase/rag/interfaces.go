package rag

import (
	"context"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Model() string
}

// VectorStore is the vector index backend, local or Qdrant.
type VectorStore interface {
	Upsert(ctx context.Context, collection string, records []entity.VectorRecord) error
	Search(ctx context.Context, collection, datasetID string, vector []float64, topK int, docTypes []string) ([]entity.VectorHit, error)
	DeleteDataset(ctx context.Context, collection, datasetID string) error
	Name() string
}
