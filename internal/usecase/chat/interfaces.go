package chat

import (
	"context"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

// Generator is the configured LLM provider.
type Generator interface {
	Generate(ctx context.Context, messages []entity.ChatMessage) (*entity.GenerationResult, error)
	Configured() bool
	Provider() (provider, model string)
}

// Retriever is the retrieval side of the RAG pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, datasetID, query string, topK int, docTypes []string) ([]entity.VectorHit, error)
	Indexed(ctx context.Context, datasetID string) error
}
