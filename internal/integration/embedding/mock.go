package embedding

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockVectorDim = 8

// MockConnector produces deterministic pseudo-embeddings so indexing and
// retrieval can be exercised without a provider. Identical texts always get
// identical vectors.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	ctxzap.Info(ctx, "[MOCK] embedding texts", zap.Int("count", len(texts)))

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		seed := 0
		for _, b := range []byte(text) {
			seed += int(b)
		}
		seed %= 1000

		vec := make([]float64, mockVectorDim)
		for j := range vec {
			vec[j] = float64((seed+j)%100) / 100.0
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (m *MockConnector) Model() string {
	return "mock-embedding"
}
