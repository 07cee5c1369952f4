// Package embedding talks to an OpenAI-compatible embeddings endpoint.
package embedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/integration/common"
	pkghttp "github.com/Ziad-epi/ai-data-copilot/pkg/http"
	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const embeddingsEndpoint = "/v1/embeddings"

type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Embed returns one vector per input text, in input order. Failures are not
// absorbed here unless retries are explicitly configured; the caller decides
// what a failed batch means for the whole run.
func (c *Connector) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	ctxzap.Info(ctx, "embedding texts", zap.Int("count", len(texts)), zap.String("model", c.config.Model))

	req := &entity.EmbeddingsRequest{
		Model: c.config.Model,
		Input: texts,
	}

	var resp entity.EmbeddingsResponse
	err := retry.Do(func() error {
		resp = entity.EmbeddingsResponse{}
		return c.connector.DoRequest(ctx, http.MethodPost, embeddingsEndpoint, req, &resp)
	}, c.config.Retry.ToRetryOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: embeddings request: %v", entity.ErrUpstream, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: embeddings response has %d vectors for %d inputs",
			entity.ErrUpstream, len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("%w: embeddings response index %d out of range", entity.ErrUpstream, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	ctxzap.Info(ctx, "texts embedded successfully", zap.Int("count", len(vectors)))
	return vectors, nil
}

// Model reports which embedding model this connector uses.
func (c *Connector) Model() string {
	return c.config.Model
}
