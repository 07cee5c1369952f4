// Package llm talks to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/integration/common"
	pkghttp "github.com/Ziad-epi/ai-data-copilot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const chatCompletionsEndpoint = "/v1/chat/completions"

type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Generate runs one non-streaming chat completion. Provider failures come
// back as upstream errors untouched; there is no retry at this layer.
func (c *Connector) Generate(ctx context.Context, messages []entity.ChatMessage) (*entity.GenerationResult, error) {
	ctxzap.Info(ctx, "generating completion", zap.String("model", c.config.Model), zap.Int("messages", len(messages)))

	req := &entity.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Stream:      false,
	}

	var resp entity.ChatCompletionResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, chatCompletionsEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: chat completion: %v", entity.ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: chat completion returned no choices", entity.ErrUpstream)
	}

	result := &entity.GenerationResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	ctxzap.Info(ctx, "completion generated successfully", zap.Int("result_length", len(result.Text)))
	return result, nil
}

// Configured reports whether the connector has everything needed to call the
// provider.
func (c *Connector) Configured() bool {
	return c.config.Configured()
}

// Provider describes the configured provider endpoint for audit logging.
func (c *Connector) Provider() (provider, model string) {
	return c.config.Url, c.config.Model
}
