package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers deterministically from the prompt itself, so chat and
// report flows can run end to end without a provider.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Generate(ctx context.Context, messages []entity.ChatMessage) (*entity.GenerationResult, error) {
	ctxzap.Info(ctx, "[MOCK] generating completion", zap.Int("messages", len(messages)))

	var lastUser string
	for _, msg := range messages {
		if msg.Role == "user" {
			lastUser = msg.Content
		}
	}

	answer := fmt.Sprintf(
		"D'après le contexte fourni, voici une réponse générée automatiquement (MOCK). Extrait de la demande: %s",
		truncate(lastUser, 200),
	)

	promptTokens := len(strings.Fields(lastUser))
	completionTokens := len(strings.Fields(answer))
	total := promptTokens + completionTokens

	ctxzap.Info(ctx, "[MOCK] completion generated", zap.Int("result_length", len(answer)))
	return &entity.GenerationResult{
		Text:             answer,
		PromptTokens:     &promptTokens,
		CompletionTokens: &completionTokens,
		TotalTokens:      &total,
	}, nil
}

func (m *MockConnector) Configured() bool {
	return true
}

func (m *MockConnector) Provider() (provider, model string) {
	return "mock", "mock-llm"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
