package chatapi

import (
	"context"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

type ChatUsecase interface {
	Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error)
}
