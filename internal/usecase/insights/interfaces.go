package insights

import (
	"context"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

// Generator produces text with the configured LLM. Report generation treats
// it as optional: when unconfigured or failing, the template report is used.
type Generator interface {
	Generate(ctx context.Context, messages []entity.ChatMessage) (*entity.GenerationResult, error)
	Configured() bool
}
