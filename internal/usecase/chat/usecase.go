// Package chat implements retrieval-grounded question answering over an
// indexed dataset.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/pkg/validator"
	"github.com/Ziad-epi/ai-data-copilot/internal/rag"
	"github.com/Ziad-epi/ai-data-copilot/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// insufficientContextAnswer is returned verbatim when retrieval yields
// nothing; no generation call is made in that case.
const insufficientContextAnswer = "Je n'ai pas assez d'infos dans le contexte fourni."

const systemInstruction = "Tu es un assistant d'analyse de données. Réponds uniquement à partir du contexte fourni. " +
	"Cite les sources entre crochets, par exemple [dataset:<id> rows:3-4]. " +
	"Si le contexte ne suffit pas, dis-le explicitement."

// ChatUsecase answers questions about a dataset, grounded in retrieved
// chunks with verifiable citations.
type ChatUsecase struct {
	store     repository.Store
	retriever Retriever
	generator Generator
	cfg       config.RagConfig
	logger    *zap.Logger
}

func NewUsecase(
	store repository.Store,
	retriever Retriever,
	generator Generator,
	cfg config.RagConfig,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		store:     store,
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Chat validates the preconditions, retrieves context and generates the
// grounded answer. An audit line with both latencies is always logged for
// answered requests.
func (uc *ChatUsecase) Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	if err := validator.ValidateDatasetID(req.DatasetID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message", entity.ErrMissingField)
	}
	if err := validator.ValidateDocTypes(req.DocTypes); err != nil {
		return nil, err
	}

	if _, err := uc.store.GetMetadata(ctx, req.DatasetID); err != nil {
		return nil, err
	}
	if err := uc.retriever.Indexed(ctx, req.DatasetID); err != nil {
		return nil, err
	}
	if !uc.generator.Configured() {
		return nil, entity.ErrLLMNotConfigured
	}

	topK := req.TopK
	if topK < 1 {
		topK = uc.cfg.DefaultTopK
	}
	if topK > uc.cfg.MaxTopK {
		topK = uc.cfg.MaxTopK
	}

	started := time.Now()
	hits, err := uc.retriever.Retrieve(ctx, req.DatasetID, req.Message, topK, req.DocTypes)
	if err != nil {
		return nil, err
	}
	retrievalMs := time.Since(started).Milliseconds()

	if len(hits) == 0 {
		ctxzap.Info(ctx, "chat answered without generation",
			zap.String("dataset_id", req.DatasetID),
			zap.Int("top_k", topK),
			zap.Int64("retrieval_ms", retrievalMs),
		)
		return &entity.ChatResponse{
			Answer:    insufficientContextAnswer,
			Citations: []entity.ChatCitation{},
			Contexts:  []entity.ChatContext{},
			LatencyMs: time.Since(started).Milliseconds(),
		}, nil
	}

	citations, contexts := buildContexts(hits)

	llmStart := time.Now()
	result, err := uc.generator.Generate(ctx, buildPrompt(req, contexts))
	if err != nil {
		return nil, err
	}
	llmMs := time.Since(llmStart).Milliseconds()

	provider, model := uc.generator.Provider()
	ctxzap.Info(ctx, "chat answered",
		zap.String("dataset_id", req.DatasetID),
		zap.Int("top_k", topK),
		zap.Int64("retrieval_ms", retrievalMs),
		zap.Int64("llm_ms", llmMs),
		zap.String("provider", provider),
		zap.String("model", model),
	)

	return &entity.ChatResponse{
		Answer:         result.Text,
		Citations:      citations,
		Contexts:       contexts,
		LatencyMs:      time.Since(started).Milliseconds(),
		PromptTokens:   result.PromptTokens,
		ResponseTokens: result.CompletionTokens,
	}, nil
}

// buildContexts converts hits into response citations and contexts, summary
// documents first so schema facts precede row evidence in the prompt.
func buildContexts(hits []entity.VectorHit) ([]entity.ChatCitation, []entity.ChatContext) {
	ordered := make([]entity.VectorHit, 0, len(hits))
	for _, hit := range hits {
		if hit.Payload.DocType == entity.DocTypeSummary {
			ordered = append(ordered, hit)
		}
	}
	for _, hit := range hits {
		if hit.Payload.DocType != entity.DocTypeSummary {
			ordered = append(ordered, hit)
		}
	}

	citations := make([]entity.ChatCitation, 0, len(ordered))
	contexts := make([]entity.ChatContext, 0, len(ordered))
	for _, hit := range ordered {
		payload := hit.Payload
		citations = append(citations, entity.ChatCitation{
			Citation: rag.Citation(payload.DatasetID, payload.DocType, payload.RowStart, payload.RowEnd),
			DocType:  payload.DocType,
			RowStart: payload.RowStart,
			RowEnd:   payload.RowEnd,
			Score:    hit.Score,
		})
		contexts = append(contexts, entity.ChatContext{
			Text: payload.Text,
			Source: entity.SearchSource{
				DatasetID: payload.DatasetID,
				DocType:   payload.DocType,
				RowStart:  payload.RowStart,
				RowEnd:    payload.RowEnd,
			},
			Score: hit.Score,
		})
	}
	return citations, contexts
}

func buildPrompt(req *entity.ChatRequest, contexts []entity.ChatContext) []entity.ChatMessage {
	var sb strings.Builder
	sb.WriteString("Contexte:\n")
	for _, c := range contexts {
		citation := rag.Citation(c.Source.DatasetID, c.Source.DocType, c.Source.RowStart, c.Source.RowEnd)
		sb.WriteString(fmt.Sprintf("[%s]\n%s\n\n", citation, c.Text))
	}
	sb.WriteString(fmt.Sprintf("Question: %s\n", req.Message))

	format := req.ResponseFormat
	if format == "" {
		format = "réponse concise en quelques phrases"
	}
	sb.WriteString(fmt.Sprintf("Format de réponse attendu: %s\n", format))

	return []entity.ChatMessage{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: sb.String()},
	}
}
