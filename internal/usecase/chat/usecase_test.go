package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDatasetID = "3d7f1c9a-96d4-4b2e-8f0a-61f6a4f1f111"

type fakeRetriever struct {
	hits    []entity.VectorHit
	indexed bool
}

func (f *fakeRetriever) Retrieve(ctx context.Context, datasetID, query string, topK int, docTypes []string) ([]entity.VectorHit, error) {
	return f.hits, nil
}

func (f *fakeRetriever) Indexed(ctx context.Context, datasetID string) error {
	if !f.indexed {
		return entity.ErrNotIndexed
	}
	return nil
}

type fakeGenerator struct {
	configured bool
	called     bool
	messages   []entity.ChatMessage
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []entity.ChatMessage) (*entity.GenerationResult, error) {
	f.called = true
	f.messages = messages
	tokens := 12
	return &entity.GenerationResult{Text: "La France est le pays le plus fréquent.", PromptTokens: &tokens}, nil
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func (f *fakeGenerator) Provider() (string, string) { return "test", "test-model" }

func rowHit(score float64, start, end int) entity.VectorHit {
	return entity.VectorHit{
		Score: score,
		Payload: entity.RecordPayload{
			Text: "row_index=1 | country=FR",
			DocMetadata: entity.DocMetadata{
				DatasetID: testDatasetID,
				DocType:   entity.DocTypeRows,
				RowStart:  &start,
				RowEnd:    &end,
			},
		},
	}
}

func summaryHit(score float64) entity.VectorHit {
	return entity.VectorHit{
		Score: score,
		Payload: entity.RecordPayload{
			Text: "dataset=countries.csv | rows=5",
			DocMetadata: entity.DocMetadata{
				DatasetID: testDatasetID,
				DocType:   entity.DocTypeSummary,
			},
		},
	}
}

func newTestUsecase(t *testing.T, retriever *fakeRetriever, generator *fakeGenerator) (*ChatUsecase, repository.Store) {
	t.Helper()
	store := repository.NewFilesystemStore(t.TempDir())
	uc := NewUsecase(store, retriever, generator, config.RagConfig{
		Collection:  "datasets",
		DefaultTopK: 5,
		MaxTopK:     50,
	}, zap.NewNop())
	return uc, store
}

func seedMetadata(t *testing.T, store repository.Store) {
	t.Helper()
	require.NoError(t, store.SaveMetadata(context.Background(), &entity.DatasetMetadata{
		DatasetID: testDatasetID,
		Filename:  "countries.csv",
	}))
}

func TestChatNotIndexed(t *testing.T) {
	uc, store := newTestUsecase(t, &fakeRetriever{indexed: false}, &fakeGenerator{configured: true})
	seedMetadata(t, store)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{
		DatasetID: testDatasetID,
		Message:   "combien de pays ?",
	})
	assert.ErrorIs(t, err, entity.ErrNotIndexed)
}

func TestChatLLMNotConfigured(t *testing.T) {
	uc, store := newTestUsecase(t, &fakeRetriever{indexed: true}, &fakeGenerator{configured: false})
	seedMetadata(t, store)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{
		DatasetID: testDatasetID,
		Message:   "combien de pays ?",
	})
	assert.ErrorIs(t, err, entity.ErrLLMNotConfigured)
}

func TestChatDatasetNotFound(t *testing.T) {
	uc, _ := newTestUsecase(t, &fakeRetriever{indexed: true}, &fakeGenerator{configured: true})

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{
		DatasetID: testDatasetID,
		Message:   "combien de pays ?",
	})
	assert.ErrorIs(t, err, entity.ErrDatasetNotFound)
}

func TestChatZeroHitsSkipsGeneration(t *testing.T) {
	generator := &fakeGenerator{configured: true}
	uc, store := newTestUsecase(t, &fakeRetriever{indexed: true}, generator)
	seedMetadata(t, store)

	resp, err := uc.Chat(context.Background(), &entity.ChatRequest{
		DatasetID: testDatasetID,
		Message:   "quelle est la météo ?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Je n'ai pas assez d'infos dans le contexte fourni.", resp.Answer)
	assert.Empty(t, resp.Citations)
	assert.Empty(t, resp.Contexts)
	assert.False(t, generator.called, "generator must not be called on zero hits")
}

func TestChatGroundedAnswer(t *testing.T) {
	generator := &fakeGenerator{configured: true}
	retriever := &fakeRetriever{
		indexed: true,
		hits:    []entity.VectorHit{rowHit(0.9, 1, 2), summaryHit(0.8)},
	}
	uc, store := newTestUsecase(t, retriever, generator)
	seedMetadata(t, store)

	resp, err := uc.Chat(context.Background(), &entity.ChatRequest{
		DatasetID: testDatasetID,
		Message:   "quel pays revient le plus ?",
	})
	require.NoError(t, err)

	assert.Equal(t, "La France est le pays le plus fréquent.", resp.Answer)
	require.Len(t, resp.Citations, 2)
	// Summary contexts come first regardless of score order.
	assert.Equal(t, entity.DocTypeSummary, resp.Citations[0].DocType)
	assert.Equal(t, "dataset:"+testDatasetID, resp.Citations[0].Citation)
	assert.Equal(t, "dataset:"+testDatasetID+" rows:1-2", resp.Citations[1].Citation)
	require.NotNil(t, resp.PromptTokens)

	require.True(t, generator.called)
	require.Len(t, generator.messages, 2)
	assert.Equal(t, "system", generator.messages[0].Role)
	assert.Contains(t, generator.messages[1].Content, "Question: quel pays revient le plus ?")
	assert.Contains(t, generator.messages[1].Content, "[dataset:"+testDatasetID+" rows:1-2]")
}

func TestChatInvalidDocType(t *testing.T) {
	uc, store := newTestUsecase(t, &fakeRetriever{indexed: true}, &fakeGenerator{configured: true})
	seedMetadata(t, store)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{
		DatasetID: testDatasetID,
		Message:   "question",
		DocTypes:  []string{"paragraphs"},
	})
	assert.ErrorIs(t, err, entity.ErrInvalidDocType)
}

func TestChatEmptyMessage(t *testing.T) {
	uc, store := newTestUsecase(t, &fakeRetriever{indexed: true}, &fakeGenerator{configured: true})
	seedMetadata(t, store)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{
		DatasetID: testDatasetID,
		Message:   "   ",
	})
	assert.True(t, errors.Is(err, entity.ErrMissingField))
}
