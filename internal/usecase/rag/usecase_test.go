package rag

import (
	"context"
	"testing"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/integration/embedding"
	"github.com/Ziad-epi/ai-data-copilot/internal/integration/vectorstore"
	"github.com/Ziad-epi/ai-data-copilot/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDatasetID = "3d7f1c9a-96d4-4b2e-8f0a-61f6a4f1f111"

func testRagConfig() config.RagConfig {
	return config.RagConfig{
		MaxRowsToIndex: 5000,
		RowsPerDoc:     2,
		EmbedBatchSize: 2,
		Collection:     "datasets",
		DefaultTopK:    5,
		MaxTopK:        50,
	}
}

func newTestUsecase(t *testing.T) (*RagUsecase, repository.Store) {
	t.Helper()
	dir := t.TempDir()
	store := repository.NewFilesystemStore(dir)
	logger := zap.NewNop()
	uc := NewUsecase(
		store,
		embedding.NewMockConnector(logger),
		vectorstore.NewLocalStore(dir, logger),
		testRagConfig(),
		logger,
	)
	return uc, store
}

func seedDataset(t *testing.T, store repository.Store) {
	t.Helper()
	ctx := context.Background()
	raw := []byte("id,country\n1,FR\n2,US\n3,FR\n4,DE\n5,FR\n")
	require.NoError(t, store.SaveRaw(ctx, testDatasetID, raw))
	require.NoError(t, store.SaveMetadata(ctx, &entity.DatasetMetadata{
		DatasetID: testDatasetID,
		Filename:  "countries.csv",
		NbRows:    5,
		NbColumns: 2,
		Columns:   []string{"id", "country"},
		Dtypes:    map[string]string{"id": "int64", "country": "object"},
		Delimiter: ",",
		CreatedAt: time.Now(),
	}))
}

func TestIndexBuildsSummaryAndRowDocs(t *testing.T) {
	uc, store := newTestUsecase(t)
	seedDataset(t, store)
	ctx := context.Background()

	resp, err := uc.Index(ctx, testDatasetID, &entity.DatasetIndexRequest{})
	require.NoError(t, err)

	// 1 summary + ceil(5/2) row docs
	assert.Equal(t, 4, resp.NbDocs)
	assert.Equal(t, 4, resp.VectorsUpserted)

	indexMeta, err := store.GetIndexMetadata(ctx, testDatasetID)
	require.NoError(t, err)
	assert.Equal(t, "ready", indexMeta.Status)
	assert.Equal(t, "mock-embedding", indexMeta.EmbeddingModel)
	assert.Equal(t, "local", indexMeta.VectorStore)
	assert.Equal(t, 2, indexMeta.Params.RowsPerDoc)
}

func TestIndexUnknownColumn(t *testing.T) {
	uc, store := newTestUsecase(t)
	seedDataset(t, store)

	_, err := uc.Index(context.Background(), testDatasetID, &entity.DatasetIndexRequest{
		Columns: []string{"nope"},
	})
	assert.ErrorIs(t, err, entity.ErrUnknownColumn)
}

func TestIndexMissingDataset(t *testing.T) {
	uc, _ := newTestUsecase(t)

	_, err := uc.Index(context.Background(), "3d7f1c9a-96d4-4b2e-8f0a-61f6a4f1f222", &entity.DatasetIndexRequest{})
	assert.ErrorIs(t, err, entity.ErrDatasetNotFound)
}

func TestIndexRejectsNonPositiveParams(t *testing.T) {
	uc, store := newTestUsecase(t)
	seedDataset(t, store)
	ctx := context.Background()

	zero := 0
	_, err := uc.Index(ctx, testDatasetID, &entity.DatasetIndexRequest{MaxRows: &zero})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	negative := -3
	_, err = uc.Index(ctx, testDatasetID, &entity.DatasetIndexRequest{RowsPerDoc: &negative})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestSearchRequiresIndex(t *testing.T) {
	uc, store := newTestUsecase(t)
	seedDataset(t, store)

	_, err := uc.Search(context.Background(), testDatasetID, &entity.DatasetSearchRequest{Query: "countries"})
	assert.ErrorIs(t, err, entity.ErrNotIndexed)
}

func TestSearchReturnsCitations(t *testing.T) {
	uc, store := newTestUsecase(t)
	seedDataset(t, store)
	ctx := context.Background()

	_, err := uc.Index(ctx, testDatasetID, &entity.DatasetIndexRequest{})
	require.NoError(t, err)

	resp, err := uc.Search(ctx, testDatasetID, &entity.DatasetSearchRequest{Query: "which countries", TopK: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)

	for _, result := range resp.Results {
		assert.NotEmpty(t, result.Text)
		assert.Contains(t, result.Citation, "dataset:"+testDatasetID)
		if result.Source.DocType == entity.DocTypeRows {
			require.NotNil(t, result.Source.RowStart)
			assert.Contains(t, result.Citation, "rows:")
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	uc, store := newTestUsecase(t)
	seedDataset(t, store)

	_, err := uc.Search(context.Background(), testDatasetID, &entity.DatasetSearchRequest{Query: "  "})
	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestReindexReplacesDocuments(t *testing.T) {
	uc, store := newTestUsecase(t)
	seedDataset(t, store)
	ctx := context.Background()

	first, err := uc.Index(ctx, testDatasetID, &entity.DatasetIndexRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, first.NbDocs)

	// Rebuild with a bigger window: fewer documents must remain after.
	rowsPerDoc := 5
	second, err := uc.Index(ctx, testDatasetID, &entity.DatasetIndexRequest{
		RowsPerDoc: &rowsPerDoc,
		Reindex:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.NbDocs)

	resp, err := uc.Search(ctx, testDatasetID, &entity.DatasetSearchRequest{Query: "countries", TopK: 50})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}
