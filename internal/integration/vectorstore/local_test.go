package vectorstore

import (
	"context"
	"testing"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func record(id, datasetID string, docType entity.DocType, vector []float64) entity.VectorRecord {
	return entity.VectorRecord{
		ID:     id,
		Vector: vector,
		Payload: entity.RecordPayload{
			Text: "text " + id,
			DocMetadata: entity.DocMetadata{
				DatasetID: datasetID,
				DocType:   docType,
			},
		},
	}
}

func TestLocalStoreUpsertAndSearch(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	err := store.Upsert(ctx, "datasets", []entity.VectorRecord{
		record("ds-1:0", "ds-1", entity.DocTypeSummary, []float64{1, 0, 0}),
		record("ds-1:1", "ds-1", entity.DocTypeRows, []float64{0, 1, 0}),
		record("ds-2:0", "ds-2", entity.DocTypeSummary, []float64{1, 0, 0}),
	})
	require.NoError(t, err)

	hits, err := store.Search(ctx, "datasets", "ds-1", []float64{1, 0, 0}, 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, entity.DocTypeSummary, hits[0].Payload.DocType)
}

func TestLocalStoreDocTypeFilter(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "datasets", []entity.VectorRecord{
		record("ds-1:0", "ds-1", entity.DocTypeSummary, []float64{1, 0}),
		record("ds-1:1", "ds-1", entity.DocTypeRows, []float64{0, 1}),
	}))

	hits, err := store.Search(ctx, "datasets", "ds-1", []float64{1, 1}, 5, []string{"rows"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, entity.DocTypeRows, hits[0].Payload.DocType)
}

func TestLocalStoreDimensionMismatch(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "datasets", []entity.VectorRecord{
		record("ds-1:0", "ds-1", entity.DocTypeSummary, []float64{1, 0, 0}),
	}))

	err := store.Upsert(ctx, "datasets", []entity.VectorRecord{
		record("ds-1:1", "ds-1", entity.DocTypeRows, []float64{1, 0}),
	})
	assert.ErrorIs(t, err, entity.ErrVectorSizeMismatch)

	_, err = store.Search(ctx, "datasets", "ds-1", []float64{1}, 5, nil)
	assert.ErrorIs(t, err, entity.ErrVectorSizeMismatch)
}

func TestLocalStoreDeleteDataset(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "datasets", []entity.VectorRecord{
		record("ds-1:0", "ds-1", entity.DocTypeSummary, []float64{1, 0}),
		record("ds-2:0", "ds-2", entity.DocTypeSummary, []float64{0, 1}),
	}))

	require.NoError(t, store.DeleteDataset(ctx, "datasets", "ds-1"))

	hits, err := store.Search(ctx, "datasets", "ds-1", []float64{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.Search(ctx, "datasets", "ds-2", []float64{0, 1}, 5, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestLocalStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewLocalStore(dir, zap.NewNop())
	require.NoError(t, first.Upsert(ctx, "datasets", []entity.VectorRecord{
		record("ds-1:0", "ds-1", entity.DocTypeSummary, []float64{1, 0}),
	}))

	second := NewLocalStore(dir, zap.NewNop())
	hits, err := second.Search(ctx, "datasets", "ds-1", []float64{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestLocalStoreUpsertReplacesByID(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "datasets", []entity.VectorRecord{
		record("ds-1:0", "ds-1", entity.DocTypeSummary, []float64{1, 0}),
	}))
	require.NoError(t, store.Upsert(ctx, "datasets", []entity.VectorRecord{
		record("ds-1:0", "ds-1", entity.DocTypeSummary, []float64{0, 1}),
	}))

	hits, err := store.Search(ctx, "datasets", "ds-1", []float64{0, 1}, 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}
