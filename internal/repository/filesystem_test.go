package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStoreRawRoundTrip(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.SaveRaw(ctx, "ds-1", []byte("a,b\n1,2\n")))

	raw, err := store.ReadRaw(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n1,2\n"), raw)

	_, err = store.ReadRaw(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrDatasetNotFound)
}

func TestFilesystemStoreSaveReport(t *testing.T) {
	dir := t.TempDir()
	store := NewFilesystemStore(dir)
	ctx := context.Background()

	require.NoError(t, store.SaveReport(ctx, "ds-1", []byte("# Dataset Report\n")))
	raw, err := os.ReadFile(filepath.Join(dir, "ds-1", "report.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Dataset Report\n", string(raw))
}

func TestFilesystemStoreMetadata(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	ctx := context.Background()

	meta := &entity.DatasetMetadata{
		DatasetID: "ds-1",
		Filename:  "data.csv",
		NbRows:    3,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveMetadata(ctx, meta))

	got, err := store.GetMetadata(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, meta.Filename, got.Filename)
	assert.Equal(t, meta.NbRows, got.NbRows)

	_, err = store.GetMetadata(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrDatasetNotFound)
}

func TestFilesystemStoreListNewestFirst(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	ctx := context.Background()

	older := &entity.DatasetMetadata{DatasetID: "ds-old", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &entity.DatasetMetadata{DatasetID: "ds-new", CreatedAt: time.Now()}
	require.NoError(t, store.SaveMetadata(ctx, older))
	require.NoError(t, store.SaveMetadata(ctx, newer))

	metas, err := store.ListMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "ds-new", metas[0].DatasetID)
	assert.Equal(t, "ds-old", metas[1].DatasetID)
}

func TestFilesystemStoreIndexMetadataSignal(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	ctx := context.Background()

	_, err := store.GetIndexMetadata(ctx, "ds-1")
	assert.ErrorIs(t, err, entity.ErrNotIndexed)

	require.NoError(t, store.SaveIndexMetadata(ctx, &entity.IndexMetadata{
		DatasetID: "ds-1",
		NbDocs:    4,
		Status:    "ready",
	}))

	got, err := store.GetIndexMetadata(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.NbDocs)

	require.NoError(t, store.DeleteIndexMetadata(ctx, "ds-1"))
	_, err = store.GetIndexMetadata(ctx, "ds-1")
	assert.ErrorIs(t, err, entity.ErrNotIndexed)

	// Deleting again is a no-op.
	assert.NoError(t, store.DeleteIndexMetadata(ctx, "ds-1"))
}

func TestFilesystemStoreInsights(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	ctx := context.Background()

	_, err := store.GetInsights(ctx, "ds-1")
	assert.ErrorIs(t, err, entity.ErrInsightsNotFound)

	require.NoError(t, store.SaveInsights(ctx, &entity.InsightsResult{
		DatasetID:      "ds-1",
		SampleRowsUsed: 100,
	}))

	got, err := store.GetInsights(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.SampleRowsUsed)
}

func TestFilesystemStoreDeleteDataset(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.SaveRaw(ctx, "ds-1", []byte("a\n1\n")))
	require.NoError(t, store.SaveMetadata(ctx, &entity.DatasetMetadata{DatasetID: "ds-1"}))

	require.NoError(t, store.DeleteDataset(ctx, "ds-1"))
	_, err := store.GetMetadata(ctx, "ds-1")
	assert.ErrorIs(t, err, entity.ErrDatasetNotFound)

	assert.ErrorIs(t, store.DeleteDataset(ctx, "ds-1"), entity.ErrDatasetNotFound)
}
