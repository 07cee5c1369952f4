package dataset

import (
	"context"
	"testing"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	"github.com/Ziad-epi/ai-data-copilot/internal/ingest"
	"github.com/Ziad-epi/ai-data-copilot/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDeindexer struct {
	deleted []string
}

func (f *fakeDeindexer) DeleteDataset(ctx context.Context, collection, datasetID string) error {
	f.deleted = append(f.deleted, datasetID)
	return nil
}

func newTestUsecase(t *testing.T) (*DatasetUsecase, *fakeDeindexer) {
	t.Helper()
	cfg := config.IngestConfig{
		MaxUploadMB:    1,
		SampleRows:     10000,
		PreviewMaxRows: 100,
		QueryMaxRows:   1000,
	}
	deindexer := &fakeDeindexer{}
	uc := NewUsecase(
		repository.NewFilesystemStore(t.TempDir()),
		ingest.NewIngestor(cfg),
		deindexer,
		"datasets",
		cfg,
		zap.NewNop(),
	)
	return uc, deindexer
}

func TestUploadAndGet(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()

	meta, err := uc.Upload(ctx, "sales.csv", "", []byte("col1;col2;country\n1;2;FR\n3;;US\n4;5;FR\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, meta.NbRows)
	assert.Equal(t, 3, meta.NbColumns)
	assert.Equal(t, 1, meta.MissingValuesCount["col2"])

	got, err := uc.Get(ctx, meta.DatasetID)
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", got.Filename)
}

func TestUploadRejectsBadRequests(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()

	_, err := uc.Upload(ctx, "data.xlsx", "", []byte("a,b\n1,2\n"))
	assert.ErrorIs(t, err, entity.ErrInvalidExtension)

	big := make([]byte, 2<<20)
	_, err = uc.Upload(ctx, "big.csv", "", big)
	assert.ErrorIs(t, err, entity.ErrFileTooLarge)

	_, err = uc.Upload(ctx, "nohead.csv", "", []byte("1,2\n3,4\n"))
	assert.ErrorIs(t, err, entity.ErrMissingHeader)

	_, err = uc.Upload(ctx, "data.csv", ";;", []byte("a;b\n1;2\n"))
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestUploadExplicitDelimiter(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()

	meta, err := uc.Upload(ctx, "sales.csv", ";", []byte("col1;col2;country\n1;2;FR\n3;;US\n4;5;FR\n"))
	require.NoError(t, err)
	assert.Equal(t, ";", meta.Delimiter)
	assert.Equal(t, 3, meta.NbRows)
	assert.Equal(t, 3, meta.NbColumns)
	assert.Equal(t, 1, meta.MissingValuesCount["col2"])
}

func TestListNewestFirst(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()

	_, err := uc.Upload(ctx, "first.csv", "", []byte("a,b\nx,y\n"))
	require.NoError(t, err)
	_, err = uc.Upload(ctx, "second.csv", "", []byte("a,b\nx,y\n"))
	require.NoError(t, err)

	summaries, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
}

func TestPreviewLimit(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()

	meta, err := uc.Upload(ctx, "data.csv", "", []byte("id,v\n1,a\n2,b\n3,c\n4,d\n"))
	require.NoError(t, err)

	limit := 2
	preview, err := uc.Preview(ctx, meta.DatasetID, &limit)
	require.NoError(t, err)
	assert.Len(t, preview.Rows, 2)
	assert.Equal(t, int64(1), preview.Rows[0]["id"])
}

func TestQueryFiltersAndProjects(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()

	meta, err := uc.Upload(ctx, "data.csv", "", []byte("id,amount,country\n1,10,FR\n2,20,US\n3,30,FR\n"))
	require.NoError(t, err)

	resp, err := uc.Query(ctx, meta.DatasetID, &entity.DatasetQueryRequest{
		Columns: []string{"id", "amount"},
		Filters: map[string]any{"country": "FR"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Rows, 2)
	assert.Equal(t, []string{"id", "amount"}, resp.Columns)
	assert.Equal(t, int64(10), resp.Rows[0]["amount"])
	assert.NotContains(t, resp.Rows[0], "country")
}

func TestQueryNumericFilter(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()

	meta, err := uc.Upload(ctx, "data.csv", "", []byte("id,amount\n1,10\n2,20\n"))
	require.NoError(t, err)

	// JSON numbers decode as float64; they must match int64 cells.
	resp, err := uc.Query(ctx, meta.DatasetID, &entity.DatasetQueryRequest{
		Filters: map[string]any{"amount": float64(20)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, int64(2), resp.Rows[0]["id"])
}

func TestQueryUnknownColumn(t *testing.T) {
	uc, _ := newTestUsecase(t)
	ctx := context.Background()

	meta, err := uc.Upload(ctx, "data.csv", "", []byte("id\n1\n"))
	require.NoError(t, err)

	_, err = uc.Query(ctx, meta.DatasetID, &entity.DatasetQueryRequest{Columns: []string{"missing"}})
	assert.ErrorIs(t, err, entity.ErrUnknownColumn)

	_, err = uc.Query(ctx, meta.DatasetID, &entity.DatasetQueryRequest{Filters: map[string]any{"missing": 1}})
	assert.ErrorIs(t, err, entity.ErrUnknownColumn)
}

func TestDeleteAlsoDeindexes(t *testing.T) {
	uc, deindexer := newTestUsecase(t)
	ctx := context.Background()

	meta, err := uc.Upload(ctx, "data.csv", "", []byte("id\n1\n"))
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, meta.DatasetID))
	assert.Equal(t, []string{meta.DatasetID}, deindexer.deleted)

	_, err = uc.Get(ctx, meta.DatasetID)
	assert.ErrorIs(t, err, entity.ErrDatasetNotFound)
}
