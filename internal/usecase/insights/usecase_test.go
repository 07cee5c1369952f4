package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/config"
	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
	analysis "github.com/Ziad-epi/ai-data-copilot/internal/insights"
	"github.com/Ziad-epi/ai-data-copilot/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDatasetID = "3d7f1c9a-96d4-4b2e-8f0a-61f6a4f1f111"

type fakeGenerator struct {
	configured bool
	text       string
	err        error
	called     bool
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []entity.ChatMessage) (*entity.GenerationResult, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return &entity.GenerationResult{Text: f.text}, nil
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func insightsConfig() config.InsightsConfig {
	return config.InsightsConfig{
		SampleMax:        50000,
		MissingThreshold: 0.2,
		OutlierMethod:    "iqr",
		CacheTTL:         time.Minute,
	}
}

func newTestUsecase(t *testing.T, generator Generator) (*InsightsUsecase, repository.Store) {
	t.Helper()
	cfg := insightsConfig()
	store := repository.NewFilesystemStore(t.TempDir())
	uc := NewUsecase(
		store,
		analysis.NewAnalyzer(cfg),
		analysis.NewSuggester(config.ChartsConfig{MaxCharts: 3, MaxPoints: 50}),
		generator,
		cfg,
		zap.NewNop(),
	)
	return uc, store
}

func seedDataset(t *testing.T, store repository.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveRaw(ctx, testDatasetID, []byte("id,amount,region\n1,10,FR\n2,20,US\n3,30,FR\n")))
	require.NoError(t, store.SaveMetadata(ctx, &entity.DatasetMetadata{
		DatasetID: testDatasetID,
		Filename:  "sales.csv",
		NbRows:    3,
		NbColumns: 3,
		Columns:   []string{"id", "amount", "region"},
		Dtypes:    map[string]string{"id": "int64", "amount": "int64", "region": "object"},
		Delimiter: ",",
		CreatedAt: time.Now(),
	}))
}

func TestComputePersistsAndCaches(t *testing.T) {
	uc, store := newTestUsecase(t, &fakeGenerator{})
	seedDataset(t, store)
	ctx := context.Background()

	first, err := uc.Compute(ctx, testDatasetID, &entity.InsightsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, first.SampleRowsUsed)
	assert.Equal(t, entity.ColumnTypeNumeric, first.ColumnProfiles["amount"].Type)

	// The durable artifact exists now.
	stored, err := store.GetInsights(ctx, testDatasetID)
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt.Unix(), stored.GeneratedAt.Unix())

	// Cached reads return the same generation timestamp.
	second, err := uc.Compute(ctx, testDatasetID, &entity.InsightsRequest{})
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
}

func TestComputeForceRecompute(t *testing.T) {
	uc, store := newTestUsecase(t, &fakeGenerator{})
	seedDataset(t, store)
	ctx := context.Background()

	first, err := uc.Compute(ctx, testDatasetID, &entity.InsightsRequest{})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	second, err := uc.Compute(ctx, testDatasetID, &entity.InsightsRequest{ForceRecompute: true})
	require.NoError(t, err)
	assert.True(t, second.GeneratedAt.After(first.GeneratedAt))
}

func TestComputeCustomParamsNotCached(t *testing.T) {
	uc, store := newTestUsecase(t, &fakeGenerator{})
	seedDataset(t, store)
	ctx := context.Background()

	sample := 2
	custom, err := uc.Compute(ctx, testDatasetID, &entity.InsightsRequest{SampleRows: &sample})
	require.NoError(t, err)
	assert.Equal(t, 2, custom.SampleRowsUsed)

	// No artifact was stored for the parameterized run.
	_, err = store.GetInsights(ctx, testDatasetID)
	assert.ErrorIs(t, err, entity.ErrInsightsNotFound)
}

func TestComputeRejectsNonPositiveSampleRows(t *testing.T) {
	uc, store := newTestUsecase(t, &fakeGenerator{})
	seedDataset(t, store)
	ctx := context.Background()

	zero := 0
	_, err := uc.Compute(ctx, testDatasetID, &entity.InsightsRequest{SampleRows: &zero})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	negative := -1
	_, err = uc.Compute(ctx, testDatasetID, &entity.InsightsRequest{SampleRows: &negative})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestComputeUnknownDataset(t *testing.T) {
	uc, _ := newTestUsecase(t, &fakeGenerator{})

	_, err := uc.Compute(context.Background(), testDatasetID, &entity.InsightsRequest{})
	assert.ErrorIs(t, err, entity.ErrDatasetNotFound)
}

func TestSuggestCharts(t *testing.T) {
	uc, store := newTestUsecase(t, &fakeGenerator{})
	seedDataset(t, store)

	resp, err := uc.SuggestCharts(context.Background(), testDatasetID, &entity.ChartsSuggestRequest{})
	require.NoError(t, err)
	assert.Equal(t, testDatasetID, resp.DatasetID)
	assert.NotEmpty(t, resp.Charts)
}

func TestReportTemplateWithoutLLM(t *testing.T) {
	generator := &fakeGenerator{configured: false}
	uc, store := newTestUsecase(t, generator)
	seedDataset(t, store)

	report, err := uc.Report(context.Background(), testDatasetID)
	require.NoError(t, err)

	assert.False(t, report.UsedLLM)
	assert.False(t, generator.called)
	assert.Contains(t, report.ReportMarkdown, "# Dataset Report: sales.csv")
	assert.Contains(t, report.ReportMarkdown, "## Recommendations")
}

func TestReportUsesLLMWhenConfigured(t *testing.T) {
	generator := &fakeGenerator{configured: true, text: "# Executive Summary\nAll good."}
	uc, store := newTestUsecase(t, generator)
	seedDataset(t, store)

	report, err := uc.Report(context.Background(), testDatasetID)
	require.NoError(t, err)

	assert.True(t, report.UsedLLM)
	assert.Equal(t, "# Executive Summary\nAll good.", report.ReportMarkdown)
}

func TestReportFallsBackOnLLMFailure(t *testing.T) {
	generator := &fakeGenerator{configured: true, err: errors.New("provider down")}
	uc, store := newTestUsecase(t, generator)
	seedDataset(t, store)

	report, err := uc.Report(context.Background(), testDatasetID)
	require.NoError(t, err)

	assert.False(t, report.UsedLLM)
	assert.Contains(t, report.ReportMarkdown, "# Dataset Report: sales.csv")
}
